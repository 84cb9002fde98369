// Package memorytest implementa en memoria los puertos de persistencia y la unidad de trabajo.
// Es un doble para tests: permite forzar fallas por línea y no sobrevive a reinicios.
package memorytest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cobranza-api/internal/application/collections"
	"github.com/jhoicas/Cobranza-api/internal/domain"
	"github.com/jhoicas/Cobranza-api/internal/domain/entity"
	"github.com/jhoicas/Cobranza-api/internal/domain/repository"
	"github.com/jhoicas/Cobranza-api/pkg/normalize"
)

var _ collections.UnitOfWorkFactory = (*Ledger)(nil)

// Ledger almacén en memoria de clientes, líneas, rubros, logs y usuarios.
type Ledger struct {
	mu        sync.RWMutex
	customers map[string]*entity.Customer
	lines     map[string]*entity.ServiceLine
	charges   map[string]*entity.Charge
	logs      []*entity.CollectionLog
	users     map[string]*entity.User

	failCharges map[string]error // línea -> error forzado al leer sus rubros
	failLogs    map[string]error // línea -> error forzado al insertar su log en una unidad de trabajo
	failList    error
}

// NewLedger crea un almacén vacío.
func NewLedger() *Ledger {
	return &Ledger{
		customers:   map[string]*entity.Customer{},
		lines:       map[string]*entity.ServiceLine{},
		charges:     map[string]*entity.Charge{},
		users:       map[string]*entity.User{},
		failCharges: map[string]error{},
		failLogs:    map[string]error{},
	}
}

// FailChargesFor fuerza un error al consultar los rubros de lineID (nil lo quita).
func (l *Ledger) FailChargesFor(lineID string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err == nil {
		delete(l.failCharges, lineID)
		return
	}
	l.failCharges[lineID] = err
}

// FailLogInsertFor fuerza un error al insertar, dentro de una unidad de trabajo, el log de lineID.
func (l *Ledger) FailLogInsertFor(lineID string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err == nil {
		delete(l.failLogs, lineID)
		return
	}
	l.failLogs[lineID] = err
}

// FailListManageable fuerza un error en la selección de líneas.
func (l *Ledger) FailListManageable(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failList = err
}

// Customers repositorio de clientes.
func (l *Ledger) Customers() repository.CustomerRepository { return &customerRepo{l: l} }

// Lines repositorio de líneas.
func (l *Ledger) Lines() repository.ServiceLineRepository { return &lineRepo{l: l} }

// Charges repositorio de rubros.
func (l *Ledger) Charges() repository.ChargeRepository { return &chargeRepo{l: l} }

// Logs repositorio del log de cobranza.
func (l *Ledger) Logs() repository.CollectionLogRepository { return &logRepo{l: l} }

// Users repositorio de usuarios.
func (l *Ledger) Users() repository.UserRepository { return &userRepo{l: l} }

// Ping siempre responde; permite usar el Ledger como chequeo de salud de la base.
func (l *Ledger) Ping(context.Context) error { return nil }

func clone[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func page[T any](items []T, p repository.Page) []T {
	if p.Offset >= len(items) {
		return []T{}
	}
	items = items[p.Offset:]
	if p.Limit > 0 && p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}

// --- clientes ---

type customerRepo struct{ l *Ledger }

func (r *customerRepo) Create(_ context.Context, c *entity.Customer) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	for _, other := range r.l.customers {
		if other.Identification == c.Identification {
			return domain.ErrDuplicate
		}
	}
	r.l.customers[c.ID] = clone(c)
	return nil
}

func (r *customerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	return clone(r.l.customers[id]), nil
}

func (r *customerRepo) GetByIdentification(_ context.Context, identification string) (*entity.Customer, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	for _, c := range r.l.customers {
		if c.Identification == identification {
			return clone(c), nil
		}
	}
	return nil, nil
}

func (r *customerRepo) List(_ context.Context, f repository.CustomerFilter) ([]*entity.Customer, int, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	name := normalize.SearchKey(f.LegalName)
	var out []*entity.Customer
	for _, c := range r.l.customers {
		if f.Identification != "" && !strings.Contains(c.Identification, f.Identification) {
			continue
		}
		if name != "" && !strings.Contains(c.SearchName, name) {
			continue
		}
		if f.IsActive != nil && c.IsActive != *f.IsActive {
			continue
		}
		out = append(out, clone(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SearchName != out[j].SearchName {
			return out[i].SearchName < out[j].SearchName
		}
		return out[i].ID < out[j].ID
	})
	return page(out, f.Page), len(out), nil
}

func (r *customerRepo) Update(_ context.Context, c *entity.Customer) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	if _, ok := r.l.customers[c.ID]; !ok {
		return domain.ErrNotFound
	}
	for _, other := range r.l.customers {
		if other.ID != c.ID && other.Identification == c.Identification {
			return domain.ErrDuplicate
		}
	}
	r.l.customers[c.ID] = clone(c)
	return nil
}

func (r *customerRepo) Deactivate(_ context.Context, id string, now time.Time) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	c, ok := r.l.customers[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.IsActive = false
	c.UpdatedAt = now
	return nil
}

// --- líneas ---

type lineRepo struct{ l *Ledger }

// withCustomer completa CustomerName; requiere el lock tomado.
func (l *Ledger) withCustomer(line *entity.ServiceLine) *entity.ServiceLine {
	out := clone(line)
	if c, ok := l.customers[line.CustomerID]; ok {
		out.CustomerName = c.LegalName
	}
	return out
}

func (r *lineRepo) Create(_ context.Context, line *entity.ServiceLine) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	if _, ok := r.l.customers[line.CustomerID]; !ok {
		return domain.Invalid("customer_id", "el cliente no existe")
	}
	for _, other := range r.l.lines {
		if other.CustomerID == line.CustomerID && other.LineNumber == line.LineNumber {
			return domain.ErrDuplicate
		}
	}
	r.l.lines[line.ID] = clone(line)
	return nil
}

func (r *lineRepo) GetByID(_ context.Context, id string) (*entity.ServiceLine, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	line, ok := r.l.lines[id]
	if !ok {
		return nil, nil
	}
	return r.l.withCustomer(line), nil
}

func (r *lineRepo) List(_ context.Context, f repository.ServiceLineFilter) ([]*entity.ServiceLine, int, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	var out []*entity.ServiceLine
	for _, line := range r.l.lines {
		if f.CustomerID != "" && line.CustomerID != f.CustomerID {
			continue
		}
		if f.Status != "" && line.Status != f.Status {
			continue
		}
		if f.IsActive != nil && line.IsActive != *f.IsActive {
			continue
		}
		out = append(out, r.l.withCustomer(line))
	}
	sortLines(out)
	return page(out, f.Page), len(out), nil
}

func sortLines(out []*entity.ServiceLine) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].CustomerID != out[j].CustomerID {
			return out[i].CustomerID < out[j].CustomerID
		}
		return out[i].LineNumber < out[j].LineNumber
	})
}

func (r *lineRepo) Update(_ context.Context, line *entity.ServiceLine) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	cur, ok := r.l.lines[line.ID]
	if !ok {
		return domain.ErrNotFound
	}
	for _, other := range r.l.lines {
		if other.ID != line.ID && other.CustomerID == line.CustomerID && other.LineNumber == line.LineNumber {
			return domain.ErrDuplicate
		}
	}
	next := clone(line)
	next.OverdueBalance = cur.OverdueBalance
	next.CustomerName = ""
	r.l.lines[line.ID] = next
	return nil
}

func (r *lineRepo) Deactivate(_ context.Context, id string, now time.Time) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	line, ok := r.l.lines[id]
	if !ok {
		return domain.ErrNotFound
	}
	line.IsActive = false
	line.UpdatedAt = now
	return nil
}

func (r *lineRepo) ListManageable(_ context.Context) ([]*entity.ServiceLine, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	if r.l.failList != nil {
		return nil, r.l.failList
	}
	var out []*entity.ServiceLine
	for _, line := range r.l.lines {
		if line.IsActive && line.Status.Manageable() {
			out = append(out, r.l.withCustomer(line))
		}
	}
	sortLines(out)
	return out, nil
}

func (r *lineRepo) LockForCollection(ctx context.Context, id string) (*entity.ServiceLine, error) {
	return r.GetByID(ctx, id)
}

func (r *lineRepo) UpdateCollectionState(_ context.Context, id string, status entity.LineStatus, balance decimal.Decimal, now time.Time) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	return r.l.applyCollectionState(id, status, balance, now)
}

func (l *Ledger) applyCollectionState(id string, status entity.LineStatus, balance decimal.Decimal, now time.Time) error {
	line, ok := l.lines[id]
	if !ok {
		return domain.ErrNotFound
	}
	line.Status = status
	line.OverdueBalance = balance
	line.UpdatedAt = now
	return nil
}

// --- rubros ---

type chargeRepo struct{ l *Ledger }

func (r *chargeRepo) Create(_ context.Context, c *entity.Charge) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	if _, ok := r.l.lines[c.ServiceLineID]; !ok {
		return domain.Invalid("service_line_id", "la línea no existe")
	}
	if _, ok := r.l.charges[c.ID]; ok {
		return domain.ErrDuplicate
	}
	r.l.charges[c.ID] = clone(c)
	return nil
}

func (r *chargeRepo) GetByID(_ context.Context, id string) (*entity.Charge, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	return clone(r.l.charges[id]), nil
}

func (r *chargeRepo) List(_ context.Context, f repository.ChargeFilter) ([]*entity.Charge, int, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	var out []*entity.Charge
	for _, c := range r.l.charges {
		if f.ServiceLineID != "" && c.ServiceLineID != f.ServiceLineID {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		out = append(out, clone(c))
	}
	sortCharges(out)
	return page(out, f.Page), len(out), nil
}

func sortCharges(out []*entity.Charge) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.After(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
}

func (r *chargeRepo) Update(_ context.Context, c *entity.Charge) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	if _, ok := r.l.charges[c.ID]; !ok {
		return domain.ErrNotFound
	}
	r.l.charges[c.ID] = clone(c)
	return nil
}

func (r *chargeRepo) Delete(_ context.Context, id string) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	if _, ok := r.l.charges[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.l.charges, id)
	return nil
}

func (r *chargeRepo) ListOverdueUnpaid(_ context.Context, lineID string, before time.Time) ([]*entity.Charge, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	if err := r.l.failCharges[lineID]; err != nil {
		return nil, err
	}
	var out []*entity.Charge
	for _, c := range r.l.charges {
		if c.ServiceLineID == lineID && c.OverdueAt(before) {
			out = append(out, clone(c))
		}
	}
	sortCharges(out)
	return out, nil
}

func (r *chargeRepo) CountOverdueUnpaid(ctx context.Context, lineID string, before time.Time) (int, error) {
	list, err := r.ListOverdueUnpaid(ctx, lineID, before)
	return len(list), err
}

// --- log de cobranza ---

type logRepo struct{ l *Ledger }

func (r *logRepo) Create(_ context.Context, entry *entity.CollectionLog) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	return r.l.appendLog(entry)
}

func (l *Ledger) appendLog(entry *entity.CollectionLog) error {
	if _, ok := l.lines[entry.ServiceLineID]; !ok {
		return domain.Invalid("service_line_id", "la línea no existe")
	}
	for _, e := range l.logs {
		if e.ID == entry.ID {
			return domain.ErrDuplicate
		}
	}
	l.logs = append(l.logs, clone(entry))
	return nil
}

func (r *logRepo) ListRecentByLine(_ context.Context, lineID string, limit int) ([]*entity.CollectionLog, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	out := r.l.filterLogs(repository.CollectionLogFilter{ServiceLineID: lineID})
	return page(out, repository.Page{Limit: limit}), nil
}

func (r *logRepo) List(_ context.Context, f repository.CollectionLogFilter) ([]*entity.CollectionLog, int, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	out := r.l.filterLogs(f)
	return page(out, f.Page), len(out), nil
}

// filterLogs del más reciente al más antiguo; a igual started_at manda el orden de inserción.
func (l *Ledger) filterLogs(f repository.CollectionLogFilter) []*entity.CollectionLog {
	out := make([]*entity.CollectionLog, 0)
	for i := len(l.logs) - 1; i >= 0; i-- {
		e := l.logs[i]
		if f.ServiceLineID != "" && e.ServiceLineID != f.ServiceLineID {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if f.ActionTaken != "" && e.ActionTaken != f.ActionTaken {
			continue
		}
		out = append(out, clone(e))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}

// --- usuarios ---

type userRepo struct{ l *Ledger }

func (r *userRepo) Create(_ context.Context, u *entity.User) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	for _, other := range r.l.users {
		if strings.EqualFold(other.Email, u.Email) {
			return domain.ErrEmailAlreadyExists
		}
	}
	r.l.users[u.ID] = clone(u)
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	return clone(r.l.users[id]), nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	for _, u := range r.l.users {
		if strings.EqualFold(u.Email, email) {
			return clone(u), nil
		}
	}
	return nil, nil
}

var errClosed = errors.New("memory: unidad de trabajo cerrada")
