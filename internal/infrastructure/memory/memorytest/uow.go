package memorytest

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cobranza-api/internal/application/collections"
	"github.com/jhoicas/Cobranza-api/internal/domain"
	"github.com/jhoicas/Cobranza-api/internal/domain/entity"
	"github.com/jhoicas/Cobranza-api/internal/domain/repository"
)

// Begin abre una unidad de trabajo: lee del Ledger y acumula las escrituras de cobranza
// hasta Commit. Rollback las descarta.
func (l *Ledger) Begin(context.Context) (collections.UnitOfWork, error) {
	return &unitOfWork{l: l, states: map[string]pendingState{}}, nil
}

type pendingState struct {
	status  entity.LineStatus
	balance decimal.Decimal
	at      time.Time
}

type unitOfWork struct {
	l      *Ledger
	states map[string]pendingState
	order  []string
	logs   []*entity.CollectionLog
	done   bool
}

func (u *unitOfWork) Lines() repository.ServiceLineRepository { return &uowLines{lineRepo: lineRepo{l: u.l}, u: u} }
func (u *unitOfWork) Charges() repository.ChargeRepository    { return &chargeRepo{l: u.l} }
func (u *unitOfWork) Logs() repository.CollectionLogRepository {
	return &uowLogs{logRepo: logRepo{l: u.l}, u: u}
}

func (u *unitOfWork) Commit(context.Context) error {
	if u.done {
		return errClosed
	}
	u.l.mu.Lock()
	defer u.l.mu.Unlock()
	// Validar todo antes de aplicar: el commit es todo o nada.
	for _, id := range u.order {
		if _, ok := u.l.lines[id]; !ok {
			return domain.ErrNotFound
		}
	}
	for _, e := range u.logs {
		if _, ok := u.l.lines[e.ServiceLineID]; !ok {
			return domain.Invalid("service_line_id", "la línea no existe")
		}
	}
	for _, id := range u.order {
		st := u.states[id]
		_ = u.l.applyCollectionState(id, st.status, st.balance, st.at)
	}
	for _, e := range u.logs {
		u.l.logs = append(u.l.logs, clone(e))
	}
	u.done = true
	return nil
}

func (u *unitOfWork) Rollback(context.Context) error {
	u.done = true
	u.states = nil
	u.logs = nil
	return nil
}

type uowLines struct {
	lineRepo
	u *unitOfWork
}

func (r *uowLines) LockForCollection(ctx context.Context, id string) (*entity.ServiceLine, error) {
	line, err := r.lineRepo.GetByID(ctx, id)
	if err != nil || line == nil {
		return line, err
	}
	if st, ok := r.u.states[id]; ok {
		line.Status, line.OverdueBalance, line.UpdatedAt = st.status, st.balance, st.at
	}
	return line, nil
}

func (r *uowLines) UpdateCollectionState(_ context.Context, id string, status entity.LineStatus, balance decimal.Decimal, now time.Time) error {
	if r.u.done {
		return errClosed
	}
	if _, ok := r.u.states[id]; !ok {
		r.u.order = append(r.u.order, id)
	}
	r.u.states[id] = pendingState{status: status, balance: balance, at: now}
	return nil
}

type uowLogs struct {
	logRepo
	u *unitOfWork
}

func (r *uowLogs) Create(_ context.Context, entry *entity.CollectionLog) error {
	if r.u.done {
		return errClosed
	}
	r.u.l.mu.RLock()
	err := r.u.l.failLogs[entry.ServiceLineID]
	r.u.l.mu.RUnlock()
	if err != nil {
		return err
	}
	r.u.logs = append(r.u.logs, clone(entry))
	return nil
}
