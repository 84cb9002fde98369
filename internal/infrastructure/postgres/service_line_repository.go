package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cobranza-api/internal/domain"
	"github.com/jhoicas/Cobranza-api/internal/domain/entity"
	"github.com/jhoicas/Cobranza-api/internal/domain/repository"
)

var _ repository.ServiceLineRepository = (*ServiceLineRepo)(nil)

// ServiceLineRepo implementación de ServiceLineRepository (usable con pool o tx).
type ServiceLineRepo struct {
	q Querier
}

// NewServiceLineRepository construye el adaptador.
func NewServiceLineRepository(q Querier) *ServiceLineRepo {
	return &ServiceLineRepo{q: q}
}

const lineSelect = `
	SELECT l.id, l.customer_id, c.legal_name, l.line_number, l.status, l.installed_at,
	       l.overdue_balance, l.is_active, l.created_at, l.updated_at
	FROM service_lines l
	JOIN customers c ON c.id = l.customer_id`

func scanLine(row pgx.Row) (*entity.ServiceLine, error) {
	var l entity.ServiceLine
	var status string
	err := row.Scan(&l.ID, &l.CustomerID, &l.CustomerName, &l.LineNumber, &status, &l.InstalledAt,
		&l.OverdueBalance, &l.IsActive, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.Status = entity.LineStatus(status)
	return &l, nil
}

func (r *ServiceLineRepo) getOne(ctx context.Context, query, op string, args ...any) (*entity.ServiceLine, error) {
	l, err := scanLine(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if isMissing(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return l, nil
}

func (r *ServiceLineRepo) queryMany(ctx context.Context, query string, args ...any) ([]*entity.ServiceLine, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list service lines: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.ServiceLine, 0)
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service line: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// Create persiste una línea nueva.
func (r *ServiceLineRepo) Create(ctx context.Context, l *entity.ServiceLine) error {
	query := `
		INSERT INTO service_lines (id, customer_id, line_number, status, installed_at, overdue_balance, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.CustomerID, l.LineNumber, string(l.Status), l.InstalledAt, l.OverdueBalance, l.IsActive, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err, "insert service line", false)
	}
	return nil
}

// GetByID obtiene una línea con la razón social del cliente.
func (r *ServiceLineRepo) GetByID(ctx context.Context, id string) (*entity.ServiceLine, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.getOne(ctx, lineSelect+` WHERE l.id = $1`, "get service line", id)
}

// List filtra por cliente, estado y flag activo.
func (r *ServiceLineRepo) List(ctx context.Context, f repository.ServiceLineFilter) ([]*entity.ServiceLine, int, error) {
	var cond conditions
	if f.CustomerID != "" {
		if err := cond.addID(`l.customer_id = $%d`, "customer_id", f.CustomerID); err != nil {
			return nil, 0, err
		}
	}
	if f.Status != "" {
		cond.add(`l.status = $%d`, string(f.Status))
	}
	if f.IsActive != nil {
		cond.add(`l.is_active = $%d`, *f.IsActive)
	}
	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM service_lines l`+cond.where(), cond.args...).Scan(&total); err != nil {
		return nil, 0, mapReadError(err, "count service lines")
	}
	limit, args := cond.paginate(f.Page)
	list, err := r.queryMany(ctx, lineSelect+cond.where()+` ORDER BY c.search_name, l.line_number`+limit, args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Update escribe cliente, número, estado e instalación. overdue_balance no se toca.
func (r *ServiceLineRepo) Update(ctx context.Context, l *entity.ServiceLine) error {
	query := `
		UPDATE service_lines SET customer_id = $2, line_number = $3, status = $4, installed_at = $5, updated_at = $6
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, l.ID, l.CustomerID, l.LineNumber, string(l.Status), l.InstalledAt, l.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "update service line", false)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Deactivate eliminación lógica.
func (r *ServiceLineRepo) Deactivate(ctx context.Context, id string, now time.Time) error {
	tag, err := r.q.Exec(ctx, `UPDATE service_lines SET is_active = FALSE, updated_at = $2 WHERE id = $1`, id, now)
	if err != nil {
		return fmt.Errorf("deactivate service line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListManageable líneas activas en estado gestionable.
func (r *ServiceLineRepo) ListManageable(ctx context.Context) ([]*entity.ServiceLine, error) {
	skip := make([]string, 0, len(entity.UnmanageableLineStatuses))
	for _, s := range entity.UnmanageableLineStatuses {
		skip = append(skip, string(s))
	}
	return r.queryMany(ctx, lineSelect+` WHERE l.is_active AND l.status <> ALL($1) ORDER BY l.id`, skip)
}

// LockForCollection relee la línea con FOR UPDATE; requiere estar dentro de una transacción.
func (r *ServiceLineRepo) LockForCollection(ctx context.Context, id string) (*entity.ServiceLine, error) {
	return r.getOne(ctx, lineSelect+` WHERE l.id = $1 FOR UPDATE OF l`, "lock service line", id)
}

// UpdateCollectionState actualiza sólo estado, saldo vencido y updated_at.
func (r *ServiceLineRepo) UpdateCollectionState(ctx context.Context, id string, status entity.LineStatus, balance decimal.Decimal, now time.Time) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE service_lines SET status = $2, overdue_balance = $3, updated_at = $4 WHERE id = $1`,
		id, string(status), balance, now,
	)
	if err != nil {
		return fmt.Errorf("update collection state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
