package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Cobranza-api/internal/domain"
	"github.com/jhoicas/Cobranza-api/internal/domain/entity"
	"github.com/jhoicas/Cobranza-api/internal/domain/repository"
)

var _ repository.ChargeRepository = (*ChargeRepo)(nil)

// ChargeRepo implementación de ChargeRepository (usable con pool o tx).
type ChargeRepo struct {
	q Querier
}

// NewChargeRepository construye el adaptador.
func NewChargeRepository(q Querier) *ChargeRepo {
	return &ChargeRepo{q: q}
}

const chargeColumns = `id, service_line_id, amount, status, issued_at, due_date, paid_at, created_at, updated_at`

func scanCharge(row pgx.Row) (*entity.Charge, error) {
	var c entity.Charge
	var status string
	err := row.Scan(&c.ID, &c.ServiceLineID, &c.Amount, &status, &c.IssuedAt, &c.DueDate, &c.PaidAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Status = entity.ChargeStatus(status)
	return &c, nil
}

func (r *ChargeRepo) queryMany(ctx context.Context, query string, args ...any) ([]*entity.Charge, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list charges: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Charge, 0)
	for rows.Next() {
		c, err := scanCharge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan charge: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// Create persiste un rubro.
func (r *ChargeRepo) Create(ctx context.Context, c *entity.Charge) error {
	query := `INSERT INTO charges (` + chargeColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.ServiceLineID, c.Amount, string(c.Status), c.IssuedAt, c.DueDate, c.PaidAt, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err, "insert charge", false)
	}
	return nil
}

// GetByID obtiene un rubro.
func (r *ChargeRepo) GetByID(ctx context.Context, id string) (*entity.Charge, error) {
	if !validID(id) {
		return nil, nil
	}
	c, err := scanCharge(r.q.QueryRow(ctx, `SELECT `+chargeColumns+` FROM charges WHERE id = $1`, id))
	if err != nil {
		if isMissing(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get charge: %w", err)
	}
	return c, nil
}

// List rubros por línea y estado, del vencimiento más reciente al más antiguo.
func (r *ChargeRepo) List(ctx context.Context, f repository.ChargeFilter) ([]*entity.Charge, int, error) {
	var cond conditions
	if f.ServiceLineID != "" {
		if err := cond.addID(`service_line_id = $%d`, "service_line_id", f.ServiceLineID); err != nil {
			return nil, 0, err
		}
	}
	if f.Status != "" {
		cond.add(`status = $%d`, string(f.Status))
	}
	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM charges`+cond.where(), cond.args...).Scan(&total); err != nil {
		return nil, 0, mapReadError(err, "count charges")
	}
	limit, args := cond.paginate(f.Page)
	list, err := r.queryMany(ctx, `SELECT `+chargeColumns+` FROM charges`+cond.where()+` ORDER BY due_date DESC, id`+limit, args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Update actualiza un rubro completo.
func (r *ChargeRepo) Update(ctx context.Context, c *entity.Charge) error {
	query := `
		UPDATE charges SET amount = $2, status = $3, issued_at = $4, due_date = $5, paid_at = $6, updated_at = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, c.ID, c.Amount, string(c.Status), c.IssuedAt, c.DueDate, c.PaidAt, c.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "update charge", false)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete borrado físico.
func (r *ChargeRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM charges WHERE id = $1`, id)
	if err != nil {
		return mapWriteError(err, "delete charge", true)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListOverdueUnpaid rubros UNPAID con due_date < before.
func (r *ChargeRepo) ListOverdueUnpaid(ctx context.Context, lineID string, before time.Time) ([]*entity.Charge, error) {
	return r.queryMany(ctx,
		`SELECT `+chargeColumns+` FROM charges WHERE service_line_id = $1 AND status = $2 AND due_date < $3 ORDER BY due_date`,
		lineID, string(entity.ChargeStatusUnpaid), before,
	)
}

// CountOverdueUnpaid cuenta rubros UNPAID con due_date < before.
func (r *ChargeRepo) CountOverdueUnpaid(ctx context.Context, lineID string, before time.Time) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM charges WHERE service_line_id = $1 AND status = $2 AND due_date < $3`,
		lineID, string(entity.ChargeStatusUnpaid), before,
	).Scan(&n)
	if err != nil {
		return 0, mapReadError(err, "count overdue charges")
	}
	return n, nil
}
