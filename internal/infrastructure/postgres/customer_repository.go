package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Cobranza-api/internal/domain"
	"github.com/jhoicas/Cobranza-api/internal/domain/entity"
	"github.com/jhoicas/Cobranza-api/internal/domain/repository"
	"github.com/jhoicas/Cobranza-api/pkg/normalize"
)

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

// CustomerRepo implementación de CustomerRepository (usable con pool o tx).
type CustomerRepo struct {
	q Querier
}

// NewCustomerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

const customerColumns = `id, identification, legal_name, search_name, email, phone, is_active, created_at, updated_at`

func scanCustomer(row pgx.Row) (*entity.Customer, error) {
	var c entity.Customer
	err := row.Scan(&c.ID, &c.Identification, &c.LegalName, &c.SearchName, &c.Email, &c.Phone,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create persiste un nuevo cliente.
func (r *CustomerRepo) Create(ctx context.Context, c *entity.Customer) error {
	query := `INSERT INTO customers (` + customerColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.Identification, c.LegalName, c.SearchName, c.Email, c.Phone, c.IsActive, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err, "insert customer", false)
	}
	return nil
}

// GetByID obtiene un cliente por ID.
func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	if !validID(id) {
		return nil, nil
	}
	c, err := scanCustomer(r.q.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if err != nil {
		if isMissing(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// GetByIdentification obtiene un cliente por cédula/RUC.
func (r *CustomerRepo) GetByIdentification(ctx context.Context, identification string) (*entity.Customer, error) {
	c, err := scanCustomer(r.q.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE identification = $1`, identification))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer by identification: %w", err)
	}
	return c, nil
}

// List lista clientes ordenados por razón social, con total para paginación.
func (r *CustomerRepo) List(ctx context.Context, f repository.CustomerFilter) ([]*entity.Customer, int, error) {
	var cond conditions
	if f.Identification != "" {
		cond.add(`identification LIKE '%%' || $%d || '%%'`, f.Identification)
	}
	if key := normalize.SearchKey(f.LegalName); key != "" {
		cond.add(`search_name LIKE '%%' || $%d || '%%'`, key)
	}
	if f.IsActive != nil {
		cond.add(`is_active = $%d`, *f.IsActive)
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM customers`+cond.where(), cond.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}
	limit, args := cond.paginate(f.Page)
	rows, err := r.q.Query(ctx, `SELECT `+customerColumns+` FROM customers`+cond.where()+` ORDER BY search_name, id`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan customer: %w", err)
		}
		list = append(list, c)
	}
	return list, total, rows.Err()
}

// Update actualiza los datos del cliente (no el flag activo).
func (r *CustomerRepo) Update(ctx context.Context, c *entity.Customer) error {
	query := `
		UPDATE customers SET identification = $2, legal_name = $3, search_name = $4, email = $5, phone = $6, updated_at = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, c.ID, c.Identification, c.LegalName, c.SearchName, c.Email, c.Phone, c.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "update customer", false)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Deactivate eliminación lógica.
func (r *CustomerRepo) Deactivate(ctx context.Context, id string, now time.Time) error {
	tag, err := r.q.Exec(ctx, `UPDATE customers SET is_active = FALSE, updated_at = $2 WHERE id = $1`, id, now)
	if err != nil {
		return fmt.Errorf("deactivate customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
