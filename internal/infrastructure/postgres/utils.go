package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/Cobranza-api/internal/domain"
	"github.com/jhoicas/Cobranza-api/internal/domain/repository"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return pgCode(err) == "23505"
}

// isForeignKeyViolation verifica si un error es una violación de FK (23503).
func isForeignKeyViolation(err error) bool {
	return pgCode(err) == "23503"
}

// isInvalidText verifica si un parámetro no tiene el formato de la columna (22P02), ej. un UUID mal formado.
func isInvalidText(err error) bool {
	return pgCode(err) == "22P02"
}

// isMissing indica que una búsqueda por clave no encontró fila. Una clave mal formada tampoco existe.
func isMissing(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || isInvalidText(err)
}

// validID indica si id puede ser una clave de las tablas (todas son UUID).
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// mapWriteError traduce errores de constraint a errores de dominio.
// En inserts una FK rota es una referencia inexistente; en deletes, registros dependientes.
func mapWriteError(err error, op string, deleting bool) error {
	switch {
	case isUniqueViolation(err):
		return domain.ErrDuplicate
	case isForeignKeyViolation(err) && deleting:
		return domain.ErrProtected
	case isForeignKeyViolation(err), isInvalidText(err):
		return fmt.Errorf("%s: %w", op, domain.ErrInvalidInput)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// mapReadError traduce filtros con formato inválido a ErrInvalidInput.
func mapReadError(err error, op string) error {
	if isInvalidText(err) {
		return fmt.Errorf("%s: %w", op, domain.ErrInvalidInput)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// conditions arma cláusulas WHERE con placeholders numerados.
type conditions struct {
	clauses []string
	args    []any
}

// add agrega expr, que debe contener un %d para el placeholder del argumento.
func (c *conditions) add(expr string, arg any) {
	c.args = append(c.args, arg)
	c.clauses = append(c.clauses, fmt.Sprintf(expr, len(c.args)))
}

// addID agrega un filtro por clave; un valor que no es UUID se rechaza como entrada inválida.
func (c *conditions) addID(expr, field, id string) error {
	if !validID(id) {
		return domain.Invalid(field, "identificador inválido")
	}
	c.add(expr, id)
	return nil
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// paginate agrega LIMIT/OFFSET como argumentos.
func (c *conditions) paginate(p repository.Page) (string, []any) {
	args := append([]any{}, c.args...)
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, p.Offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}
