package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Cobranza-api/internal/domain/entity"
	"github.com/jhoicas/Cobranza-api/internal/domain/repository"
)

var _ repository.CollectionLogRepository = (*CollectionLogRepo)(nil)

// CollectionLogRepo log de cobranza; sólo INSERT (un trigger rechaza UPDATE).
type CollectionLogRepo struct {
	q Querier
}

// NewCollectionLogRepository construye el adaptador.
func NewCollectionLogRepository(q Querier) *CollectionLogRepo {
	return &CollectionLogRepo{q: q}
}

const logColumns = `id, service_line_id, started_at, finished_at, status, unpaid_count, action_taken, error_message`

func scanLog(row pgx.Row) (*entity.CollectionLog, error) {
	var e entity.CollectionLog
	var status, action string
	var errMsg *string
	if err := row.Scan(&e.ID, &e.ServiceLineID, &e.StartedAt, &e.FinishedAt, &status, &e.UnpaidCount, &action, &errMsg); err != nil {
		return nil, err
	}
	e.Status = entity.LogStatus(status)
	e.ActionTaken = entity.CollectionAction(action)
	if errMsg != nil {
		e.ErrorMessage = *errMsg
	}
	return &e, nil
}

// Create inserta el registro ya finalizado.
func (r *CollectionLogRepo) Create(ctx context.Context, e *entity.CollectionLog) error {
	var errMsg *string
	if e.ErrorMessage != "" {
		errMsg = &e.ErrorMessage
	}
	_, err := r.q.Exec(ctx,
		`INSERT INTO collection_logs (`+logColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.ServiceLineID, e.StartedAt, e.FinishedAt, string(e.Status), e.UnpaidCount, string(e.ActionTaken), errMsg,
	)
	if err != nil {
		return mapWriteError(err, "insert collection log", false)
	}
	return nil
}

// ListRecentByLine últimos limit registros de la línea.
func (r *CollectionLogRepo) ListRecentByLine(ctx context.Context, lineID string, limit int) ([]*entity.CollectionLog, error) {
	return r.queryMany(ctx,
		`SELECT `+logColumns+` FROM collection_logs WHERE service_line_id = $1 ORDER BY started_at DESC, finished_at DESC NULLS LAST LIMIT $2`,
		lineID, limit,
	)
}

// List filtra por línea, resultado y acción, del más reciente al más antiguo.
func (r *CollectionLogRepo) List(ctx context.Context, f repository.CollectionLogFilter) ([]*entity.CollectionLog, int, error) {
	var cond conditions
	if f.ServiceLineID != "" {
		if err := cond.addID(`service_line_id = $%d`, "service_line_id", f.ServiceLineID); err != nil {
			return nil, 0, err
		}
	}
	if f.Status != "" {
		cond.add(`status = $%d`, string(f.Status))
	}
	if f.ActionTaken != "" {
		cond.add(`action_taken = $%d`, string(f.ActionTaken))
	}
	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM collection_logs`+cond.where(), cond.args...).Scan(&total); err != nil {
		return nil, 0, mapReadError(err, "count collection logs")
	}
	limit, args := cond.paginate(f.Page)
	list, err := r.queryMany(ctx,
		`SELECT `+logColumns+` FROM collection_logs`+cond.where()+` ORDER BY started_at DESC, finished_at DESC NULLS LAST`+limit,
		args...,
	)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *CollectionLogRepo) queryMany(ctx context.Context, query string, args ...any) ([]*entity.CollectionLog, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list collection logs: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.CollectionLog, 0)
	for rows.Next() {
		e, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan collection log: %w", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}
