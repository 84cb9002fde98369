package repository

import (
	"context"

	"github.com/jhoicas/Cobranza-api/internal/domain/entity"
)

// CollectionLogRepository puerto del log de cobranza. Sólo inserta: no hay Update ni Delete.
type CollectionLogRepository interface {
	Create(ctx context.Context, entry *entity.CollectionLog) error
	// ListRecentByLine devuelve hasta limit registros de la línea, del más reciente al más antiguo.
	ListRecentByLine(ctx context.Context, lineID string, limit int) ([]*entity.CollectionLog, error)
	List(ctx context.Context, filter CollectionLogFilter) ([]*entity.CollectionLog, int, error)
}
