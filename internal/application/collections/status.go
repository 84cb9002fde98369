package collections

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Cobranza-api/internal/application/dto"
	"github.com/jhoicas/Cobranza-api/internal/domain"
	"github.com/jhoicas/Cobranza-api/internal/domain/entity"
	"github.com/jhoicas/Cobranza-api/internal/domain/repository"
)

// QueryService lecturas del estado de cobranza: resumen por línea y listado de logs.
type QueryService struct {
	lines   repository.ServiceLineRepository
	charges repository.ChargeRepository
	logs    repository.CollectionLogRepository
	window  int
	clock   func() time.Time
}

// NewQueryService construye el servicio. window es la cantidad de logs recientes del resumen.
func NewQueryService(
	lines repository.ServiceLineRepository,
	charges repository.ChargeRepository,
	logs repository.CollectionLogRepository,
	window int,
) *QueryService {
	if window <= 0 {
		window = 10
	}
	return &QueryService{lines: lines, charges: charges, logs: logs, window: window, clock: time.Now}
}

// LineStatus resumen de cobranza de una línea. El conteo de rubros vencidos es en vivo;
// el saldo es el último calculado por el proceso.
func (s *QueryService) LineStatus(ctx context.Context, lineID string) (*dto.LineCollectionStatusResponse, error) {
	line, err := s.lines.GetByID(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, domain.ErrNotFound
	}
	unpaid, err := s.charges.CountOverdueUnpaid(ctx, line.ID, s.clock())
	if err != nil {
		return nil, fmt.Errorf("contar rubros vencidos: %w", err)
	}
	recent, err := s.logs.ListRecentByLine(ctx, line.ID, s.window)
	if err != nil {
		return nil, fmt.Errorf("logs recientes: %w", err)
	}
	return &dto.LineCollectionStatusResponse{
		LineID:         line.ID,
		LineNumber:     line.LineNumber,
		Status:         string(line.Status),
		OverdueBalance: line.OverdueBalance,
		UnpaidCount:    unpaid,
		RecentLogs:     ToLogResponses(recent),
	}, nil
}

// ListLogs logs de cobranza filtrados por línea, resultado y acción, del más reciente al más antiguo.
func (s *QueryService) ListLogs(ctx context.Context, q dto.CollectionLogQuery) (*dto.CollectionLogListResponse, error) {
	q.DefaultPage()
	filter := repository.CollectionLogFilter{
		ServiceLineID: q.ServiceLineID,
		Page:          repository.Page{Limit: q.Limit, Offset: q.Offset},
	}
	if q.Status != "" {
		st := entity.LogStatus(q.Status)
		if !st.Valid() {
			return nil, domain.Invalid("status", "debe ser SUCCESS o FAILED")
		}
		filter.Status = st
	}
	if q.ActionTaken != "" {
		act := entity.CollectionAction(q.ActionTaken)
		if !act.Valid() {
			return nil, domain.Invalid("action_taken", "debe ser NONE, SUSPEND o UNSUSPEND")
		}
		filter.ActionTaken = act
	}
	list, total, err := s.logs.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &dto.CollectionLogListResponse{
		Items: ToLogResponses(list),
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset, Total: total},
	}, nil
}

// ToLogResponses convierte logs de dominio a DTO.
func ToLogResponses(list []*entity.CollectionLog) []*dto.CollectionLogResponse {
	out := make([]*dto.CollectionLogResponse, 0, len(list))
	for _, l := range list {
		r := &dto.CollectionLogResponse{
			ID:            l.ID,
			ServiceLineID: l.ServiceLineID,
			StartedAt:     l.StartedAt,
			FinishedAt:    l.FinishedAt,
			Status:        string(l.Status),
			UnpaidCount:   l.UnpaidCount,
			ActionTaken:   string(l.ActionTaken),
		}
		if l.ErrorMessage != "" {
			msg := l.ErrorMessage
			r.ErrorMessage = &msg
		}
		out = append(out, r)
	}
	return out
}
