package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CollectionLogResponse registro de cobranza en respuestas (sólo lectura).
type CollectionLogResponse struct {
	ID            string     `json:"id"`
	ServiceLineID string     `json:"service_line_id"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at"`
	Status        string     `json:"status"`
	UnpaidCount   int        `json:"unpaid_count"`
	ActionTaken   string     `json:"action_taken"`
	ErrorMessage  *string    `json:"error_message"`
}

// CollectionLogQuery filtros de GET /api/collections/logs.
type CollectionLogQuery struct {
	ServiceLineID string `query:"service_line_id"`
	Status        string `query:"status" validate:"omitempty,oneof=SUCCESS FAILED"`
	ActionTaken   string `query:"action_taken" validate:"omitempty,oneof=NONE SUSPEND UNSUSPEND"`
	PageRequest
}

// CollectionLogListResponse página de logs.
type CollectionLogListResponse struct {
	Items []*CollectionLogResponse `json:"items"`
	Page  PageResponse             `json:"page"`
}

// LineCollectionStatusResponse resumen de cobranza de una línea
// (GET /api/service-lines/:id/collection-status).
type LineCollectionStatusResponse struct {
	LineID         string                   `json:"line_id"`
	LineNumber     int                      `json:"line_number"`
	Status         string                   `json:"status"`
	OverdueBalance decimal.Decimal          `json:"overdue_balance"`
	UnpaidCount    int                      `json:"unpaid_count"`
	RecentLogs     []*CollectionLogResponse `json:"recent_logs"`
}

// RunAcceptedResponse respuesta 202 del disparo manual.
type RunAcceptedResponse struct {
	Detail string `json:"detail"`
	TaskID string `json:"task_id"`
}

// RunTaskResponse estado de una tarea de cobranza.
type RunTaskResponse struct {
	TaskID     string     `json:"task_id"`
	Source     string     `json:"source"`
	Status     string     `json:"status"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	RunAt      *time.Time `json:"run_at,omitempty"` // instante de evaluación de la corrida
	Processed  int        `json:"processed"`
	Failed     int        `json:"failed"`
	Error      string     `json:"error,omitempty"`
}
