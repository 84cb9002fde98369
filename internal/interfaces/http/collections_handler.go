package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cobranza-api/internal/application/collections"
	"github.com/jhoicas/Cobranza-api/internal/application/dto"
)

// CollectionsHandler disparo manual, estado de tareas y consulta del registro de cobranza.
type CollectionsHandler struct {
	dispatcher *collections.Dispatcher
	query      *collections.QueryService
}

// NewCollectionsHandler construye el handler.
func NewCollectionsHandler(dispatcher *collections.Dispatcher, query *collections.QueryService) *CollectionsHandler {
	return &CollectionsHandler{dispatcher: dispatcher, query: query}
}

// Run godoc
// @Summary      Encolar una corrida de control de morosidad (sólo admin)
// @Description  No espera la ejecución; el estado se consulta en /api/collections/tasks/{id}.
// @Tags         collections
// @Security     Bearer
// @Produce      json
// @Success      202  {object}  dto.RunAcceptedResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/collections/run [post]
func (h *CollectionsHandler) Run(c *fiber.Ctx) error {
	task, err := h.dispatcher.Enqueue(c.UserContext(), collections.SourceManual)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(dto.RunAcceptedResponse{Detail: "Tarea encolada.", TaskID: task.ID})
}

// Task godoc
// @Summary      Estado de una corrida encolada
// @Tags         collections
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la tarea"
// @Success      200  {object}  dto.RunTaskResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/collections/tasks/{id} [get]
func (h *CollectionsHandler) Task(c *fiber.Ctx) error {
	task, err := h.dispatcher.Task(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(collections.ToTaskResponse(task))
}

// Logs godoc
// @Summary      Registro de cobranza (más reciente primero)
// @Tags         collections
// @Security     Bearer
// @Produce      json
// @Param        service_line_id  query  string  false  "Línea"
// @Param        status           query  string  false  "SUCCESS, FAILED"
// @Param        action_taken     query  string  false  "NONE, SUSPEND, UNSUSPEND"
// @Param        limit            query  int     false  "Límite"  default(20)
// @Param        offset           query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.CollectionLogListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/collections/logs [get]
func (h *CollectionsHandler) Logs(c *fiber.Ctx) error {
	page, err := pageQuery(c)
	if err != nil {
		return badRequest(c, "INVALID_QUERY", err.Error())
	}
	lineID, err := idQuery(c, "service_line_id")
	if err != nil {
		return badRequest(c, "INVALID_QUERY", err.Error())
	}
	out, err := h.query.ListLogs(c.UserContext(), dto.CollectionLogQuery{
		ServiceLineID: lineID,
		Status:        c.Query("status"),
		ActionTaken:   c.Query("action_taken"),
		PageRequest:   page,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
