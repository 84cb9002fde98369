package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cobranza-api/internal/application/collections"
	"github.com/jhoicas/Cobranza-api/internal/application/dto"
	"github.com/jhoicas/Cobranza-api/internal/application/usecase"
)

// ServiceLineHandler maneja las líneas de servicio y su resumen de cobranza.
type ServiceLineHandler struct {
	uc     *usecase.ServiceLineUseCase
	status *collections.QueryService
}

// NewServiceLineHandler construye el handler.
func NewServiceLineHandler(uc *usecase.ServiceLineUseCase, status *collections.QueryService) *ServiceLineHandler {
	return &ServiceLineHandler{uc: uc, status: status}
}

// Create godoc
// @Summary      Crear línea de servicio
// @Tags         service-lines
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateServiceLineRequest  true  "Datos de la línea"
// @Success      201   {object}  dto.ServiceLineResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/service-lines [post]
func (h *ServiceLineHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateServiceLineRequest
	if ok, err := bindBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar líneas
// @Tags         service-lines
// @Security     Bearer
// @Produce      json
// @Param        customer_id  query  string  false  "Cliente"
// @Param        status       query  string  false  "NOT_INSTALLED, ACTIVE, SUSPENDED, CANCELLED"
// @Param        is_active    query  bool    false  "Activa"
// @Param        limit        query  int     false  "Límite"  default(20)
// @Param        offset       query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.ServiceLineListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/service-lines [get]
func (h *ServiceLineHandler) List(c *fiber.Ctx) error {
	page, err := pageQuery(c)
	if err != nil {
		return badRequest(c, "INVALID_QUERY", err.Error())
	}
	customerID, err := idQuery(c, "customer_id")
	if err != nil {
		return badRequest(c, "INVALID_QUERY", err.Error())
	}
	active, err := boolQuery(c, "is_active")
	if err != nil {
		return badRequest(c, "INVALID_QUERY", err.Error())
	}
	out, err := h.uc.List(c.UserContext(), dto.ServiceLineQuery{
		CustomerID:  customerID,
		Status:      c.Query("status"),
		IsActive:    active,
		PageRequest: page,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener línea
// @Tags         service-lines
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la línea"
// @Success      200  {object}  dto.ServiceLineResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/service-lines/{id} [get]
func (h *ServiceLineHandler) GetByID(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar línea (parcial; overdue_balance es de sólo lectura)
// @Tags         service-lines
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                        true  "ID de la línea"
// @Param        body  body  dto.UpdateServiceLineRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.ServiceLineResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/service-lines/{id} [patch]
func (h *ServiceLineHandler) Update(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return respondError(c, err)
	}
	var in dto.UpdateServiceLineRequest
	if ok, err := bindBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.Update(c.UserContext(), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Desactivar línea (sólo admin)
// @Tags         service-lines
// @Security     Bearer
// @Param        id   path  string  true  "ID de la línea"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/service-lines/{id} [delete]
func (h *ServiceLineHandler) Delete(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.uc.Deactivate(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CollectionStatus godoc
// @Summary      Resumen de cobranza de la línea
// @Description  Estado, saldo vencido, rubros impagos vencidos al momento y últimos registros de cobranza.
// @Tags         service-lines
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la línea"
// @Success      200  {object}  dto.LineCollectionStatusResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/service-lines/{id}/collection-status [get]
func (h *ServiceLineHandler) CollectionStatus(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.status.LineStatus(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
