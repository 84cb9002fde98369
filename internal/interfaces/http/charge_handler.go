package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cobranza-api/internal/application/dto"
	"github.com/jhoicas/Cobranza-api/internal/application/usecase"
)

// ChargeHandler maneja los rubros facturados.
type ChargeHandler struct {
	uc *usecase.ChargeUseCase
}

// NewChargeHandler construye el handler.
func NewChargeHandler(uc *usecase.ChargeUseCase) *ChargeHandler {
	return &ChargeHandler{uc: uc}
}

// Create godoc
// @Summary      Crear rubro
// @Tags         charges
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateChargeRequest  true  "Datos del rubro"
// @Success      201   {object}  dto.ChargeResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/charges [post]
func (h *ChargeHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateChargeRequest
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
// @Summary      Listar rubros (por vencimiento descendente)
// @Tags         charges
// @Security     Bearer
// @Produce      json
// @Param        service_line_id  query  string  false  "Línea"
// @Param        status           query  string  false  "UNPAID, PAID, OVERDUE, VOID"
// @Param        limit            query  int     false  "Límite"  default(20)
// @Param        offset           query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.ChargeListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/charges [get]
func (h *ChargeHandler) List(c *fiber.Ctx) error {
	page, err := pageQuery(c)
	if err != nil {
		return badRequest(c, "INVALID_QUERY", err.Error())
	}
	lineID, err := idQuery(c, "service_line_id")
	if err != nil {
		return badRequest(c, "INVALID_QUERY", err.Error())
	}
	out, err := h.uc.List(c.UserContext(), dto.ChargeQuery{
		ServiceLineID: lineID,
		Status:        c.Query("status"),
		PageRequest:   page,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener rubro
// @Tags         charges
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del rubro"
// @Success      200  {object}  dto.ChargeResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/charges/{id} [get]
func (h *ChargeHandler) GetByID(c *fiber.Ctx) error {
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
// @Summary      Actualizar rubro (parcial)
// @Tags         charges
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID del rubro"
// @Param        body  body  dto.UpdateChargeRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.ChargeResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/charges/{id} [patch]
func (h *ChargeHandler) Update(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return respondError(c, err)
	}
	var in dto.UpdateChargeRequest
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
// @Summary      Eliminar rubro (sólo admin)
// @Tags         charges
// @Security     Bearer
// @Param        id   path  string  true  "ID del rubro"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/charges/{id} [delete]
func (h *ChargeHandler) Delete(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.uc.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
