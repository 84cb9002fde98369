package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger dependencia verificable por el healthcheck.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck componente revisado por /health. Un Pinger nil se reporta "disabled".
type HealthCheck struct {
	Name   string
	Pinger Pinger
}

// HealthHandler reporta el estado de la base de datos y Redis.
type HealthHandler struct {
	service string
	checks  []HealthCheck
	timeout time.Duration
}

// NewHealthHandler construye el handler.
func NewHealthHandler(service string, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{service: service, checks: checks, timeout: 2 * time.Second}
}

// Health godoc
// @Summary      Healthcheck
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	body := fiber.Map{"service": h.service}
	status := "ok"
	for _, check := range h.checks {
		if check.Pinger == nil {
			body[check.Name] = "disabled"
			continue
		}
		if err := check.Pinger.Ping(ctx); err != nil {
			body[check.Name] = err.Error()
			status = "degraded"
			continue
		}
		body[check.Name] = "ok"
	}
	body["status"] = status
	if status != "ok" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(body)
	}
	return c.JSON(body)
}
