package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cobranza-api/internal/application/auth"
	"github.com/jhoicas/Cobranza-api/internal/application/collections"
	"github.com/jhoicas/Cobranza-api/internal/application/usecase"
	"github.com/jhoicas/Cobranza-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC        *auth.AuthUseCase
	CustomerUC    *usecase.CustomerUseCase
	ServiceLineUC *usecase.ServiceLineUseCase
	ChargeUC      *usecase.ChargeUseCase
	Dispatcher    *collections.Dispatcher
	Query         *collections.QueryService
	Health        *HealthHandler
	Metrics       fiber.Handler // nil = sin /metrics
	MetricsPath   string
	JWTSecret     string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Health != nil {
		app.Get("/health", deps.Health.Health)
	}
	if deps.Metrics != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, deps.Metrics)
	}

	api := app.Group("/api")
	adminOnly := RequireRole(entity.RoleAdmin)
	anyRole := RequireRole(entity.RoleAdmin, entity.RoleOperator)
	requireAuth := AuthMiddleware(deps.JWTSecret)

	// Auth: login público; el alta de usuarios la hace un admin.
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup := api.Group("/auth")
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/register", requireAuth, adminOnly, authHandler.Register)
	authGroup.Get("/me", requireAuth, anyRole, authHandler.Me)
	authGroup.Post("/refresh", requireAuth, anyRole, authHandler.Refresh)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("", requireAuth, anyRole)

	customers := protected.Group("/customers")
	customerHandler := NewCustomerHandler(deps.CustomerUC)
	customers.Post("/", customerHandler.Create)
	customers.Get("/", customerHandler.List)
	customers.Get("/:id", customerHandler.GetByID)
	customers.Patch("/:id", customerHandler.Update)
	customers.Delete("/:id", adminOnly, customerHandler.Delete)

	lines := protected.Group("/service-lines")
	lineHandler := NewServiceLineHandler(deps.ServiceLineUC, deps.Query)
	lines.Post("/", lineHandler.Create)
	lines.Get("/", lineHandler.List)
	lines.Get("/:id", lineHandler.GetByID)
	lines.Get("/:id/collection-status", lineHandler.CollectionStatus)
	lines.Patch("/:id", lineHandler.Update)
	lines.Delete("/:id", adminOnly, lineHandler.Delete)

	charges := protected.Group("/charges")
	chargeHandler := NewChargeHandler(deps.ChargeUC)
	charges.Post("/", chargeHandler.Create)
	charges.Get("/", chargeHandler.List)
	charges.Get("/:id", chargeHandler.GetByID)
	charges.Patch("/:id", chargeHandler.Update)
	charges.Delete("/:id", adminOnly, chargeHandler.Delete)

	// Cobranza: el disparo manual es de admin; logs y tareas son de lectura.
	coll := protected.Group("/collections")
	collHandler := NewCollectionsHandler(deps.Dispatcher, deps.Query)
	coll.Post("/run", adminOnly, collHandler.Run)
	coll.Get("/tasks/:id", collHandler.Task)
	coll.Get("/logs", collHandler.Logs)
}
