package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	goredis "github.com/redis/go-redis/v9"

	_ "github.com/jhoicas/Cobranza-api/docs"
	"github.com/jhoicas/Cobranza-api/internal/application/auth"
	"github.com/jhoicas/Cobranza-api/internal/application/collections"
	"github.com/jhoicas/Cobranza-api/internal/application/usecase"
	"github.com/jhoicas/Cobranza-api/internal/infrastructure/memory"
	"github.com/jhoicas/Cobranza-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Cobranza-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/Cobranza-api/internal/infrastructure/redis"
	"github.com/jhoicas/Cobranza-api/internal/infrastructure/scheduler"
	httpRouter "github.com/jhoicas/Cobranza-api/internal/interfaces/http"
	"github.com/jhoicas/Cobranza-api/pkg/config"
	"github.com/jhoicas/Cobranza-api/pkg/logger"
)

// @title                       Cobranza API
// @version                     1.0
// @description                 Back-office de clientes, líneas, rubros y control de morosidad.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()

	if cfg.DB.AutoMigrate {
		migrator, err := postgres.NewMigrator(cfg.DB.ConnectionString(), log.Component("migrate"))
		if err != nil {
			log.Fatal().Err(err).Msg("preparar migraciones")
		}
		if err := migrator.Up(); err != nil {
			log.Fatal().Err(err).Msg("aplicar migraciones")
		}
		migrator.Close()
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	lineRepo := postgres.NewServiceLineRepository(pool)
	chargeRepo := postgres.NewChargeRepository(pool)
	logRepo := postgres.NewCollectionLogRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	if cfg.Admin.Email != "" {
		created, err := authUC.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			log.Fatal().Err(err).Msg("crear administrador inicial")
		}
		if created {
			log.Info().Str("email", cfg.Admin.Email).Msg("administrador inicial creado")
		}
	}

	coordOpts := []collections.Option{collections.WithLogger(log.Component("coordinator"))}
	dispatchDeps := collections.DispatcherDeps{Logger: log.Component("dispatcher")}
	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(true)
		coordOpts = append(coordOpts, collections.WithRecorder(collector))
		dispatchDeps.Recorder = collector
	}
	coordinator := collections.NewCoordinator(lineRepo, logRepo, txRunner, coordOpts...)
	dispatchDeps.Runner = coordinator

	// Cola, estado de tareas y lock: Redis si está configurado; si no, en memoria (una sola instancia).
	var redisClient *goredis.Client
	redisHealth := httpRouter.HealthCheck{Name: "redis"}
	if cfg.Redis.Enabled() {
		redisClient, err = infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer redisClient.Close()
		dispatchDeps.Queue = infraredis.NewQueue(redisClient, cfg.Collections.QueueKey)
		dispatchDeps.Store = infraredis.NewTaskStore(redisClient, cfg.Collections.QueueKey+":task:", cfg.Collections.TaskTTL)
		dispatchDeps.Lock = infraredis.NewLock(redisClient, cfg.Collections.QueueKey+":lock", cfg.Collections.LockTTL, log.Component("run-lock"))
		redisHealth.Pinger = infraredis.Health{Client: redisClient}
	} else {
		log.Warn().Msg("REDIS_ADDR vacío: cola y lock de corridas en memoria")
		dispatchDeps.Queue = memory.NewQueue(0)
		dispatchDeps.Store = memory.NewTaskStore(cfg.Collections.TaskTTL)
		dispatchDeps.Lock = memory.NewLock()
	}
	dispatcher := collections.NewDispatcher(dispatchDeps)
	query := collections.NewQueryService(lineRepo, chargeRepo, logRepo, cfg.Collections.LogWindow)

	workersCtx, stopWorkers := context.WithCancel(ctx)
	workersDone := make(chan struct{})
	go func() {
		defer close(workersDone)
		dispatcher.Serve(workersCtx, cfg.Collections.Workers)
	}()

	var sched *scheduler.Scheduler
	if cfg.Collections.Enabled {
		sched, err = scheduler.New(cfg.Collections.Schedule, dispatcher, log.Component("scheduler"))
		if err != nil {
			log.Fatal().Err(err).Msg("programar control de morosidad")
		}
		sched.Start()
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(requestid.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Cobranza API",
	}))

	deps := httpRouter.RouterDeps{
		AuthUC:        authUC,
		CustomerUC:    usecase.NewCustomerUseCase(customerRepo),
		ServiceLineUC: usecase.NewServiceLineUseCase(lineRepo, customerRepo),
		ChargeUC:      usecase.NewChargeUseCase(chargeRepo, lineRepo),
		Dispatcher:    dispatcher,
		Query:         query,
		Health:        httpRouter.NewHealthHandler(cfg.App.Name, httpRouter.HealthCheck{Name: "db", Pinger: pool}, redisHealth),
		JWTSecret:     cfg.JWT.Secret,
	}
	if collector != nil {
		deps.Metrics = collector.Handler()
		deps.MetricsPath = cfg.Metrics.Path
	}
	httpRouter.Router(app, deps)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("corrida periódica interrumpida")
		}
	}
	stopWorkers()
	select {
	case <-workersDone:
	case <-shutdownCtx.Done():
		log.Error().Msg("los workers de cobranza no terminaron a tiempo")
	}

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
