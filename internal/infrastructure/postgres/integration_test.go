package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/Cobranza-api/internal/application/collections"
	"github.com/jhoicas/Cobranza-api/internal/domain"
	"github.com/jhoicas/Cobranza-api/internal/domain/entity"
	"github.com/jhoicas/Cobranza-api/internal/domain/repository"
	"github.com/jhoicas/Cobranza-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Cobranza-api/pkg/config"
)

// newTestPool levanta un PostgreSQL en contenedor y aplica las migraciones.
// Requiere Docker y COBRANZA_INTEGRATION=1.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() || os.Getenv("COBRANZA_INTEGRATION") == "" {
		t.Skip("integración deshabilitada (COBRANZA_INTEGRATION vacío o -short)")
	}
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("cobranza_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "no se pudo iniciar el contenedor PostgreSQL")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := postgres.NewMigrator(dsn, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestIntegration_CorridaDeCobranza(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	customers := postgres.NewCustomerRepository(pool)
	lines := postgres.NewServiceLineRepository(pool)
	charges := postgres.NewChargeRepository(pool)
	logs := postgres.NewCollectionLogRepository(pool)

	cust := &entity.Customer{
		ID: "11111111-1111-1111-1111-111111111111", Identification: "0903369387", LegalName: "José Núñez",
		IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	cust.Normalize()
	require.NoError(t, customers.Create(ctx, cust))

	mkLine := func(id string, n int, status entity.LineStatus) {
		require.NoError(t, lines.Create(ctx, &entity.ServiceLine{
			ID: id, CustomerID: cust.ID, LineNumber: n, Status: status,
			OverdueBalance: decimal.Zero, IsActive: true, CreatedAt: now, UpdatedAt: now,
		}))
	}
	debtorID := "22222222-2222-2222-2222-222222222221"
	suspendedID := "22222222-2222-2222-2222-222222222222"
	cancelledID := "22222222-2222-2222-2222-222222222223"
	mkLine(debtorID, 1, entity.LineStatusActive)
	mkLine(suspendedID, 2, entity.LineStatusSuspended)
	mkLine(cancelledID, 3, entity.LineStatusCancelled)

	for i, amount := range []string{"25.00", "75.00"} {
		require.NoError(t, charges.Create(ctx, &entity.Charge{
			ID:            []string{"33333333-3333-3333-3333-333333333331", "33333333-3333-3333-3333-333333333332"}[i],
			ServiceLineID: debtorID,
			Amount:        decimal.RequireFromString(amount),
			Status:        entity.ChargeStatusUnpaid,
			IssuedAt:      now.AddDate(0, -1, 0),
			DueDate:       now.AddDate(0, 0, -1),
			CreatedAt:     now, UpdatedAt: now,
		}))
	}

	coord := collections.NewCoordinator(lines, logs, postgres.NewTxRunner(pool))
	summary, err := coord.RunOnce(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)

	debtor, err := lines.GetByID(ctx, debtorID)
	require.NoError(t, err)
	assert.Equal(t, entity.LineStatusSuspended, debtor.Status)
	assert.Equal(t, "100.00", debtor.OverdueBalance.StringFixed(2))
	assert.Equal(t, "José Núñez", debtor.CustomerName)

	reactivated, err := lines.GetByID(ctx, suspendedID)
	require.NoError(t, err)
	assert.Equal(t, entity.LineStatusActive, reactivated.Status)

	_, err = coord.RunOnce(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	recent, err := logs.ListRecentByLine(ctx, debtorID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, entity.ActionNone, recent[0].ActionTaken)
	assert.Equal(t, entity.ActionSuspend, recent[1].ActionTaken)

	cancelledLogs, err := logs.ListRecentByLine(ctx, cancelledID, 10)
	require.NoError(t, err)
	assert.Empty(t, cancelledLogs)

	suspends, total, err := logs.List(ctx, repository.CollectionLogFilter{ActionTaken: entity.ActionSuspend, Page: repository.Page{Limit: 10}})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, suspends, 1)

	// El log es inmutable.
	_, err = pool.Exec(ctx, `UPDATE collection_logs SET status = 'FAILED'`)
	assert.Error(t, err)

	// Una línea con rubros no se puede borrar físicamente.
	_, err = pool.Exec(ctx, `DELETE FROM service_lines WHERE id = $1`, debtorID)
	assert.Error(t, err)

	count, err := charges.CountOverdueUnpaid(ctx, debtorID, now)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestIntegration_RestriccionesDeUnicidad(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	now := time.Now().UTC()
	customers := postgres.NewCustomerRepository(pool)
	lines := postgres.NewServiceLineRepository(pool)

	c := &entity.Customer{ID: "44444444-4444-4444-4444-444444444441", Identification: "0102030405", LegalName: "Uno", IsActive: true, CreatedAt: now, UpdatedAt: now}
	c.Normalize()
	require.NoError(t, customers.Create(ctx, c))
	dup := *c
	dup.ID = "44444444-4444-4444-4444-444444444442"
	assert.ErrorIs(t, customers.Create(ctx, &dup), domain.ErrDuplicate)

	line := &entity.ServiceLine{ID: "55555555-5555-5555-5555-555555555551", CustomerID: c.ID, LineNumber: 1, Status: entity.LineStatusActive, IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, lines.Create(ctx, line))
	line2 := *line
	line2.ID = "55555555-5555-5555-5555-555555555552"
	assert.ErrorIs(t, lines.Create(ctx, &line2), domain.ErrDuplicate)

	active := true
	found, total, err := customers.List(ctx, repository.CustomerFilter{LegalName: "UNO", IsActive: &active, Page: repository.Page{Limit: 5}})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, c.ID, found[0].ID)

	require.NoError(t, customers.Deactivate(ctx, c.ID, now))
	assert.ErrorIs(t, customers.Deactivate(ctx, "44444444-4444-4444-4444-444444444449", now), domain.ErrNotFound)
}

func TestIntegration_IdentificadoresMalFormados(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	customers := postgres.NewCustomerRepository(pool)
	lines := postgres.NewServiceLineRepository(pool)
	charges := postgres.NewChargeRepository(pool)
	logs := postgres.NewCollectionLogRepository(pool)

	c, err := customers.GetByID(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, c)
	l, err := lines.GetByID(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, l)
	ch, err := charges.GetByID(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, ch)

	_, _, err = logs.List(ctx, repository.CollectionLogFilter{ServiceLineID: "abc", Page: repository.Page{Limit: 5}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, _, err = charges.List(ctx, repository.ChargeFilter{ServiceLineID: "abc"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, _, err = lines.List(ctx, repository.ServiceLineFilter{CustomerID: "abc"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
