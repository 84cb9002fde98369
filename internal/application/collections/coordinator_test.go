package collections_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cobranza-api/internal/application/collections"
	"github.com/jhoicas/Cobranza-api/internal/domain/entity"
	"github.com/jhoicas/Cobranza-api/internal/domain/repository"
	"github.com/jhoicas/Cobranza-api/internal/infrastructure/memory/memorytest"
)

var runAt = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

// fixture ledger en memoria con un cliente activo.
type fixture struct {
	t      *testing.T
	ledger *memorytest.Ledger
	seq    int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{t: t, ledger: memorytest.NewLedger()}
	require.NoError(t, f.ledger.Customers().Create(context.Background(), &entity.Customer{
		ID: "cust-1", Identification: "0102030405", LegalName: "Cliente Uno", IsActive: true,
	}))
	return f
}

func (f *fixture) line(status entity.LineStatus, balance string) *entity.ServiceLine {
	f.t.Helper()
	f.seq++
	line := &entity.ServiceLine{
		ID:             fmt.Sprintf("line-%d", f.seq),
		CustomerID:     "cust-1",
		LineNumber:     f.seq,
		Status:         status,
		OverdueBalance: decimal.RequireFromString(balance),
		IsActive:       true,
	}
	require.NoError(f.t, f.ledger.Lines().Create(context.Background(), line))
	return line
}

func (f *fixture) charge(lineID, amount string, due time.Time, status entity.ChargeStatus) {
	f.t.Helper()
	f.seq++
	require.NoError(f.t, f.ledger.Charges().Create(context.Background(), &entity.Charge{
		ID:            fmt.Sprintf("charge-%d", f.seq),
		ServiceLineID: lineID,
		Amount:        decimal.RequireFromString(amount),
		Status:        status,
		IssuedAt:      due.AddDate(0, -1, 0),
		DueDate:       due,
	}))
}

func (f *fixture) coordinator() *collections.Coordinator {
	ids := 0
	return collections.NewCoordinator(
		f.ledger.Lines(), f.ledger.Logs(), f.ledger,
		collections.WithClock(func() time.Time { return runAt.Add(time.Second) }),
		collections.WithIDGenerator(func() string { ids++; return fmt.Sprintf("log-%d", ids) }),
	)
}

func (f *fixture) reload(id string) *entity.ServiceLine {
	f.t.Helper()
	line, err := f.ledger.Lines().GetByID(context.Background(), id)
	require.NoError(f.t, err)
	require.NotNil(f.t, line)
	return line
}

func (f *fixture) logs(lineID string) []*entity.CollectionLog {
	f.t.Helper()
	list, err := f.ledger.Logs().ListRecentByLine(context.Background(), lineID, 100)
	require.NoError(f.t, err)
	return list
}

func TestRunOnce_ActivaConRubroVencidoSeSuspende(t *testing.T) {
	f := newFixture(t)
	l := f.line(entity.LineStatusActive, "0")
	f.charge(l.ID, "50.00", runAt.AddDate(0, 0, -1), entity.ChargeStatusUnpaid)

	summary, err := f.coordinator().RunOnce(context.Background(), runAt)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Suspended)
	assert.Equal(t, runAt, summary.RunAt)

	got := f.reload(l.ID)
	assert.Equal(t, entity.LineStatusSuspended, got.Status)
	assert.True(t, got.OverdueBalance.Equal(decimal.RequireFromString("50.00")))
	assert.Equal(t, runAt, got.UpdatedAt)

	logs := f.logs(l.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, entity.ActionSuspend, logs[0].ActionTaken)
	assert.Equal(t, entity.LogStatusSuccess, logs[0].Status)
	assert.Equal(t, 1, logs[0].UnpaidCount)
	assert.Equal(t, runAt, logs[0].StartedAt)
	require.NotNil(t, logs[0].FinishedAt)
	assert.Empty(t, logs[0].ErrorMessage)
}

func TestRunOnce_SuspendidaSinRubrosSeReactiva(t *testing.T) {
	f := newFixture(t)
	l := f.line(entity.LineStatusSuspended, "30.00")

	summary, err := f.coordinator().RunOnce(context.Background(), runAt)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Reactivated)

	got := f.reload(l.ID)
	assert.Equal(t, entity.LineStatusActive, got.Status)
	assert.True(t, got.OverdueBalance.IsZero())

	logs := f.logs(l.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, entity.ActionUnsuspend, logs[0].ActionTaken)
	assert.Equal(t, 0, logs[0].UnpaidCount)
}

func TestRunOnce_SumaVariosRubrosVencidos(t *testing.T) {
	f := newFixture(t)
	l := f.line(entity.LineStatusActive, "0")
	f.charge(l.ID, "25.00", runAt.AddDate(0, 0, -3), entity.ChargeStatusUnpaid)
	f.charge(l.ID, "75.00", runAt.AddDate(0, 0, -1), entity.ChargeStatusUnpaid)

	_, err := f.coordinator().RunOnce(context.Background(), runAt)
	require.NoError(t, err)

	got := f.reload(l.ID)
	assert.Equal(t, entity.LineStatusSuspended, got.Status)
	assert.Equal(t, "100.00", got.OverdueBalance.StringFixed(2))
	assert.Equal(t, 2, f.logs(l.ID)[0].UnpaidCount)
}

func TestRunOnce_RubroFuturoNoSuspende(t *testing.T) {
	f := newFixture(t)
	l := f.line(entity.LineStatusActive, "0")
	f.charge(l.ID, "40.00", runAt.AddDate(0, 0, 10), entity.ChargeStatusUnpaid)

	_, err := f.coordinator().RunOnce(context.Background(), runAt)
	require.NoError(t, err)

	got := f.reload(l.ID)
	assert.Equal(t, entity.LineStatusActive, got.Status)
	assert.True(t, got.OverdueBalance.IsZero())
	assert.Equal(t, entity.ActionNone, f.logs(l.ID)[0].ActionTaken)
}

func TestRunOnce_SoloCuentanRubrosUnpaid(t *testing.T) {
	f := newFixture(t)
	l := f.line(entity.LineStatusActive, "0")
	yesterday := runAt.AddDate(0, 0, -1)
	f.charge(l.ID, "10.00", yesterday, entity.ChargeStatusPaid)
	f.charge(l.ID, "20.00", yesterday, entity.ChargeStatusVoid)
	f.charge(l.ID, "30.00", yesterday, entity.ChargeStatusOverdue)
	// Vence exactamente en el instante de la corrida: no es estrictamente anterior.
	f.charge(l.ID, "40.00", runAt, entity.ChargeStatusUnpaid)

	_, err := f.coordinator().RunOnce(context.Background(), runAt)
	require.NoError(t, err)

	got := f.reload(l.ID)
	assert.Equal(t, entity.LineStatusActive, got.Status)
	assert.True(t, got.OverdueBalance.IsZero())
}

func TestRunOnce_LineasNoGestionablesNoSeTocan(t *testing.T) {
	f := newFixture(t)
	notInstalled := f.line(entity.LineStatusNotInstalled, "12.00")
	cancelled := f.line(entity.LineStatusCancelled, "0")
	inactive := f.line(entity.LineStatusActive, "0")
	require.NoError(t, f.ledger.Lines().Deactivate(context.Background(), inactive.ID, runAt.AddDate(0, 0, -5)))
	for _, l := range []*entity.ServiceLine{notInstalled, cancelled, inactive} {
		f.charge(l.ID, "99.00", runAt.AddDate(0, 0, -1), entity.ChargeStatusUnpaid)
	}

	summary, err := f.coordinator().RunOnce(context.Background(), runAt)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Processed)

	assert.Equal(t, entity.LineStatusNotInstalled, f.reload(notInstalled.ID).Status)
	assert.Equal(t, "12.00", f.reload(notInstalled.ID).OverdueBalance.StringFixed(2))
	assert.Equal(t, entity.LineStatusCancelled, f.reload(cancelled.ID).Status)
	assert.True(t, f.reload(cancelled.ID).OverdueBalance.IsZero())
	assert.Equal(t, entity.LineStatusActive, f.reload(inactive.ID).Status)
	for _, l := range []*entity.ServiceLine{notInstalled, cancelled, inactive} {
		assert.Empty(t, f.logs(l.ID), "no debe haber logs para %s", l.ID)
	}
}

func TestRunOnce_IdempotenteDosCorridasDosLogs(t *testing.T) {
	f := newFixture(t)
	debtor := f.line(entity.LineStatusActive, "0")
	f.charge(debtor.ID, "50.00", runAt.AddDate(0, 0, -1), entity.ChargeStatusUnpaid)
	clean := f.line(entity.LineStatusActive, "0")

	coord := f.coordinator()
	_, err := coord.RunOnce(context.Background(), runAt)
	require.NoError(t, err)
	second := runAt.Add(5 * time.Minute)
	summary, err := coord.RunOnce(context.Background(), second)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 0, summary.Suspended)

	got := f.reload(debtor.ID)
	assert.Equal(t, entity.LineStatusSuspended, got.Status)
	assert.Equal(t, "50.00", got.OverdueBalance.StringFixed(2))
	// Sin cambios en la segunda corrida: updated_at queda en la primera.
	assert.Equal(t, runAt, got.UpdatedAt)

	logs := f.logs(debtor.ID)
	require.Len(t, logs, 2)
	assert.Equal(t, entity.ActionNone, logs[0].ActionTaken, "el más reciente primero")
	assert.Equal(t, second, logs[0].StartedAt)
	assert.Equal(t, entity.ActionSuspend, logs[1].ActionTaken)

	cleanLogs := f.logs(clean.ID)
	require.Len(t, cleanLogs, 2)
	for _, e := range cleanLogs {
		assert.Equal(t, entity.ActionNone, e.ActionTaken)
		assert.Equal(t, entity.LogStatusSuccess, e.Status)
	}
}

func TestRunOnce_SaldoSeRefrescaSinAccion(t *testing.T) {
	f := newFixture(t)
	l := f.line(entity.LineStatusSuspended, "10.00")
	f.charge(l.ID, "35.50", runAt.AddDate(0, 0, -2), entity.ChargeStatusUnpaid)

	_, err := f.coordinator().RunOnce(context.Background(), runAt)
	require.NoError(t, err)

	got := f.reload(l.ID)
	assert.Equal(t, entity.LineStatusSuspended, got.Status)
	assert.Equal(t, "35.50", got.OverdueBalance.StringFixed(2))
	assert.Equal(t, entity.ActionNone, f.logs(l.ID)[0].ActionTaken)
}

func TestRunOnce_FalloEnUnaLineaNoAfectaALasDemas(t *testing.T) {
	f := newFixture(t)
	broken := f.line(entity.LineStatusActive, "0")
	f.charge(broken.ID, "50.00", runAt.AddDate(0, 0, -1), entity.ChargeStatusUnpaid)
	ok1 := f.line(entity.LineStatusActive, "0")
	f.charge(ok1.ID, "20.00", runAt.AddDate(0, 0, -1), entity.ChargeStatusUnpaid)
	ok2 := f.line(entity.LineStatusSuspended, "5.00")
	f.ledger.FailChargesFor(broken.ID, errors.New("conexión perdida"))

	summary, err := f.coordinator().RunOnce(context.Background(), runAt)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, summary.Succeeded)

	brokenLogs := f.logs(broken.ID)
	require.Len(t, brokenLogs, 1)
	assert.Equal(t, entity.LogStatusFailed, brokenLogs[0].Status)
	assert.Equal(t, entity.ActionNone, brokenLogs[0].ActionTaken)
	assert.Contains(t, brokenLogs[0].ErrorMessage, "conexión perdida")
	require.NotNil(t, brokenLogs[0].FinishedAt)
	assert.Equal(t, entity.LineStatusActive, f.reload(broken.ID).Status)

	assert.Equal(t, entity.LineStatusSuspended, f.reload(ok1.ID).Status)
	assert.Equal(t, entity.LogStatusSuccess, f.logs(ok1.ID)[0].Status)
	assert.Equal(t, entity.LineStatusActive, f.reload(ok2.ID).Status)
	assert.Equal(t, entity.ActionUnsuspend, f.logs(ok2.ID)[0].ActionTaken)
}

func TestRunOnce_FalloAlRegistrarLogRevierteLaLinea(t *testing.T) {
	f := newFixture(t)
	l := f.line(entity.LineStatusActive, "0")
	f.charge(l.ID, "50.00", runAt.AddDate(0, 0, -1), entity.ChargeStatusUnpaid)
	f.ledger.FailLogInsertFor(l.ID, errors.New("disco lleno"))

	summary, err := f.coordinator().RunOnce(context.Background(), runAt)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)

	got := f.reload(l.ID)
	assert.Equal(t, entity.LineStatusActive, got.Status, "la suspensión se revierte con la unidad de trabajo")
	assert.True(t, got.OverdueBalance.IsZero())

	logs := f.logs(l.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, entity.LogStatusFailed, logs[0].Status)
	assert.Contains(t, logs[0].ErrorMessage, "disco lleno")
}

func TestRunOnce_ErrorAlListarLineas(t *testing.T) {
	f := newFixture(t)
	f.line(entity.LineStatusActive, "0")
	f.ledger.FailListManageable(errors.New("db caída"))

	summary, err := f.coordinator().RunOnce(context.Background(), runAt)
	require.Error(t, err)
	assert.Equal(t, 0, summary.Processed)
}

func TestRunOnce_ContextoCanceladoDetieneLaCorrida(t *testing.T) {
	f := newFixture(t)
	f.line(entity.LineStatusActive, "0")
	f.line(entity.LineStatusActive, "0")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := f.coordinator().RunOnce(ctx, runAt)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, summary.Processed)
}

// panicCharges provoca un panic al consultar rubros.
type panicCharges struct{ repository.ChargeRepository }

func (panicCharges) ListOverdueUnpaid(context.Context, string, time.Time) ([]*entity.Charge, error) {
	panic("índice fuera de rango")
}

type panicUoW struct{ collections.UnitOfWork }

func (u panicUoW) Charges() repository.ChargeRepository { return panicCharges{} }

type panicFactory struct{ inner collections.UnitOfWorkFactory }

func (p panicFactory) Begin(ctx context.Context) (collections.UnitOfWork, error) {
	u, err := p.inner.Begin(ctx)
	return panicUoW{u}, err
}

func TestRunOnce_PanicSeRegistraComoFallo(t *testing.T) {
	f := newFixture(t)
	l := f.line(entity.LineStatusActive, "0")

	coord := collections.NewCoordinator(f.ledger.Lines(), f.ledger.Logs(), panicFactory{f.ledger})
	summary, err := coord.RunOnce(context.Background(), runAt)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)

	logs := f.logs(l.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, entity.LogStatusFailed, logs[0].Status)
	assert.Contains(t, logs[0].ErrorMessage, "índice fuera de rango")
}
