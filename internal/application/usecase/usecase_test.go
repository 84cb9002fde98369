package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cobranza-api/internal/application/dto"
	"github.com/jhoicas/Cobranza-api/internal/application/usecase"
	"github.com/jhoicas/Cobranza-api/internal/domain"
	"github.com/jhoicas/Cobranza-api/internal/infrastructure/memory/memorytest"
)

func ptr[T any](v T) *T { return &v }

type suite struct {
	ledger    *memorytest.Ledger
	customers *usecase.CustomerUseCase
	lines     *usecase.ServiceLineUseCase
	charges   *usecase.ChargeUseCase
}

func newSuite() *suite {
	l := memorytest.NewLedger()
	return &suite{
		ledger:    l,
		customers: usecase.NewCustomerUseCase(l.Customers()),
		lines:     usecase.NewServiceLineUseCase(l.Lines(), l.Customers()),
		charges:   usecase.NewChargeUseCase(l.Charges(), l.Lines()),
	}
}

func (s *suite) customer(t *testing.T, id, name string) *dto.CustomerResponse {
	t.Helper()
	c, err := s.customers.Create(context.Background(), dto.CreateCustomerRequest{Identification: id, LegalName: name})
	require.NoError(t, err)
	return c
}

// ── clientes ──

func TestCustomer_CreateYGet(t *testing.T) {
	s := newSuite()
	c, err := s.customers.Create(context.Background(), dto.CreateCustomerRequest{
		Identification: " 0903369387 ", LegalName: "Test Corp S.A.", Email: "test@corp.com", Phone: "0999999999",
	})
	require.NoError(t, err)
	assert.Equal(t, "0903369387", c.Identification)
	assert.True(t, c.IsActive)

	got, err := s.customers.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Corp S.A.", got.LegalName)
}

func TestCustomer_IdentificacionInvalida(t *testing.T) {
	s := newSuite()
	for _, id := range []string{"123", "09033693870", "09O3369387", ""} {
		_, err := s.customers.Create(context.Background(), dto.CreateCustomerRequest{Identification: id, LegalName: "X"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "identificación %q", id)
	}
	_, err := s.customers.Create(context.Background(), dto.CreateCustomerRequest{Identification: "0992988061001", LegalName: "RUC S.A."})
	assert.NoError(t, err, "13 dígitos es un RUC válido")
}

func TestCustomer_IdentificacionDuplicada(t *testing.T) {
	s := newSuite()
	s.customer(t, "0903369387", "Uno")
	_, err := s.customers.Create(context.Background(), dto.CreateCustomerRequest{Identification: "0903369387", LegalName: "Otro"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "identification", verr.Field)
}

func TestCustomer_FiltroPorRazonSocial(t *testing.T) {
	s := newSuite()
	s.customer(t, "0903369387", "Claro Ecuador")
	s.customer(t, "0903369388", "CNT EP")
	s.customer(t, "0903369389", "Telefónica Ñandú")

	res, err := s.customers.List(context.Background(), dto.CustomerQuery{LegalName: "claro"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page.Total)

	res, err = s.customers.List(context.Background(), dto.CustomerQuery{LegalName: "TELEFONICA nandu"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page.Total, "búsqueda insensible a tildes")

	res, err = s.customers.List(context.Background(), dto.CustomerQuery{})
	require.NoError(t, err)
	require.Len(t, res.Items, 3)
	assert.Equal(t, "Claro Ecuador", res.Items[0].LegalName, "orden por razón social")
}

func TestCustomer_PatchParcial(t *testing.T) {
	s := newSuite()
	c := s.customer(t, "0903369387", "Viejo Nombre")
	got, err := s.customers.Update(context.Background(), c.ID, dto.UpdateCustomerRequest{LegalName: ptr("Nuevo Nombre")})
	require.NoError(t, err)
	assert.Equal(t, "Nuevo Nombre", got.LegalName)
	assert.Equal(t, "0903369387", got.Identification)
}

func TestCustomer_DeactivateDosVeces(t *testing.T) {
	s := newSuite()
	c := s.customer(t, "0903369387", "Uno")
	require.NoError(t, s.customers.Deactivate(context.Background(), c.ID))

	got, err := s.customers.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	assert.ErrorIs(t, s.customers.Deactivate(context.Background(), c.ID), domain.ErrAlreadyInactive)
	assert.ErrorIs(t, s.customers.Deactivate(context.Background(), "no-existe"), domain.ErrNotFound)
}

// ── líneas ──

func TestServiceLine_CreateYDuplicado(t *testing.T) {
	s := newSuite()
	c := s.customer(t, "0903369387", "Uno")
	line, err := s.lines.Create(context.Background(), dto.CreateServiceLineRequest{CustomerID: c.ID, LineNumber: 1, Status: "ACTIVE"})
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", line.Status)
	assert.True(t, line.OverdueBalance.IsZero())
	assert.Equal(t, "Uno", line.CustomerName)

	_, err = s.lines.Create(context.Background(), dto.CreateServiceLineRequest{CustomerID: c.ID, LineNumber: 1})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestServiceLine_EstadoPorDefecto(t *testing.T) {
	s := newSuite()
	c := s.customer(t, "0903369387", "Uno")
	line, err := s.lines.Create(context.Background(), dto.CreateServiceLineRequest{CustomerID: c.ID, LineNumber: 2})
	require.NoError(t, err)
	assert.Equal(t, "NOT_INSTALLED", line.Status)
}

func TestServiceLine_ClienteInactivo(t *testing.T) {
	s := newSuite()
	c := s.customer(t, "0903369387", "Uno")
	require.NoError(t, s.customers.Deactivate(context.Background(), c.ID))

	_, err := s.lines.Create(context.Background(), dto.CreateServiceLineRequest{CustomerID: c.ID, LineNumber: 1, Status: "ACTIVE"})
	assert.ErrorIs(t, err, domain.ErrInactiveCustomer)
}

func TestServiceLine_NoActivarConClienteInactivo(t *testing.T) {
	s := newSuite()
	c := s.customer(t, "0903369387", "Uno")
	line, err := s.lines.Create(context.Background(), dto.CreateServiceLineRequest{CustomerID: c.ID, LineNumber: 1})
	require.NoError(t, err)
	require.NoError(t, s.customers.Deactivate(context.Background(), c.ID))

	_, err = s.lines.Update(context.Background(), line.ID, dto.UpdateServiceLineRequest{Status: ptr("ACTIVE")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = s.lines.Update(context.Background(), line.ID, dto.UpdateServiceLineRequest{Status: ptr("CANCELLED")})
	assert.NoError(t, err)
}

func TestServiceLine_NumeroMenorAUno(t *testing.T) {
	s := newSuite()
	c := s.customer(t, "0903369387", "Uno")
	_, err := s.lines.Create(context.Background(), dto.CreateServiceLineRequest{CustomerID: c.ID, LineNumber: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestServiceLine_UpdateNoTocaSaldo(t *testing.T) {
	s := newSuite()
	c := s.customer(t, "0903369387", "Uno")
	line, err := s.lines.Create(context.Background(), dto.CreateServiceLineRequest{CustomerID: c.ID, LineNumber: 1, Status: "ACTIVE"})
	require.NoError(t, err)
	require.NoError(t, s.ledger.Lines().UpdateCollectionState(context.Background(), line.ID, "SUSPENDED", decimal.RequireFromString("42.00"), time.Now()))

	got, err := s.lines.Update(context.Background(), line.ID, dto.UpdateServiceLineRequest{InstalledAt: ptr(time.Now())})
	require.NoError(t, err)
	assert.Equal(t, "42.00", got.OverdueBalance.StringFixed(2))
}

func TestServiceLine_FiltroPorCliente(t *testing.T) {
	s := newSuite()
	c1 := s.customer(t, "0903369387", "Uno")
	c2 := s.customer(t, "0903369388", "Dos")
	for i, cid := range []string{c1.ID, c1.ID, c2.ID} {
		_, err := s.lines.Create(context.Background(), dto.CreateServiceLineRequest{CustomerID: cid, LineNumber: i + 1})
		require.NoError(t, err)
	}
	res, err := s.lines.List(context.Background(), dto.ServiceLineQuery{CustomerID: c1.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Page.Total)

	res, err = s.lines.List(context.Background(), dto.ServiceLineQuery{Status: "not_installed"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Page.Total, "el estado se compara sin mayúsculas")
}

func TestServiceLine_DeactivateDosVeces(t *testing.T) {
	s := newSuite()
	c := s.customer(t, "0903369387", "Uno")
	line, err := s.lines.Create(context.Background(), dto.CreateServiceLineRequest{CustomerID: c.ID, LineNumber: 1})
	require.NoError(t, err)
	require.NoError(t, s.lines.Deactivate(context.Background(), line.ID))
	assert.ErrorIs(t, s.lines.Deactivate(context.Background(), line.ID), domain.ErrAlreadyInactive)
}

// ── rubros ──

func TestCharge_CreateValidaFechasYValor(t *testing.T) {
	s := newSuite()
	c := s.customer(t, "0903369387", "Uno")
	line, err := s.lines.Create(context.Background(), dto.CreateServiceLineRequest{CustomerID: c.ID, LineNumber: 1})
	require.NoError(t, err)
	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	charge, err := s.charges.Create(context.Background(), dto.CreateChargeRequest{
		ServiceLineID: line.ID, Amount: decimal.RequireFromString("50.004"), IssuedAt: issued, DueDate: issued.AddDate(0, 1, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, "UNPAID", charge.Status)
	assert.Equal(t, "50.00", charge.Amount.StringFixed(2))

	_, err = s.charges.Create(context.Background(), dto.CreateChargeRequest{
		ServiceLineID: line.ID, Amount: decimal.RequireFromString("10"), IssuedAt: issued, DueDate: issued,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "vencimiento igual a la emisión")

	_, err = s.charges.Create(context.Background(), dto.CreateChargeRequest{
		ServiceLineID: line.ID, Amount: decimal.Zero, IssuedAt: issued, DueDate: issued.AddDate(0, 1, 0),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "valor cero")

	_, err = s.charges.Create(context.Background(), dto.CreateChargeRequest{
		ServiceLineID: "no-existe", Amount: decimal.RequireFromString("10"), IssuedAt: issued, DueDate: issued.AddDate(0, 1, 0),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCharge_UpdateYDelete(t *testing.T) {
	s := newSuite()
	c := s.customer(t, "0903369387", "Uno")
	line, err := s.lines.Create(context.Background(), dto.CreateServiceLineRequest{CustomerID: c.ID, LineNumber: 1})
	require.NoError(t, err)
	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	charge, err := s.charges.Create(context.Background(), dto.CreateChargeRequest{
		ServiceLineID: line.ID, Amount: decimal.RequireFromString("20"), IssuedAt: issued, DueDate: issued.AddDate(0, 1, 0),
	})
	require.NoError(t, err)

	paid := issued.AddDate(0, 0, 10)
	got, err := s.charges.Update(context.Background(), charge.ID, dto.UpdateChargeRequest{Status: ptr("PAID"), PaidAt: &paid})
	require.NoError(t, err)
	assert.Equal(t, "PAID", got.Status)

	_, err = s.charges.Update(context.Background(), charge.ID, dto.UpdateChargeRequest{DueDate: ptr(issued.AddDate(0, 0, -1))})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, s.charges.Delete(context.Background(), charge.ID))
	_, err = s.charges.Get(context.Background(), charge.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
