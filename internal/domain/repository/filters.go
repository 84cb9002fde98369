package repository

import "github.com/jhoicas/Cobranza-api/internal/domain/entity"

// Page paginación común a los listados.
type Page struct {
	Limit  int
	Offset int
}

// CustomerFilter filtros del listado de clientes.
type CustomerFilter struct {
	Identification string // contiene
	LegalName      string // contiene, insensible a tildes y mayúsculas
	IsActive       *bool
	Page
}

// ServiceLineFilter filtros del listado de líneas.
type ServiceLineFilter struct {
	CustomerID string
	Status     entity.LineStatus
	IsActive   *bool
	Page
}

// ChargeFilter filtros del listado de rubros.
type ChargeFilter struct {
	ServiceLineID string
	Status        entity.ChargeStatus
	Page
}

// CollectionLogFilter filtros del listado de logs de cobranza.
type CollectionLogFilter struct {
	ServiceLineID string
	Status        entity.LogStatus
	ActionTaken   entity.CollectionAction
	Page
}
