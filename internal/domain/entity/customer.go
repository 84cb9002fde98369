package entity

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jhoicas/Cobranza-api/internal/domain"
	"github.com/jhoicas/Cobranza-api/pkg/normalize"
)

// Longitudes válidas de identificación: cédula (10) o RUC (13).
const (
	IdentificationCedulaLen = 10
	IdentificationRUCLen    = 13
)

// Customer representa un cliente titular de líneas de servicio.
// Nunca se borra físicamente: Deactivate pone IsActive en false.
type Customer struct {
	ID             string
	Identification string // cédula o RUC, sólo dígitos
	LegalName      string // razón social
	SearchName     string // clave normalizada de LegalName para búsquedas
	Email          string
	Phone          string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Normalize recorta espacios y recalcula la clave de búsqueda.
func (c *Customer) Normalize() {
	c.Identification = strings.TrimSpace(c.Identification)
	c.LegalName = strings.TrimSpace(c.LegalName)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.SearchName = normalize.SearchKey(c.LegalName)
}

// Validate aplica las reglas de escritura del cliente.
func (c *Customer) Validate() error {
	if err := ValidateIdentification(c.Identification); err != nil {
		return err
	}
	if c.LegalName == "" {
		return domain.Invalid("legal_name", "la razón social es requerida")
	}
	if utf8.RuneCountInString(c.LegalName) > 200 {
		return domain.Invalid("legal_name", "máximo 200 caracteres")
	}
	if utf8.RuneCountInString(c.Phone) > 15 {
		return domain.Invalid("phone", "máximo 15 caracteres")
	}
	return nil
}

// ValidateIdentification exige sólo dígitos y longitud 10 (cédula) o 13 (RUC).
func ValidateIdentification(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Invalid("identification", "la identificación es requerida")
	}
	if normalize.Digits(id) != id {
		return domain.Invalid("identification", "la identificación debe contener solo dígitos")
	}
	if len(id) != IdentificationCedulaLen && len(id) != IdentificationRUCLen {
		return domain.Invalid("identification", "la identificación debe tener 10 dígitos (cédula) o 13 (RUC)")
	}
	return nil
}
