// Package normalize prepara textos para búsqueda: sin tildes, sin mayúsculas y con espacios colapsados.
// La razón social se guarda tal cual; la clave de búsqueda se persiste aparte.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SearchKey devuelve la forma canónica de s para comparaciones "contiene" insensibles a tildes y mayúsculas.
// "  José  NÚÑEZ " -> "jose nunez".
func SearchKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(strings.Join(strings.Fields(out), " "))
}

// Digits conserva únicamente los dígitos de s.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
