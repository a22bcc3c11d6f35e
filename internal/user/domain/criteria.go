package domain

import (
	"net/url"
	"strings"
	"time"
)

// Filtros predefinidos expresados en la sintaxis de la query string.

const dateLayout = "2006-01-02"

// AgeFilter restringe por edad cumplida en now. Un límite nil no se aplica.
func AgeFilter(minAge, maxAge *int, now time.Time) []string {
	var filters []string
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if minAge != nil {
		// Con minAge años cumplidos se nació como tarde hoy hace minAge años.
		filters = append(filters, "birthDate="+today.AddDate(-*minAge, 0, 0).Format(dateLayout)+"||lte")
	}
	if maxAge != nil {
		// Con maxAge años como mucho se nació después del día en que se cumplirían maxAge+1.
		// La clave en minúsculas evita que el tokenizer la fusione con la anterior;
		// el campo se resuelve igual.
		filters = append(filters, "birthdate="+today.AddDate(-*maxAge-1, 0, 0).Format(dateLayout)+"||gt")
	}
	return filters
}

// EmailFilter busca por email exacto, sin distinguir mayúsculas.
func EmailFilter(email string) string {
	return "email=" + url.QueryEscape(email) + "||eq"
}

// WithFilters añade filtros al final de raw. Con claves repetidas gana la última,
// así que el cliente no puede sustituirlos.
func WithFilters(raw string, filters ...string) string {
	parts := make([]string, 0, len(filters)+1)
	if raw != "" {
		parts = append(parts, raw)
	}
	parts = append(parts, filters...)
	return strings.Join(parts, "&")
}
