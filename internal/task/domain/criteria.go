package domain

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Filtros predefinidos expresados en la sintaxis de la query string.

// AssigneeFilter restringe el listado a las tareas de un usuario.
func AssigneeFilter(id uuid.UUID) string {
	return "assigneeId=" + url.QueryEscape(id.String()) + "||eq"
}

// StatusFilter restringe el listado a uno o varios estados.
func StatusFilter(statuses ...TaskStatus) string {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	return "status=" + url.QueryEscape(strings.Join(values, "|")) + "||eq"
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
