package events

import (
	"encoding/json"
	"reflect"
	"time"
)

// IntegrationEvent es el sobre de todos los eventos que salen por el bus.
type IntegrationEvent struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	AggregateID string          `json:"aggregateId"`
	Timestamp   time.Time       `json:"timestamp"`
	Data        json.RawMessage `json:"data"` // contenido específico del evento
}

// PartitionKey mantiene en orden los eventos de un mismo agregado.
func (e IntegrationEvent) PartitionKey() string {
	return e.AggregateID
}

// EventMetadata indica cómo decodificar el payload de un tipo de evento y a qué
// topic publicarlo.
type EventMetadata struct {
	Type  reflect.Type
	Topic string
}

// Registry asocia cada tipo de evento con su metadata.
type Registry map[string]EventMetadata

// Merge une varios registros; en caso de colisión gana el último.
func Merge(registries ...Registry) Registry {
	out := make(Registry)
	for _, r := range registries {
		for k, v := range r {
			out[k] = v
		}
	}
	return out
}
