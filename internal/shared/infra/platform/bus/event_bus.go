package bus

import "context"

// Keyer lo implementan los eventos que fijan su clave de partición.
type Keyer interface {
	PartitionKey() string
}

// EventBus publica un evento en un topic. El formato del payload lo decide el adapter.
type EventBus interface {
	Publish(ctx context.Context, topic string, event interface{}) error
}

// MessageHandler recibe los mensajes ya leídos del broker.
type MessageHandler interface {
	HandleMessage(ctx context.Context, key string, payload []byte)
}

// Message es lo que entregan los buses en memoria a sus suscriptores.
type Message struct {
	Key   string
	Value []byte
}
