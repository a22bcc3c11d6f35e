package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	sharedBus "github.com/davicafu/hexaquery/internal/shared/infra/platform/bus"
)

var ErrBusClosed = errors.New("event bus closed")

// InMemoryEventBus es un bus por topics dentro del proceso. Sustituye a Kafka en
// local y en los tests.
type InMemoryEventBus struct {
	subscribers map[string][]chan sharedBus.Message
	mu          sync.RWMutex
	closed      bool
}

var _ sharedBus.EventBus = (*InMemoryEventBus)(nil)

func NewInMemoryEventBus() *InMemoryEventBus {
	return &InMemoryEventBus{subscribers: make(map[string][]chan sharedBus.Message)}
}

// Publish serializa el evento y lo entrega a cada suscriptor del topic. Si un
// buffer está lleno espera hasta que haya hueco o se cancele ctx.
func (b *InMemoryEventBus) Publish(ctx context.Context, topic string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := sharedBus.Message{Value: payload}
	if keyer, ok := event.(sharedBus.Keyer); ok {
		msg.Key = keyer.PartitionKey()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	for _, sub := range b.subscribers[topic] {
		select {
		case sub <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribe registra un oyente en topic. El canal se cierra con Close.
func (b *InMemoryEventBus) Subscribe(topic string, bufferSize int) <-chan sharedBus.Message {
	return b.subscribe(topic, bufferSize)
}

func (b *InMemoryEventBus) subscribe(topic string, bufferSize int) chan sharedBus.Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan sharedBus.Message, bufferSize)
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	return ch
}

// Consume suscribe handler a topic y procesa los mensajes en una goroutine
// hasta que se cancela ctx o se cierra el bus.
func (b *InMemoryEventBus) Consume(ctx context.Context, topic string, bufferSize int, handler sharedBus.MessageHandler) {
	ch := b.subscribe(topic, bufferSize)
	go func() {
		for {
			select {
			case <-ctx.Done():
				// Se vacía el canal mientras se da de baja para no dejar a un
				// Publish bloqueado con el lock tomado.
				go b.unsubscribe(topic, ch)
				for range ch {
				}
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handler.HandleMessage(ctx, msg.Key, msg.Value)
			}
		}
	}()
}

// unsubscribe quita ch de topic y lo cierra. Si el bus ya está cerrado, Close
// lo cerró antes.
func (b *InMemoryEventBus) unsubscribe(topic string, ch chan sharedBus.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	subs := b.subscribers[topic]
	for i, sub := range subs {
		if sub == ch {
			b.subscribers[topic] = append(subs[:i:i], subs[i+1:]...)
			close(ch)
			return
		}
	}
}

// Close cierra todos los canales de suscripción.
func (b *InMemoryEventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, subs := range b.subscribers {
		for _, ch := range subs {
			close(ch)
		}
	}
}
