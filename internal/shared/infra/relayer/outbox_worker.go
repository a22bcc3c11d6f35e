package relayer

import (
	"context"
	"encoding/json"
	"reflect"
	"time"

	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/hexaquery/internal/shared/domain"
	sharedDomainEvents "github.com/davicafu/hexaquery/internal/shared/domain/events"
	sharedBus "github.com/davicafu/hexaquery/internal/shared/infra/platform/bus"
)

// Worker publica en el bus los eventos pendientes del outbox.
type Worker struct {
	repo          sharedDomain.OutboxRepository
	publisher     sharedBus.EventBus
	eventRegistry sharedDomainEvents.Registry
	interval      time.Duration
	batchSize     int
	log           *zap.Logger
}

func NewOutboxWorker(
	repo sharedDomain.OutboxRepository,
	publisher sharedBus.EventBus,
	registry sharedDomainEvents.Registry,
	interval time.Duration,
	batchSize int,
	log *zap.Logger,
) *Worker {
	return &Worker{
		repo:          repo,
		publisher:     publisher,
		eventRegistry: registry,
		interval:      interval,
		batchSize:     batchSize,
		log:           log,
	}
}

// Start hace polling hasta que se cancela ctx.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("🚀 Outbox worker iniciado", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("🛑 Outbox worker detenido")
			return
		case <-ticker.C:
			w.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch publica un lote y devuelve cuántos eventos quedaron marcados.
func (w *Worker) ProcessBatch(ctx context.Context) int {
	pending, err := w.repo.FetchPendingOutbox(ctx, w.batchSize)
	if err != nil {
		w.log.Warn("⚠️ Error al obtener eventos pendientes", zap.Error(err))
		return 0
	}
	if len(pending) > 0 {
		w.log.Debug("📬 Eventos pendientes", zap.Int("count", len(pending)))
	}

	published := 0
	for _, evt := range pending {
		if w.publishAndMark(ctx, evt) {
			published++
		}
	}
	return published
}

func (w *Worker) publishAndMark(ctx context.Context, evt sharedDomain.OutboxEvent) bool {
	metadata, ok := w.eventRegistry[evt.EventType]
	if !ok {
		// Se queda pendiente hasta que algún servicio registre el tipo.
		w.log.Error("❌ Tipo de evento desconocido en registro", zap.String("event_type", evt.EventType))
		return false
	}

	envelope, err := toIntegrationEvent(evt, metadata.Type)
	if err != nil {
		w.log.Error("❌ Error al decodificar payload del evento", zap.String("event_id", evt.ID.String()), zap.Error(err))
		return false
	}

	if err := w.publisher.Publish(ctx, metadata.Topic, envelope); err != nil {
		w.log.Warn("⚠️ No se pudo publicar evento",
			zap.String("event_id", evt.ID.String()),
			zap.String("topic", metadata.Topic),
			zap.Error(err),
		)
		return false
	}

	if err := w.repo.MarkOutboxProcessed(ctx, evt.ID); err != nil {
		// Se volverá a publicar: los consumidores deben ser idempotentes.
		w.log.Warn("⚠️ No se pudo marcar evento como procesado",
			zap.String("event_id", evt.ID.String()),
			zap.Error(err),
		)
		return false
	}

	w.log.Info("✅ Evento publicado", zap.String("event_id", evt.ID.String()), zap.String("event_type", evt.EventType))
	return true
}

// toIntegrationEvent valida el payload contra el tipo registrado y lo envuelve.
func toIntegrationEvent(evt sharedDomain.OutboxEvent, t reflect.Type) (sharedDomainEvents.IntegrationEvent, error) {
	raw, err := json.Marshal(evt.Payload)
	if err != nil {
		return sharedDomainEvents.IntegrationEvent{}, err
	}
	// Payload puede venir como map (Mongo, tests) o como string JSON (SQL).
	if s, ok := evt.Payload.(string); ok {
		raw = []byte(s)
	}

	typed := reflect.New(t).Interface()
	if err := json.Unmarshal(raw, typed); err != nil {
		return sharedDomainEvents.IntegrationEvent{}, err
	}
	data, err := json.Marshal(typed)
	if err != nil {
		return sharedDomainEvents.IntegrationEvent{}, err
	}

	return sharedDomainEvents.IntegrationEvent{
		ID:          evt.ID.String(),
		Type:        evt.EventType,
		AggregateID: evt.AggregateID,
		Timestamp:   evt.CreatedAt,
		Data:        data,
	}, nil
}
