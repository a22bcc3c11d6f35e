package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	sharedEvents "github.com/davicafu/hexaquery/internal/shared/domain/events"
	sharedBus "github.com/davicafu/hexaquery/internal/shared/infra/platform/bus"
	sharedCache "github.com/davicafu/hexaquery/internal/shared/infra/platform/cache"
	sharedUtils "github.com/davicafu/hexaquery/internal/shared/infra/utils"
	userDomain "github.com/davicafu/hexaquery/internal/user/domain"
)

var (
	handleTimeout = time.Second
	retryDelay    = 100 * time.Millisecond
	retryAttempt  = 3
)

// UserCacheConsumer invalida la entrada de caché de un usuario cuando otra
// instancia lo modifica o lo borra.
type UserCacheConsumer struct {
	cache sharedCache.Cache
	log   *zap.Logger
}

var _ sharedBus.MessageHandler = (*UserCacheConsumer)(nil)

func NewUserCacheConsumer(cache sharedCache.Cache, logger *zap.Logger) *UserCacheConsumer {
	return &UserCacheConsumer{cache: cache, log: logger}
}

// HandleMessage es el punto de entrada para un nuevo mensaje/evento.
func (c *UserCacheConsumer) HandleMessage(ctx context.Context, key string, payload []byte) {
	var base sharedEvents.IntegrationEvent
	if err := json.Unmarshal(payload, &base); err != nil {
		c.log.Warn("⚠️ Failed to unmarshal integration event for user", zap.String("key", key), zap.Error(err))
		return
	}

	switch base.Type {
	case userDomain.UserUpdated, userDomain.UserDeleted:
	case userDomain.UserCreated:
		return
	default:
		c.log.Warn("⚠️ Unknown user event type", zap.String("type", base.Type), zap.String("key", key))
		return
	}

	id, err := uuid.Parse(base.AggregateID)
	if err != nil {
		c.log.Warn("⚠️ Invalid user id in event", zap.String("aggregate_id", base.AggregateID), zap.Error(err))
		return
	}

	ctxDel, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	err = sharedUtils.Retry(ctxDel, retryAttempt, retryDelay, func() error {
		return c.cache.Delete(ctxDel, userDomain.CacheKeyByID(id))
	})
	if err != nil {
		c.log.Error("❌ Failed to invalidate user cache", zap.String("user_id", id.String()), zap.Error(err))
		return
	}
	c.log.Debug("🧹 User cache invalidated", zap.String("type", base.Type), zap.String("user_id", id.String()))
}
