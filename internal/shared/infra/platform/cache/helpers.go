package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

const asyncTimeout = 200 * time.Millisecond

// EntityKey es la clave de una entidad concreta, p. ej. "task:<id>".
func EntityKey(aggregate, id string) string {
	return aggregate + ":" + id
}

// ListKey es la clave de una página de resultados. queryKey debe ser la forma
// canónica de la consulta (FilterSpecification.Key).
func ListKey(aggregate, queryKey string) string {
	return aggregate + ":list:" + queryKey
}

// AsyncCacheSet actualiza la caché en background sin bloquear la petición. El
// valor se serializa antes de volver, así que el llamante puede seguir modificándolo.
func AsyncCacheSet(cache Cache, key string, value interface{}, ttl int, log *zap.Logger) {
	if cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		log.Warn("⚠️ Cache value not serializable", zap.String("key", key), zap.Error(err))
		return
	}

	go func() {
		// Contexto propio: la escritura debe completarse aunque la petición ya haya terminado.
		cacheCtx, cancel := context.WithTimeout(context.Background(), asyncTimeout)
		defer cancel()

		if err := cache.Set(cacheCtx, key, json.RawMessage(data), ttl); err != nil {
			log.Warn("⚠️ Cache update failed", zap.String("key", key), zap.Error(err))
		}
	}()
}

// AsyncCacheDelete elimina la clave en background.
func AsyncCacheDelete(cache Cache, key string, log *zap.Logger) {
	if cache == nil {
		return
	}

	go func() {
		cacheCtx, cancel := context.WithTimeout(context.Background(), asyncTimeout)
		defer cancel()

		if err := cache.Delete(cacheCtx, key); err != nil {
			log.Warn("⚠️ Cache deletion failed", zap.String("key", key), zap.Error(err))
		}
	}()
}

// Lookup lee key sin propagar errores: un fallo de la caché se trata como miss.
func Lookup(ctx context.Context, cache Cache, key string, dest interface{}, log *zap.Logger) bool {
	if cache == nil {
		return false
	}
	hit, err := cache.Get(ctx, key, dest)
	if err != nil {
		log.Warn("⚠️ Cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}
