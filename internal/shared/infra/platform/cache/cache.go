package cache

import (
	"context"
)

// Cache es la caché clave-valor que usan los servicios para entidades y páginas.
type Cache interface {
	// Get rellena dest (un puntero) con el valor asociado a key.
	// Devuelve (false, nil) si la clave no existe o ha expirado.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set serializa val y lo guarda durante ttlSecs segundos.
	Set(ctx context.Context, key string, val interface{}, ttlSecs int) error

	Delete(ctx context.Context, key string) error
}
