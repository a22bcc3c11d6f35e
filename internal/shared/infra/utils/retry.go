package utils

import (
	"context"
	"errors"
	"time"
)

// ErrPermanent marca un error que no merece reintento.
var ErrPermanent = errors.New("permanent error")

// Retry ejecuta fn hasta attempts veces, esperando delay entre intentos. Los
// errores que envuelven ErrPermanent cortan los reintentos.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if errors.Is(err, ErrPermanent) || i == attempts-1 {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
