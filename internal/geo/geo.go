// Package geo provides one-shot device location lookups.
package geo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Lixing-Zhang/fiesta-storefront/internal/models"
)

// DefaultTimeout bounds a single location request
const DefaultTimeout = 10 * time.Second

var (
	ErrUnsupported = errors.New("geolocation is not supported")
	ErrTimeout     = errors.New("geolocation request timed out")
)

// Provider reports the current device position
type Provider interface {
	CurrentPosition(ctx context.Context) (models.Location, error)
}

// Locate asks p for a position, giving up after timeout. There is no
// fallback location; a nil provider yields ErrUnsupported.
func Locate(ctx context.Context, p Provider, timeout time.Duration) (models.Location, error) {
	if p == nil {
		return models.Location{}, ErrUnsupported
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		loc models.Location
		err error
	}
	ch := make(chan result, 1)
	go func() {
		loc, err := p.CurrentPosition(ctx)
		ch <- result{loc, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return models.Location{}, ErrTimeout
		}
		if r.err != nil {
			return models.Location{}, fmt.Errorf("failed to get location: %w", r.err)
		}
		if !r.loc.Valid() {
			return models.Location{}, fmt.Errorf("failed to get location: empty coordinates")
		}
		return r.loc, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return models.Location{}, ErrTimeout
		}
		return models.Location{}, ctx.Err()
	}
}

// Static always reports the same position
type Static struct {
	Location models.Location
}

func (s Static) CurrentPosition(ctx context.Context) (models.Location, error) {
	return s.Location, nil
}

// Unsupported models a device without geolocation
type Unsupported struct{}

func (Unsupported) CurrentPosition(ctx context.Context) (models.Location, error) {
	return models.Location{}, ErrUnsupported
}
