// Package hostbridge hands finished orders to the application embedding
// the storefront. Delivery is one-way and best-effort: the host never
// acknowledges a payload.
package hostbridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Lixing-Zhang/fiesta-storefront/internal/telegram"
)

var ErrClosed = errors.New("host bridge is closed")

// Bridge is the host application seen from the storefront
type Bridge interface {
	// PrefilledName is the user's display name known to the host, if any
	PrefilledName() string
	// SendData delivers a serialized order payload
	SendData(ctx context.Context, data []byte) error
	// Close asks the host to dismiss the storefront view
	Close() error
	// Embedded is false when no host is present to take the order
	Embedded() bool
}

// HTTPBridge posts payloads to the host's web app data endpoint
type HTTPBridge struct {
	endpoint string
	name     string
	client   *http.Client

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewHTTP creates a bridge posting to endpoint; initData supplies the
// prefilled user name
func NewHTTP(endpoint, initData string) *HTTPBridge {
	b := &HTTPBridge{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
		done:     make(chan struct{}),
	}
	if data, err := telegram.Parse(initData); err == nil && data.User != nil {
		b.name = data.User.DisplayName()
	}
	return b
}

func (b *HTTPBridge) PrefilledName() string { return b.name }

func (b *HTTPBridge) Embedded() bool { return true }

// SendData posts data as JSON. Only transport failures and non-2xx
// statuses are reported; the response body is discarded.
func (b *HTTPBridge) SendData(ctx context.Context, data []byte) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ErrClosed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send order: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}

// Close marks the view dismissed; Done is closed afterwards
func (b *HTTPBridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.done)
	}
	return nil
}

// Done is closed once the host has been asked to dismiss the view
func (b *HTTPBridge) Done() <-chan struct{} { return b.done }

// Standalone is used when the storefront runs outside a host. It logs
// the payload instead of delivering it.
type Standalone struct {
	Name string
	Log  *slog.Logger
}

func (s *Standalone) PrefilledName() string { return s.Name }

func (s *Standalone) Embedded() bool { return false }

func (s *Standalone) SendData(ctx context.Context, data []byte) error {
	s.Log.Info("order payload (no host attached)", "payload", string(data))
	return nil
}

func (s *Standalone) Close() error { return nil }
