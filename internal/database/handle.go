// Package database owns lazily opened, shared connections to the backing
// stores. A Handle dials on first use, lets concurrent first callers share a
// single dial, never caches a failed dial, and can be reset so the next
// caller dials again.
package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	customError "github.com/segyhp/loan-tracker/pkg/errors"
)

// DialFunc opens a new connection.
type DialFunc[T any] func(ctx context.Context) (T, error)

// CloseFunc releases a connection previously returned by a DialFunc.
type CloseFunc[T any] func(conn T) error

type Handle[T any] struct {
	name  string
	dial  DialFunc[T]
	close CloseFunc[T]
	log   logrus.FieldLogger

	mu    sync.RWMutex
	conn  T
	ready bool
	group singleflight.Group
}

func NewHandle[T any](name string, dial DialFunc[T], closeFn CloseFunc[T], log logrus.FieldLogger) *Handle[T] {
	return &Handle[T]{
		name:  name,
		dial:  dial,
		close: closeFn,
		log:   log.WithField("store", name),
	}
}

func (h *Handle[T]) cached() (T, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.conn, h.ready
}

// Get returns the shared connection, dialing it if needed. Failures are
// wrapped with ErrStoreUnavailable.
func (h *Handle[T]) Get(ctx context.Context) (T, error) {
	if conn, ok := h.cached(); ok {
		return conn, nil
	}

	// the dial is shared, so it must not die with the first caller's context
	dialCtx := context.WithoutCancel(ctx)
	result := h.group.DoChan(h.name, func() (interface{}, error) {
		if conn, ok := h.cached(); ok {
			return conn, nil
		}

		h.log.Debug("opening connection")
		conn, err := h.dial(dialCtx)
		if err != nil {
			h.log.WithError(err).Warn("connection attempt failed")
			return nil, err
		}

		h.mu.Lock()
		h.conn = conn
		h.ready = true
		h.mu.Unlock()

		h.log.Info("connection established")
		return conn, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-result:
		if res.Err != nil {
			return zero, fmt.Errorf("%w: connect %s: %w", customError.ErrStoreUnavailable, h.name, res.Err)
		}
		return res.Val.(T), nil
	}
}

// Reset drops the cached connection so the next Get dials again.
func (h *Handle[T]) Reset() {
	if err := h.Close(); err != nil {
		h.log.WithError(err).Warn("closing dropped connection failed")
	}
}

// Close releases the cached connection, if any.
func (h *Handle[T]) Close() error {
	h.mu.Lock()
	conn, ready := h.conn, h.ready
	var zero T
	h.conn = zero
	h.ready = false
	h.mu.Unlock()

	if !ready || h.close == nil {
		return nil
	}
	h.log.Info("connection closed")
	return h.close(conn)
}
