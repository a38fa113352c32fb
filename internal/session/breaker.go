// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"errors"
	"time"

	"github.com/ManuGH/greeter/internal/resilience"
)

// BreakerStore fails fast with resilience.ErrCircuitOpen while a remote
// store keeps failing. ErrNotFound is a normal answer and never trips it.
type BreakerStore struct {
	next Store
	cb   *resilience.CircuitBreaker
}

// NewBreakerStore guards next with a breaker named name.
func NewBreakerStore(name string, next Store, threshold int, resetTimeout time.Duration) *BreakerStore {
	return &BreakerStore{
		next: next,
		cb: resilience.NewCircuitBreaker(name, threshold, resetTimeout,
			resilience.WithIgnoredErrors(func(err error) bool { return errors.Is(err, ErrNotFound) })),
	}
}

// Unwrap returns the guarded store.
func (s *BreakerStore) Unwrap() Store { return s.next }

// State reports the breaker state.
func (s *BreakerStore) State() resilience.State { return s.cb.State() }

func (s *BreakerStore) Load(ctx context.Context, id string) (Data, error) {
	var data Data
	err := s.cb.Execute(func() error {
		var err error
		data, err = s.next.Load(ctx, id)
		return err
	})
	return data, err
}

func (s *BreakerStore) Save(ctx context.Context, id string, data Data, ttl time.Duration) error {
	return s.cb.Execute(func() error { return s.next.Save(ctx, id, data, ttl) })
}

func (s *BreakerStore) Delete(ctx context.Context, id string) error {
	return s.cb.Execute(func() error { return s.next.Delete(ctx, id) })
}

// Ping bypasses the breaker so readiness reflects the store itself.
func (s *BreakerStore) Ping(ctx context.Context) error { return s.next.Ping(ctx) }

func (s *BreakerStore) Close() error { return s.next.Close() }
