// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package session keeps per-visitor state behind a signed cookie.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = errors.New("session: not found")

// Data is the state persisted for one visitor.
type Data struct {
	Name  string   `json:"name,omitempty"`
	CSRF  []byte   `json:"csrf,omitempty"`
	Flash []string `json:"flash,omitempty"`
}

// Store persists session data by ID.
type Store interface {
	Load(ctx context.Context, id string) (Data, error)
	Save(ctx context.Context, id string, data Data, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}

func cloneData(d Data) Data {
	out := Data{Name: d.Name}
	if d.CSRF != nil {
		out.CSRF = append([]byte(nil), d.CSRF...)
	}
	if d.Flash != nil {
		out.Flash = append([]string(nil), d.Flash...)
	}
	return out
}
