// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	in := Data{Name: "Ada", CSRF: []byte{1, 2, 3}}
	require.NoError(t, s.Save(ctx, "a", in, time.Minute))

	out, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, in, out)

	// mutations of the loaded copy must not leak back into the store
	out.CSRF[0] = 9
	again, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, byte(1), again.CSRF[0])
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(ctx, "a", Data{Name: "x"}, time.Minute))

	now = now.Add(59 * time.Second)
	_, err := s.Load(ctx, "a")
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = s.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(ctx, "old", Data{}, time.Second))
	now = now.Add(time.Hour)
	require.NoError(t, s.Save(ctx, "new", Data{}, time.Second))
	assert.Equal(t, 2, s.Len(), "Save must not sweep")

	n, err := s.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, s.Len())

	_, err = s.Load(ctx, "new")
	assert.NoError(t, err)
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Save(ctx, "a", Data{}, time.Minute))
	require.NoError(t, s.Delete(ctx, "a"))

	_, err := s.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, s.Ping(ctx))
}
