// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/greeter/internal/csrf"
)

func newTestManager() (*Manager, *MemoryStore) {
	store := NewMemoryStore()
	return NewManager(store, "hard to guess string", "session", time.Hour), store
}

func TestManager_NewSessionSetsCookie(t *testing.T) {
	m, _ := newTestManager()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/hello", nil)

	s, err := m.Get(rec, req)
	require.NoError(t, err)
	assert.True(t, s.IsNew)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "session", c.Name)
	assert.True(t, strings.HasPrefix(c.Value, s.ID+"."))
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 3600, c.MaxAge)
	assert.False(t, c.Secure)
}

func TestManager_RoundTrip(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	rec := httptest.NewRecorder()
	s, err := m.Get(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	s.Data.Name = "Ada"
	require.NoError(t, s.Save(ctx))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rec.Result().Cookies()[0])
	rec2 := httptest.NewRecorder()

	again, err := m.Get(rec2, req)
	require.NoError(t, err)
	assert.False(t, again.IsNew)
	assert.Equal(t, s.ID, again.ID)
	assert.Equal(t, "Ada", again.Data.Name)
	assert.Empty(t, rec2.Result().Cookies())
}

func TestManager_SaveRefreshesCookie(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	rec := httptest.NewRecorder()
	s, err := m.Get(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx))
	require.Len(t, rec.Result().Cookies(), 1, "new session cookie is set once")
	issued := rec.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(issued)
	rec2 := httptest.NewRecorder()
	again, err := m.Get(rec2, req)
	require.NoError(t, err)
	assert.Empty(t, rec2.Result().Cookies())

	again.Data.Name = "Grace"
	require.NoError(t, again.Save(ctx))

	cookies := rec2.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, issued.Value, cookies[0].Value)
	assert.Equal(t, 3600, cookies[0].MaxAge)
}

func TestManager_RejectsTamperedCookie(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()

	id := NewID()
	require.NoError(t, store.Save(ctx, id, Data{Name: "victim"}, time.Hour))

	cases := map[string]string{
		"unsigned":      id,
		"bad signature": id + ".AAAA",
		"not a uuid":    "x." + m.sign("x"),
		"empty":         "",
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: "session", Value: value})

			s, err := m.Get(httptest.NewRecorder(), req)
			require.NoError(t, err)
			assert.True(t, s.IsNew)
			assert.NotEqual(t, id, s.ID)
			assert.Empty(t, s.Data.Name)
		})
	}
}

func TestManager_SignatureDependsOnSecret(t *testing.T) {
	a := NewManager(NewMemoryStore(), "one", "", time.Hour)
	b := NewManager(NewMemoryStore(), "two", "", time.Hour)
	id := NewID()

	_, ok := b.verify(id + "." + a.sign(id))
	assert.False(t, ok)
	_, ok = a.verify(id + "." + a.sign(id))
	assert.True(t, ok)
}

func TestManager_UnknownSessionStartsFresh(t *testing.T) {
	m, _ := newTestManager()
	id := NewID()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: id + "." + m.sign(id)})
	rec := httptest.NewRecorder()

	s, err := m.Get(rec, req)
	require.NoError(t, err)
	assert.True(t, s.IsNew)
	assert.NotEqual(t, id, s.ID)
	assert.Len(t, rec.Result().Cookies(), 1)
}

type failingStore struct{ MemoryStore }

func (*failingStore) Load(context.Context, string) (Data, error) {
	return Data{}, errors.New("connection refused")
}

func TestManager_StoreErrorPropagates(t *testing.T) {
	m := NewManager(&failingStore{}, "k", "session", time.Hour)
	id := NewID()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: id + "." + m.sign(id)})

	_, err := m.Get(httptest.NewRecorder(), req)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestSession_CSRFTokenAndFlashes(t *testing.T) {
	m, _ := newTestManager()
	s, err := m.Get(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	raw, created, err := s.CSRFToken()
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, raw, csrf.RawSize)

	again, created, err := s.CSRFToken()
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, raw, again)

	s.AddFlash("one")
	s.AddFlash("two")
	assert.Equal(t, []string{"one", "two"}, s.PopFlashes())
	assert.Empty(t, s.PopFlashes())
}
