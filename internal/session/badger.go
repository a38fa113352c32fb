// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const badgerKeyPrefix = "sess:"

// badgerRecord carries its own expiry; badger TTLs have second resolution.
type badgerRecord struct {
	Data      Data  `json:"data"`
	ExpiresAt int64 `json:"expires_at"` // unix ms
}

// BadgerStore is an embedded key-value Store for single-node deployments.
type BadgerStore struct {
	db  *badger.DB
	now func() time.Time
}

// OpenBadger opens (or creates) a badger database in dir.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open %s: %w", dir, err)
	}
	return &BadgerStore{db: db, now: time.Now}, nil
}

func badgerKey(id string) []byte { return []byte(badgerKeyPrefix + id) }

func (s *BadgerStore) Load(_ context.Context, id string) (Data, error) {
	var rec badgerRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return Data{}, ErrNotFound
	case err != nil:
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return Data{}, ErrNotFound
		}
		return Data{}, fmt.Errorf("badger: load: %w", err)
	}
	if s.now().UnixMilli() >= rec.ExpiresAt {
		return Data{}, ErrNotFound
	}
	return rec.Data, nil
}

func (s *BadgerStore) Save(_ context.Context, id string, data Data, ttl time.Duration) error {
	buf, err := json.Marshal(badgerRecord{Data: data, ExpiresAt: s.now().Add(ttl).UnixMilli()})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		// The badger TTL only lets compaction reclaim the entry.
		return txn.SetEntry(badger.NewEntry(badgerKey(id), buf).WithTTL(ttl + time.Second))
	})
	if err != nil {
		return fmt.Errorf("badger: save: %w", err)
	}
	return nil
}

func (s *BadgerStore) Delete(_ context.Context, id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(badgerKey(id))
	})
	if err != nil {
		return fmt.Errorf("badger: delete: %w", err)
	}
	return nil
}

// DeleteExpired reclaims value-log space held by expired entries. Badger
// drops the keys itself, so the count is always zero.
func (s *BadgerStore) DeleteExpired(context.Context) (int64, error) {
	err := s.db.RunValueLogGC(0.5)
	if err != nil && !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) {
		return 0, fmt.Errorf("badger: value log gc: %w", err)
	}
	return 0, nil
}

func (s *BadgerStore) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger: database closed")
	}
	return nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
