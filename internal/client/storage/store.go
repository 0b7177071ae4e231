// Package storage is the failure-safe accessor over the local key/value
// store. Every operation degrades to a no-op when the store is unavailable;
// nothing here returns an error or panics.
//
// Lifetime model: all keys live in one namespace. Keys listed in
// sessionKeys are scoped to one client session and are dropped by
// ResetSession when the client starts; all other keys persist.
package storage

import (
	"context"

	"github.com/dmitrijs2005/qrattend/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/qrattend/internal/dbx"
	"github.com/dmitrijs2005/qrattend/internal/logging"
)

const (
	KeyUserID           = "userId"
	KeyRole             = "role"
	KeyFirstName        = "firstName"
	KeyLastName         = "lastName"
	KeyCredential       = "credential"
	KeyCurrentQRSession = "currentQrSessionId"

	// Older page code wrote these aliases; they are read, never written.
	legacyKeyRole           = "userRole"
	legacyKeyCurrentSession = "currentSessionId"

	probeKey = "__storage_probe__"
)

// Lifetime tells how long a key survives.
type Lifetime int

const (
	Persistent Lifetime = iota
	Session
)

var sessionKeys = []string{KeyCurrentQRSession, legacyKeyCurrentSession}

// LifetimeOf returns the lifetime of key.
func LifetimeOf(key string) Lifetime {
	for _, k := range sessionKeys {
		if k == key {
			return Session
		}
	}
	return Persistent
}

type Store struct {
	repo *metadata.SQLiteRepository
	log  logging.Logger
}

func NewStore(repo *metadata.SQLiteRepository, log logging.Logger) *Store {
	return &Store{repo: repo, log: log}
}

// Open builds a Store over db in the default namespace.
func Open(db dbx.DBTX, log logging.Logger) *Store {
	return NewStore(metadata.NewSQLiteRepository(db, metadata.DefaultNamespace), log)
}

// Available probes the store by writing and deleting a sentinel key.
func (s *Store) Available(ctx context.Context) bool {
	if s == nil || s.repo == nil {
		return false
	}
	if err := s.repo.Set(ctx, probeKey, []byte("1")); err != nil {
		s.log.Debug(ctx, "storage unavailable", "err", err)
		return false
	}
	if err := s.repo.Delete(ctx, probeKey); err != nil {
		s.log.Debug(ctx, "storage unavailable", "err", err)
		return false
	}
	return true
}

// Get returns the value of key and whether it was found.
func (s *Store) Get(ctx context.Context, key string) (string, bool) {
	if !s.Available(ctx) {
		return "", false
	}
	v, err := s.repo.Get(ctx, key)
	if err != nil {
		s.log.Debug(ctx, "storage get failed", "key", key, "err", err)
		return "", false
	}
	if v == nil {
		return "", false
	}
	return string(v), true
}

// Set stores value under key and reports success.
func (s *Store) Set(ctx context.Context, key, value string) bool {
	if !s.Available(ctx) {
		return false
	}
	if err := s.repo.Set(ctx, key, []byte(value)); err != nil {
		s.log.Debug(ctx, "storage set failed", "key", key, "err", err)
		return false
	}
	return true
}

// Remove deletes key; removing a missing key succeeds.
func (s *Store) Remove(ctx context.Context, key string) bool {
	if !s.Available(ctx) {
		return false
	}
	if err := s.repo.Delete(ctx, key); err != nil {
		s.log.Debug(ctx, "storage remove failed", "key", key, "err", err)
		return false
	}
	return true
}

// Clear removes every key of the namespace.
func (s *Store) Clear(ctx context.Context) bool {
	if !s.Available(ctx) {
		return false
	}
	if err := s.repo.Clear(ctx); err != nil {
		s.log.Debug(ctx, "storage clear failed", "err", err)
		return false
	}
	return true
}

// ResetSession drops every stored key whose lifetime is Session. Called once
// when a client session starts.
func (s *Store) ResetSession(ctx context.Context) bool {
	return s.Batch(ctx, func(ctx context.Context, w metadata.Repository) error {
		stored, err := w.List(ctx)
		if err != nil {
			return err
		}
		for k := range stored {
			if LifetimeOf(k) != Session {
				continue
			}
			if err := w.Delete(ctx, k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Batch runs fn in a single transaction. Any error rolls the batch back and
// yields false.
func (s *Store) Batch(ctx context.Context, fn func(ctx context.Context, w metadata.Repository) error) bool {
	if !s.Available(ctx) {
		return false
	}
	err := dbx.Run(ctx, s.repo.DB(), func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, s.repo.WithDB(tx))
	})
	if err != nil {
		s.log.Debug(ctx, "storage batch failed", "err", err)
		return false
	}
	return true
}
