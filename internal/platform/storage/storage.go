// Package storage persists the client session between runs. Drivers keep
// plain string values under a small set of keys in memory, a JSON file,
// Redis or Postgres.
package storage

import (
	"context"
	"fmt"
	"sync"

	"njoj_client/internal/platform/config"
)

// Entry names the session persists.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Store is durable client-side string storage, the equivalent of a
// browser's localStorage. Get reports ok=false for a missing key.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
	Close() error
}

// Open builds the Store selected by cfg.StorageDriver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageDriver {
	case "memory":
		return NewMemory(), nil
	case "", "file":
		return NewFile(cfg.StoragePath), nil
	case "redis":
		rdb, err := ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return NewRedis(rdb, cfg.StorageNamespace), nil
	case "postgres":
		db, err := ConnectPostgres(ctx, cfg.DBConnStr)
		if err != nil {
			return nil, err
		}
		pg := NewPostgres(db, cfg.StorageNamespace)
		if err := pg.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return pg, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *Memory) Remove(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *Memory) Close() error { return nil }
