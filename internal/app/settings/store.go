// Package settings reads and edits the judge's system-wide configuration.
package settings

import (
	"context"
	"sync"

	"njoj_client/internal/api/client"
	"njoj_client/internal/app/state"
	"njoj_client/internal/common"
	"njoj_client/internal/domain/model"
)

type Store struct {
	api  *client.Client
	root *state.Root

	mu     sync.RWMutex
	config *model.SystemConfig
}

func NewStore(api *client.Client, root *state.Root) *Store {
	return &Store{api: api, root: root}
}

// Config is the last configuration seen, nil before the first fetch.
func (s *Store) Config() *model.SystemConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.config == nil {
		return nil
	}
	c := *s.config
	return &c
}

func (s *Store) FetchConfig(ctx context.Context) (*model.SystemConfig, error) {
	defer s.root.Begin()()

	var cfg model.SystemConfig
	if err := s.api.Get(ctx, "/system-config", nil, &cfg); err != nil {
		s.root.SetError(common.Message(err, "Failed to fetch system settings"))
		return nil, err
	}
	return s.set(cfg), nil
}

func (s *Store) UpdateConfig(ctx context.Context, patch model.SystemConfigUpdate) (*model.SystemConfig, error) {
	defer s.root.Begin()()

	var cfg model.SystemConfig
	if err := s.api.Put(ctx, "/system-config", patch, &cfg); err != nil {
		s.root.SetError(common.Message(err, "Failed to update system settings"))
		return nil, err
	}
	return s.set(cfg), nil
}

func (s *Store) set(cfg model.SystemConfig) *model.SystemConfig {
	s.mu.Lock()
	s.config = &cfg
	s.mu.Unlock()
	out := cfg
	return &out
}
