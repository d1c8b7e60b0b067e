package cache

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Service reads and writes msgpack artifacts through a Backend.
type Service struct {
	backend Backend
	group   singleflight.Group
	log     zerolog.Logger
}

// NewService creates a cache service over backend
func NewService(backend Backend, log zerolog.Logger) *Service {
	return &Service{
		backend: backend,
		log:     log.With().Str("component", "cache").Logger(),
	}
}

// Get decodes the artifact stored under key into v. It reports false on a miss.
func (s *Service) Get(ctx context.Context, key Key, v interface{}) (bool, error) {
	data, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		s.log.Debug().Str("key", key.String()).Msg("Cache miss")
		return false, nil
	}
	if err := decode(data, v); err != nil {
		return false, fmt.Errorf("artifact %s: %w", key, err)
	}
	s.log.Debug().Str("key", key.String()).Int("bytes", len(data)).Msg("Cache hit")
	return true, nil
}

// Put encodes v and stores it under key.
func (s *Service) Put(ctx context.Context, key Key, v interface{}) error {
	data, err := encode(v)
	if err != nil {
		return err
	}
	if err := s.backend.Put(ctx, key, data); err != nil {
		return err
	}
	s.log.Debug().Str("key", key.String()).Int("bytes", len(data)).Msg("Cached artifact")
	return nil
}

// Clear removes every artifact.
func (s *Service) Clear(ctx context.Context) (int, error) {
	n, err := s.backend.Clear(ctx)
	if err != nil {
		return n, fmt.Errorf("failed to clear cache: %w", err)
	}
	s.log.Info().Int("removed", n).Msg("Cache cleared")
	return n, nil
}

// Fetch returns the artifact under key, computing and storing it on a miss.
// Concurrent callers missing on the same key share one computation.
func Fetch[T any](ctx context.Context, s *Service, key Key, compute func(context.Context) (T, error)) (T, error) {
	var cached T
	ok, err := s.Get(ctx, key, &cached)
	if err != nil {
		return cached, err
	}
	if ok {
		return cached, nil
	}

	v, err, shared := s.group.Do(string(key), func() (interface{}, error) {
		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.Put(ctx, key, value); err != nil {
			return nil, err
		}
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	if shared {
		s.log.Debug().Str("key", key.String()).Msg("Shared in-flight computation")
	}
	return v.(T), nil
}
