package academy

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const infoKey = "academy:info"

// Store provides persistence for academy info.
type Store struct {
	redis *redis.Client
}

// NewStore creates a new academy info store.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

// Get retrieves academy info, returning defaults if nothing is stored.
func (s *Store) Get(ctx context.Context) (*Info, error) {
	data, err := s.redis.Get(ctx, infoKey).Bytes()
	if err == redis.Nil {
		return DefaultInfo(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("academy: get info: %w", err)
	}

	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("academy: unmarshal info: %w", err)
	}

	return &info, nil
}

// Set saves academy info.
func (s *Store) Set(ctx context.Context, info *Info) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("academy: marshal info: %w", err)
	}

	if err := s.redis.Set(ctx, infoKey, data, 0).Err(); err != nil {
		return fmt.Errorf("academy: set info: %w", err)
	}

	return nil
}
