// Package quota wraps document-store writes in a daily-quota circuit
// breaker. Once the store reports a resource-exhausted condition, all
// writes are rejected until the next daily reset hour; the block state
// is durable so a process restart does not silently reopen writes
// mid-block.
package quota

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// BlockState is the persisted breaker state. Once IsBlocked is set it
// stays set until wall-clock time passes BlockedUntil.
type BlockState struct {
	IsBlocked    bool       `json:"isBlocked"`
	BlockedUntil *time.Time `json:"blockedUntil"`
}

// StateStore persists BlockState across restarts.
type StateStore interface {
	Load(ctx context.Context) (BlockState, error)
	Save(ctx context.Context, state BlockState) error
}

const redisBlockKey = "quota:block"

// RedisStateStore keeps the block state in Redis.
type RedisStateStore struct {
	rdb *redis.Client
}

// NewRedisStateStore creates a Redis-backed state store.
func NewRedisStateStore(rdb *redis.Client) *RedisStateStore {
	return &RedisStateStore{rdb: rdb}
}

func (s *RedisStateStore) Load(ctx context.Context) (BlockState, error) {
	raw, err := s.rdb.Get(ctx, redisBlockKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return BlockState{}, nil
	}
	if err != nil {
		return BlockState{}, fmt.Errorf("load quota block state: %w", err)
	}
	var state BlockState
	if err := json.Unmarshal(raw, &state); err != nil {
		return BlockState{}, fmt.Errorf("decode quota block state: %w", err)
	}
	return state, nil
}

func (s *RedisStateStore) Save(ctx context.Context, state BlockState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode quota block state: %w", err)
	}
	if err := s.rdb.Set(ctx, redisBlockKey, raw, 0).Err(); err != nil {
		return fmt.Errorf("save quota block state: %w", err)
	}
	return nil
}

// MemoryStateStore is an in-process StateStore for tests and for
// running without Redis.
type MemoryStateStore struct {
	mu    sync.Mutex
	state BlockState
}

// NewMemoryStateStore creates an empty in-memory state store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{}
}

func (s *MemoryStateStore) Load(ctx context.Context) (BlockState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, nil
}

func (s *MemoryStateStore) Save(ctx context.Context, state BlockState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	return nil
}
