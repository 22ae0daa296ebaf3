// Package redis keeps per-workflow key/value state in Redis so memory nodes
// survive restarts and stay shared across processes.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type StateStore struct {
	client *redis.Client
}

func NewStateStore(ctx context.Context, redisURL string) (*StateStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &StateStore{client: client}, nil
}

func (s *StateStore) Close() error {
	return s.client.Close()
}

func stateKey(workflowID, key string) string {
	return fmt.Sprintf("workflow_state:%s:%s", workflowID, key)
}

func (s *StateStore) SetState(ctx context.Context, workflowID string, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode state value: %w", err)
	}

	if err := s.client.Set(ctx, stateKey(workflowID, key), encoded, 0).Err(); err != nil {
		return fmt.Errorf("failed to set workflow state: %w", err)
	}

	return nil
}

func (s *StateStore) GetState(ctx context.Context, workflowID string, key string) (any, bool, error) {
	encoded, err := s.client.Get(ctx, stateKey(workflowID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get workflow state: %w", err)
	}

	var value any
	if err := json.Unmarshal(encoded, &value); err != nil {
		return nil, false, fmt.Errorf("failed to decode state value: %w", err)
	}

	return value, true, nil
}
