package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

const keyPrefix = "idempotency:booking:"

type redisState struct {
	Status string  `json:"status"`
	Result *Result `json:"result,omitempty"`
}

// RedisStore は複数のAPIサーバー間で冪等キーを共有します
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) key(idempotencyKey string) string {
	return keyPrefix + idempotencyKey
}

func (s *RedisStore) Reserve(ctx context.Context, idempotencyKey string) (*Result, error) {
	k := s.key(idempotencyKey)
	processing, err := json.Marshal(redisState{Status: statusProcessing})
	if err != nil {
		return nil, err
	}

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		data, err := s.client.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			_, err := s.client.SetArgs(ctx, k, processing, redis.SetArgs{Mode: "NX", TTL: TTL}).Result()
			if errors.Is(err, redis.Nil) {
				// 他のリクエストが先に確保した
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("redis set: %w", err)
			}
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("redis get: %w", err)
		}

		var state redisState
		if err := json.Unmarshal(data, &state); err != nil {
			return nil, fmt.Errorf("redis unmarshal: %w", err)
		}

		switch state.Status {
		case statusSuccess, statusCharged:
			return state.Result, nil
		case statusProcessing:
			return nil, model.ErrIdempotencyKeyInProgress
		default:
			if err := s.client.Set(ctx, k, processing, TTL).Err(); err != nil {
				return nil, fmt.Errorf("redis set: %w", err)
			}
			return nil, nil
		}
	}
}

func (s *RedisStore) MarkSuccess(ctx context.Context, idempotencyKey string, reservationID string) error {
	return s.set(ctx, idempotencyKey, redisState{
		Status: statusSuccess,
		Result: &Result{ReservationID: reservationID},
	})
}

func (s *RedisStore) MarkCharged(ctx context.Context, idempotencyKey string, confirmationID string) error {
	return s.set(ctx, idempotencyKey, redisState{
		Status: statusCharged,
		Result: &Result{ConfirmationID: confirmationID},
	})
}

func (s *RedisStore) set(ctx context.Context, idempotencyKey string, state redisState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(idempotencyKey), raw, TTL).Err()
}

func (s *RedisStore) MarkFailure(ctx context.Context, idempotencyKey string) error {
	return s.client.Del(ctx, s.key(idempotencyKey)).Err()
}
