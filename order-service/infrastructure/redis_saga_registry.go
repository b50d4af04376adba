package infrastructure

import (
	"context"
	"time"

	"github.com/draftea/order-saga/order-service/domain"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var _ domain.SagaRegistry = (*RedisSagaRegistry)(nil)

const defaultClaimTTL = 7 * 24 * time.Hour

// RedisSagaRegistry claims order ids with SETNX so that every process
// sharing the redis instance agrees on a single saga per order
type RedisSagaRegistry struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisSagaRegistry(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisSagaRegistry {
	if ttl <= 0 {
		ttl = defaultClaimTTL
	}
	return &RedisSagaRegistry{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (r *RedisSagaRegistry) Claim(ctx context.Context, orderID string) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.prefix+orderID, time.Now().UTC().Format(time.RFC3339Nano), r.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to claim order in redis")
	}
	return ok, nil
}
