package idempotency

import (
	"context"
	"time"

	redisadapter "github.com/artegra/museum-tickets/internal/adapters/redis"
)

// Idempotency replays the recorded response for a repeated POST carrying
// the same Idempotency-Key. Keys are scoped to the requesting user.
type Idempotency struct {
	redis *redisadapter.Idempotency
	ttl   time.Duration
}

func NewIdempotency(redis *redisadapter.Idempotency, ttl time.Duration) *Idempotency {
	return &Idempotency{redis: redis, ttl: ttl}
}

type Response struct {
	Status int
	Result []byte
}

func (i *Idempotency) Get(ctx context.Context, scope, key string) (*Response, error) {
	stored, err := i.redis.Get(ctx, scope, key)
	if err != nil || stored == nil {
		return nil, err
	}
	return &Response{Status: stored.Status, Result: stored.Result}, nil
}

func (i *Idempotency) Set(ctx context.Context, scope, key string, resp Response) error {
	return i.redis.Set(ctx, scope, key, redisadapter.IdempResponse{Status: resp.Status, Result: resp.Result}, i.ttl)
}
