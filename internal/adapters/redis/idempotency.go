package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Idempotency stores recorded purchase responses keyed by the owning
// user and the client-supplied key. Scoping by user keeps one shopper's
// key from replaying another shopper's receipt.
type Idempotency struct {
	client *redis.Client
}

func NewIdempotency(client *redis.Client) *Idempotency {
	return &Idempotency{client: client}
}

type IdempResponse struct {
	Status int    `json:"status"`
	Result []byte `json:"result"`
}

func idempKey(scope, key string) string {
	return "idemp:" + scope + ":" + key
}

func (i *Idempotency) Get(ctx context.Context, scope, key string) (*IdempResponse, error) {
	val, err := i.client.Get(ctx, idempKey(scope, key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var resp IdempResponse
	err = json.Unmarshal(val, &resp)
	return &resp, err
}

func (i *Idempotency) Set(ctx context.Context, scope, key string, resp IdempResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return i.client.Set(ctx, idempKey(scope, key), data, ttl).Err()
}
