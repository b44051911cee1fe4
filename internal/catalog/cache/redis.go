package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	id "storefront/pkg/domain"
)

const categoriesKeyPrefix = "catalog:categories:"

// Redis shares category lists across instances as JSON arrays.
type Redis struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, tenantID id.TenantID) ([]string, bool, error) {
	raw, err := r.client.Get(ctx, categoriesKeyPrefix+tenantID.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var categories []string
	if err := json.Unmarshal(raw, &categories); err != nil {
		return nil, false, fmt.Errorf("decode cached categories: %w", err)
	}
	return categories, true, nil
}

func (r *Redis) Set(ctx context.Context, tenantID id.TenantID, categories []string, ttl time.Duration) error {
	if categories == nil {
		categories = []string{}
	}
	raw, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}
	return r.client.Set(ctx, categoriesKeyPrefix+tenantID.String(), raw, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, tenantID id.TenantID) error {
	return r.client.Del(ctx, categoriesKeyPrefix+tenantID.String()).Err()
}
