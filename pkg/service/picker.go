package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// DefaultCatalogKey is the Redis set holding the resource catalog.
const DefaultCatalogKey = "wifegame:catalog"

// ErrCatalogEmpty indicates there is nothing to draw from.
var ErrCatalogEmpty = errors.New("resource catalog is empty")

// RedisResourcePicker draws a uniformly random resource identifier from a
// Redis set. The catalog is maintained out of band (an import job or the
// chat adapter); the picker only reads it.
type RedisResourcePicker struct {
	client *redis.Client
	key    string
}

// NewRedisResourcePicker creates a picker over the given catalog set; an
// empty key selects DefaultCatalogKey.
func NewRedisResourcePicker(client *redis.Client, key string) *RedisResourcePicker {
	if key == "" {
		key = DefaultCatalogKey
	}
	return &RedisResourcePicker{client: client, key: key}
}

// Pick implements ResourcePicker.
func (p *RedisResourcePicker) Pick(ctx context.Context) (string, error) {
	resourceID, err := p.client.SRandMember(ctx, p.key).Result()
	if err == redis.Nil {
		return "", ErrCatalogEmpty
	}
	if err != nil {
		return "", fmt.Errorf("failed to pick from catalog %s: %w", p.key, err)
	}
	if resourceID == "" {
		return "", ErrCatalogEmpty
	}
	return resourceID, nil
}
