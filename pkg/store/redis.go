package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/monbed/wifegame/pkg/game"
)

const (
	ownershipKeyPrefix = "wifegame:ownership:"
	countersKeyPrefix  = "wifegame:counters:"
	exchangeKeyPrefix  = "wifegame:exchange:"
	togglesKey         = "wifegame:toggles"

	// dailyTableTTL bounds how long day-scoped tables outlive their last
	// write. Counters and exchange requests are meaningless after rollover
	// anyway; two days leaves room for debugging.
	dailyTableTTL = 48 * time.Hour
)

// RedisTableStore implements game.TableStore on Redis. Each logical table
// is one JSON document per group (toggles are a single global document),
// read and written whole, so a table write either lands completely or not
// at all.
type RedisTableStore struct {
	client *redis.Client
}

// NewRedisTableStore creates a store on the given client.
func NewRedisTableStore(client *redis.Client) *RedisTableStore {
	return &RedisTableStore{client: client}
}

// Ping verifies the Redis connection; used by the health endpoint.
func (s *RedisTableStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if _, err := s.client.Ping(ctx).Result(); err != nil {
		logrus.Errorf("redis health check failed: %v", err)
		return err
	}
	return nil
}

// loadJSON reads a whole table document into out. A missing key leaves out
// untouched; callers pass in a ready empty map.
func (s *RedisTableStore) loadJSON(ctx context.Context, key string, out interface{}) error {
	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		logrus.Errorf("failed to load table %s: %v", key, err)
		return fmt.Errorf("failed to load table %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(data), out); err != nil {
		logrus.Errorf("failed to decode table %s: %v", key, err)
		return fmt.Errorf("failed to decode table %s: %w", key, err)
	}
	return nil
}

func (s *RedisTableStore) saveJSON(ctx context.Context, key string, table interface{}, ttl time.Duration) error {
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to encode table %s: %w", key, err)
	}

	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		logrus.Errorf("failed to save table %s: %v", key, err)
		return fmt.Errorf("failed to save table %s: %w", key, err)
	}
	return nil
}

// LoadOwnership loads a group's ownership table.
func (s *RedisTableStore) LoadOwnership(ctx context.Context, groupID string) (map[string]game.OwnershipRecord, error) {
	table := make(map[string]game.OwnershipRecord)
	if err := s.loadJSON(ctx, ownershipKeyPrefix+groupID, &table); err != nil {
		return nil, err
	}
	return table, nil
}

// SaveOwnership persists a group's ownership table. Ownership survives day
// rollover as stale records, so it carries no TTL.
func (s *RedisTableStore) SaveOwnership(ctx context.Context, groupID string, table map[string]game.OwnershipRecord) error {
	return s.saveJSON(ctx, ownershipKeyPrefix+groupID, table, 0)
}

// LoadCounters loads a group's counter table covering all action kinds.
func (s *RedisTableStore) LoadCounters(ctx context.Context, groupID string) (game.CounterTable, error) {
	table := make(game.CounterTable)
	if err := s.loadJSON(ctx, countersKeyPrefix+groupID, &table); err != nil {
		return nil, err
	}
	return table, nil
}

// SaveCounters persists a group's counter table.
func (s *RedisTableStore) SaveCounters(ctx context.Context, groupID string, table game.CounterTable) error {
	return s.saveJSON(ctx, countersKeyPrefix+groupID, table, dailyTableTTL)
}

// LoadExchanges loads a group's pending exchange requests.
func (s *RedisTableStore) LoadExchanges(ctx context.Context, groupID string) (map[string]game.ExchangeRequest, error) {
	table := make(map[string]game.ExchangeRequest)
	if err := s.loadJSON(ctx, exchangeKeyPrefix+groupID, &table); err != nil {
		return nil, err
	}
	return table, nil
}

// SaveExchanges persists a group's pending exchange requests.
func (s *RedisTableStore) SaveExchanges(ctx context.Context, groupID string, table map[string]game.ExchangeRequest) error {
	return s.saveJSON(ctx, exchangeKeyPrefix+groupID, table, dailyTableTTL)
}

// LoadToggles loads the global feature-toggle map.
func (s *RedisTableStore) LoadToggles(ctx context.Context) (map[string]bool, error) {
	table := make(map[string]bool)
	if err := s.loadJSON(ctx, togglesKey, &table); err != nil {
		return nil, err
	}
	return table, nil
}

// SaveToggles persists the global feature-toggle map.
func (s *RedisTableStore) SaveToggles(ctx context.Context, table map[string]bool) error {
	return s.saveJSON(ctx, togglesKey, table, 0)
}
