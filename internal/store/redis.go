package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisConfig configures Redis access for the record store.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisStore keeps records as JSON values under prefixed keys. It is the
// packaged reference implementation of Deleter and Sampler.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore constructs a Redis-backed record store.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if strings.TrimSpace(cfg.KeyPrefix) == "" {
		cfg.KeyPrefix = "delwatch:records"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis record store: %w", err)
	}

	return &RedisStore{client: client, prefix: strings.TrimSpace(cfg.KeyPrefix)}, nil
}

// Insert stores a record under its identifier.
func (s *RedisStore) Insert(ctx context.Context, id string, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", id, err)
	}
	if err := s.client.Set(ctx, s.recordKey(id), data, 0).Err(); err != nil {
		return fmt.Errorf("write record %s: %w", id, err)
	}
	return nil
}

// DeleteOne removes the first record matching the filter.
func (s *RedisStore) DeleteOne(ctx context.Context, filter Filter) (DeleteResult, error) {
	keys, err := s.matchKeys(ctx, filter, 1)
	if err != nil {
		return DeleteResult{}, err
	}
	if len(keys) == 0 {
		return DeleteResult{}, nil
	}
	deleted, err := s.client.Del(ctx, keys[0]).Result()
	if err != nil {
		return DeleteResult{}, fmt.Errorf("delete record: %w", err)
	}
	return DeleteResult{DeletedCount: deleted}, nil
}

// DeleteMany removes all records matching the filter.
func (s *RedisStore) DeleteMany(ctx context.Context, filter Filter) (DeleteResult, error) {
	keys, err := s.matchKeys(ctx, filter, 0)
	if err != nil {
		return DeleteResult{}, err
	}
	if len(keys) == 0 {
		return DeleteResult{}, nil
	}
	deleted, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return DeleteResult{}, fmt.Errorf("delete records: %w", err)
	}
	return DeleteResult{DeletedCount: deleted}, nil
}

// FindByIDAndDelete removes one record by identifier and returns it, or nil
// when the record does not exist.
func (s *RedisStore) FindByIDAndDelete(ctx context.Context, id string) (Record, error) {
	data, err := s.client.GetDel(ctx, s.recordKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch-and-delete record %s: %w", id, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", id, err)
	}
	return rec, nil
}

// FindSample returns up to limit records matching the filter.
func (s *RedisStore) FindSample(ctx context.Context, filter Filter, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}
	records, _, err := s.scanMatch(ctx, filter, limit)
	return records, err
}

// matchKeys collects keys of matching records; limit 0 means unbounded.
func (s *RedisStore) matchKeys(ctx context.Context, filter Filter, limit int) ([]string, error) {
	_, keys, err := s.scanMatch(ctx, filter, limit)
	return keys, err
}

func (s *RedisStore) scanMatch(ctx context.Context, filter Filter, limit int) ([]Record, []string, error) {
	var records []Record
	var keys []string

	iter := s.client.Scan(ctx, 0, s.prefix+":record:*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := s.client.Get(ctx, key).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read record %s: %w", key, err)
		}

		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		if !rec.Matches(filter) {
			continue
		}

		records = append(records, rec)
		keys = append(keys, key)
		if limit > 0 && len(keys) >= limit {
			break
		}
	}
	if err := iter.Err(); err != nil {
		return nil, nil, fmt.Errorf("scan records: %w", err)
	}
	return records, keys, nil
}

// Close closes Redis resources.
func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *RedisStore) recordKey(id string) string {
	return s.prefix + ":record:" + id
}
