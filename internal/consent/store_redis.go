package consent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const recordKeyPrefix = "consent:record:"

// RedisRecordStore persists consent records in Redis. The key TTL mirrors
// the retention window so abandoned devices age out without a sweeper.
type RedisRecordStore struct {
	client *redis.Client
}

func NewRedisRecordStore(client *redis.Client) *RedisRecordStore {
	return &RedisRecordStore{client: client}
}

func (s *RedisRecordStore) Get(ctx context.Context, deviceID string) (StoredRecord, bool, error) {
	raw, err := s.client.Get(ctx, recordKeyPrefix+deviceID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return StoredRecord{}, false, nil
		}
		return StoredRecord{}, false, fmt.Errorf("get consent record: %w", err)
	}

	var record StoredRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return StoredRecord{}, false, fmt.Errorf("decode consent record: %w", err)
	}
	return record, true, nil
}

func (s *RedisRecordStore) Put(ctx context.Context, deviceID string, record StoredRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode consent record: %w", err)
	}
	if err := s.client.Set(ctx, recordKeyPrefix+deviceID, raw, retentionTTL()).Err(); err != nil {
		return fmt.Errorf("put consent record: %w", err)
	}
	return nil
}

func (s *RedisRecordStore) Delete(ctx context.Context, deviceID string) error {
	if err := s.client.Del(ctx, recordKeyPrefix+deviceID).Err(); err != nil {
		return fmt.Errorf("delete consent record: %w", err)
	}
	return nil
}
