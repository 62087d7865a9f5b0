package persistence

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRecordStore is a RecordStore backed by Redis.
// It uses a simple key structure:
//
//	<prefix>rec:<key>   => gob-encoded redisRecordPayload
//	<prefix>idx:keys    => SET of all record keys ever written
//
// Checked mutations use WATCH/MULTI, so a concurrent writer that changes
// the record between the read and the write makes Apply fail with
// ErrVersionMismatch instead of overwriting it.
type RedisRecordStore struct {
	client *redis.Client
	prefix string
}

var _ RecordStore = (*RedisRecordStore)(nil)

type redisRecordPayload struct {
	Key          string
	Value        []byte
	Version      int64
	Deleted      bool
	LastMutation string
	UpdatedAt    int64
}

// NewRedisRecordStore creates a RedisRecordStore.
// prefix is optional but recommended (e.g. "rewind:").
func NewRedisRecordStore(client *redis.Client, prefix string) *RedisRecordStore {
	if prefix == "" {
		prefix = "rewind:"
	}
	return &RedisRecordStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisRecordStore) keyRecord(key string) string {
	return s.prefix + "rec:" + key
}

func (s *RedisRecordStore) keyIndex() string {
	return s.prefix + "idx:keys"
}

func encodeRedisPayload(rec Record) ([]byte, error) {
	value, err := EncodeValue(rec.Value)
	if err != nil {
		return nil, err
	}

	payload := redisRecordPayload{
		Key:          rec.Key,
		Value:        value,
		Version:      rec.Version,
		Deleted:      rec.Deleted,
		LastMutation: rec.LastMutation,
		UpdatedAt:    rec.UpdatedAt.UnixNano(),
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&payload); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRedisPayload(data []byte) (Record, error) {
	var payload redisRecordPayload
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&payload); err != nil {
		return Record{}, err
	}

	value, err := DecodeValue(payload.Value)
	if err != nil {
		return Record{}, err
	}

	return Record{
		Key:          payload.Key,
		Value:        value,
		Version:      payload.Version,
		Deleted:      payload.Deleted,
		LastMutation: payload.LastMutation,
		UpdatedAt:    time.Unix(0, payload.UpdatedAt),
	}, nil
}

func (s *RedisRecordStore) Get(ctx context.Context, key string) (Record, error) {
	return s.get(ctx, s.client, key)
}

type redisGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisRecordStore) get(ctx context.Context, c redisGetter, key string) (Record, error) {
	data, err := c.Get(ctx, s.keyRecord(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, ErrRecordNotFound
		}
		return Record{}, err
	}
	return decodeRedisPayload(data)
}

func (s *RedisRecordStore) Apply(ctx context.Context, m Mutation) (Record, error) {
	var out Record

	txf := func(tx *redis.Tx) error {
		cur, err := s.get(ctx, tx, m.Key)
		if err != nil && !errors.Is(err, ErrRecordNotFound) {
			return err
		}

		rec, err := next(cur, m, time.Now())
		if err != nil {
			return err
		}

		data, err := encodeRedisPayload(rec)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.keyRecord(rec.Key), data, 0)
			pipe.SAdd(ctx, s.keyIndex(), rec.Key)
			return nil
		})
		if err != nil {
			return err
		}
		out = rec
		return nil
	}

	err := s.client.Watch(ctx, txf, s.keyRecord(m.Key))
	if errors.Is(err, redis.TxFailedErr) {
		return Record{}, fmt.Errorf("%w: %q changed concurrently", ErrVersionMismatch, m.Key)
	}
	if err != nil {
		return Record{}, err
	}
	return out, nil
}

// Keys returns the keys of all live records.
func (s *RedisRecordStore) Keys(ctx context.Context) ([]string, error) {
	all, err := s.client.SMembers(ctx, s.keyIndex()).Result()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(all))
	for _, k := range all {
		rec, err := s.Get(ctx, k)
		if errors.Is(err, ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if rec.Exists() {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
