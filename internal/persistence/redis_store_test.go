package persistence

import (
	"context"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/petrijr/rewind/internal/testutil"
)

const redisTestPrefix = "rewind:test:"

type RedisRecordStoreTestSuite struct {
	suite.Suite
	client *redis.Client
}

func TestRedisRecordStoreSuite(t *testing.T) {
	addr := testutil.GetRedisAddress(t)
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	suite.Run(t, &RedisRecordStoreTestSuite{client: client})
}

func (r *RedisRecordStoreTestSuite) SetupTest() {
	ctx := context.Background()

	// Clean up all keys with this prefix.
	iter := r.client.Scan(ctx, 0, redisTestPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		err := r.client.Del(ctx, iter.Val()).Err()
		r.NoErrorf(err, "redis DEL %q failed: %v", iter.Val(), err)
	}
	r.NoError(iter.Err(), "redis SCAN failed")
}

func (r *RedisRecordStoreTestSuite) TestContract() {
	n := 0
	runRecordStoreContract(r.T(), func(t *testing.T) RecordStore {
		// Separate prefixes keep the subtests independent.
		n++
		return NewRedisRecordStore(r.client, fmt.Sprintf("%s%d:", redisTestPrefix, n))
	})
}

func (r *RedisRecordStoreTestSuite) TestKeysSkipsTombstones() {
	ctx := context.Background()
	s := NewRedisRecordStore(r.client, redisTestPrefix)

	_, err := s.Apply(ctx, Mutation{Key: "a", Value: "1"})
	r.Require().NoError(err)
	_, err = s.Apply(ctx, Mutation{Key: "b", Value: "2"})
	r.Require().NoError(err)
	_, err = s.Apply(ctx, Mutation{Key: "a", Delete: true})
	r.Require().NoError(err)

	keys, err := s.Keys(ctx)
	r.Require().NoError(err)
	r.Equal([]string{"b"}, keys)
}

func (r *RedisRecordStoreTestSuite) TestDefaultPrefix() {
	s := NewRedisRecordStore(r.client, "")
	r.Equal("rewind:rec:x", s.keyRecord("x"))
}
