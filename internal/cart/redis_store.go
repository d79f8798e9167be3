package cart

import (
	"context"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// cartTTL bounds how long an untouched guest cart survives. Every save
// refreshes the window.
const cartTTL = 72 * time.Hour

const redisKeyPrefix = "cart:"

// RedisStore keeps cart snapshots in redis with a sliding TTL.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Cart, error) {
	data, err := s.rdb.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return New(id), nil
	}
	if err != nil {
		return nil, err
	}
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		// unreadable snapshot, start the client over with an empty cart
		zap.L().Warn("discarding corrupt cart snapshot", zap.String("cart_id", id), zap.Error(err))
		return New(id), nil
	}
	c.ID = id
	if c.Items == nil {
		c.Items = []Item{}
	}
	return &c, nil
}

func (s *RedisStore) Save(ctx context.Context, c *Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, redisKeyPrefix+c.ID, data, cartTTL).Err()
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, redisKeyPrefix+id).Err()
}
