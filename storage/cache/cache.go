package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/ready4exam/platform/core"
	"github.com/ready4exam/platform/core/quiz"
)

const keyPrefix = "r4e:questions:"

// Store is the subset of a redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Open connects to redis. An empty address disables caching: the returned client is nil.
func Open(ctx context.Context, conf *core.Config) (*redis.Client, error) {
	if conf.Redis.Address == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Address,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return rdb, nil
}

// questionCache is a read-through cache around a question bank.
type questionCache struct {
	next   quiz.QuestionBank
	store  Store
	ttl    time.Duration
	logger core.Logger
}

var _ quiz.QuestionBank = (*questionCache)(nil) // interface compliance check

func NewQuestionCache(next quiz.QuestionBank, store Store, ttl time.Duration, logger core.Logger) *questionCache {
	return &questionCache{next: next, store: store, ttl: ttl, logger: logger}
}

func Key(table, difficulty string) string {
	return keyPrefix + table + ":" + difficulty
}

// Questions serves cached rows; cache failures fall through to the bank.
func (c *questionCache) Questions(ctx context.Context, table, difficulty string) ([]quiz.RawQuestion, error) {
	key := Key(table, difficulty)

	data, err := c.store.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var rows []quiz.RawQuestion
		if err = json.Unmarshal(data, &rows); err == nil {
			return rows, nil
		}
		c.logger.Warn(fmt.Sprintf("decoding cached %s: %v", key, err), err)
	case err != redis.Nil:
		c.logger.Warn(fmt.Sprintf("reading cache %s: %v", key, err), err)
	}

	rows, err := c.next.Questions(ctx, table, difficulty)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return rows, nil
	}
	if data, err = json.Marshal(rows); err == nil {
		err = c.store.Set(ctx, key, data, c.ttl).Err()
	}
	if err != nil {
		c.logger.Warn(fmt.Sprintf("writing cache %s: %v", key, err), err)
	}
	return rows, nil
}
