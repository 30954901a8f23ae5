package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "console:"

// RedisStore keeps sessions and login transactions as JSON values with a TTL.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (r *RedisStore) sessionKey(id string) string { return r.prefix + "session:" + id }

func (r *RedisStore) txnKey(state string) string { return r.prefix + "txn:" + state }

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := r.rdb.Get(ctx, r.sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session: redis get: %w", err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *Session, ttl time.Duration) error {
	if s == nil || s.ID == "" {
		return errors.New("session: id is required")
	}
	if ttl <= 0 {
		return errors.New("session: ttl must be > 0")
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	if err := r.rdb.Set(ctx, r.sessionKey(s.ID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("session: redis set: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, r.sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("session: redis del: %w", err)
	}
	return nil
}

func (r *RedisStore) PutTransaction(ctx context.Context, t Transaction, ttl time.Duration) error {
	if t.State == "" {
		return errors.New("session: transaction state is required")
	}
	if ttl <= 0 {
		return errors.New("session: ttl must be > 0")
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("session: encode transaction: %w", err)
	}
	return r.rdb.Set(ctx, r.txnKey(t.State), raw, ttl).Err()
}

// TakeTransaction reads and deletes in one round trip so a state can be redeemed once.
func (r *RedisStore) TakeTransaction(ctx context.Context, state string) (Transaction, error) {
	raw, err := r.rdb.GetDel(ctx, r.txnKey(state)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Transaction{}, ErrNotFound
		}
		return Transaction{}, fmt.Errorf("session: redis getdel: %w", err)
	}
	var t Transaction
	if err := json.Unmarshal(raw, &t); err != nil {
		return Transaction{}, fmt.Errorf("session: decode transaction: %w", err)
	}
	return t, nil
}
