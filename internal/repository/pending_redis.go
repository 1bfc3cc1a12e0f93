package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"railbook/internal/domain"

	"github.com/redis/go-redis/v9"
)

// keyGrace keeps an expired entry readable long enough for the sweeper to
// release its held berths.
const keyGrace = time.Hour

// RedisPendingStore stores each pending booking as JSON under
// <prefix>:<token> and indexes tokens by expiry (unix milliseconds) in the
// <prefix>:expiry sorted set.
type RedisPendingStore struct {
	client *redis.Client
	prefix string
}

func NewRedisPendingStore(client *redis.Client, prefix string) *RedisPendingStore {
	if prefix == "" {
		prefix = "railbook:pending"
	}
	return &RedisPendingStore{client: client, prefix: prefix}
}

func (s *RedisPendingStore) key(token string) string {
	return fmt.Sprintf("%s:%s", s.prefix, token)
}

func (s *RedisPendingStore) expiryKey() string {
	return s.prefix + ":expiry"
}

func (s *RedisPendingStore) Save(ctx context.Context, p *domain.PendingBooking) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal pending booking: %w", err)
	}

	var ttl time.Duration
	if !p.ExpiresAt.IsZero() {
		ttl = time.Until(p.ExpiresAt) + keyGrace
		if ttl <= 0 {
			ttl = keyGrace
		}
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(p.Token), data, ttl)
		if !p.ExpiresAt.IsZero() {
			pipe.ZAdd(ctx, s.expiryKey(), redis.Z{Score: float64(p.ExpiresAt.UnixMilli()), Member: p.Token})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save pending booking %s: %w", p.Token, err)
	}
	return nil
}

func (s *RedisPendingStore) Get(ctx context.Context, token string) (*domain.PendingBooking, error) {
	data, err := s.client.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrPendingNotFound
		}
		return nil, fmt.Errorf("get pending booking %s: %w", token, err)
	}
	return decodePending(data)
}

// Take uses GETDEL so that concurrent takers see the entry at most once.
func (s *RedisPendingStore) Take(ctx context.Context, token string) (*domain.PendingBooking, error) {
	var get *redis.StringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.GetDel(ctx, s.key(token))
		pipe.ZRem(ctx, s.expiryKey(), token)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("take pending booking %s: %w", token, err)
	}

	data, err := get.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrPendingNotFound
		}
		return nil, fmt.Errorf("take pending booking %s: %w", token, err)
	}
	return decodePending(data)
}

func (s *RedisPendingStore) ListExpired(ctx context.Context, now time.Time) ([]*domain.PendingBooking, error) {
	tokens, err := s.client.ZRangeByScore(ctx, s.expiryKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list expired pending bookings: %w", err)
	}
	return s.load(ctx, tokens)
}

// List returns every indexed entry, soonest expiry first.
func (s *RedisPendingStore) List(ctx context.Context) ([]*domain.PendingBooking, error) {
	tokens, err := s.client.ZRange(ctx, s.expiryKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list pending bookings: %w", err)
	}
	return s.load(ctx, tokens)
}

func (s *RedisPendingStore) load(ctx context.Context, tokens []string) ([]*domain.PendingBooking, error) {
	out := make([]*domain.PendingBooking, 0, len(tokens))
	for _, token := range tokens {
		p, err := s.Get(ctx, token)
		if errors.Is(err, ErrPendingNotFound) {
			// key already gone; drop the stale index entry
			s.client.ZRem(ctx, s.expiryKey(), token)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func decodePending(data []byte) (*domain.PendingBooking, error) {
	var p domain.PendingBooking
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode pending booking: %w", err)
	}
	return &p, nil
}
