// Package redisrepo stores refresh tokens in Redis so that sessions survive
// server restarts and can be shared between instances.
package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/campus-auth/token/refresh"
	"github.com/redis/go-redis/v9"
)

const (
	tokenKeyPrefix = "campus:refresh:token:"
	userKeyPrefix  = "campus:refresh:user:"
)

var _ refresh.Repo = (*Repo)(nil)

// Repo implements refresh.Repo on top of a redis client
type Repo struct {
	client  redis.UniversalClient
	nowFunc func() time.Time
}

// New wraps an existing client
func New(client redis.UniversalClient) *Repo {
	return &Repo{client: client, nowFunc: time.Now}
}

// Dial connects to addr and pings it before returning
func Dial(ctx context.Context, addr, password string, db int) (*Repo, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return New(client), nil
}

// Close releases the underlying client
func (r *Repo) Close() error {
	return r.client.Close()
}

func (r *Repo) Upsert(ctx context.Context, rt *refresh.StoredRefreshToken) error {
	data, err := json.Marshal(rt)
	if err != nil {
		return fmt.Errorf("marshal refresh token: %w", err)
	}

	ttl := time.Duration(0)
	if !rt.Exp.IsZero() {
		ttl = rt.Exp.Sub(r.nowFunc())
		if ttl <= 0 {
			return nil // already expired, nothing worth storing
		}
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, tokenKeyPrefix+rt.Token, data, ttl)
		pipe.Set(ctx, userKeyPrefix+rt.UserID, rt.Token, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, token string) error {
	rt, err := r.Get(ctx, token)
	if err != nil {
		return err
	}

	userKey := userKeyPrefix + rt.UserID
	current, err := r.client.Get(ctx, userKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("get user refresh pointer: %w", err)
	}

	keys := []string{tokenKeyPrefix + token}
	if current == token {
		keys = append(keys, userKey)
	}
	deleted, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	if deleted == 0 {
		return refresh.ErrNotFound
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, token string) (*refresh.StoredRefreshToken, error) {
	data, err := r.client.Get(ctx, tokenKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, refresh.ErrNotFound
		}
		return nil, fmt.Errorf("get refresh token: %w", err)
	}

	var rt refresh.StoredRefreshToken
	if err := json.Unmarshal(data, &rt); err != nil {
		return nil, fmt.Errorf("unmarshal refresh token: %w", err)
	}
	return &rt, nil
}

func (r *Repo) GetByUserID(ctx context.Context, userID string) (*refresh.StoredRefreshToken, error) {
	token, err := r.client.Get(ctx, userKeyPrefix+userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, refresh.ErrNotFound
		}
		return nil, fmt.Errorf("get user refresh pointer: %w", err)
	}
	return r.Get(ctx, token)
}
