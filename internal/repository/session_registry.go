package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/it-helpdesk/internal/domain"
)

// ErrSessionNotFound is returned when a session key is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

// RawSession is a registry entry before its payload is decoded.
type RawSession struct {
	Key       string
	Payload   []byte
	ExpiresAt time.Time
}

// SessionRegistry tracks issued sessions independently of the backing technology.
type SessionRegistry interface {
	Put(ctx context.Context, session RawSession) error
	Get(ctx context.Context, key string) (*RawSession, error)
	ListActive(ctx context.Context) ([]RawSession, error)
	Delete(ctx context.Context, key string) error
	PurgeExpired(ctx context.Context) (int, error)
}

type sessionPayload struct {
	UserID   int64     `json:"user_id"`
	Username string    `json:"username"`
	IssuedAt time.Time `json:"issued_at"`
}

// EncodeSession serializes the identity embedded in a session.
func EncodeSession(session domain.Session) (RawSession, error) {
	payload, err := json.Marshal(sessionPayload{
		UserID:   session.UserID,
		Username: session.Username,
		IssuedAt: session.IssuedAt,
	})
	if err != nil {
		return RawSession{}, err
	}
	return RawSession{Key: session.Key, Payload: payload, ExpiresAt: session.ExpiresAt}, nil
}

// DecodeSession extracts the identity embedded in a registry entry.
func DecodeSession(raw RawSession) (domain.Session, error) {
	var payload sessionPayload
	if err := json.Unmarshal(raw.Payload, &payload); err != nil {
		return domain.Session{}, fmt.Errorf("decode session %s: %w", raw.Key, err)
	}
	if payload.UserID <= 0 {
		return domain.Session{}, fmt.Errorf("decode session %s: missing user id", raw.Key)
	}
	return domain.Session{
		Key:       raw.Key,
		UserID:    payload.UserID,
		Username:  payload.Username,
		IssuedAt:  payload.IssuedAt,
		ExpiresAt: raw.ExpiresAt,
	}, nil
}

// redisSessionRegistry keeps each payload under its own key with a TTL and
// indexes keys in a sorted set scored by expiry so sessions can be enumerated.
type redisSessionRegistry struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisSessionRegistry builds a Redis-backed registry.
func NewRedisSessionRegistry(client *redis.Client, prefix string) SessionRegistry {
	return &redisSessionRegistry{client: client, prefix: prefix, now: time.Now}
}

func (r *redisSessionRegistry) sessionKey(key string) string {
	return fmt.Sprintf("%s:session:%s", r.prefix, key)
}

func (r *redisSessionRegistry) indexKey() string {
	return r.prefix + ":sessions"
}

func (r *redisSessionRegistry) Put(ctx context.Context, session RawSession) error {
	ttl := session.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", session.Key)
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.sessionKey(session.Key), session.Payload, ttl)
		pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: float64(session.ExpiresAt.Unix()), Member: session.Key})
		return nil
	})
	return err
}

func (r *redisSessionRegistry) Get(ctx context.Context, key string) (*RawSession, error) {
	payload, err := r.client.Get(ctx, r.sessionKey(key)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	score, err := r.client.ZScore(ctx, r.indexKey(), key).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to get session expiry: %w", err)
	}
	return &RawSession{Key: key, Payload: payload, ExpiresAt: time.Unix(int64(score), 0)}, nil
}

func (r *redisSessionRegistry) ListActive(ctx context.Context) ([]RawSession, error) {
	members, err := r.client.ZRangeByScoreWithScores(ctx, r.indexKey(), &redis.ZRangeBy{
		Min: strconv.FormatInt(r.now().Unix(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = r.sessionKey(fmt.Sprint(m.Member))
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	result := make([]RawSession, 0, len(members))
	for i, m := range members {
		payload, ok := values[i].(string)
		if !ok {
			// payload already evicted by its TTL; PurgeExpired drops the index entry
			continue
		}
		result = append(result, RawSession{
			Key:       fmt.Sprint(m.Member),
			Payload:   []byte(payload),
			ExpiresAt: time.Unix(int64(m.Score), 0),
		})
	}
	return result, nil
}

func (r *redisSessionRegistry) Delete(ctx context.Context, key string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.sessionKey(key))
		pipe.ZRem(ctx, r.indexKey(), key)
		return nil
	})
	return err
}

func (r *redisSessionRegistry) PurgeExpired(ctx context.Context) (int, error) {
	expired, err := r.client.ZRangeByScore(ctx, r.indexKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(r.now().Unix(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list expired sessions: %w", err)
	}
	if len(expired) == 0 {
		return 0, nil
	}

	keys := make([]string, len(expired))
	members := make([]any, len(expired))
	for i, key := range expired {
		keys[i] = r.sessionKey(key)
		members[i] = key
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.ZRem(ctx, r.indexKey(), members...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	return len(expired), nil
}
