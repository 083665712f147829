package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/yeremiapane/cleanmate-app/models"
)

// SessionStore keeps console sessions in Redis hashes. Every successful
// read pushes the expiry out by the idle TTL.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 60 * time.Minute
	}
	return &SessionStore{client: client, ttl: ttl}
}

// ConnectRedis parses a redis:// URL and pings the server.
func ConnectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

// setIfLive writes hash fields only while the session still exists, so a
// write racing the expiry cannot recreate a partial hash with no TTL.
var setIfLive = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("HSET", KEYS[1], unpack(ARGV))
return 1
`)

func (s *SessionStore) setFields(ctx context.Context, id string, fields ...interface{}) error {
	live, err := setIfLive.Run(ctx, s.client, []string{sessionKey(id)}, fields...).Int()
	if err != nil {
		return err
	}
	if live == 0 {
		return newError(ErrUnauthenticated, "session expired")
	}
	return nil
}

func sessionKey(id string) string {
	return fmt.Sprintf("cleanmate:session:%s", id)
}

func (s *SessionStore) Create(ctx context.Context, p Principal) (string, error) {
	id := uuid.NewString()
	key := sessionKey(id)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]interface{}{
			"user_id": p.UserID,
			"role":    p.Role.String(),
			"email":   p.Email,
			"name":    p.Name,
		})
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return id, nil
}

// Get resolves a session id to its principal. Missing or expired sessions
// are ErrUnauthenticated.
func (s *SessionStore) Get(ctx context.Context, id string) (Principal, error) {
	if id == "" {
		return Principal{}, newError(ErrUnauthenticated, "session expired")
	}
	key := sessionKey(id)

	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return Principal{}, fmt.Errorf("failed to get session: %w", err)
	}
	if len(fields) == 0 {
		return Principal{}, newError(ErrUnauthenticated, "session expired")
	}

	userID, err := strconv.ParseUint(fields["user_id"], 10, 64)
	role := models.Role(fields["role"])
	if err != nil || userID == 0 || !role.Valid() {
		s.client.Del(ctx, key)
		return Principal{}, newError(ErrUnauthenticated, "session expired")
	}

	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return Principal{}, fmt.Errorf("failed to refresh session: %w", err)
	}

	return Principal{
		UserID: uint(userID),
		Role:   role,
		Email:  fields["email"],
		Name:   fields["name"],
	}, nil
}

// Update rewrites the display fields after a profile change.
func (s *SessionStore) Update(ctx context.Context, id string, p Principal) error {
	if err := s.setFields(ctx, id, "email", p.Email, "name", p.Name); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

func (s *SessionStore) Destroy(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// SetFlash stores a one-shot message shown on the next page render.
func (s *SessionStore) SetFlash(ctx context.Context, id, message string) error {
	if err := s.setFields(ctx, id, "flash", message); err != nil {
		return fmt.Errorf("failed to set flash: %w", err)
	}
	return nil
}

func (s *SessionStore) PopFlash(ctx context.Context, id string) (string, error) {
	key := sessionKey(id)
	var get *redis.StringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.HGet(ctx, key, "flash")
		pipe.HDel(ctx, key, "flash")
		return nil
	})
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read flash: %w", err)
	}
	return get.Val(), nil
}
