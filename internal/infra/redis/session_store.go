package redis

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"live-trivia-service/internal/app"
)

const gameKeyPrefix = "trivia:game:"

// SessionStore keeps sessions in a local map and reserves their codes in
// Redis, so instances sharing one Redis never hand out the same code.
//   - Session state itself never leaves the process; clients stay pinned to
//     the instance that owns their game.
//   - Redis failures are logged and the store falls back to local-only codes.
type SessionStore struct {
	client     *redis.Client
	ttl        time.Duration
	instanceID string
	timeout    time.Duration

	mu       sync.RWMutex
	sessions map[string]*app.Session
}

// NewSessionStore reserves codes for ttl; Refresh must run more often than that.
func NewSessionStore(client *redis.Client, ttl time.Duration, instanceID string) *SessionStore {
	return &SessionStore{
		client:     client,
		ttl:        ttl,
		instanceID: instanceID,
		timeout:    2 * time.Second,
		sessions:   make(map[string]*app.Session),
	}
}

func (s *SessionStore) Insert(code string, session *app.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.sessions[code]; taken {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	reserved, err := s.client.SetNX(ctx, s.key(code), s.instanceID, s.ttl).Result()
	switch {
	case err != nil:
		slog.Warn("reserve game code in redis", "gameCode", code, "error", err)
	case !reserved:
		return false
	}

	s.sessions[code] = session
	return true
}

func (s *SessionStore) Get(code string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[code]
	return session, ok
}

func (s *SessionStore) Delete(code string) (*app.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[code]
	if !ok {
		return nil, false
	}
	delete(s.sessions, code)

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.client.Del(ctx, s.key(code)).Err(); err != nil {
		slog.Warn("release game code in redis", "gameCode", code, "error", err)
	}
	return session, true
}

func (s *SessionStore) List() []*app.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*app.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	return out
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Refresh extends the reservation of every local code.
func (s *SessionStore) Refresh(ctx context.Context) error {
	s.mu.RLock()
	codes := make([]string, 0, len(s.sessions))
	for code := range s.sessions {
		codes = append(codes, code)
	}
	s.mu.RUnlock()
	if len(codes) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, code := range codes {
		pipe.Set(ctx, s.key(code), s.instanceID, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *SessionStore) key(code string) string {
	return gameKeyPrefix + code
}
