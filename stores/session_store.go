package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"charterbus/models"

	"github.com/redis/go-redis/v9"
)

const (
	SessionKeyPrefix = "session:"
	SessionTTL       = 24 * time.Hour
)

// SessionStore keeps signed-in sessions in redis so any instance can
// resolve any browser's session token.
type SessionStore struct {
	rdb *redis.Client
}

func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

func (s *SessionStore) SaveSession(ctx context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.rdb.Set(ctx, SessionKeyPrefix+session.ID, data, SessionTTL).Err()
}

func (s *SessionStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	data, err := s.rdb.Get(ctx, SessionKeyPrefix+id).Result()
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	var session models.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

func (s *SessionStore) DeleteSession(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, SessionKeyPrefix+id).Err()
}
