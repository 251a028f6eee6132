package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ChallengeKeyPrefix = "challenge:"
	VerifiedPhoneTTL   = time.Hour
)

// VerifiedPhone records that a session passed phone verification, and
// with which number.
type VerifiedPhone struct {
	Phone      string    `json:"phone"`
	VerifiedAt time.Time `json:"verified_at"`
}

// VerificationStore keeps per-session verification outcomes in redis so
// a verified number survives page reloads without re-running the gate.
type VerificationStore struct {
	rdb *redis.Client
}

func NewVerificationStore(rdb *redis.Client) *VerificationStore {
	return &VerificationStore{rdb: rdb}
}

func (s *VerificationStore) SaveVerifiedPhone(ctx context.Context, sessionID, phone string) error {
	data, err := json.Marshal(VerifiedPhone{Phone: phone, VerifiedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("marshal verified phone: %w", err)
	}
	return s.rdb.Set(ctx, ChallengeKeyPrefix+sessionID, data, VerifiedPhoneTTL).Err()
}

func (s *VerificationStore) GetVerifiedPhone(ctx context.Context, sessionID string) (string, error) {
	data, err := s.rdb.Get(ctx, ChallengeKeyPrefix+sessionID).Result()
	if err != nil {
		return "", fmt.Errorf("no verified phone: %w", err)
	}
	var record VerifiedPhone
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return "", fmt.Errorf("unmarshal verified phone: %w", err)
	}
	return record.Phone, nil
}
