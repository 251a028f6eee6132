package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	PaySessionKeyPrefix = "paysession:"
	PaySessionTTL       = 30 * time.Minute
)

// PaySession is one in-flight payment attempt. The merchant reference
// stored here is the only one a later verification will accept.
type PaySession struct {
	SessionID     string    `json:"session_id"`
	ReservationID int64     `json:"reservation_id"`
	MerchantUID   string    `json:"merchant_uid"`
	Amount        int64     `json:"amount"`
	StartedAt     time.Time `json:"started_at"`
}

// PaymentStore keeps in-flight payment attempts in redis, keyed by
// browser session. One attempt per session at a time.
type PaymentStore struct {
	rdb *redis.Client
}

func NewPaymentStore(rdb *redis.Client) *PaymentStore {
	return &PaymentStore{rdb: rdb}
}

func (s *PaymentStore) SaveAttempt(ctx context.Context, attempt *PaySession) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal payment attempt: %w", err)
	}
	return s.rdb.Set(ctx, PaySessionKeyPrefix+attempt.SessionID, data, PaySessionTTL).Err()
}

func (s *PaymentStore) GetAttempt(ctx context.Context, sessionID string) (*PaySession, error) {
	data, err := s.rdb.Get(ctx, PaySessionKeyPrefix+sessionID).Result()
	if err != nil {
		return nil, fmt.Errorf("no payment attempt: %w", err)
	}
	var attempt PaySession
	if err := json.Unmarshal([]byte(data), &attempt); err != nil {
		return nil, fmt.Errorf("unmarshal payment attempt: %w", err)
	}
	return &attempt, nil
}

func (s *PaymentStore) DeleteAttempt(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, PaySessionKeyPrefix+sessionID).Err()
}
