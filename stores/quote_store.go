package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"charterbus/booking"
	"charterbus/models"

	"github.com/redis/go-redis/v9"
)

const (
	QuoteKeyPrefix = "quote:"
	QuoteTTL       = 30 * time.Minute
)

// QuoteSnapshot binds a quote to the exact draft it priced. A session
// flow rebuilt after eviction or a restart restores from it, so a live
// quote survives the in-memory state it was computed in.
type QuoteSnapshot struct {
	Draft    booking.TripDraft `json:"draft"`
	Quote    models.Quote      `json:"quote"`
	QuotedAt time.Time         `json:"quoted_at"`
}

// QuoteStore keeps one quote snapshot per browser session in redis.
type QuoteStore struct {
	rdb *redis.Client
}

func NewQuoteStore(rdb *redis.Client) *QuoteStore {
	return &QuoteStore{rdb: rdb}
}

func (s *QuoteStore) SaveSnapshot(ctx context.Context, sessionID string, snap *QuoteSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal quote snapshot: %w", err)
	}
	return s.rdb.Set(ctx, QuoteKeyPrefix+sessionID, data, QuoteTTL).Err()
}

func (s *QuoteStore) GetSnapshot(ctx context.Context, sessionID string) (*QuoteSnapshot, error) {
	data, err := s.rdb.Get(ctx, QuoteKeyPrefix+sessionID).Result()
	if err != nil {
		return nil, fmt.Errorf("quote snapshot not found: %w", err)
	}
	var snap QuoteSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("unmarshal quote snapshot: %w", err)
	}
	return &snap, nil
}

func (s *QuoteStore) DeleteSnapshot(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, QuoteKeyPrefix+sessionID).Err()
}
