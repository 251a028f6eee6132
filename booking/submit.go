package booking

import (
	"context"
	"errors"

	"charterbus/models"
)

var (
	ErrNotSignedIn     = errors.New("로그인이 필요합니다.")
	ErrPhoneUnverified = errors.New("휴대폰 인증 후 예약할 수 있습니다.")
)

// Creator sends a reservation request to the backend.
type Creator interface {
	CreateReservation(ctx context.Context, token string, req *models.CreateReservationRequest) (*models.Reservation, error)
}

// Submitter turns a quoted draft into a reservation. It refuses to run
// without a signed-in session and a verified phone number; the quote
// freshness check lives in the builder it wraps.
type Submitter struct {
	creator Creator
}

func NewSubmitter(creator Creator) *Submitter {
	return &Submitter{creator: creator}
}

// Submit creates the reservation for the builder's current draft.
func (s *Submitter) Submit(ctx context.Context, session *models.Session, verifiedPhone string, builder *QuoteBuilder) (*models.Reservation, error) {
	if session == nil {
		return nil, ErrNotSignedIn
	}
	if verifiedPhone == "" {
		return nil, ErrPhoneUnverified
	}
	req, err := builder.BuildRequest()
	if err != nil {
		return nil, err
	}
	return s.creator.CreateReservation(ctx, session.AccessToken, req)
}
