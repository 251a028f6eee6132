package booking

import (
	"context"
	"errors"
	"sync"

	"charterbus/api"
	"charterbus/maps"
	"charterbus/models"
	"charterbus/utils"
)

var (
	ErrQuoteInFlight = errors.New("요금을 계산하는 중입니다.")
	ErrDraftInvalid  = errors.New("입력 내용을 확인해주세요.")
	ErrNoQuote       = errors.New("요금 조회 후 예약할 수 있습니다.")
)

// Quoter prices a trip draft.
type Quoter interface {
	GetQuote(ctx context.Context, token string, params api.QuoteParams) (*models.Quote, error)
}

// QuoteBuilder owns the booking form and its quote. The quote is only
// trusted while the draft it priced is unchanged: any edit marks it
// stale, and a stale quote can be shown but never submitted. Requests
// are fenced with a monotonic token so a slow response can never
// overwrite the quote for a newer draft.
type QuoteBuilder struct {
	quoter Quoter
	token  string

	mu      sync.Mutex
	draft   TripDraft
	quote   *models.Quote
	current bool
	busy    bool
	fence   uint64
}

func NewQuoteBuilder(quoter Quoter, token string) *QuoteBuilder {
	return &QuoteBuilder{quoter: quoter, token: token}
}

func (b *QuoteBuilder) Draft() TripDraft {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.draft
}

// Quote returns the latest quote and whether it still matches the draft.
func (b *QuoteBuilder) Quote() (*models.Quote, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.quote, b.current
}

// edit applies a draft mutation and invalidates whatever quote exists.
// Bumping the fence also cancels the effect of any request in flight.
func (b *QuoteBuilder) edit(fn func(*TripDraft)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(&b.draft)
	b.current = false
	b.fence++
}

func (b *QuoteBuilder) SetDeparture(sel maps.Selection) {
	b.edit(func(d *TripDraft) {
		d.DepartureAddress = sel.Address
		d.DepartureLat = sel.Lat
		d.DepartureLng = sel.Lng
	})
}

func (b *QuoteBuilder) SetDestination(sel maps.Selection) {
	b.edit(func(d *TripDraft) {
		d.DestinationAddress = sel.Address
		d.DestinationLat = sel.Lat
		d.DestinationLng = sel.Lng
	})
}

func (b *QuoteBuilder) SetSchedule(departure, ret string) {
	b.edit(func(d *TripDraft) {
		d.DepartureDatetime = departure
		d.ReturnDatetime = ret
	})
}

func (b *QuoteBuilder) SetPassengers(count int) {
	b.edit(func(d *TripDraft) { d.PassengerCount = count })
}

func (b *QuoteBuilder) SetRoundTrip(roundTrip bool) {
	b.edit(func(d *TripDraft) {
		d.IsRoundTrip = roundTrip
		if !roundTrip {
			d.ReturnDatetime = ""
		}
	})
}

func (b *QuoteBuilder) SetVehicleType(vehicleType string) {
	b.edit(func(d *TripDraft) { d.VehicleType = vehicleType })
}

func (b *QuoteBuilder) SetDriverAccompanied(accompanied bool) {
	b.edit(func(d *TripDraft) { d.DriverAccompanied = accompanied })
}

func (b *QuoteBuilder) SetSpecialRequests(text string) {
	b.edit(func(d *TripDraft) { d.SpecialRequests = text })
}

// RequestQuote prices the current draft. A second tap while one is
// running is rejected rather than queued. If the draft changes while
// the response is in flight, the response is discarded.
func (b *QuoteBuilder) RequestQuote(ctx context.Context) (*models.Quote, error) {
	b.mu.Lock()
	if b.busy {
		b.mu.Unlock()
		return nil, ErrQuoteInFlight
	}
	if len(b.draft.Validate()) > 0 {
		b.mu.Unlock()
		return nil, ErrDraftInvalid
	}
	b.busy = true
	b.fence++
	fence := b.fence
	params := b.quoteParams()
	b.mu.Unlock()

	quote, err := b.quoter.GetQuote(ctx, b.token, params)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.busy = false
	if err != nil {
		return nil, err
	}
	if b.fence != fence {
		// The draft moved on while we were pricing the old one.
		return nil, ErrDraftInvalid
	}
	b.quote = quote
	b.current = true
	return quote, nil
}

func (b *QuoteBuilder) quoteParams() api.QuoteParams {
	return api.QuoteParams{
		DepartureLocation:      b.draft.DepartureAddress,
		DestinationLocation:    b.draft.DestinationAddress,
		DepartureCoordinates:   utils.FormatLatLng(b.draft.DepartureLat, b.draft.DepartureLng),
		DestinationCoordinates: utils.FormatLatLng(b.draft.DestinationLat, b.draft.DestinationLng),
		DepartureDate:          b.draft.DepartureDatetime,
		ReturnDate:             b.draft.ReturnDatetime,
		PassengerCount:         b.draft.PassengerCount,
		IsRoundTrip:            b.draft.IsRoundTrip,
		IsSolati:               b.draft.VehicleType == models.VehicleSolati,
	}
}

// Restore loads a previously snapshotted draft together with the quote
// that priced it, marking the quote current again. Used when a session's
// in-memory flow was evicted or the server restarted: the user keeps the
// quoted draft instead of being forced to re-price. Bumping the fence
// discards any response still in flight for the old state.
func (b *QuoteBuilder) Restore(draft TripDraft, quote models.Quote) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.draft = draft
	b.quote = &quote
	b.current = true
	b.fence++
}

// CanSubmit reports whether the draft may proceed to reservation: the
// form is complete and the quote on screen still prices exactly it.
func (b *QuoteBuilder) CanSubmit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current && b.quote != nil && len(b.draft.Validate()) == 0
}

// BuildRequest freezes the draft and its quote into the reservation
// payload.
func (b *QuoteBuilder) BuildRequest() (*models.CreateReservationRequest, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.current || b.quote == nil {
		return nil, ErrNoQuote
	}
	if len(b.draft.Validate()) > 0 {
		return nil, ErrDraftInvalid
	}
	req := &models.CreateReservationRequest{
		DepartureLocation:      b.draft.DepartureAddress,
		DepartureCoordinates:   utils.FormatLatLng(b.draft.DepartureLat, b.draft.DepartureLng),
		DestinationLocation:    b.draft.DestinationAddress,
		DestinationCoordinates: utils.FormatLatLng(b.draft.DestinationLat, b.draft.DestinationLng),
		DepartureDate:          b.draft.DepartureDatetime,
		PassengerCount:         b.draft.PassengerCount,
		VehicleCount:           b.quote.VehicleCount,
		VehicleType:            b.draft.VehicleType,
		IsRoundTrip:            b.draft.IsRoundTrip,
		DriverAccompanied:      b.draft.DriverAccompanied,
		SpecialRequirements:    b.draft.SpecialRequests,
	}
	if b.draft.IsRoundTrip && b.draft.ReturnDatetime != "" {
		ret := b.draft.ReturnDatetime
		req.ReturnDate = &ret
	}
	return req, nil
}
