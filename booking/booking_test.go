package booking

import (
	"context"
	"errors"
	"sync"
	"testing"

	"charterbus/api"
	"charterbus/maps"
	"charterbus/models"
)

func validDraftInto(b *QuoteBuilder) {
	b.SetDeparture(maps.Selection{Address: "서울역", Lat: 37.5547, Lng: 126.9707})
	b.SetDestination(maps.Selection{Address: "부산역", Lat: 35.1151, Lng: 129.0403})
	b.SetSchedule("2026-09-10T08:00", "")
	b.SetPassengers(30)
}

type stubQuoter struct {
	mu        sync.Mutex
	calls     int
	gotParams api.QuoteParams
	quote     *models.Quote
	err       error
	started   chan struct{}
	release   chan struct{}
}

func (s *stubQuoter) GetQuote(ctx context.Context, token string, params api.QuoteParams) (*models.Quote, error) {
	s.mu.Lock()
	s.calls++
	s.gotParams = params
	started := s.started
	release := s.release
	s.mu.Unlock()
	if started != nil {
		close(started)
	}
	if release != nil {
		<-release
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.quote, nil
}

func TestDraftValidation(t *testing.T) {
	d := &TripDraft{}
	errs := d.Validate()
	fields := map[string]bool{}
	for _, e := range errs {
		fields[e.Field] = true
	}
	for _, want := range []string{"departure", "destination", "departure_datetime", "passenger_count"} {
		if !fields[want] {
			t.Fatalf("empty draft missing error for %q, got %+v", want, errs)
		}
	}

	d = &TripDraft{
		DepartureAddress:   "서울역",
		DestinationAddress: "부산역",
		DepartureDatetime:  "2026-09-10T08:00",
		PassengerCount:     30,
	}
	if !d.Valid() {
		t.Fatalf("one-way draft invalid: %+v", d.Validate())
	}
}

func TestDraftRoundTripReturnRules(t *testing.T) {
	d := &TripDraft{
		DepartureAddress:   "서울역",
		DestinationAddress: "부산역",
		DepartureDatetime:  "2026-09-10T08:00",
		PassengerCount:     30,
		IsRoundTrip:        true,
	}
	if d.Valid() {
		t.Fatal("round trip without return accepted")
	}

	d.ReturnDatetime = "2026-09-10T08:00"
	if !d.Valid() {
		t.Fatalf("same-moment return rejected: %+v", d.Validate())
	}

	d.ReturnDatetime = "2026-09-09T08:00"
	if d.Valid() {
		t.Fatal("return before departure accepted")
	}
}

func TestDraftPassengerBounds(t *testing.T) {
	d := &TripDraft{
		DepartureAddress:   "a",
		DestinationAddress: "b",
		DepartureDatetime:  "2026-09-10T08:00",
	}
	for _, n := range []int{0, -1, 501} {
		d.PassengerCount = n
		if d.Valid() {
			t.Fatalf("PassengerCount=%d accepted", n)
		}
	}
	for _, n := range []int{1, 500} {
		d.PassengerCount = n
		if !d.Valid() {
			t.Fatalf("PassengerCount=%d rejected", n)
		}
	}
}

func TestRequestQuoteMarksCurrent(t *testing.T) {
	q := &stubQuoter{quote: &models.Quote{TotalPrice: 880000, VehicleCount: 1}}
	b := NewQuoteBuilder(q, "tok")
	validDraftInto(b)

	quote, err := b.RequestQuote(context.Background())
	if err != nil {
		t.Fatalf("RequestQuote() error = %v", err)
	}
	if quote.TotalPrice != 880000 {
		t.Fatalf("TotalPrice = %d", quote.TotalPrice)
	}
	if !b.CanSubmit() {
		t.Fatal("CanSubmit() = false after fresh quote")
	}
}

func TestRequestQuoteCarriesDraftCoordinates(t *testing.T) {
	q := &stubQuoter{quote: &models.Quote{TotalPrice: 880000, VehicleCount: 1}}
	b := NewQuoteBuilder(q, "tok")
	validDraftInto(b)
	b.SetVehicleType(models.VehicleSolati)

	if _, err := b.RequestQuote(context.Background()); err != nil {
		t.Fatalf("RequestQuote() error = %v", err)
	}

	q.mu.Lock()
	got := q.gotParams
	q.mu.Unlock()
	if got.DepartureCoordinates != "37.5547,126.9707" {
		t.Fatalf("DepartureCoordinates = %q", got.DepartureCoordinates)
	}
	if got.DestinationCoordinates != "35.1151,129.0403" {
		t.Fatalf("DestinationCoordinates = %q", got.DestinationCoordinates)
	}
	if got.DepartureDate != "2026-09-10T08:00" {
		t.Fatalf("DepartureDate = %q", got.DepartureDate)
	}
	if !got.IsSolati {
		t.Fatal("IsSolati = false for solati draft")
	}
}

func TestRestoreRevivesQuotedDraft(t *testing.T) {
	q := &stubQuoter{}
	b := NewQuoteBuilder(q, "tok")
	if b.CanSubmit() {
		t.Fatal("fresh builder submittable")
	}

	draft := TripDraft{
		DepartureAddress:   "서울역",
		DepartureLat:       37.5547,
		DepartureLng:       126.9707,
		DestinationAddress: "부산역",
		DestinationLat:     35.1151,
		DestinationLng:     129.0403,
		DepartureDatetime:  "2026-09-10T08:00",
		PassengerCount:     30,
	}
	b.Restore(draft, models.Quote{TotalPrice: 660000, DepositAmount: 66000, VehicleCount: 1})

	if !b.CanSubmit() {
		restored := b.Draft()
		t.Fatalf("restored builder not submittable: %+v", restored.Validate())
	}
	req, err := b.BuildRequest()
	if err != nil {
		t.Fatalf("BuildRequest() error = %v", err)
	}
	if req.DepartureLocation != "서울역" || req.VehicleCount != 1 {
		t.Fatalf("unexpected request %+v", req)
	}

	// Any edit after the restore invalidates the revived quote too.
	b.SetPassengers(31)
	if b.CanSubmit() {
		t.Fatal("edited draft still submittable")
	}
}

func TestEditInvalidatesQuote(t *testing.T) {
	q := &stubQuoter{quote: &models.Quote{TotalPrice: 880000}}
	b := NewQuoteBuilder(q, "tok")
	validDraftInto(b)
	if _, err := b.RequestQuote(context.Background()); err != nil {
		t.Fatalf("RequestQuote() error = %v", err)
	}

	b.SetPassengers(45)
	if b.CanSubmit() {
		t.Fatal("edited draft still submittable")
	}
	if quote, current := b.Quote(); quote == nil || current {
		t.Fatalf("stale quote should remain visible but flagged: quote=%v current=%v", quote, current)
	}
	if _, err := b.BuildRequest(); !errors.Is(err, ErrNoQuote) {
		t.Fatalf("BuildRequest() on stale quote error = %v", err)
	}
}

func TestRequestQuoteRejectsConcurrentCall(t *testing.T) {
	q := &stubQuoter{
		quote:   &models.Quote{TotalPrice: 1},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	b := NewQuoteBuilder(q, "tok")
	validDraftInto(b)

	done := make(chan error, 1)
	go func() {
		_, err := b.RequestQuote(context.Background())
		done <- err
	}()
	<-q.started

	if _, err := b.RequestQuote(context.Background()); !errors.Is(err, ErrQuoteInFlight) {
		t.Fatalf("second RequestQuote() error = %v", err)
	}
	close(q.release)
	if err := <-done; err != nil {
		t.Fatalf("first RequestQuote() error = %v", err)
	}
}

func TestStaleQuoteResponseDiscarded(t *testing.T) {
	q := &stubQuoter{
		quote:   &models.Quote{TotalPrice: 777},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	b := NewQuoteBuilder(q, "tok")
	validDraftInto(b)

	done := make(chan error, 1)
	go func() {
		_, err := b.RequestQuote(context.Background())
		done <- err
	}()
	<-q.started

	// Draft changes while the quote is in flight.
	b.SetPassengers(100)
	close(q.release)

	if err := <-done; !errors.Is(err, ErrDraftInvalid) {
		t.Fatalf("in-flight quote for old draft: error = %v", err)
	}
	if b.CanSubmit() {
		t.Fatal("stale response made the draft submittable")
	}
}

func TestBuildRequestFreezesQuote(t *testing.T) {
	q := &stubQuoter{quote: &models.Quote{TotalPrice: 880000, VehicleCount: 2}}
	b := NewQuoteBuilder(q, "tok")
	validDraftInto(b)
	b.SetRoundTrip(true)
	b.SetSchedule("2026-09-10T08:00", "2026-09-12T18:00")
	if _, err := b.RequestQuote(context.Background()); err != nil {
		t.Fatalf("RequestQuote() error = %v", err)
	}

	req, err := b.BuildRequest()
	if err != nil {
		t.Fatalf("BuildRequest() error = %v", err)
	}
	if req.VehicleCount != 2 {
		t.Fatalf("VehicleCount = %d", req.VehicleCount)
	}
	if req.ReturnDate == nil || *req.ReturnDate != "2026-09-12T18:00" {
		t.Fatalf("ReturnDate = %v", req.ReturnDate)
	}
	if req.DepartureCoordinates == "" {
		t.Fatal("DepartureCoordinates empty")
	}
}

type stubCreator struct {
	created *models.CreateReservationRequest
}

func (s *stubCreator) CreateReservation(_ context.Context, _ string, req *models.CreateReservationRequest) (*models.Reservation, error) {
	s.created = req
	return &models.Reservation{ID: 42, Status: models.StatusPending}, nil
}

func TestSubmitterGuards(t *testing.T) {
	q := &stubQuoter{quote: &models.Quote{TotalPrice: 1, VehicleCount: 1}}
	b := NewQuoteBuilder(q, "tok")
	validDraftInto(b)
	if _, err := b.RequestQuote(context.Background()); err != nil {
		t.Fatalf("RequestQuote() error = %v", err)
	}

	s := NewSubmitter(&stubCreator{})
	session := &models.Session{ID: "s1", AccessToken: "at"}

	if _, err := s.Submit(context.Background(), nil, "010-1234-5678", b); !errors.Is(err, ErrNotSignedIn) {
		t.Fatalf("Submit() without session error = %v", err)
	}
	if _, err := s.Submit(context.Background(), session, "", b); !errors.Is(err, ErrPhoneUnverified) {
		t.Fatalf("Submit() without phone error = %v", err)
	}
	created, err := s.Submit(context.Background(), session, "010-1234-5678", b)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if created.ID != 42 {
		t.Fatalf("reservation ID = %d", created.ID)
	}
}

func TestWorkflowTransitions(t *testing.T) {
	w := NewWorkflow()
	if w.Current() != ScreenLogin {
		t.Fatalf("start = %q", w.Current())
	}

	steps := []Screen{ScreenHome, ScreenBooking, ScreenVerifying, ScreenSubmitting, ScreenReservations, ScreenPaying, ScreenReservations}
	for _, step := range steps {
		if err := w.Goto(step); err != nil {
			t.Fatalf("Goto(%s) error = %v", step, err)
		}
	}

	if err := w.Goto(ScreenPaying); err != nil {
		t.Fatalf("reservations -> paying error = %v", err)
	}
	if err := w.Goto(ScreenLogin); err == nil {
		t.Fatal("paying -> login allowed as a normal transition")
	}

	w.SessionLost()
	if w.Current() != ScreenLogin {
		t.Fatalf("after SessionLost: %q", w.Current())
	}
}

func TestWorkflowRejectsJumpPastGate(t *testing.T) {
	w := NewWorkflow()
	if err := w.Goto(ScreenPaying); !errors.Is(err, ErrBadTransition) {
		t.Fatalf("login -> paying error = %v", err)
	}
	if err := w.Goto(ScreenSubmitting); !errors.Is(err, ErrBadTransition) {
		t.Fatalf("login -> submitting error = %v", err)
	}
}
