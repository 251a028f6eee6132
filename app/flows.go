package app

import (
	"sync"
	"time"

	"charterbus/booking"
	"charterbus/maps"
	"charterbus/models"
	"charterbus/payment"
	"charterbus/verify"
)

const flowIdleTTL = time.Hour

// Flow is the in-memory half of one browser session: the booking form
// being filled, the verification gate, the map picker and the payment
// attempt. Durable facts (session, quote snapshot, verified phone) live
// in redis; this is the transient state between taps.
type Flow struct {
	mu           sync.Mutex
	lastSeen     time.Time
	Workflow     *booking.Workflow
	Builder      *booking.QuoteBuilder
	VerifyGate   *verify.Gate
	Orchestrator *payment.Orchestrator
	Picker       *maps.Picker
}

// SetPicker swaps in a new picker, closing any previous one so its
// pending lookups cannot land.
func (f *Flow) SetPicker(p *maps.Picker) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Picker != nil {
		f.Picker.Close()
	}
	f.Picker = p
}

func (f *Flow) CurrentPicker() *maps.Picker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Picker
}

// FlowRegistry keeps one Flow per live browser session and evicts
// flows nobody has touched for a while.
type FlowRegistry struct {
	mu    sync.Mutex
	flows map[string]*Flow
	stop  chan struct{}
}

func NewFlowRegistry() *FlowRegistry {
	r := &FlowRegistry{
		flows: make(map[string]*Flow),
		stop:  make(chan struct{}),
	}
	go r.evictLoop()
	return r
}

// GetOrCreate returns the flow for a session, building it on first use.
func (r *FlowRegistry) GetOrCreate(session *models.Session, build func(*models.Session) *Flow) *Flow {
	r.mu.Lock()
	defer r.mu.Unlock()
	flow, ok := r.flows[session.ID]
	if !ok {
		flow = build(session)
		r.flows[session.ID] = flow
	}
	flow.lastSeen = time.Now()
	return flow
}

// Drop discards a session's flow, closing its picker.
func (r *FlowRegistry) Drop(sessionID string) {
	r.mu.Lock()
	flow, ok := r.flows[sessionID]
	delete(r.flows, sessionID)
	r.mu.Unlock()
	if ok && flow.CurrentPicker() != nil {
		flow.CurrentPicker().Close()
	}
}

func (r *FlowRegistry) Stop() {
	close(r.stop)
}

func (r *FlowRegistry) evictLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-flowIdleTTL)
			r.mu.Lock()
			for id, flow := range r.flows {
				if flow.lastSeen.Before(cutoff) {
					delete(r.flows, id)
				}
			}
			r.mu.Unlock()
		}
	}
}
