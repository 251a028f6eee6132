package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"charterbus/models"
	"charterbus/portone"
)

// Phase is where a payment attempt currently stands.
type Phase string

const (
	PhaseIdle      Phase = "idle"      // no attempt running
	PhaseWidget    Phase = "widget"    // widget handed to the browser
	PhaseVerifying Phase = "verifying" // outcome received, server check running
)

var (
	ErrPaymentInProgress = errors.New("이미 결제가 진행 중입니다.")
	ErrNoPaymentActive   = errors.New("진행 중인 결제가 없습니다.")
	ErrWidgetIncomplete  = errors.New("결제 정보가 올바르지 않습니다.")
)

// Backend covers the reservation API calls a payment needs.
type Backend interface {
	InitiatePayment(ctx context.Context, token string, reservationID int64) (*models.PaymentInitiateResponse, error)
	VerifyPayment(ctx context.Context, token string, req *models.PaymentVerifyRequest) (*models.PaymentVerifyResponse, error)
}

// Orchestrator runs one payment attempt at a time for a browser
// session: prepare the widget, hand it over, take the outcome back and
// verify it. Whatever happens, the attempt ends back at idle, and a
// widget outcome is verified at most once.
type Orchestrator struct {
	loader      *portone.ScriptLoader
	gateway     *portone.Gateway
	backend     Backend
	token       string
	redirectURL string

	mu            sync.Mutex
	phase         Phase
	reservationID int64
	merchantUID   string
}

func NewOrchestrator(loader *portone.ScriptLoader, gateway *portone.Gateway, backend Backend, token, redirectURL string) *Orchestrator {
	return &Orchestrator{
		loader:      loader,
		gateway:     gateway,
		backend:     backend,
		token:       token,
		redirectURL: redirectURL,
		phase:       PhaseIdle,
	}
}

func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Begin prepares a payment for the reservation and returns the widget
// request the browser should open. Only one attempt may run at a time.
func (o *Orchestrator) Begin(ctx context.Context, reservationID int64) (portone.WidgetRequest, error) {
	o.mu.Lock()
	if o.phase != PhaseIdle {
		o.mu.Unlock()
		return portone.WidgetRequest{}, ErrPaymentInProgress
	}
	o.phase = PhaseWidget
	o.reservationID = reservationID
	o.mu.Unlock()

	req, err := o.prepare(ctx, reservationID)
	if err != nil {
		o.reset()
		return portone.WidgetRequest{}, err
	}
	return req, nil
}

func (o *Orchestrator) prepare(ctx context.Context, reservationID int64) (portone.WidgetRequest, error) {
	if err := o.loader.EnsureLoaded(ctx); err != nil {
		return portone.WidgetRequest{}, fmt.Errorf("결제 모듈을 불러오지 못했습니다: %w", err)
	}
	resp, err := o.backend.InitiatePayment(ctx, o.token, reservationID)
	if err != nil {
		return portone.WidgetRequest{}, err
	}
	o.mu.Lock()
	o.merchantUID = resp.PaymentConfig.MerchantUID
	o.mu.Unlock()
	return o.gateway.BuildRequest(&resp.PaymentConfig, o.redirectURL), nil
}

// Complete takes the widget outcome. A failed or incomplete outcome
// ends the attempt with a user-facing message and no verification call.
// A verifiable outcome is verified exactly once.
func (o *Orchestrator) Complete(ctx context.Context, result portone.Result) (*models.PaymentVerifyResponse, error) {
	o.mu.Lock()
	if o.phase != PhaseWidget {
		o.mu.Unlock()
		return nil, ErrNoPaymentActive
	}
	if !result.Success {
		o.resetLocked()
		o.mu.Unlock()
		msg := result.ErrorMsg
		if msg == "" {
			msg = "결제가 완료되지 않았습니다."
		}
		return nil, errors.New(msg)
	}
	if !result.Verifiable() {
		o.resetLocked()
		o.mu.Unlock()
		return nil, ErrWidgetIncomplete
	}
	o.phase = PhaseVerifying
	o.mu.Unlock()

	resp, err := o.backend.VerifyPayment(ctx, o.token, &models.PaymentVerifyRequest{
		ImpUID:      result.ImpUID,
		MerchantUID: result.MerchantUID,
	})
	o.reset()
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("결제 확인에 실패했습니다: %s", resp.Message)
	}
	return resp, nil
}

// Abort ends the current attempt without verifying anything.
func (o *Orchestrator) Abort() {
	o.reset()
}

func (o *Orchestrator) reset() {
	o.mu.Lock()
	o.resetLocked()
	o.mu.Unlock()
}

func (o *Orchestrator) resetLocked() {
	o.phase = PhaseIdle
	o.reservationID = 0
	o.merchantUID = ""
}
