package verify

import (
	"context"
	"errors"
	"sync"
	"time"

	"charterbus/models"
)

// State names where the gate currently is.
type State string

const (
	StateInput    State = "input"    // entering a phone number
	StateCodeSent State = "sent"     // code texted, countdown running
	StateVerified State = "verified" // number confirmed
)

const (
	codeTTL        = 5 * time.Minute
	resendCooldown = time.Minute
)

var (
	ErrInvalidPhone  = errors.New("휴대폰 번호를 확인해주세요.")
	ErrInvalidCode   = errors.New("인증번호 4자리를 입력해주세요.")
	ErrResendTooSoon = errors.New("잠시 후 다시 시도해주세요.")
	ErrNotSent       = errors.New("인증번호를 먼저 요청해주세요.")
)

// Sender talks to the backend verification endpoints.
type Sender interface {
	SendVerification(ctx context.Context, token, phone string) (*models.VerificationSendResponse, error)
	CheckVerification(ctx context.Context, token, phone, code string) (*models.VerificationCheckResponse, error)
}

// Gate walks one phone number through text-message verification. It
// only ever moves forward: once verified it stays verified, and nothing
// past the gate is reachable until it does.
type Gate struct {
	sender Sender
	token  string
	now    func() time.Time

	mu         sync.Mutex
	state      State
	phone      string
	expiresAt  time.Time
	onVerified func(phone string)
	notified   bool
}

// NewGate builds a gate for one signed-in user. onVerified fires exactly
// once, when verification first succeeds.
func NewGate(sender Sender, token string, onVerified func(phone string)) *Gate {
	return &Gate{
		sender:     sender,
		token:      token,
		now:        time.Now,
		state:      StateInput,
		onVerified: onVerified,
	}
}

// SetClock is used by tests to control the countdown.
func (g *Gate) SetClock(now func() time.Time) {
	g.mu.Lock()
	g.now = now
	g.mu.Unlock()
}

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Gate) Phone() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phone
}

// Remaining is how many seconds the current code is still good for.
func (g *Gate) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.remainingLocked()
}

func (g *Gate) remainingLocked() int {
	if g.state != StateCodeSent {
		return 0
	}
	left := int(g.expiresAt.Sub(g.now()).Seconds())
	if left < 0 {
		return 0
	}
	return left
}

// CanResend reports whether a new code may be requested. A fresh code
// holds an exclusive minute; after that resending is allowed until the
// code expires.
func (g *Gate) CanResend() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateCodeSent {
		return false
	}
	return time.Duration(g.remainingLocked())*time.Second <= codeTTL-resendCooldown
}

// SendCode validates the number and asks the backend to text a code.
func (g *Gate) SendCode(ctx context.Context, phone string) error {
	if !ValidPhone(phone) {
		return ErrInvalidPhone
	}
	formatted := FormatPhone(phone)

	resp, err := g.sender.SendVerification(ctx, g.token, formatted)
	if err != nil {
		return err
	}
	if !resp.Success {
		return errors.New(resp.Message)
	}

	g.mu.Lock()
	g.state = StateCodeSent
	g.phone = formatted
	g.expiresAt = g.now().Add(codeTTL)
	g.mu.Unlock()
	return nil
}

// Resend requests a fresh code for the same number. Any code the user
// has typed so far is obsolete once this succeeds.
func (g *Gate) Resend(ctx context.Context) error {
	g.mu.Lock()
	if g.state != StateCodeSent {
		g.mu.Unlock()
		return ErrNotSent
	}
	if time.Duration(g.remainingLocked())*time.Second > codeTTL-resendCooldown {
		g.mu.Unlock()
		return ErrResendTooSoon
	}
	phone := g.phone
	g.mu.Unlock()

	resp, err := g.sender.SendVerification(ctx, g.token, phone)
	if err != nil {
		return err
	}
	if !resp.Success {
		return errors.New(resp.Message)
	}

	g.mu.Lock()
	g.expiresAt = g.now().Add(codeTTL)
	g.mu.Unlock()
	return nil
}

// SubmitCode checks the typed code. The four-digit shape is enforced
// locally; the actual match is the backend's call.
func (g *Gate) SubmitCode(ctx context.Context, code string) error {
	if !ValidCode(code) {
		return ErrInvalidCode
	}
	g.mu.Lock()
	if g.state != StateCodeSent {
		g.mu.Unlock()
		return ErrNotSent
	}
	phone := g.phone
	g.mu.Unlock()

	resp, err := g.sender.CheckVerification(ctx, g.token, phone, code)
	if err != nil {
		return err
	}
	if !resp.Success {
		return errors.New(resp.Message)
	}

	g.mu.Lock()
	g.state = StateVerified
	fire := !g.notified
	g.notified = true
	cb := g.onVerified
	g.mu.Unlock()

	if fire && cb != nil {
		cb(phone)
	}
	return nil
}

// EditNumber abandons the current code and goes back to number entry.
func (g *Gate) EditNumber() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateCodeSent {
		return
	}
	g.state = StateInput
	g.expiresAt = time.Time{}
}
