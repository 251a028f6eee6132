package portone

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"charterbus/models"
)

// ErrNoUserCode means the gateway was constructed without a merchant
// identification code. Payments cannot proceed without one.
var ErrNoUserCode = errors.New("portone user code not configured")

// ScriptLoader prepares the payment widget exactly once. Concurrent
// callers coalesce onto the same in-flight load; a failed load can be
// retried, a successful one is cached for the lifetime of the process.
type ScriptLoader struct {
	load func(ctx context.Context) error

	mu       sync.Mutex
	loaded   bool
	inflight chan struct{}
	err      error
}

func NewScriptLoader(load func(ctx context.Context) error) *ScriptLoader {
	return &ScriptLoader{load: load}
}

// EnsureLoaded blocks until the widget is ready. Safe to call from any
// number of goroutines.
func (l *ScriptLoader) EnsureLoaded(ctx context.Context) error {
	l.mu.Lock()
	if l.loaded {
		l.mu.Unlock()
		return nil
	}
	if l.inflight != nil {
		ch := l.inflight
		l.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.loaded {
			return nil
		}
		return l.err
	}
	ch := make(chan struct{})
	l.inflight = ch
	l.mu.Unlock()

	err := l.load(ctx)

	l.mu.Lock()
	l.loaded = err == nil
	l.err = err
	l.inflight = nil
	close(ch)
	l.mu.Unlock()
	return err
}

// WidgetRequest is the parameter set handed to the browser widget.
type WidgetRequest struct {
	PG           string `json:"pg"`
	PayMethod    string `json:"pay_method"`
	MerchantUID  string `json:"merchant_uid"`
	Name         string `json:"name"`
	Amount       int64  `json:"amount"`
	BuyerEmail   string `json:"buyer_email"`
	BuyerName    string `json:"buyer_name"`
	BuyerTel     string `json:"buyer_tel"`
	MRedirectURL string `json:"m_redirect_url"`
}

// Result is the widget's one-shot outcome for a payment attempt.
type Result struct {
	Success     bool
	ImpUID      string
	MerchantUID string
	ErrorMsg    string
}

// Verifiable reports whether the outcome carries everything needed for
// server-side verification. A success without both transaction
// references must never be verified.
func (r Result) Verifiable() bool {
	return r.Success && r.ImpUID != "" && r.MerchantUID != ""
}

// Gateway builds widget requests for one merchant account.
type Gateway struct {
	userCode string
}

func NewGateway(userCode string) (*Gateway, error) {
	if userCode == "" {
		return nil, ErrNoUserCode
	}
	return &Gateway{userCode: userCode}, nil
}

func (g *Gateway) UserCode() string { return g.userCode }

// BuildRequest turns the backend's payment parameters into the widget
// call. On mobile the widget navigates away, so the redirect URL is
// where the outcome comes back.
func (g *Gateway) BuildRequest(cfg *models.PaymentConfig, redirectURL string) WidgetRequest {
	method := cfg.PayMethod
	if !models.ValidPayMethod(method) {
		method = models.PayMethodCard
	}
	return WidgetRequest{
		PG:           cfg.PG,
		PayMethod:    method,
		MerchantUID:  cfg.MerchantUID,
		Name:         cfg.Name,
		Amount:       cfg.Amount,
		BuyerEmail:   cfg.BuyerEmail,
		BuyerName:    cfg.BuyerName,
		BuyerTel:     cfg.BuyerTel,
		MRedirectURL: redirectURL,
	}
}

// ParseRedirect reads the widget outcome off the mobile redirect query.
func ParseRedirect(query url.Values) Result {
	return Result{
		Success:     query.Get("imp_success") == "true",
		ImpUID:      query.Get("imp_uid"),
		MerchantUID: query.Get("merchant_uid"),
		ErrorMsg:    query.Get("error_msg"),
	}
}
