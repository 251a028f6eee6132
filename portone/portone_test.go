package portone

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"charterbus/models"
)

func TestEnsureLoadedCoalescesConcurrentCallers(t *testing.T) {
	var loads int32
	gate := make(chan struct{})
	loader := NewScriptLoader(func(ctx context.Context) error {
		atomic.AddInt32(&loads, 1)
		<-gate
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := loader.EnsureLoaded(context.Background()); err != nil {
				t.Errorf("EnsureLoaded() error = %v", err)
			}
		}()
	}
	close(gate)
	wg.Wait()

	if got := atomic.LoadInt32(&loads); got != 1 {
		t.Fatalf("load ran %d times", got)
	}
	// Already loaded: no second load.
	if err := loader.EnsureLoaded(context.Background()); err != nil {
		t.Fatalf("EnsureLoaded() after load error = %v", err)
	}
	if got := atomic.LoadInt32(&loads); got != 1 {
		t.Fatalf("load ran %d times after cached call", got)
	}
}

func TestEnsureLoadedRetriesAfterFailure(t *testing.T) {
	var loads int
	loader := NewScriptLoader(func(ctx context.Context) error {
		loads++
		if loads == 1 {
			return errors.New("cdn unreachable")
		}
		return nil
	})

	if err := loader.EnsureLoaded(context.Background()); err == nil {
		t.Fatal("expected first load to fail")
	}
	if err := loader.EnsureLoaded(context.Background()); err != nil {
		t.Fatalf("retry error = %v", err)
	}
	if loads != 2 {
		t.Fatalf("loads = %d", loads)
	}
}

func TestNewGatewayRequiresUserCode(t *testing.T) {
	if _, err := NewGateway(""); !errors.Is(err, ErrNoUserCode) {
		t.Fatalf("NewGateway(\"\") error = %v", err)
	}
	g, err := NewGateway("imp12345678")
	if err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}
	if g.UserCode() != "imp12345678" {
		t.Fatalf("UserCode() = %q", g.UserCode())
	}
}

func TestBuildRequestCarriesRedirect(t *testing.T) {
	g, _ := NewGateway("imp12345678")
	req := g.BuildRequest(&models.PaymentConfig{
		PG:          "html5_inicis",
		PayMethod:   models.PayMethodCard,
		MerchantUID: "order_20260831_1",
		Name:        "전세버스 예약금",
		Amount:      55000,
		BuyerName:   "홍길동",
		BuyerTel:    "010-1234-5678",
	}, "https://bus.example.com/payment/complete")

	if req.MRedirectURL != "https://bus.example.com/payment/complete" {
		t.Fatalf("MRedirectURL = %q", req.MRedirectURL)
	}
	if req.Amount != 55000 || req.MerchantUID != "order_20260831_1" {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestBuildRequestDefaultsUnknownPayMethod(t *testing.T) {
	g, _ := NewGateway("imp12345678")
	req := g.BuildRequest(&models.PaymentConfig{
		PG:          "html5_inicis",
		PayMethod:   "samsungpay",
		MerchantUID: "order_20260831_2",
		Amount:      55000,
	}, "https://bus.example.com/payment/complete")

	if req.PayMethod != models.PayMethodCard {
		t.Fatalf("PayMethod = %q, want card fallback", req.PayMethod)
	}
}

func TestResultVerifiable(t *testing.T) {
	cases := []struct {
		name string
		r    Result
		want bool
	}{
		{"success with both refs", Result{Success: true, ImpUID: "imp_1", MerchantUID: "m_1"}, true},
		{"success missing imp uid", Result{Success: true, MerchantUID: "m_1"}, false},
		{"success missing merchant uid", Result{Success: true, ImpUID: "imp_1"}, false},
		{"failure with refs", Result{Success: false, ImpUID: "imp_1", MerchantUID: "m_1"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.r.Verifiable(); got != tc.want {
				t.Fatalf("Verifiable() = %v", got)
			}
		})
	}
}

func TestParseRedirect(t *testing.T) {
	q, _ := url.ParseQuery("imp_success=true&imp_uid=imp_9&merchant_uid=order_9")
	r := ParseRedirect(q)
	if !r.Verifiable() {
		t.Fatalf("expected verifiable result, got %+v", r)
	}

	q, _ = url.ParseQuery("imp_success=false&error_msg=%EC%82%AC%EC%9A%A9%EC%9E%90%20%EC%B7%A8%EC%86%8C")
	r = ParseRedirect(q)
	if r.Success || r.ErrorMsg != "사용자 취소" {
		t.Fatalf("failure redirect parsed wrong: %+v", r)
	}
}
