package verify

import (
	"context"
	"errors"
	"testing"
	"time"

	"charterbus/models"
)

func TestFormatPhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"01012345678", "010-1234-5678"},
		{"010-1234-5678", "010-1234-5678"},
		{"010 1234 5678 999", "010-1234-5678"},
		{"0101234", "010-1234"},
		{"010", "010"},
		{"01", "01"},
		{"abc010def1234", "010-1234"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := FormatPhone(tc.in); got != tc.want {
			t.Fatalf("FormatPhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidPhone(t *testing.T) {
	valid := []string{"01012345678", "010-1234-5678", "0161234567"}
	for _, p := range valid {
		if !ValidPhone(p) {
			t.Fatalf("ValidPhone(%q) = false", p)
		}
	}
	invalid := []string{"", "0212345678", "010123456", "010123456789", "016-12345"}
	for _, p := range invalid {
		if ValidPhone(p) {
			t.Fatalf("ValidPhone(%q) = true", p)
		}
	}
}

func TestValidCode(t *testing.T) {
	if !ValidCode("0421") {
		t.Fatal("ValidCode(\"0421\") = false")
	}
	for _, c := range []string{"", "123", "12345", "12a4", "１２３４"} {
		if ValidCode(c) {
			t.Fatalf("ValidCode(%q) = true", c)
		}
	}
}

type stubSender struct {
	sendCalls  int
	checkCalls int
	sendResp   *models.VerificationSendResponse
	checkResp  *models.VerificationCheckResponse
	sendErr    error
	checkErr   error
	lastPhone  string
	lastCode   string
}

func (s *stubSender) SendVerification(_ context.Context, _, phone string) (*models.VerificationSendResponse, error) {
	s.sendCalls++
	s.lastPhone = phone
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	return s.sendResp, nil
}

func (s *stubSender) CheckVerification(_ context.Context, _, phone, code string) (*models.VerificationCheckResponse, error) {
	s.checkCalls++
	s.lastPhone = phone
	s.lastCode = code
	if s.checkErr != nil {
		return nil, s.checkErr
	}
	return s.checkResp, nil
}

func okSender() *stubSender {
	return &stubSender{
		sendResp:  &models.VerificationSendResponse{Success: true},
		checkResp: &models.VerificationCheckResponse{Success: true},
	}
}

func TestGateHappyPath(t *testing.T) {
	sender := okSender()
	var verifiedWith string
	fired := 0
	g := NewGate(sender, "tok", func(phone string) {
		verifiedWith = phone
		fired++
	})

	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	g.SetClock(func() time.Time { return base })

	if err := g.SendCode(context.Background(), "01012345678"); err != nil {
		t.Fatalf("SendCode() error = %v", err)
	}
	if g.State() != StateCodeSent {
		t.Fatalf("State() = %q", g.State())
	}
	if got := g.Remaining(); got != 300 {
		t.Fatalf("Remaining() = %d", got)
	}
	if sender.lastPhone != "010-1234-5678" {
		t.Fatalf("send phone = %q", sender.lastPhone)
	}

	if err := g.SubmitCode(context.Background(), "1234"); err != nil {
		t.Fatalf("SubmitCode() error = %v", err)
	}
	if g.State() != StateVerified {
		t.Fatalf("State() = %q", g.State())
	}
	if verifiedWith != "010-1234-5678" || fired != 1 {
		t.Fatalf("callback: phone=%q fired=%d", verifiedWith, fired)
	}
}

func TestGateRejectsBadInput(t *testing.T) {
	g := NewGate(okSender(), "tok", nil)
	if err := g.SendCode(context.Background(), "0212345678"); !errors.Is(err, ErrInvalidPhone) {
		t.Fatalf("SendCode() error = %v", err)
	}
	if err := g.SubmitCode(context.Background(), "12x4"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("SubmitCode() error = %v", err)
	}
	if err := g.SubmitCode(context.Background(), "1234"); !errors.Is(err, ErrNotSent) {
		t.Fatalf("SubmitCode() before send error = %v", err)
	}
}

func TestResendCooldown(t *testing.T) {
	sender := okSender()
	g := NewGate(sender, "tok", nil)

	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	now := base
	g.SetClock(func() time.Time { return now })

	if err := g.SendCode(context.Background(), "01012345678"); err != nil {
		t.Fatalf("SendCode() error = %v", err)
	}

	// 30s in: still inside the exclusive first minute.
	now = base.Add(30 * time.Second)
	if g.CanResend() {
		t.Fatal("CanResend() = true at 30s")
	}
	if err := g.Resend(context.Background()); !errors.Is(err, ErrResendTooSoon) {
		t.Fatalf("Resend() at 30s error = %v", err)
	}

	// 61s in: resend opens up.
	now = base.Add(61 * time.Second)
	if !g.CanResend() {
		t.Fatal("CanResend() = false at 61s")
	}
	if err := g.Resend(context.Background()); err != nil {
		t.Fatalf("Resend() error = %v", err)
	}
	if sender.sendCalls != 2 {
		t.Fatalf("sendCalls = %d", sender.sendCalls)
	}
	// Countdown restarted from the resend.
	if got := g.Remaining(); got != 300 {
		t.Fatalf("Remaining() after resend = %d", got)
	}
}

func TestEditNumberReturnsToInput(t *testing.T) {
	g := NewGate(okSender(), "tok", nil)
	if err := g.SendCode(context.Background(), "01012345678"); err != nil {
		t.Fatalf("SendCode() error = %v", err)
	}
	g.EditNumber()
	if g.State() != StateInput {
		t.Fatalf("State() = %q", g.State())
	}
	if g.Remaining() != 0 {
		t.Fatal("countdown survived EditNumber")
	}
}

func TestBackendRejectionKeepsState(t *testing.T) {
	sender := okSender()
	sender.checkResp = &models.VerificationCheckResponse{Success: false, Message: "인증번호가 일치하지 않습니다."}
	g := NewGate(sender, "tok", nil)
	if err := g.SendCode(context.Background(), "01012345678"); err != nil {
		t.Fatalf("SendCode() error = %v", err)
	}
	err := g.SubmitCode(context.Background(), "9999")
	if err == nil || err.Error() != "인증번호가 일치하지 않습니다." {
		t.Fatalf("SubmitCode() error = %v", err)
	}
	if g.State() != StateCodeSent {
		t.Fatalf("State() = %q, wrong code must not advance the gate", g.State())
	}
}

func TestCallbackFiresOnce(t *testing.T) {
	fired := 0
	sender := okSender()
	g := NewGate(sender, "tok", func(string) { fired++ })
	if err := g.SendCode(context.Background(), "01012345678"); err != nil {
		t.Fatalf("SendCode() error = %v", err)
	}
	if err := g.SubmitCode(context.Background(), "1234"); err != nil {
		t.Fatalf("SubmitCode() error = %v", err)
	}
	// Verified gates never fire again.
	if err := g.SubmitCode(context.Background(), "1234"); !errors.Is(err, ErrNotSent) {
		t.Fatalf("second SubmitCode() error = %v", err)
	}
	if fired != 1 {
		t.Fatalf("fired = %d", fired)
	}
}
