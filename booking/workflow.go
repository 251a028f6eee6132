package booking

import (
	"errors"
	"fmt"
	"sync"
)

// Screen is where the user is in the booking flow.
type Screen string

const (
	ScreenLogin        Screen = "login"
	ScreenHome         Screen = "home"
	ScreenBooking      Screen = "booking"
	ScreenVerifying    Screen = "verifying"
	ScreenSubmitting   Screen = "submitting"
	ScreenReservations Screen = "reservations"
	ScreenPaying       Screen = "paying"
)

// transitions lists where each screen may legally go. Losing the
// session is handled separately: that always lands on login.
var transitions = map[Screen][]Screen{
	ScreenLogin:        {ScreenHome},
	ScreenHome:         {ScreenBooking, ScreenReservations},
	ScreenBooking:      {ScreenHome, ScreenVerifying, ScreenSubmitting},
	ScreenVerifying:    {ScreenBooking, ScreenSubmitting},
	ScreenSubmitting:   {ScreenReservations, ScreenBooking},
	ScreenReservations: {ScreenHome, ScreenPaying, ScreenBooking},
	ScreenPaying:       {ScreenReservations},
}

var ErrBadTransition = errors.New("illegal screen transition")

// Workflow tracks the screen a browser session is on and refuses jumps
// the flow does not allow, so a stale tab cannot land mid-payment or
// past the verification gate.
type Workflow struct {
	mu      sync.Mutex
	current Screen
}

func NewWorkflow() *Workflow {
	return &Workflow{current: ScreenLogin}
}

func (w *Workflow) Current() Screen {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Goto moves to the target screen if the flow allows it.
func (w *Workflow) Goto(target Screen) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, next := range transitions[w.current] {
		if next == target {
			w.current = target
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrBadTransition, w.current, target)
}

// SessionLost drops the workflow back to login from anywhere.
func (w *Workflow) SessionLost() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.current = ScreenLogin
}
