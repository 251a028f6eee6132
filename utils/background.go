package utils

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// GlobalWaitGroup tracks fire-and-forget goroutines: external-call audit
// entries and the redis writes behind verified-phone persistence.
var GlobalWaitGroup sync.WaitGroup

// SafeGo runs fn in a tracked goroutine so shutdown can wait for it.
func SafeGo(fn func()) {
	GlobalWaitGroup.Add(1)
	go func() {
		defer GlobalWaitGroup.Done()
		fn()
	}()
}

// WaitForBackgroundTasks blocks until every tracked goroutine finishes
// or the timeout passes, and returns whether the drain completed.
func WaitForBackgroundTasks(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		defer close(done)
		GlobalWaitGroup.Wait()
	}()

	select {
	case <-done:
		Logger.Info("Background tasks drained")
		return true
	case <-time.After(timeout):
		Logger.Warn("Background task drain timed out", zap.Duration("timeout", timeout))
		return false
	}
}
