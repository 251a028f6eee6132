package utils

import (
	"go.uber.org/zap"
)

// ExternalCall describes one request/response pair against an external
// provider (maps, identity, reservation API, payment widget backend).
type ExternalCall struct {
	Provider   string
	Endpoint   string
	RequestID  string
	StatusCode int
	DurationMs int64
	Err        error
}

// LogExternalAPI records an external provider round trip. All remote
// truth lives behind these providers, so the audit trail is the only
// local record of what was asked and what came back.
func LogExternalAPI(call ExternalCall) {
	SafeGo(func() {
		fields := []zap.Field{
			zap.String("provider", call.Provider),
			zap.String("endpoint", call.Endpoint),
			zap.Int("statusCode", call.StatusCode),
			zap.Int64("durationMs", call.DurationMs),
		}
		if call.RequestID != "" {
			fields = append(fields, zap.String("requestId", call.RequestID))
		}
		if call.Err != nil {
			fields = append(fields, zap.Error(call.Err))
			Logger.Warn("External API call failed", fields...)
			return
		}
		Logger.Info("External API call", fields...)
	})
}
