package api

import (
	"encoding/json"
	"fmt"
)

// Error is a failed call against the reservation API. Message holds the
// most specific human-readable text the server provided.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("reservation api: %d: %s", e.StatusCode, e.Message)
}

// extractMessage pulls the most useful message out of an error response
// body. The API is inconsistent about its error envelope, so try the
// "error" field first, then "detail", then fall back to a generic text.
func extractMessage(body []byte, fallback string) string {
	var envelope struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error != "" {
			return envelope.Error
		}
		if envelope.Detail != "" {
			return envelope.Detail
		}
	}
	return fallback
}

func newError(statusCode int, body []byte, fallback string) *Error {
	return &Error{StatusCode: statusCode, Message: extractMessage(body, fallback)}
}
