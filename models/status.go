package models

// Reservation statuses as reported by the reservation API. The lifecycle
// is entirely server-driven; the client only reads these and triggers
// transitions through API calls.
const (
	StatusPending          = "pending"
	StatusApproved         = "approved" // deprecated server-side, still returned for old rows
	StatusPaymentWaiting   = "payment_waiting"
	StatusPaymentCompleted = "payment_completed"
	StatusConfirmed        = "confirmed"
	StatusDispatched       = "dispatched"
	StatusInProgress       = "in_progress"
	StatusCompleted        = "completed"
	StatusCancelled        = "cancelled"
	StatusPaymentFailed    = "payment_failed"
)

var statusNames = map[string]string{
	StatusPending:          "예약 대기",
	StatusApproved:         "승인됨",
	StatusPaymentWaiting:   "결제 대기",
	StatusPaymentCompleted: "결제 완료",
	StatusConfirmed:        "예약 확정",
	StatusDispatched:       "배차 완료",
	StatusInProgress:       "운행 중",
	StatusCompleted:        "운행 완료",
	StatusCancelled:        "취소됨",
	StatusPaymentFailed:    "결제 실패",
}

// StatusDisplayName returns the Korean label for a reservation status,
// falling back to the raw status for values this client does not know.
func StatusDisplayName(status string) string {
	if name, ok := statusNames[status]; ok {
		return name
	}
	return status
}

// KnownStatus reports whether the status is one of the ten enumerated
// reservation statuses. Used to reject bad list filters before hitting
// the API.
func KnownStatus(status string) bool {
	_, ok := statusNames[status]
	return ok
}

// Vehicle types offered on the quote form.
const (
	VehicleGeneral = "general"
	VehicleSolati  = "solati"
)

// Payment methods selectable on the payment screen.
const (
	PayMethodCard  = "card"
	PayMethodTrans = "trans"
	PayMethodVbank = "vbank"
)

func ValidPayMethod(m string) bool {
	return m == PayMethodCard || m == PayMethodTrans || m == PayMethodVbank
}
