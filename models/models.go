package models

import "time"

// Session is the client-side identity resolved from the identity provider.
// Canonical account state lives with the provider; this is a projection.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	DisplayName  string    `json:"displayName"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Provider     string    `json:"provider"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Customer struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	Name        string  `json:"name"`
	Phone       *string `json:"phone"`
	Provider    string  `json:"provider"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	LastLoginAt *string `json:"last_login_at"`
}

type VehicleBreakdown struct {
	VehicleNo  int `json:"vehicle_no"`
	Passengers int `json:"passengers"`
}

// Quote is the server-computed price estimate bound to one trip draft
// snapshot. It is immutable; any draft edit invalidates it client-side.
type Quote struct {
	Success            bool               `json:"success"`
	TotalPrice         int64              `json:"total_price"`
	DepositAmount      int64              `json:"deposit_amount"`
	RemainingAmount    int64              `json:"remaining_amount"`
	DistanceKM         float64            `json:"distance_km"`
	EstimatedHours     float64            `json:"estimated_hours"`
	Days               int                `json:"days"`
	VehicleCount       int                `json:"vehicle_count"`
	IsMultiVehicle     bool               `json:"is_multi_vehicle"`
	VehicleBreakdown   []VehicleBreakdown `json:"vehicle_breakdown"`
	VehicleTypeDisplay string             `json:"vehicle_type_display"`
	SeasonDisplay      string             `json:"season_display"`
	IsRoundTrip        bool               `json:"is_round_trip"`
	OneDayFare         *int64             `json:"one_day_fare,omitempty"`
}

// QuoteDetail mirrors the nested quote snapshot the API attaches to a
// reservation (distinct from the live Quote response above).
type QuoteDetail struct {
	BasePrice      int64   `json:"base_price"`
	DistancePrice  int64   `json:"distance_price"`
	TotalPrice     int64   `json:"total_price"`
	DistanceKM     float64 `json:"distance_km"`
	EstimatedHours float64 `json:"estimated_hours"`
}

type PaymentStatusInfo struct {
	Status        string `json:"status"`
	StatusDisplay string `json:"status_display"`
}

// Reservation is a read-only projection of the server-owned entity.
type Reservation struct {
	ID                     int64              `json:"id"`
	Customer               *Customer          `json:"customer,omitempty"`
	DepartureLocation      string             `json:"departure_location"`
	DepartureCoordinates   string             `json:"departure_coordinates"` // "lat,lng"
	DestinationLocation    string             `json:"destination_location"`
	DestinationCoordinates string             `json:"destination_coordinates"`
	DepartureDate          string             `json:"departure_date"` // ISO 8601
	ReturnDate             *string            `json:"return_date"`
	PassengerCount         int                `json:"passenger_count"`
	VehicleCount           int                `json:"vehicle_count"`
	VehicleType            string             `json:"vehicle_type"`
	VehicleTypeDisplay     string             `json:"vehicle_type_display"`
	IsMultiVehicle         bool               `json:"is_multi_vehicle"`
	VehicleBreakdown       []VehicleBreakdown `json:"vehicle_breakdown"`
	IsRoundTrip            bool               `json:"is_round_trip"`
	DriverAccompanied      bool               `json:"driver_accompanied"`
	SpecialRequirements    string             `json:"special_requirements"`
	Status                 string             `json:"status"`
	StatusDisplay          string             `json:"status_display"`
	QuoteAmount            int64              `json:"quote_amount"`
	Quote                  *QuoteDetail       `json:"quote"`
	DepositAmount          int64              `json:"deposit_amount"`
	RemainingAmount        int64              `json:"remaining_amount"`
	PaymentStatus          *PaymentStatusInfo `json:"payment_status,omitempty"`
	LatestPayment          *Payment           `json:"latest_payment,omitempty"`
	CreatedAt              string             `json:"created_at"`
	UpdatedAt              string             `json:"updated_at"`
	CanCancel              bool               `json:"can_cancel"`
}

type Payment struct {
	ID            string  `json:"id"`
	ReservationID int64   `json:"reservation_id"`
	ImpUID        *string `json:"imp_uid"`
	MerchantUID   string  `json:"merchant_uid"`
	PaymentMethod string  `json:"payment_method"`
	PGProvider    string  `json:"pg_provider"`
	Amount        int64   `json:"amount"`
	Currency      string  `json:"currency"`
	RefundAmount  *int64  `json:"refund_amount,omitempty"`
	Status        string  `json:"status"`
	StatusDisplay string  `json:"status_display"`
	ReceiptURL    *string `json:"receipt_url"`
	FailReason    *string `json:"fail_reason"`
	CancelReason  *string `json:"cancel_reason"`
	PaidAt        *string `json:"paid_at"`
	CreatedAt     string  `json:"created_at"`
	CanCancel     bool    `json:"can_cancel"`
}

type CreateReservationRequest struct {
	DepartureLocation      string  `json:"departure_location"`
	DepartureCoordinates   string  `json:"departure_coordinates"`
	DestinationLocation    string  `json:"destination_location"`
	DestinationCoordinates string  `json:"destination_coordinates"`
	DepartureDate          string  `json:"departure_date"`
	ReturnDate             *string `json:"return_date,omitempty"`
	PassengerCount         int     `json:"passenger_count"`
	VehicleCount           int     `json:"vehicle_count"`
	VehicleType            string  `json:"vehicle_type"`
	IsRoundTrip            bool    `json:"is_round_trip"`
	DriverAccompanied      bool    `json:"driver_accompanied"`
	SpecialRequirements    string  `json:"special_requirements,omitempty"`
}

// PaymentConfig is the widget invocation config issued by the server for
// one reservation. The merchant_uid is server-generated; the client never
// fabricates order references.
type PaymentConfig struct {
	PG          string `json:"pg"`
	PayMethod   string `json:"pay_method"`
	MerchantUID string `json:"merchant_uid"`
	Name        string `json:"name"`
	Amount      int64  `json:"amount"`
	BuyerEmail  string `json:"buyer_email"`
	BuyerName   string `json:"buyer_name"`
	BuyerTel    string `json:"buyer_tel"`
}

type PaymentInitiateResponse struct {
	Success         bool          `json:"success"`
	PaymentConfig   PaymentConfig `json:"payment_config"`
	DepositAmount   int64         `json:"deposit_amount"`
	TotalAmount     int64         `json:"total_amount"`
	RemainingAmount int64         `json:"remaining_amount"`
}

type PaymentVerifyRequest struct {
	ImpUID      string `json:"imp_uid"`
	MerchantUID string `json:"merchant_uid"`
}

type PaymentVerifyResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	PaymentStatus     string `json:"payment_status"`
	ReservationStatus string `json:"reservation_status"`
	ReceiptURL        string `json:"receipt_url,omitempty"`
}

type PaymentStatusResponse struct {
	ReservationStatus        string   `json:"reservation_status"`
	ReservationStatusDisplay string   `json:"reservation_status_display"`
	HasPayment               bool     `json:"has_payment"`
	DepositAmount            int64    `json:"deposit_amount"`
	RemainingAmount          int64    `json:"remaining_amount"`
	TotalAmount              int64    `json:"total_amount"`
	Payment                  *Payment `json:"payment,omitempty"`
}

type PaginatedReservations struct {
	Count    int           `json:"count"`
	Next     *string       `json:"next"`
	Previous *string       `json:"previous"`
	Results  []Reservation `json:"results"`
}

type PaginatedPayments struct {
	Count    int       `json:"count"`
	Next     *string   `json:"next"`
	Previous *string   `json:"previous"`
	Results  []Payment `json:"results"`
}

type VerificationSendResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"` // echoed back by dev environments only
}

type VerificationCheckResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
