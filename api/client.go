package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"charterbus/models"
	"charterbus/utils"
)

// Client talks to the reservation backend. Every call carries the
// signed-in user's bearer token; the backend owns all booking and
// payment business logic, this client only transports it.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// NewClientWithHTTP is used by tests to point the client at a stub server.
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: baseURL, httpClient: hc}
}

// QuoteParams is the trip shape the pricing endpoint quotes against.
// Coordinates are "lat,lng" strings; the server computes distance from
// them, so both pairs are always sent.
type QuoteParams struct {
	DepartureLocation      string
	DestinationLocation    string
	DepartureCoordinates   string
	DestinationCoordinates string
	DepartureDate          string
	ReturnDate             string
	PassengerCount         int
	IsRoundTrip            bool
	IsSolati               bool
}

func (c *Client) do(ctx context.Context, method, path, token string, body any, out any, fallback string) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		utils.LogExternalAPI(utils.ExternalCall{
			Provider: "reservation-api", Endpoint: path,
			DurationMs: time.Since(start).Milliseconds(), Err: err,
		})
		return &Error{StatusCode: 0, Message: fallback}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	utils.LogExternalAPI(utils.ExternalCall{
		Provider: "reservation-api", Endpoint: path, StatusCode: resp.StatusCode,
		DurationMs: time.Since(start).Milliseconds(), Err: err,
	})
	if err != nil {
		return &Error{StatusCode: resp.StatusCode, Message: fallback}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(resp.StatusCode, respBody, fallback)
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// GetQuote prices a trip without creating anything on the backend.
func (c *Client) GetQuote(ctx context.Context, token string, params QuoteParams) (*models.Quote, error) {
	q := url.Values{}
	q.Set("departure_location", params.DepartureLocation)
	q.Set("destination_location", params.DestinationLocation)
	q.Set("departure_coordinates", params.DepartureCoordinates)
	q.Set("destination_coordinates", params.DestinationCoordinates)
	q.Set("departure_date", params.DepartureDate)
	if params.ReturnDate != "" {
		q.Set("return_date", params.ReturnDate)
	}
	q.Set("passenger_count", strconv.Itoa(params.PassengerCount))
	q.Set("is_round_trip", strconv.FormatBool(params.IsRoundTrip))
	q.Set("is_solati", strconv.FormatBool(params.IsSolati))

	var quote models.Quote
	err := c.do(ctx, http.MethodGet, "/api/v1/reservation/quote/?"+q.Encode(), token, nil, &quote,
		"요금 조회에 실패했습니다.")
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (c *Client) CreateReservation(ctx context.Context, token string, req *models.CreateReservationRequest) (*models.Reservation, error) {
	var created models.Reservation
	err := c.do(ctx, http.MethodPost, "/api/v1/reservation/", token, req, &created,
		"예약 신청에 실패했습니다.")
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// ListReservations fetches one page of the signed-in user's reservations,
// optionally filtered by status.
func (c *Client) ListReservations(ctx context.Context, token string, page int, status string) (*models.PaginatedReservations, error) {
	q := url.Values{}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	if status != "" {
		q.Set("status", status)
	}
	path := "/api/v1/reservation/"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var list models.PaginatedReservations
	err := c.do(ctx, http.MethodGet, path, token, nil, &list,
		"예약 목록을 불러오지 못했습니다.")
	if err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) GetReservation(ctx context.Context, token string, id int64) (*models.Reservation, error) {
	var r models.Reservation
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/reservation/%d/", id), token, nil, &r,
		"예약 정보를 불러오지 못했습니다.")
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) CancelReservation(ctx context.Context, token string, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/reservation/%d/cancel/", id), token,
		struct{}{}, nil, "예약 취소에 실패했습니다.")
}

// InitiatePayment asks the backend to open a payment for a reservation
// and returns the widget parameters the browser needs.
func (c *Client) InitiatePayment(ctx context.Context, token string, reservationID int64) (*models.PaymentInitiateResponse, error) {
	var resp models.PaymentInitiateResponse
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/reservation/%d/payment/initiate/", reservationID),
		token, nil, &resp, "결제 준비에 실패했습니다.")
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyPayment confirms a widget-approved payment against the gateway.
// The backend owns the actual verification; this only relays the
// transaction references.
func (c *Client) VerifyPayment(ctx context.Context, token string, req *models.PaymentVerifyRequest) (*models.PaymentVerifyResponse, error) {
	var resp models.PaymentVerifyResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/reservation/payment/verify/", token, req, &resp,
		"결제 확인에 실패했습니다.")
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetPaymentStatus(ctx context.Context, token string, reservationID int64) (*models.PaymentStatusResponse, error) {
	var resp models.PaymentStatusResponse
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/reservation/%d/payment/status/", reservationID), token, nil, &resp,
		"결제 상태를 불러오지 못했습니다.")
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) PaymentHistory(ctx context.Context, token string, page int) (*models.PaginatedPayments, error) {
	path := "/api/v1/reservation/payment/history/"
	if page > 1 {
		path += "?page=" + strconv.Itoa(page)
	}
	var resp models.PaginatedPayments
	err := c.do(ctx, http.MethodGet, path, token, nil, &resp,
		"결제 내역을 불러오지 못했습니다.")
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CancelPayment(ctx context.Context, token string, paymentID int64, reason string) error {
	body := map[string]string{"reason": reason}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/reservation/payment/%d/cancel/", paymentID), token,
		body, nil, "결제 취소에 실패했습니다.")
}

// SendVerification asks the backend to text a verification code to the
// given phone number.
func (c *Client) SendVerification(ctx context.Context, token, phone string) (*models.VerificationSendResponse, error) {
	body := map[string]string{"phone_number": phone}
	var resp models.VerificationSendResponse
	err := c.do(ctx, http.MethodPost, "/api/verification/send/", token, body, &resp,
		"인증번호 발송에 실패했습니다.")
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CheckVerification(ctx context.Context, token, phone, code string) (*models.VerificationCheckResponse, error) {
	body := map[string]string{"phone_number": phone, "code": code}
	var resp models.VerificationCheckResponse
	err := c.do(ctx, http.MethodPost, "/api/verification/verify/", token, body, &resp,
		"인증번호 확인에 실패했습니다.")
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
