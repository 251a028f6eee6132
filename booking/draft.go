package booking

import (
	"time"

	"charterbus/models"
)

const (
	MinPassengers = 1
	MaxPassengers = 500
)

// TripDraft is the booking form as the user fills it in. Nothing here
// is priced or persisted until a quote is fetched and submitted.
type TripDraft struct {
	DepartureAddress   string  `json:"departure_address"`
	DepartureLat       float64 `json:"departure_lat"`
	DepartureLng       float64 `json:"departure_lng"`
	DestinationAddress string  `json:"destination_address"`
	DestinationLat     float64 `json:"destination_lat"`
	DestinationLng     float64 `json:"destination_lng"`
	DepartureDatetime  string  `json:"departure_datetime"`
	ReturnDatetime     string  `json:"return_datetime"`
	PassengerCount     int     `json:"passenger_count"`
	IsRoundTrip        bool    `json:"is_round_trip"`
	VehicleType        string  `json:"vehicle_type"`
	DriverAccompanied  bool    `json:"driver_accompanied"`
	SpecialRequests    string  `json:"special_requirements"`
}

// FieldError pins a validation failure to the form field that caused it.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string { return e.Message }

const datetimeLayout = "2006-01-02T15:04"

// Validate checks the draft field by field and returns every problem at
// once so the form can mark all of them.
func (d *TripDraft) Validate() []FieldError {
	var errs []FieldError

	if d.DepartureAddress == "" {
		errs = append(errs, FieldError{"departure", "출발지를 선택해주세요."})
	}
	if d.DestinationAddress == "" {
		errs = append(errs, FieldError{"destination", "도착지를 선택해주세요."})
	}

	var departure time.Time
	if d.DepartureDatetime == "" {
		errs = append(errs, FieldError{"departure_datetime", "출발 일시를 선택해주세요."})
	} else {
		var err error
		departure, err = time.Parse(datetimeLayout, d.DepartureDatetime)
		if err != nil {
			errs = append(errs, FieldError{"departure_datetime", "출발 일시 형식이 올바르지 않습니다."})
		}
	}

	if d.IsRoundTrip {
		if d.ReturnDatetime == "" {
			errs = append(errs, FieldError{"return_datetime", "귀가 일시를 선택해주세요."})
		} else if ret, err := time.Parse(datetimeLayout, d.ReturnDatetime); err != nil {
			errs = append(errs, FieldError{"return_datetime", "귀가 일시 형식이 올바르지 않습니다."})
		} else if !departure.IsZero() && ret.Before(departure) {
			// Same-moment return is a legal zero-length stop.
			errs = append(errs, FieldError{"return_datetime", "귀가 일시는 출발 일시 이후여야 합니다."})
		}
	}

	if d.PassengerCount < MinPassengers || d.PassengerCount > MaxPassengers {
		errs = append(errs, FieldError{"passenger_count", "탑승 인원을 확인해주세요."})
	}
	if d.VehicleType != "" && d.VehicleType != models.VehicleGeneral && d.VehicleType != models.VehicleSolati {
		errs = append(errs, FieldError{"vehicle_type", "차량 종류를 확인해주세요."})
	}
	return errs
}

// Valid reports whether the draft is ready to quote.
func (d *TripDraft) Valid() bool {
	return len(d.Validate()) == 0
}
