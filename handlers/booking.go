package handlers

import (
	"errors"
	"net/http"
	"time"

	"charterbus/api"
	"charterbus/app"
	"charterbus/booking"
	"charterbus/maps"
	"charterbus/stores"
	"charterbus/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegisterBookingRoutes defines the booking form, quote and picker endpoints
func RegisterBookingRoutes(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	bookingGroup := r.Group("/api/v1/booking", authMiddleware)
	{
		bookingGroup.GET("/draft", GetDraft)
		bookingGroup.PUT("/draft", UpdateDraft)
		bookingGroup.POST("/quote", RequestQuote)
		bookingGroup.POST("/submit", SubmitReservation)

		bookingGroup.POST("/picker/open", OpenPicker)
		bookingGroup.GET("/picker/search", SearchPlaces)
		bookingGroup.POST("/picker/select", SelectPoint)
		bookingGroup.POST("/picker/geolocate", GeolocatePicker)
		bookingGroup.POST("/picker/confirm", ConfirmPicker)
		bookingGroup.POST("/picker/close", ClosePicker)
	}
}

// GetDraft returns the form as it stands, with quote freshness.
func GetDraft(c *gin.Context) {
	_, flow, ok := sessionAndFlow(c)
	if !ok {
		return
	}
	quote, current := flow.Builder.Quote()
	utils.RespondSuccess(c, http.StatusOK, "", gin.H{
		"draft":         flow.Builder.Draft(),
		"quote":         quote,
		"quote_current": current,
		"can_submit":    flow.Builder.CanSubmit(),
	})
}

// draftPatch carries only the fields the user actually changed.
type draftPatch struct {
	DepartureDatetime *string `json:"departure_datetime"`
	ReturnDatetime    *string `json:"return_datetime"`
	PassengerCount    *int    `json:"passenger_count"`
	IsRoundTrip       *bool   `json:"is_round_trip"`
	VehicleType       *string `json:"vehicle_type"`
	DriverAccompanied *bool   `json:"driver_accompanied"`
	SpecialRequests   *string `json:"special_requirements"`
}

// UpdateDraft applies form edits. Any change invalidates the quote.
func UpdateDraft(c *gin.Context) {
	_, flow, ok := sessionAndFlow(c)
	if !ok {
		return
	}
	var patch draftPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "입력 내용을 확인해주세요.", err)
		return
	}

	b := flow.Builder
	if patch.IsRoundTrip != nil {
		b.SetRoundTrip(*patch.IsRoundTrip)
	}
	if patch.DepartureDatetime != nil || patch.ReturnDatetime != nil {
		draft := b.Draft()
		dep, ret := draft.DepartureDatetime, draft.ReturnDatetime
		if patch.DepartureDatetime != nil {
			dep = *patch.DepartureDatetime
		}
		if patch.ReturnDatetime != nil {
			ret = *patch.ReturnDatetime
		}
		b.SetSchedule(dep, ret)
	}
	if patch.PassengerCount != nil {
		b.SetPassengers(*patch.PassengerCount)
	}
	if patch.VehicleType != nil {
		b.SetVehicleType(*patch.VehicleType)
	}
	if patch.DriverAccompanied != nil {
		b.SetDriverAccompanied(*patch.DriverAccompanied)
	}
	if patch.SpecialRequests != nil {
		b.SetSpecialRequests(*patch.SpecialRequests)
	}

	draft := b.Draft()
	if errs := draft.Validate(); len(errs) > 0 {
		utils.RespondSuccess(c, http.StatusOK, "", gin.H{"draft": b.Draft(), "field_errors": errs})
		return
	}
	utils.RespondSuccess(c, http.StatusOK, "", gin.H{"draft": b.Draft()})
}

// RequestQuote prices the draft and snapshots the result server-side.
func RequestQuote(c *gin.Context) {
	session, flow, ok := sessionAndFlow(c)
	if !ok {
		return
	}
	quote, err := flow.Builder.RequestQuote(c.Request.Context())
	if err != nil {
		status := http.StatusBadRequest
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode >= 500 {
			status = http.StatusBadGateway
		}
		utils.RespondError(c, status, err.Error(), err)
		return
	}

	snap := &stores.QuoteSnapshot{Draft: flow.Builder.Draft(), Quote: *quote, QuotedAt: time.Now()}
	if err := app.Instance.Quotes.SaveSnapshot(c.Request.Context(), session.ID, snap); err != nil {
		utils.Logger.Warn("Quote snapshot save failed", zap.Error(err))
	}
	utils.RespondSuccess(c, http.StatusOK, "", gin.H{"quote": quote})
}

// SubmitReservation turns the quoted draft into a reservation. It
// requires a verified phone on file for the session.
func SubmitReservation(c *gin.Context) {
	session, flow, ok := sessionAndFlow(c)
	if !ok {
		return
	}
	phone, err := app.Instance.Verifications.GetVerifiedPhone(c.Request.Context(), session.ID)
	if err != nil || phone == "" {
		utils.RespondError(c, http.StatusForbidden, booking.ErrPhoneUnverified.Error(), err)
		return
	}

	submitter := booking.NewSubmitter(app.Instance.API)
	reservation, err := submitter.Submit(c.Request.Context(), session, phone, flow.Builder)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			utils.RespondError(c, http.StatusBadGateway, apiErr.Message, err)
			return
		}
		utils.RespondError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	// The submitted draft is spent; a new booking starts clean.
	app.Instance.Quotes.DeleteSnapshot(c.Request.Context(), session.ID)
	_ = flow.Workflow.Goto(booking.ScreenSubmitting)
	_ = flow.Workflow.Goto(booking.ScreenReservations)

	utils.RespondSuccess(c, http.StatusCreated, "예약이 접수되었습니다.", gin.H{"reservation": reservation})
}

// OpenPicker starts a map selection for one trip field.
func OpenPicker(c *gin.Context) {
	_, flow, ok := sessionAndFlow(c)
	if !ok {
		return
	}
	var body struct {
		Target string `json:"target" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "선택할 위치를 지정해주세요.", err)
		return
	}
	target := maps.Target(body.Target)
	if target != maps.TargetDeparture && target != maps.TargetDestination {
		utils.RespondError(c, http.StatusBadRequest, "선택할 위치를 지정해주세요.", nil)
		return
	}
	flow.SetPicker(maps.NewPicker(app.Instance.Kakao, target))
	utils.RespondSuccess(c, http.StatusOK, "", gin.H{"target": target})
}

// SearchPlaces runs a place search for the open picker.
func SearchPlaces(c *gin.Context) {
	_, flow, ok := sessionAndFlow(c)
	if !ok {
		return
	}
	if flow.CurrentPicker() == nil {
		utils.RespondError(c, http.StatusBadRequest, "위치 선택이 시작되지 않았습니다.", nil)
		return
	}
	query := c.Query("q")
	if query == "" {
		utils.RespondError(c, http.StatusBadRequest, "검색어를 입력해주세요.", nil)
		return
	}
	places, err := app.Instance.Kakao.Search(c.Request.Context(), query)
	if errors.Is(err, maps.ErrNoResults) {
		utils.RespondSuccess(c, http.StatusOK, "검색 결과가 없습니다.", gin.H{"places": []maps.Place{}})
		return
	}
	if err != nil {
		utils.RespondError(c, http.StatusBadGateway, "장소 검색에 실패했습니다.", err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, "", gin.H{"places": places})
}

// SelectPoint drops the marker, either on a search result or a raw tap.
func SelectPoint(c *gin.Context) {
	_, flow, ok := sessionAndFlow(c)
	if !ok {
		return
	}
	picker := flow.CurrentPicker()
	if picker == nil {
		utils.RespondError(c, http.StatusBadRequest, "위치 선택이 시작되지 않았습니다.", nil)
		return
	}
	var body struct {
		Place *maps.Place `json:"place"`
		Lat   *float64    `json:"lat"`
		Lng   *float64    `json:"lng"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "선택한 위치를 확인해주세요.", err)
		return
	}
	switch {
	case body.Place != nil:
		picker.SelectPlace(*body.Place)
	case body.Lat != nil && body.Lng != nil:
		picker.SelectPoint(c.Request.Context(), *body.Lat, *body.Lng)
	default:
		utils.RespondError(c, http.StatusBadRequest, "선택한 위치를 확인해주세요.", nil)
		return
	}
	selection, has := picker.Confirm()
	utils.RespondSuccess(c, http.StatusOK, "", gin.H{"selection": selection, "selected": has})
}

// GeolocatePicker takes the browser's geolocation outcome. On success
// the marker lands on the device position; failure codes follow the
// W3C numbering (1 denied, 2 unavailable, 3 timeout) and come back as
// user-facing messages.
func GeolocatePicker(c *gin.Context) {
	_, flow, ok := sessionAndFlow(c)
	if !ok {
		return
	}
	picker := flow.CurrentPicker()
	if picker == nil {
		utils.RespondError(c, http.StatusBadRequest, "위치 선택이 시작되지 않았습니다.", nil)
		return
	}
	var body struct {
		Lat       *float64 `json:"lat"`
		Lng       *float64 `json:"lng"`
		ErrorCode int      `json:"error_code"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, maps.GeoErrorMessage(nil), err)
		return
	}
	if body.ErrorCode != 0 || body.Lat == nil || body.Lng == nil {
		var geoErr error
		switch body.ErrorCode {
		case 1:
			geoErr = maps.ErrPermissionDenied
		case 2:
			geoErr = maps.ErrPositionUnavailable
		case 3:
			geoErr = maps.ErrGeoTimeout
		}
		utils.RespondError(c, http.StatusBadRequest, maps.GeoErrorMessage(geoErr), nil)
		return
	}
	picker.SelectPoint(c.Request.Context(), *body.Lat, *body.Lng)
	selection, has := picker.Confirm()
	utils.RespondSuccess(c, http.StatusOK, "", gin.H{"selection": selection, "selected": has})
}

// ConfirmPicker hands the selection to the booking form and closes the
// picker.
func ConfirmPicker(c *gin.Context) {
	_, flow, ok := sessionAndFlow(c)
	if !ok {
		return
	}
	picker := flow.CurrentPicker()
	if picker == nil {
		utils.RespondError(c, http.StatusBadRequest, "위치 선택이 시작되지 않았습니다.", nil)
		return
	}
	selection, has := picker.Confirm()
	if !has {
		utils.RespondError(c, http.StatusBadRequest, "위치를 먼저 선택해주세요.", nil)
		return
	}
	switch picker.Target() {
	case maps.TargetDeparture:
		flow.Builder.SetDeparture(selection)
	case maps.TargetDestination:
		flow.Builder.SetDestination(selection)
	}
	picker.Close()
	utils.RespondSuccess(c, http.StatusOK, "", gin.H{"selection": selection, "draft": flow.Builder.Draft()})
}

// ClosePicker abandons the selection.
func ClosePicker(c *gin.Context) {
	_, flow, ok := sessionAndFlow(c)
	if !ok {
		return
	}
	if picker := flow.CurrentPicker(); picker != nil {
		picker.Close()
	}
	utils.RespondSuccess(c, http.StatusOK, "", nil)
}
