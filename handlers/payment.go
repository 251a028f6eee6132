package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"charterbus/api"
	"charterbus/app"
	"charterbus/booking"
	"charterbus/payment"
	"charterbus/portone"
	"charterbus/stores"
	"charterbus/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RegisterPaymentRoutes defines payment endpoints plus the widget's
// mobile redirect landing.
func RegisterPaymentRoutes(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	payGroup := r.Group("/api/v1/payments", authMiddleware)
	{
		payGroup.POST("/begin", BeginPayment)
		payGroup.POST("/complete", CompletePayment)
		payGroup.GET("/status/:reservationId", PaymentStatus)
		payGroup.GET("/history", PaymentHistory)
		payGroup.POST("/cancel/:id", CancelPayment)
	}

	// On mobile the widget navigates the whole page away and comes back
	// here with the outcome in the query string.
	r.GET("/payment/complete", authMiddleware, PaymentRedirectLanding)
}

// BeginPayment prepares the widget for a reservation's deposit.
func BeginPayment(c *gin.Context) {
	session, flow, ok := sessionAndFlow(c)
	if !ok {
		return
	}
	var body struct {
		ReservationID int64 `json:"reservation_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "예약 번호를 확인해주세요.", err)
		return
	}

	widgetReq, err := flow.Orchestrator.Begin(c.Request.Context(), body.ReservationID)
	if err != nil {
		if errors.Is(err, payment.ErrPaymentInProgress) {
			utils.RespondError(c, http.StatusConflict, err.Error(), err)
			return
		}
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			utils.RespondError(c, http.StatusBadGateway, apiErr.Message, err)
			return
		}
		utils.RespondError(c, http.StatusBadGateway, err.Error(), err)
		return
	}

	attempt := &stores.PaySession{
		SessionID:     session.ID,
		ReservationID: body.ReservationID,
		MerchantUID:   widgetReq.MerchantUID,
		Amount:        widgetReq.Amount,
	}
	if err := app.Instance.Payments.SaveAttempt(c.Request.Context(), attempt); err != nil {
		utils.Logger.Warn("Payment attempt save failed", zap.Error(err))
	}

	_ = flow.Workflow.Goto(booking.ScreenPaying)
	utils.RespondSuccess(c, http.StatusOK, "", gin.H{
		"user_code": app.Instance.Gateway.UserCode(),
		"request":   widgetReq,
	})
}

// outcomeBindable reports whether a widget outcome may proceed against
// the stored attempt record. A success outcome with no attempt on
// record, or one referencing a different order, is rejected. A store
// outage loses only the check, not the payment, and is logged.
func outcomeBindable(attempt *stores.PaySession, lookupErr error, result portone.Result) bool {
	switch {
	case lookupErr == nil:
		return result.MerchantUID == "" || result.MerchantUID == attempt.MerchantUID
	case errors.Is(lookupErr, redis.Nil):
		return !result.Success
	default:
		utils.Logger.Warn("Payment attempt lookup failed, order reference check skipped",
			zap.Error(lookupErr))
		return true
	}
}

func finishPayment(c *gin.Context, result portone.Result) {
	session, flow, ok := sessionAndFlow(c)
	if !ok {
		return
	}

	// The widget outcome must reference the attempt this session opened.
	attempt, attemptErr := app.Instance.Payments.GetAttempt(c.Request.Context(), session.ID)
	if !outcomeBindable(attempt, attemptErr, result) {
		flow.Orchestrator.Abort()
		app.Instance.Payments.DeleteAttempt(c.Request.Context(), session.ID)
		utils.RespondError(c, http.StatusBadRequest, "결제 정보가 올바르지 않습니다.", nil)
		return
	}

	resp, err := flow.Orchestrator.Complete(c.Request.Context(), result)
	app.Instance.Payments.DeleteAttempt(c.Request.Context(), session.ID)
	_ = flow.Workflow.Goto(booking.ScreenReservations)
	if err != nil {
		if errors.Is(err, payment.ErrNoPaymentActive) {
			utils.RespondError(c, http.StatusConflict, err.Error(), err)
			return
		}
		utils.RespondError(c, http.StatusBadRequest, err.Error(), err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, "결제가 완료되었습니다.", gin.H{"result": resp})
}

// CompletePayment takes the widget outcome from the page's callback.
func CompletePayment(c *gin.Context) {
	var body struct {
		Success     bool   `json:"imp_success"`
		ImpUID      string `json:"imp_uid"`
		MerchantUID string `json:"merchant_uid"`
		ErrorMsg    string `json:"error_msg"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "결제 결과를 확인할 수 없습니다.", err)
		return
	}
	finishPayment(c, portone.Result{
		Success:     body.Success,
		ImpUID:      body.ImpUID,
		MerchantUID: body.MerchantUID,
		ErrorMsg:    body.ErrorMsg,
	})
}

// PaymentRedirectLanding takes the widget outcome from the mobile
// redirect query string.
func PaymentRedirectLanding(c *gin.Context) {
	finishPayment(c, portone.ParseRedirect(c.Request.URL.Query()))
}

// PaymentStatus reports payment state for one reservation.
func PaymentStatus(c *gin.Context) {
	session, _, ok := sessionAndFlow(c)
	if !ok {
		return
	}
	reservationID, err := strconv.ParseInt(c.Param("reservationId"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "예약 번호를 확인해주세요.", err)
		return
	}
	status, err := app.Instance.API.GetPaymentStatus(c.Request.Context(), session.AccessToken, reservationID)
	if err != nil {
		relayAPIError(c, err, http.StatusBadGateway)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, "", gin.H{"status": status})
}

// PaymentHistory lists the user's past payments.
func PaymentHistory(c *gin.Context) {
	session, _, ok := sessionAndFlow(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	history, err := app.Instance.API.PaymentHistory(c.Request.Context(), session.AccessToken, page)
	if err != nil {
		relayAPIError(c, err, http.StatusBadGateway)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, "", gin.H{
		"count":    history.Count,
		"has_next": history.Next != nil,
		"results":  history.Results,
	})
}

// CancelPayment asks the backend to refund one payment.
func CancelPayment(c *gin.Context) {
	session, _, ok := sessionAndFlow(c)
	if !ok {
		return
	}
	paymentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "결제 번호를 확인해주세요.", err)
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "취소 사유를 확인해주세요.", err)
		return
	}
	if err := app.Instance.API.CancelPayment(c.Request.Context(), session.AccessToken, paymentID, body.Reason); err != nil {
		relayAPIError(c, err, http.StatusBadGateway)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, "결제가 취소되었습니다.", nil)
}
