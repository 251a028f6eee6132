package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"charterbus/api"
	"charterbus/app"
	"charterbus/models"
	"charterbus/utils"

	"github.com/gin-gonic/gin"
)

// RegisterReservationRoutes defines the reservation list and detail endpoints
func RegisterReservationRoutes(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	group := r.Group("/api/v1/reservations", authMiddleware)
	{
		group.GET("", ListReservations)
		group.GET("/:id", GetReservationDetail)
		group.POST("/:id/cancel", CancelReservation)
	}
}

func relayAPIError(c *gin.Context, err error, fallbackStatus int) {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		status := fallbackStatus
		if apiErr.StatusCode == http.StatusNotFound {
			status = http.StatusNotFound
		}
		utils.RespondError(c, status, apiErr.Message, err)
		return
	}
	utils.RespondError(c, fallbackStatus, "요청을 처리하지 못했습니다.", err)
}

// ListReservations returns one page of the user's reservations. Each
// response carries the whole page; the client replaces its list rather
// than merging.
func ListReservations(c *gin.Context) {
	session, _, ok := sessionAndFlow(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	status := c.Query("status")
	if status != "" && !models.KnownStatus(status) {
		utils.RespondError(c, http.StatusBadRequest, "알 수 없는 예약 상태입니다.", nil)
		return
	}

	list, err := app.Instance.API.ListReservations(c.Request.Context(), session.AccessToken, page, status)
	if err != nil {
		relayAPIError(c, err, http.StatusBadGateway)
		return
	}

	for i := range list.Results {
		r := &list.Results[i]
		if r.StatusDisplay == "" {
			r.StatusDisplay = models.StatusDisplayName(r.Status)
		}
	}
	utils.RespondSuccess(c, http.StatusOK, "", gin.H{
		"count":    list.Count,
		"has_next": list.Next != nil,
		"has_prev": list.Previous != nil,
		"page":     page,
		"results":  list.Results,
	})
}

// GetReservationDetail returns one reservation with payment state.
func GetReservationDetail(c *gin.Context) {
	session, _, ok := sessionAndFlow(c)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "예약 번호를 확인해주세요.", err)
		return
	}
	reservation, err := app.Instance.API.GetReservation(c.Request.Context(), session.AccessToken, id)
	if err != nil {
		relayAPIError(c, err, http.StatusBadGateway)
		return
	}
	if reservation.StatusDisplay == "" {
		reservation.StatusDisplay = models.StatusDisplayName(reservation.Status)
	}
	utils.RespondSuccess(c, http.StatusOK, "", gin.H{"reservation": reservation})
}

// CancelReservation cancels one reservation. The caller must confirm
// explicitly; a bare POST is refused.
func CancelReservation(c *gin.Context) {
	session, _, ok := sessionAndFlow(c)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "예약 번호를 확인해주세요.", err)
		return
	}
	var body struct {
		Confirm bool `json:"confirm"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || !body.Confirm {
		utils.RespondError(c, http.StatusBadRequest, "취소하시려면 확인이 필요합니다.", err)
		return
	}

	if err := app.Instance.API.CancelReservation(c.Request.Context(), session.AccessToken, id); err != nil {
		relayAPIError(c, err, http.StatusBadGateway)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, "예약이 취소되었습니다.", nil)
}
