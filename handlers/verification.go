package handlers

import (
	"errors"
	"net/http"

	"charterbus/api"
	"charterbus/app"
	"charterbus/utils"
	"charterbus/verify"

	"github.com/gin-gonic/gin"
)

// RegisterVerificationRoutes defines the phone verification gate endpoints
func RegisterVerificationRoutes(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	verifyGroup := r.Group("/api/v1/verification", authMiddleware)
	{
		verifyGroup.GET("/status", VerificationStatus)
		verifyGroup.POST("/send", SendVerificationCode)
		verifyGroup.POST("/resend", ResendVerificationCode)
		verifyGroup.POST("/code", SubmitVerificationCode)
		verifyGroup.POST("/edit", EditVerificationNumber)
	}
}

// VerificationStatus reports where the gate stands for this session.
func VerificationStatus(c *gin.Context) {
	session, flow, ok := sessionAndFlow(c)
	if !ok {
		return
	}
	verified, _ := app.Instance.Verifications.GetVerifiedPhone(c.Request.Context(), session.ID)
	gate := flow.VerifyGate
	utils.RespondSuccess(c, http.StatusOK, "", gin.H{
		"state":          gate.State(),
		"phone":          gate.Phone(),
		"remaining":      gate.Remaining(),
		"can_resend":     gate.CanResend(),
		"verified_phone": verified,
	})
}

func verificationError(c *gin.Context, err error) {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		utils.RespondError(c, http.StatusBadGateway, apiErr.Message, err)
		return
	}
	utils.RespondError(c, http.StatusBadRequest, err.Error(), err)
}

// SendVerificationCode validates the number and texts a code.
func SendVerificationCode(c *gin.Context) {
	_, flow, ok := sessionAndFlow(c)
	if !ok {
		return
	}
	var body struct {
		Phone string `json:"phone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, verify.ErrInvalidPhone.Error(), err)
		return
	}
	if err := flow.VerifyGate.SendCode(c.Request.Context(), body.Phone); err != nil {
		verificationError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, "인증번호를 발송했습니다.", gin.H{
		"phone":     flow.VerifyGate.Phone(),
		"remaining": flow.VerifyGate.Remaining(),
	})
}

// ResendVerificationCode sends a fresh code for the same number.
func ResendVerificationCode(c *gin.Context) {
	_, flow, ok := sessionAndFlow(c)
	if !ok {
		return
	}
	if err := flow.VerifyGate.Resend(c.Request.Context()); err != nil {
		verificationError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, "인증번호를 다시 발송했습니다.", gin.H{
		"remaining": flow.VerifyGate.Remaining(),
	})
}

// SubmitVerificationCode checks the typed code against the backend.
func SubmitVerificationCode(c *gin.Context) {
	_, flow, ok := sessionAndFlow(c)
	if !ok {
		return
	}
	var body struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, verify.ErrInvalidCode.Error(), err)
		return
	}
	if err := flow.VerifyGate.SubmitCode(c.Request.Context(), body.Code); err != nil {
		verificationError(c, err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, "휴대폰 인증이 완료되었습니다.", gin.H{
		"phone": flow.VerifyGate.Phone(),
	})
}

// EditVerificationNumber goes back to number entry.
func EditVerificationNumber(c *gin.Context) {
	_, flow, ok := sessionAndFlow(c)
	if !ok {
		return
	}
	flow.VerifyGate.EditNumber()
	utils.RespondSuccess(c, http.StatusOK, "", gin.H{"state": flow.VerifyGate.State()})
}
