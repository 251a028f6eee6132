package handlers

import (
	"net/http"

	"charterbus/app"
	"charterbus/booking"
	"charterbus/middleware"
	"charterbus/utils"

	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes defines the sign-in and session endpoints
func RegisterAuthRoutes(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	authGroup := r.Group("/api/v1/auth")
	{
		authGroup.GET("/login/:provider", StartLogin)
		authGroup.GET("/callback", FinishLogin)
		authGroup.POST("/refresh", authMiddleware, RefreshSession)
		authGroup.POST("/logout", authMiddleware, Logout)
		authGroup.GET("/me", authMiddleware, CurrentSession)
	}
}

// StartLogin hands the browser the provider's OAuth page.
func StartLogin(c *gin.Context) {
	provider := c.Param("provider")
	redirectTo := app.Instance.Config.PublicBaseURL + "/api/v1/auth/callback"
	authorizeURL, err := app.Instance.Identity.AuthorizeURL(provider, redirectTo)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "지원하지 않는 로그인 방식입니다.", err)
		return
	}
	c.Redirect(http.StatusFound, authorizeURL)
}

// FinishLogin completes the OAuth round trip and establishes a session.
func FinishLogin(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		utils.RespondError(c, http.StatusBadRequest, "로그인에 실패했습니다. 다시 시도해주세요.", nil)
		return
	}

	pair, err := app.Instance.Identity.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, "로그인에 실패했습니다. 다시 시도해주세요.", err)
		return
	}

	session, err := app.Instance.Gate.Establish(c.Request.Context(), pair)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, "로그인에 실패했습니다. 다시 시도해주세요.", err)
		return
	}

	// A re-login with a live flow is fine; the workflow is already past login.
	flow := flowFor(session)
	_ = flow.Workflow.Goto(booking.ScreenHome)

	utils.SendToken(c, session.ID)
}

// RefreshSession renews the provider grant behind the current session,
// for long-lived tabs whose access token has gone stale.
func RefreshSession(c *gin.Context) {
	session := middleware.SessionFrom(c)
	if session == nil {
		utils.RespondError(c, http.StatusUnauthorized, "로그인이 필요합니다.", nil)
		return
	}
	refreshed, err := app.Instance.Gate.Refresh(c.Request.Context(), session.ID)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, "세션이 만료되었습니다. 다시 로그인해주세요.", err)
		return
	}
	utils.RespondSuccess(c, http.StatusOK, "", gin.H{"session": refreshed})
}

// Logout clears the session everywhere: provider, redis, in-memory
// flow. If the provider sign-out fails the local session stays put and
// the user sees the error rather than a half signed-out state.
func Logout(c *gin.Context) {
	session, _, ok := sessionAndFlow(c)
	if !ok {
		return
	}
	if err := app.Instance.Gate.Clear(c.Request.Context(), session.ID); err != nil {
		utils.RespondError(c, http.StatusBadGateway, "로그아웃에 실패했습니다. 다시 시도해주세요.", err)
		return
	}
	app.Instance.Flows.Drop(session.ID)

	c.SetCookie("session_token", "", -1, "/", "", false, true)
	utils.RespondSuccess(c, http.StatusOK, "로그아웃되었습니다.", nil)
}

// CurrentSession reports who is signed in, plus whether their phone is
// already verified.
func CurrentSession(c *gin.Context) {
	session := middleware.SessionFrom(c)
	if session == nil {
		utils.RespondError(c, http.StatusUnauthorized, "로그인이 필요합니다.", nil)
		return
	}
	phone, _ := app.Instance.Verifications.GetVerifiedPhone(c.Request.Context(), session.ID)
	utils.RespondSuccess(c, http.StatusOK, "", gin.H{
		"session":        session,
		"verified_phone": phone,
	})
}
