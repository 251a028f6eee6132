package handlers

import (
	"context"
	"net/http"

	"charterbus/app"
	"charterbus/booking"
	"charterbus/middleware"
	"charterbus/models"
	"charterbus/payment"
	"charterbus/utils"
	"charterbus/verify"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// flowFor returns the per-session flow, building it on first touch.
func flowFor(session *models.Session) *app.Flow {
	a := app.Instance
	return a.Flows.GetOrCreate(session, func(s *models.Session) *app.Flow {
		sessionID := s.ID
		builder := booking.NewQuoteBuilder(a.API, s.AccessToken)
		// A fresh flow may follow an eviction or restart; pick the
		// quoted draft back up from redis if one is still live.
		if snap, err := a.Quotes.GetSnapshot(context.Background(), sessionID); err == nil {
			builder.Restore(snap.Draft, snap.Quote)
		}
		return &app.Flow{
			Workflow: booking.NewWorkflow(),
			Builder:  builder,
			VerifyGate: verify.NewGate(a.API, s.AccessToken, func(phone string) {
				utils.SafeGo(func() {
					if err := a.Verifications.SaveVerifiedPhone(context.Background(), sessionID, phone); err != nil {
						utils.Logger.Error("Persist verified phone failed", zap.Error(err))
					}
				})
			}),
			Orchestrator: payment.NewOrchestrator(
				a.Loader, a.Gateway, a.API, s.AccessToken,
				a.Config.PublicBaseURL+"/payment/complete",
			),
		}
	})
}

// sessionAndFlow resolves both or aborts the request.
func sessionAndFlow(c *gin.Context) (*models.Session, *app.Flow, bool) {
	session := middleware.SessionFrom(c)
	if session == nil {
		utils.RespondError(c, http.StatusUnauthorized, "로그인이 필요합니다.", nil)
		return nil, nil, false
	}
	return session, flowFor(session), true
}
