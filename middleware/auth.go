package middleware

import (
	"net/http"
	"strings"

	"charterbus/auth"
	"charterbus/models"
	"charterbus/utils"

	"github.com/gin-gonic/gin"
)

// RequireSession resolves the browser's session token, from the cookie
// or an Authorization header, and aborts unauthenticated requests.
func RequireSession(gate *auth.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := sessionTokenFrom(c)
		if tokenStr == "" {
			utils.RespondError(c, http.StatusUnauthorized, "로그인이 필요합니다.", nil)
			c.Abort()
			return
		}

		sessionID, err := utils.ParseSessionToken(tokenStr)
		if err != nil {
			utils.RespondError(c, http.StatusUnauthorized, "세션이 만료되었습니다. 다시 로그인해주세요.", err)
			c.Abort()
			return
		}

		session, err := gate.Resolve(c.Request.Context(), sessionID)
		if err != nil {
			utils.RespondError(c, http.StatusUnauthorized, "세션이 만료되었습니다. 다시 로그인해주세요.", err)
			c.Abort()
			return
		}

		c.Set("session", session)
		c.Next()
	}
}

func sessionTokenFrom(c *gin.Context) string {
	if cookie, err := c.Cookie("session_token"); err == nil && cookie != "" {
		return cookie
	}
	authHeader := c.GetHeader("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
		return parts[1]
	}
	return ""
}

// SessionFrom pulls the resolved session out of the request context.
func SessionFrom(c *gin.Context) *models.Session {
	v, ok := c.Get("session")
	if !ok {
		return nil
	}
	session, ok := v.(*models.Session)
	if !ok {
		return nil
	}
	return session
}
