package utils

import (
	"fmt"
	"net/http"
	"time"

	"charterbus/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const sessionTokenTTL = 24 * time.Hour

// MintSessionToken issues the browser-facing session token. The identity
// provider's own access token never leaves the server; this token only
// references the server-side session record.
func MintSessionToken(sessionID string) (string, error) {
	claims := jwt.MapClaims{
		"sid": sessionID,
		"exp": time.Now().Add(sessionTokenTTL).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.Envs.SessionSecret))
}

// ParseSessionToken validates a session token and returns the session ID.
func ParseSessionToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(config.Envs.SessionSecret), nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid session token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid session claims")
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", fmt.Errorf("missing session id claim")
	}
	return sid, nil
}

// SendToken writes a freshly minted session token back to the browser,
// both as a cookie and in the response body.
func SendToken(c *gin.Context, sessionID string) {
	tokenString, err := MintSessionToken(sessionID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "Could not create session", err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("session_token", tokenString, int(sessionTokenTTL.Seconds()), "/", "", false, true)
	RespondSuccess(c, http.StatusOK, "Signed in", gin.H{"token": tokenString})
}
