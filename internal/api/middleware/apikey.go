package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"

	"github.com/ndewijer/accumulation-tracker-backend/internal/api/response"
)

// timeTokenWindow is the lifetime of a time token. The previous window is
// accepted as well to tolerate clock skew around the boundary.
const timeTokenWindow = 5 * time.Minute

// GenerateTimeToken returns the time token for the current window: the hex
// HMAC-SHA256 of the window number keyed with apiKey.
func GenerateTimeToken(apiKey string) string {
	return timeToken(apiKey, time.Now())
}

func timeToken(apiKey string, at time.Time) string {
	window := at.Unix() / int64(timeTokenWindow/time.Second)
	mac := hmac.New(sha256.New, []byte(apiKey))
	mac.Write([]byte(strconv.FormatInt(window, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

func validTimeToken(apiKey, token string) bool {
	now := time.Now()
	for _, at := range []time.Time{now, now.Add(-timeTokenWindow)} {
		if hmac.Equal([]byte(token), []byte(timeToken(apiKey, at))) {
			return true
		}
	}
	return false
}

// APIKeyMiddleware returns a middleware protecting mutating endpoints. Requests
// must carry the configured key in X-API-Key and a current token from
// GenerateTimeToken in X-Time-Token.
//
// An empty apiKey rejects every request with 500: the endpoint is never left open.
func APIKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				response.RespondError(w, http.StatusInternalServerError, "unauthorized", "Authentication not loaded")
				return
			}

			key := r.Header.Get("X-API-Key")
			if key == "" {
				response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Missing API key")
				return
			}
			if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
				response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Invalid API key")
				return
			}

			token := r.Header.Get("X-Time-Token")
			if token == "" {
				response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Missing Time token")
				return
			}
			if !validTimeToken(apiKey, token) {
				response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Time token is invalid or expired")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
