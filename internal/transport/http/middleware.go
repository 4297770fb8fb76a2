package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wsflood/internal/auth"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SessionHandler serves a request already authenticated as uid.
type SessionHandler interface {
	ServeSession(w http.ResponseWriter, r *http.Request, uid int64)
}

// RequireToken validates the bearer token carried in the token query
// parameter, falling back to the Authorization header.
func RequireToken(jwtConfig *auth.JWTConfig, logger *zerolog.Logger, next SessionHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			token = strings.TrimSpace(r.Header.Get("Authorization"))
		}
		if token == "" {
			logger.Debug().Msg("missing token")
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}

		uid, err := auth.ValidateToken(jwtConfig, token)
		if err != nil {
			logger.Debug().Err(err).Msg("invalid token")
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeSession(w, r, uid)
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}

// LoggerMiddleware logs HTTP requests without their query string.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("http request")
	}
}
