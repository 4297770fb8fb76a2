package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wsflood/internal/auth"
	"github.com/vovakirdan/wsflood/internal/config"
)

// NewServer builds the sink HTTP server with /health and /message/ws.
func NewServer(cfg config.SinkConfig, logger *zerolog.Logger) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter mounts the WebSocket route on a plain mux and everything else on
// gin. The upgrade needs the unwrapped net/http writer to hijack.
func NewRouter(cfg config.SinkConfig, logger *zerolog.Logger) http.Handler {
	gin.SetMode(gin.ReleaseMode)

	jwtConfig := &auth.JWTConfig{
		Secret:            []byte(cfg.JWTSecret),
		RequireExpiration: cfg.RequireExpiration,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), LoggerMiddleware(logger))
	engine.GET("/health", healthHandler)

	mux := http.NewServeMux()
	mux.Handle("/message/ws", RequireToken(jwtConfig, logger, NewWSHandler(logger)))
	mux.Handle("/", engine)
	return mux
}

func healthHandler(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
