package middleware

import (
	"log/slog"
	"net/http"
	"slices"

	"slot-reservation-engine/internal/pkg/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	subjectHeader    = "X-Subject-ID"
	retryAfterHeader = "Retry-After"
)

// NewCORSMiddleware always lets browsers send the subject header the write
// limiter keys on and read the Retry-After it answers with, whatever the
// configured lists say.
func NewCORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     withDefaults(cfg.AllowMethods, http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete),
		AllowHeaders:     withDefaults(cfg.AllowHeaders, "Content-Type", subjectHeader),
		ExposeHeaders:    withDefaults(cfg.ExposeHeaders, retryAfterHeader),
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}
	slog.Info("CORS middleware initialized",
		"AllowOrigins", corsCfg.AllowOrigins,
		"AllowHeaders", corsCfg.AllowHeaders,
		"ExposeHeaders", corsCfg.ExposeHeaders,
	)
	return cors.New(corsCfg)
}

func withDefaults(configured []string, required ...string) []string {
	out := slices.Clone(configured)
	for _, h := range required {
		if !slices.ContainsFunc(out, func(v string) bool { return http.CanonicalHeaderKey(v) == http.CanonicalHeaderKey(h) }) {
			out = append(out, h)
		}
	}
	return out
}
