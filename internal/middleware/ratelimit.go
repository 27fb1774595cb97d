package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kkkkikiki/promo/internal/config"
)

// RateLimit applies a token bucket to the RPC surface. Health and metrics
// endpoints are never limited.
type RateLimit struct {
	cfg     config.RateLimitConfig
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewRateLimit creates a rate limiting middleware
func NewRateLimit(cfg config.RateLimitConfig, logger *zap.Logger) *RateLimit {
	return &RateLimit{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		logger:  logger,
	}
}

// Handler wraps next with rate limiting
func (rl *RateLimit) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.cfg.Enabled || exempt(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if !rl.limiter.Allow() {
			rl.logger.Warn("rate limit exceeded",
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
			)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"code":"resource_exhausted","message":"rate limit exceeded"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func exempt(path string) bool {
	return strings.HasPrefix(path, "/health") || path == "/metrics"
}
