package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/kkkkikiki/promo/internal/config"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimitRejectsOverBurst(t *testing.T) {
	rl := NewRateLimit(config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 2}, zaptest.NewLogger(t))
	h := rl.Handler(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/promo.v1.CampaignService/CalculateDiscount", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status codes %v", codes)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health checks must bypass the limiter, got %d", rec.Code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	rl := NewRateLimit(config.RateLimitConfig{Enabled: false, RPS: 0.001, Burst: 0}, zaptest.NewLogger(t))
	h := rl.Handler(okHandler)
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/anything", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("disabled limiter rejected request %d", i)
		}
	}
}

func TestLoggingRecordsStatus(t *testing.T) {
	h := NewLogging(zaptest.NewLogger(t)).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/brew", nil))
	if rec.Code != http.StatusTeapot || rec.Body.String() != "short and stout" {
		t.Fatalf("logging middleware must pass the response through, got %d %q", rec.Code, rec.Body.String())
	}
}
