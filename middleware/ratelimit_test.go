package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func TestRateLimitBlocksAfterBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", RateLimit(rate.Limit(0.001), 2), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, w.Code)
		}
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("request past burst: status = %d, want 429", w.Code)
	}
}

func TestIPRateLimiterSeparatesClients(t *testing.T) {
	rl := NewIPRateLimiter(rate.Limit(0.001), 1)

	if !rl.Allow("10.0.0.1") {
		t.Fatal("first request from first ip blocked")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("second request from first ip allowed past burst")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("first request from second ip blocked")
	}
}
