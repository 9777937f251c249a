package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"staylock/pkg/config"
	"staylock/pkg/logger"
	"staylock/pkg/middleware"
	"staylock/pkg/payments"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type routeHandler struct {
	method string
	path   string
}

func (h routeHandler) RegisterRoutes(router *httprouter.Router) {
	router.Handle(h.method, h.path, func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
	})
}

func testConfig() *config.Config {
	return &config.Config{
		Log:                     logger.NewNop(),
		InternalAPIKey:          "internal",
		RateLimitRequests:       100,
		RateLimitWindow:         time.Minute,
		RequestTimeout:          time.Second,
		IdempotencyTTL:          time.Hour,
		MaxRequestSize:          1 << 20,
		PaymentWebhookSecret:    "whsec",
		PaymentWebhookTolerance: 5 * time.Minute,
	}
}

func newTestApp(t *testing.T) http.Handler {
	t.Helper()
	a := NewApplication(testConfig())
	a.SetApp(routeHandler{http.MethodGet, "/api/v1/room-locks"})
	a.SetWebhook("/api/v1/payments/webhook", routeHandler{http.MethodPost, "/api/v1/payments/webhook"})
	t.Cleanup(func() {
		a.idempotencyStore.Stop()
		a.rateLimiter.Stop()
	})
	return a.Handler()
}

func serve(h http.Handler, req *http.Request) int {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestApplication_APIRoutesRequireKey(t *testing.T) {
	h := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/room-locks", nil)
	if code := serve(h, req); code != http.StatusUnauthorized {
		t.Errorf("expected 401 without key, got %d", code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/room-locks", nil)
	req.Header.Set(middleware.HeaderAPIKey, "internal")
	if code := serve(h, req); code != http.StatusOK {
		t.Errorf("expected 200 with key, got %d", code)
	}
}

func TestApplication_WebhookUsesSignatureNotKey(t *testing.T) {
	h := newTestApp(t)
	body := `{"id":"evt_1"}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader(body))
	if code := serve(h, req); code != http.StatusBadRequest {
		t.Errorf("expected 400 without signature, got %d", code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set(payments.SignatureHeader, payments.SignPayload([]byte(body), "whsec", time.Now()))
	if code := serve(h, req); code != http.StatusOK {
		t.Errorf("expected 200 with signature, got %d", code)
	}
}

func TestApplication_HealthIsOpen(t *testing.T) {
	h := newTestApp(t)

	if code := serve(h, httptest.NewRequest(http.MethodGet, "/health", nil)); code != http.StatusOK {
		t.Errorf("expected 200, got %d", code)
	}
	if code := serve(h, httptest.NewRequest(http.MethodGet, "/ready", nil)); code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a database, got %d", code)
	}
}

func TestApplication_ShutdownHooksRunInReverse(t *testing.T) {
	a := NewApplication(testConfig())
	var order []int
	a.OnShutdown(func() { order = append(order, 1) })
	a.OnShutdown(func() { order = append(order, 2) })
	a.server = &http.Server{}
	a.cfg.ShutdownTimeout = time.Second

	a.gracefulShutdown()

	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Errorf("unexpected hook order %v", order)
	}
}

// ────────────────────────────────────────────────
// Health
// ────────────────────────────────────────────────

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context, *readpref.ReadPref) error { return f.err }

func TestHealthHandler_Ready(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"database up", nil, http.StatusOK},
		{"database down", errors.New("connection refused"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := httprouter.New()
			NewHealthHandler(fakePinger{err: tt.err}, logger.NewNop()).RegisterRoutes(router)
			if code := serve(router, httptest.NewRequest(http.MethodGet, "/ready", nil)); code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, code)
			}
		})
	}
}
