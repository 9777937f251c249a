package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"staylock/internal/webhooks/service"
	"staylock/pkg/logger"
	"staylock/pkg/payments"

	"github.com/julienschmidt/httprouter"
)

type mockWebhookService struct {
	handleFunc func(ctx context.Context, evt *payments.Event) (service.Outcome, error)
	calls      int
}

func (m *mockWebhookService) HandleEvent(ctx context.Context, evt *payments.Event) (service.Outcome, error) {
	m.calls++
	if m.handleFunc != nil {
		return m.handleFunc(ctx, evt)
	}
	return service.OutcomeIgnored, nil
}

func post(svc service.WebhookService, body string) *httptest.ResponseRecorder {
	router := httprouter.New()
	NewWebhookHandler(svc, logger.NewNop()).RegisterRoutes(router)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, WebhookPath, strings.NewReader(body)))
	return rec
}

const succeeded = `{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`

func TestWebhookHandler_AcknowledgesProcessedEvents(t *testing.T) {
	svc := &mockWebhookService{}
	rec := post(svc, succeeded)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"received":true}` {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
	if svc.calls != 1 {
		t.Errorf("expected one call, got %d", svc.calls)
	}
}

func TestWebhookHandler_AcknowledgesEvenOnFailure(t *testing.T) {
	svc := &mockWebhookService{
		handleFunc: func(context.Context, *payments.Event) (service.Outcome, error) {
			return "", errors.New("db down")
		},
	}

	rec := post(svc, succeeded)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestWebhookHandler_AcknowledgesMalformedEvents(t *testing.T) {
	for _, body := range []string{`{"nope":true}`, `not json`, `{"type":"payment_intent.succeeded","data":{"object":{}}}`} {
		svc := &mockWebhookService{}

		rec := post(svc, body)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", body, rec.Code)
		}
		if strings.TrimSpace(rec.Body.String()) != `{"received":true}` {
			t.Errorf("%s: unexpected body %q", body, rec.Body.String())
		}
		if svc.calls != 0 {
			t.Errorf("%s: malformed events must not reach the service", body)
		}
	}
}
