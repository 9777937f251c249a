package handler

import (
	"io"
	"net/http"

	"staylock/internal/webhooks/service"
	httputil "staylock/pkg/http"
	"staylock/pkg/logger"
	"staylock/pkg/payments"

	"github.com/julienschmidt/httprouter"
)

const WebhookPath = "/api/v1/payments/webhook"

type ReceivedResponse struct {
	Received bool `json:"received"`
}

type WebhookHandler struct {
	service service.WebhookService
	log     *logger.Logger
}

func NewWebhookHandler(service service.WebhookService, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		log:     log,
	}
}

// Receive expects the signature to be verified already. A verified delivery
// is always answered 200, even when it cannot be decoded or processed, so
// the provider does not redeliver something that failed on this side.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	defer h.acknowledge(w)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.log.Error("Failed to read verified webhook body", "error", err)
		return
	}

	evt, err := payments.ParseEvent(body)
	if err != nil {
		h.log.Error("Dropped malformed webhook event", "error", err, "size", len(body))
		return
	}

	outcome, err := h.service.HandleEvent(r.Context(), evt)
	if err != nil {
		h.log.Error("Webhook event processing failed",
			"event_id", evt.ID,
			"type", evt.Type,
			"payment_reference", evt.Intent.ID,
			"error", err,
		)
	} else {
		h.log.Info("Webhook event processed",
			"event_id", evt.ID,
			"type", evt.Type,
			"payment_reference", evt.Intent.ID,
			"outcome", outcome,
		)
	}
}

func (h *WebhookHandler) acknowledge(w http.ResponseWriter) {
	if err := httputil.WriteJSON(w, http.StatusOK, ReceivedResponse{Received: true}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Receive", "operation", "WriteJSON", "error", err)
	}
}

func (h *WebhookHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST(WebhookPath, h.Receive)
}
