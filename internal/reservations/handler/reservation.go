package handler

import (
	"net/http"

	"staylock/internal/reservations/service"
	httputil "staylock/pkg/http"
	"staylock/pkg/logger"
	"staylock/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ReservationHandler struct {
	service service.ReservationService
	log     *logger.Logger
}

func NewReservationHandler(service service.ReservationService, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log,
	}
}

func (h *ReservationHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ReservationHandler) ListFailed(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	reservations, err := h.service.ListFailedReservations(r.Context())
	if err != nil {
		h.writeError(w, "ListFailed", err)
		return
	}

	if err := httputil.WriteList(w, reservations); err != nil {
		h.log.Error("failed to write list response", "handler", "ListFailed", "operation", "WriteList", "error", err)
	}
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	res, err := h.service.GetReservation(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, res); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) RetrySync(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	result, err := h.service.RetrySync(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "RetrySync", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "RetrySync", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) Resolve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.ResolveRequest
	if err := httputil.DecodeJSON(r, &req, true); err != nil {
		h.writeError(w, "Resolve", err)
		return
	}

	result, err := h.service.MarkResolved(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "Resolve", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Resolve", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/reservations/failed", h.ListFailed)
	router.GET("/api/v1/reservations/id/:id", h.GetByID)
	router.POST("/api/v1/reservations/id/:id/retry-sync", h.RetrySync)
	router.POST("/api/v1/reservations/id/:id/resolve", h.Resolve)
}
