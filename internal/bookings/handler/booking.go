package handler

import (
	"net/http"

	"staylock/internal/bookings/service"
	httputil "staylock/pkg/http"
	"staylock/pkg/logger"
	"staylock/pkg/model"
	"staylock/pkg/pynbooking"

	"github.com/julienschmidt/httprouter"
)

const idempotencyHeader = "Idempotency-Key"

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.CreateBookingRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	resp, err := h.service.CreateBooking(r.Context(), &req, r.Header.Get(idempotencyHeader))
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, resp); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	params, err := httputil.RequireQuery(r, "room_key", "check_in", "check_out")
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	result, err := h.service.CheckAvailability(r.Context(),
		params["room_key"],
		params["check_in"],
		params["check_out"],
		r.URL.Query().Get("currency"),
	)
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) SearchLedger(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	params, err := httputil.RequireQuery(r, "date")
	if err != nil {
		h.writeError(w, "SearchLedger", err)
		return
	}

	days, _, err := httputil.QueryInt(r, "days")
	if err != nil {
		h.writeError(w, "SearchLedger", err)
		return
	}

	entries, err := h.service.SearchLedger(r.Context(), pynbooking.SearchParams{
		Date:   params["date"],
		Days:   days,
		RoomNo: r.URL.Query().Get("room_no"),
	})
	if err != nil {
		h.writeError(w, "SearchLedger", err)
		return
	}

	if err := httputil.WriteList(w, entries); err != nil {
		h.log.Error("failed to write list response", "handler", "SearchLedger", "operation", "WriteList", "error", err)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/availability", h.Availability)
	router.GET("/api/v1/ledger/reservations", h.SearchLedger)
}
