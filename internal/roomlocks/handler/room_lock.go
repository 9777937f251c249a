package handler

import (
	"net/http"

	"staylock/internal/roomlocks/service"
	httputil "staylock/pkg/http"
	"staylock/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type CleanupResponse struct {
	Deleted int64 `json:"deleted"`
}

type RoomLockHandler struct {
	service service.LockService
	log     *logger.Logger
}

func NewRoomLockHandler(service service.LockService, log *logger.Logger) *RoomLockHandler {
	return &RoomLockHandler{
		service: service,
		log:     log,
	}
}

func (h *RoomLockHandler) ListActive(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	locks, err := h.service.ListActiveLocks(r.Context())
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListActive", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteList(w, locks); err != nil {
		h.log.Error("failed to write list response", "handler", "ListActive", "operation", "WriteList", "error", err)
	}
}

func (h *RoomLockHandler) Cleanup(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	deleted, err := h.service.CleanupExpiredLocks(r.Context())
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Cleanup", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, CleanupResponse{Deleted: deleted}); err != nil {
		h.log.Error("failed to write success response", "handler", "Cleanup", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomLockHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/room-locks", h.ListActive)
	router.POST("/api/v1/room-locks/cleanup", h.Cleanup)
}
