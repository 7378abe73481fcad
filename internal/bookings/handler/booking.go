package handler

import (
	"encoding/json"
	"net/http"

	"deskbook/internal/bookings/service"
	"deskbook/pkg/auth"
	httputil "deskbook/pkg/http"
	"deskbook/pkg/logger"
	"deskbook/pkg/middleware"
	"deskbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// BookingHandler serves both booking views: the requester's own bookings and
// the owner dashboard across all of the owner's offices.
type BookingHandler struct {
	requester service.RequesterService
	owner     service.OwnerService
	sessions  *auth.SessionManager
	log       *logger.Logger
}

func NewBookingHandler(
	requester service.RequesterService,
	owner service.OwnerService,
	sessions *auth.SessionManager,
	log *logger.Logger,
) *BookingHandler {
	return &BookingHandler{
		requester: requester,
		owner:     owner,
		sessions:  sessions,
		log:       log,
	}
}

func (h *BookingHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	bookings, err := h.requester.List(r.Context(), middleware.AccountID(r.Context()))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListMine", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteList(w, bookings, len(bookings)); err != nil {
		h.log.Error("failed to write list response", "handler", "ListMine", "error", err)
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "error", writeErr)
		}
		return
	}

	booking, err := h.requester.Create(r.Context(), middleware.AccountID(r.Context()), &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	err := h.requester.Cancel(r.Context(), middleware.AccountID(r.Context()), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Cancel", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookingHandler) ListForOwner(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	bookings, err := h.owner.ListByOwner(r.Context(), middleware.AccountID(r.Context()))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListForOwner", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteList(w, bookings, len(bookings)); err != nil {
		h.log.Error("failed to write list response", "handler", "ListForOwner", "error", err)
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "UpdateStatus", "error", writeErr)
		}
		return
	}

	err := h.owner.UpdateStatus(r.Context(), middleware.AccountID(r.Context()), ps.ByName("id"), req.Status)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "UpdateStatus", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	authed := middleware.Protect(h.sessions, h.log)

	router.GET("/api/v1/bookings", authed(h.ListMine))
	router.POST("/api/v1/bookings", authed(h.Create))
	router.POST("/api/v1/bookings/id/:id/cancel", authed(h.Cancel))
	router.GET("/api/v1/bookings/owned", authed(h.ListForOwner))
	router.PATCH("/api/v1/bookings/id/:id/status", authed(h.UpdateStatus))
}
