package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"deskbook/internal/offices/service"
	"deskbook/pkg/auth"
	httputil "deskbook/pkg/http"
	"deskbook/pkg/logger"
	"deskbook/pkg/middleware"
	"deskbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type OfficeHandler struct {
	service  service.OfficeService
	sessions *auth.SessionManager
	log      *logger.Logger
}

func NewOfficeHandler(service service.OfficeService, sessions *auth.SessionManager, log *logger.Logger) *OfficeHandler {
	return &OfficeHandler{
		service:  service,
		sessions: sessions,
		log:      log,
	}
}

func (h *OfficeHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	ownerID := query.Get("owner_id")
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.ParseInt(query.Get("offset"), 10, 64)

	offices, err := h.service.List(r.Context(), ownerID, limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteList(w, offices, len(offices)); err != nil {
		h.log.Error("failed to write list response", "handler", "List", "error", err)
	}
}

func (h *OfficeHandler) Mine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	offices, err := h.service.List(r.Context(), middleware.AccountID(r.Context()), 0, 0)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Mine", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteList(w, offices, len(offices)); err != nil {
		h.log.Error("failed to write list response", "handler", "Mine", "error", err)
	}
}

func (h *OfficeHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	office, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, office); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *OfficeHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var office model.Office
	if err := json.NewDecoder(r.Body).Decode(&office); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "error", writeErr)
		}
		return
	}

	if err := h.service.Create(r.Context(), middleware.AccountID(r.Context()), &office); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, office); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

type availabilityRequest struct {
	IsAvailable *bool `json:"is_available"`
}

func (h *OfficeHandler) SetAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IsAvailable == nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Request body must contain is_available",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "SetAvailability", "error", writeErr)
		}
		return
	}

	err := h.service.SetAvailability(r.Context(), middleware.AccountID(r.Context()), ps.ByName("id"), *req.IsAvailable)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "SetAvailability", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *OfficeHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Remove(r.Context(), middleware.AccountID(r.Context()), ps.ByName("id")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Delete", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *OfficeHandler) RegisterRoutes(router *httprouter.Router) {
	authed := middleware.Protect(h.sessions, h.log)

	router.GET("/api/v1/offices", h.List)
	router.GET("/api/v1/offices/id/:id", h.GetByID)
	router.GET("/api/v1/offices/mine", authed(h.Mine))
	router.POST("/api/v1/offices", authed(h.Create))
	router.PATCH("/api/v1/offices/id/:id/availability", authed(h.SetAvailability))
	router.DELETE("/api/v1/offices/id/:id", authed(h.Delete))
}
