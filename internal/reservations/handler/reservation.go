package handler

import (
	"net/http"
	"strings"

	"eatme/internal/reservations/service"
	apperrors "eatme/pkg/errors"
	httputil "eatme/pkg/http"
	"eatme/pkg/logger"
	"eatme/pkg/middleware"
	"eatme/pkg/model"

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

func (h *ReservationHandler) Pricing(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteSuccess(w, h.service.Pricing()); err != nil {
		h.log.Error("failed to write success response", "handler", "Pricing", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) Quote(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	band := model.GuestBand(strings.TrimSpace(query.Get("guests")))
	if band == "" {
		band = model.GuestBandSmall
	}

	quote := h.service.Quote(query.Get("duration"), band)
	if err := httputil.WriteSuccess(w, quote); err != nil {
		h.log.Error("failed to write success response", "handler", "Quote", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) GetDraft(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, _ := middleware.PrincipalFromContext(r.Context())

	view, err := h.service.GetDraft(r.Context(), p.UID)
	if err != nil {
		h.writeError(w, "GetDraft", err)
		return
	}

	if err := httputil.WriteSuccess(w, view); err != nil {
		h.log.Error("failed to write success response", "handler", "GetDraft", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) UpdateDraft(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, _ := middleware.PrincipalFromContext(r.Context())

	var update model.DraftUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "UpdateDraft", err)
		return
	}

	view, warnings, err := h.service.UpdateDraft(r.Context(), p.UID, &update)
	if err != nil {
		h.writeError(w, "UpdateDraft", err)
		return
	}

	if err := httputil.WriteSuccessWithWarnings(w, view, warnings); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateDraft", "operation", "WriteSuccessWithWarnings", "error", err)
	}
}

func (h *ReservationHandler) CancelDraft(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, _ := middleware.PrincipalFromContext(r.Context())

	if err := h.service.CancelDraft(r.Context(), p.UID); err != nil {
		h.writeError(w, "CancelDraft", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *ReservationHandler) Submit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, _ := middleware.PrincipalFromContext(r.Context())

	res, err := h.service.Submit(r.Context(), p.UID)
	if err != nil {
		h.writeError(w, "Submit", err)
		return
	}

	if err := httputil.WriteCreated(w, res); err != nil {
		h.log.Error("failed to write created response", "handler", "Submit", "operation", "WriteCreated", "error", err)
	}
}

func (h *ReservationHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, _ := middleware.PrincipalFromContext(r.Context())

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	reservations, total, err := h.service.ListMine(r.Context(), p.UID, limit, offset)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	if err := httputil.WritePaginated(w, reservations, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListMine", "operation", "WritePaginated", "error", err)
	}
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, _ := middleware.PrincipalFromContext(r.Context())

	id := ps.ByName("id")
	if id == "" {
		h.writeError(w, "GetByID", apperrors.InvalidInput("ID parameter is required"))
		return
	}

	res, err := h.service.GetByID(r.Context(), id, p.UID, p.IsAdmin())
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, res); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) ListAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListAll", err)
		return
	}
	status := model.ReservationStatus(strings.TrimSpace(r.URL.Query().Get("status")))

	reservations, total, err := h.service.ListAll(r.Context(), status, limit, offset)
	if err != nil {
		h.writeError(w, "ListAll", err)
		return
	}

	if err := httputil.WritePaginated(w, reservations, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListAll", "operation", "WritePaginated", "error", err)
	}
}

// SetStatus answers 200 even when the birthday bonus failed; the failure is carried
// in bonus_warning and in the warnings list.
func (h *ReservationHandler) SetStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "" {
		h.writeError(w, "SetStatus", apperrors.InvalidInput("ID parameter is required"))
		return
	}

	var update model.StatusUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "SetStatus", err)
		return
	}

	result, err := h.service.SetStatus(r.Context(), id, &update)
	if err != nil {
		h.writeError(w, "SetStatus", err)
		return
	}

	var warnings []string
	if result.BonusWarning != "" {
		warnings = append(warnings, result.BonusWarning)
	}
	if err := httputil.WriteSuccessWithWarnings(w, result, warnings); err != nil {
		h.log.Error("failed to write success response", "handler", "SetStatus", "operation", "WriteSuccessWithWarnings", "error", err)
	}
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/pricing", h.Pricing)
	router.GET("/api/v1/pricing/quote", h.Quote)

	router.GET("/api/v1/reservation-draft", middleware.RequireUser(h.GetDraft))
	router.PATCH("/api/v1/reservation-draft", middleware.RequireUser(h.UpdateDraft))
	router.DELETE("/api/v1/reservation-draft", middleware.RequireUser(h.CancelDraft))

	router.POST("/api/v1/reservations", middleware.RequireUser(h.Submit))
	router.GET("/api/v1/reservations", middleware.RequireUser(h.ListMine))
	router.GET("/api/v1/reservations/:id", middleware.RequireUser(h.GetByID))

	router.GET("/api/v1/admin/reservations", middleware.RequireAdmin(h.ListAll))
	router.PATCH("/api/v1/admin/reservations/:id/status", middleware.RequireAdmin(h.SetStatus))
}
