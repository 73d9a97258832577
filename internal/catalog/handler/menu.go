package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"eatme/internal/catalog/repository"
	"eatme/internal/catalog/service"
	apperrors "eatme/pkg/errors"
	httputil "eatme/pkg/http"
	"eatme/pkg/logger"
	"eatme/pkg/middleware"
	"eatme/pkg/model"

	"github.com/gabriel-vasile/mimetype"
	"github.com/julienschmidt/httprouter"
)

const (
	ImageUploadPrefix = "/api/v1/admin/menu/"
	imageFormField    = "image"
)

type MenuHandler struct {
	service        service.MenuService
	maxUploadBytes int64
	log            *logger.Logger
}

func NewMenuHandler(service service.MenuService, maxUploadBytes int64, log *logger.Logger) *MenuHandler {
	return &MenuHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		log:            log,
	}
}

func (h *MenuHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *MenuHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

// List serves the public menu. Unavailable items are only listed for admins who ask for them.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	query := r.URL.Query()
	filter := repository.Filter{Category: query.Get("category")}
	if p, ok := middleware.PrincipalFromContext(r.Context()); ok && p.IsAdmin() {
		filter.IncludeUnavailable, _ = strconv.ParseBool(query.Get("include_unavailable"))
	}

	items, total, err := h.service.List(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, items, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *MenuHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	item, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}
	h.writeSuccess(w, "GetByID", item)
}

func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.MenuItemCreate
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	item, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, item); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *MenuHandler) SetAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.AvailabilityUpdate
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "SetAvailability", err)
		return
	}

	item, err := h.service.SetAvailability(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "SetAvailability", err)
		return
	}
	h.writeSuccess(w, "SetAvailability", item)
}

// UploadImage accepts a multipart form with the file in the "image" field.
func (h *MenuHandler) UploadImage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, "UploadImage", apperrors.PayloadTooLarge(tooLarge.Limit))
			return
		}
		h.writeError(w, "UploadImage", apperrors.InvalidInput("Request must be a multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(imageFormField)
	if err != nil {
		h.writeError(w, "UploadImage", apperrors.InvalidInput("Form field 'image' is required"))
		return
	}
	defer file.Close()

	contentType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if contentType == "" || contentType == "application/octet-stream" {
		detected, err := mimetype.DetectReader(file)
		if err != nil {
			h.writeError(w, "UploadImage", apperrors.InvalidInput("Failed to read image"))
			return
		}
		contentType = detected.String()
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			h.writeError(w, "UploadImage", apperrors.InvalidInput("Failed to read image"))
			return
		}
	}

	item, err := h.service.UploadImage(r.Context(), ps.ByName("id"), &service.Image{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		h.writeError(w, "UploadImage", err)
		return
	}
	h.writeSuccess(w, "UploadImage", item)
}

func (h *MenuHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/menu", h.List)
	router.GET("/api/v1/menu/:id", h.GetByID)

	router.POST("/api/v1/admin/menu", middleware.RequireAdmin(h.Create))
	router.PATCH("/api/v1/admin/menu/:id/availability", middleware.RequireAdmin(h.SetAvailability))
	router.POST("/api/v1/admin/menu/:id/image", middleware.RequireAdmin(h.UploadImage))
}
