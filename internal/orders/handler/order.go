package handler

import (
	"net/http"

	"eatme/internal/orders/service"
	apperrors "eatme/pkg/errors"
	httputil "eatme/pkg/http"
	"eatme/pkg/logger"
	"eatme/pkg/middleware"
	"eatme/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type OrderHandler struct {
	service       service.OrderService
	webhookSecret string
	log           *logger.Logger
}

// NewOrderHandler serves the cart, checkout and order routes. The payment webhook
// is only registered when webhookSecret is set.
func NewOrderHandler(service service.OrderService, webhookSecret string, log *logger.Logger) *OrderHandler {
	return &OrderHandler{
		service:       service,
		webhookSecret: webhookSecret,
		log:           log,
	}
}

func (h *OrderHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *OrderHandler) writeCart(w http.ResponseWriter, handler string, view *service.CartView, warnings []string) {
	if err := httputil.WriteSuccessWithWarnings(w, view, warnings); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccessWithWarnings", "error", err)
	}
}

func (h *OrderHandler) GetCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, _ := middleware.PrincipalFromContext(r.Context())

	view, err := h.service.GetCart(r.Context(), p.UID)
	if err != nil {
		h.writeError(w, "GetCart", err)
		return
	}
	h.writeCart(w, "GetCart", view, nil)
}

func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, _ := middleware.PrincipalFromContext(r.Context())

	var req model.AddCartItemRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "AddItem", err)
		return
	}

	view, warnings, err := h.service.AddItem(r.Context(), p.UID, &req)
	if err != nil {
		h.writeError(w, "AddItem", err)
		return
	}
	h.writeCart(w, "AddItem", view, warnings)
}

func (h *OrderHandler) UpdateItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, _ := middleware.PrincipalFromContext(r.Context())

	var req model.QuantityUpdate
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "UpdateItem", err)
		return
	}

	view, warnings, err := h.service.UpdateItem(r.Context(), p.UID, ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "UpdateItem", err)
		return
	}
	h.writeCart(w, "UpdateItem", view, warnings)
}

func (h *OrderHandler) RemoveItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, _ := middleware.PrincipalFromContext(r.Context())

	view, warnings, err := h.service.RemoveItem(r.Context(), p.UID, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "RemoveItem", err)
		return
	}
	h.writeCart(w, "RemoveItem", view, warnings)
}

func (h *OrderHandler) ClearCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, _ := middleware.PrincipalFromContext(r.Context())

	if err := h.service.ClearCart(r.Context(), p.UID); err != nil {
		h.writeError(w, "ClearCart", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *OrderHandler) BeginCheckout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, _ := middleware.PrincipalFromContext(r.Context())

	var req model.CheckoutRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "BeginCheckout", err)
		return
	}
	if req.Email == "" {
		req.Email = p.Email
	}

	intent, err := h.service.BeginCheckout(r.Context(), p.UID, &req)
	if err != nil {
		h.writeError(w, "BeginCheckout", err)
		return
	}

	if err := httputil.WriteSuccess(w, intent); err != nil {
		h.log.Error("failed to write success response", "handler", "BeginCheckout", "operation", "WriteSuccess", "error", err)
	}
}

// CompleteCheckout is the client-side callback after the gateway closes.
func (h *OrderHandler) CompleteCheckout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, _ := middleware.PrincipalFromContext(r.Context())
	h.complete(w, r, "CompleteCheckout", p.UID)
}

// PaymentWebhook is the gateway's server-to-server notification. The caller is
// identified by the checkout token, not by a bearer token.
func (h *OrderHandler) PaymentWebhook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.complete(w, r, "PaymentWebhook", "")
}

func (h *OrderHandler) complete(w http.ResponseWriter, r *http.Request, handler, uid string) {
	var outcome model.PaymentOutcome
	if err := httputil.DecodeJSON(r, &outcome); err != nil {
		h.writeError(w, handler, err)
		return
	}

	order, err := h.service.CompleteCheckout(r.Context(), uid, &outcome)
	if err != nil {
		h.writeError(w, handler, err)
		return
	}

	if err := httputil.WriteCreated(w, order); err != nil {
		h.log.Error("failed to write created response", "handler", handler, "operation", "WriteCreated", "error", err)
	}
}

func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, _ := middleware.PrincipalFromContext(r.Context())

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	orders, total, err := h.service.ListMine(r.Context(), p.UID, limit, offset)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	if err := httputil.WritePaginated(w, orders, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListMine", "operation", "WritePaginated", "error", err)
	}
}

func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, _ := middleware.PrincipalFromContext(r.Context())

	id := ps.ByName("id")
	if id == "" {
		h.writeError(w, "GetByID", apperrors.InvalidInput("ID parameter is required"))
		return
	}

	order, err := h.service.GetByID(r.Context(), id, p.UID, p.IsAdmin())
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, order); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *OrderHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/cart", middleware.RequireUser(h.GetCart))
	router.DELETE("/api/v1/cart", middleware.RequireUser(h.ClearCart))
	router.POST("/api/v1/cart/items", middleware.RequireUser(h.AddItem))
	router.PATCH("/api/v1/cart/items/:id", middleware.RequireUser(h.UpdateItem))
	router.DELETE("/api/v1/cart/items/:id", middleware.RequireUser(h.RemoveItem))

	router.POST("/api/v1/checkout", middleware.RequireUser(h.BeginCheckout))
	router.POST("/api/v1/checkout/complete", middleware.RequireUser(h.CompleteCheckout))

	router.GET("/api/v1/orders", middleware.RequireUser(h.ListMine))
	router.GET("/api/v1/orders/:id", middleware.RequireUser(h.GetByID))

	if h.webhookSecret != "" {
		router.POST("/api/v1/webhooks/payment", middleware.PaymentSignature(h.webhookSecret, h.log, h.PaymentWebhook))
	}
}
