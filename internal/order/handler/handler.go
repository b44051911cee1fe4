package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"storefront/internal/authz"
	"storefront/internal/order/models"
	"storefront/internal/order/service"
	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/httputil"
	"storefront/pkg/requestcontext"
)

// Service is the order engine surface the handler depends on.
type Service interface {
	List(ctx context.Context, p requestcontext.Principal, status string) ([]service.OrderView, error)
	MyOrders(ctx context.Context, p requestcontext.Principal) ([]service.OrderView, error)
	Get(ctx context.Context, p requestcontext.Principal, orderID id.OrderID) (*service.OrderView, error)
	Create(ctx context.Context, p requestcontext.Principal, in service.CreateInput) (*service.OrderView, error)
	Update(ctx context.Context, p requestcontext.Principal, orderID id.OrderID, update models.OrderUpdate) (*service.OrderView, error)
	UpdateStatus(ctx context.Context, p requestcontext.Principal, orderID id.OrderID, status string) (*service.OrderView, error)
	AssignStaff(ctx context.Context, p requestcontext.Principal, orderID id.OrderID, staffID id.UserID) (*service.OrderView, error)
	Delete(ctx context.Context, p requestcontext.Principal, orderID id.OrderID) error
}

type Handler struct {
	service      Service
	logger       *slog.Logger
	authzMetrics *authz.Metrics
}

type Option func(*Handler)

// WithAuthzMetrics counts denials from the route checks the handler mounts.
func WithAuthzMetrics(m *authz.Metrics) Option {
	return func(h *Handler) {
		h.authzMetrics = m
	}
}

func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{service: service, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the order routes behind bearer auth and the tenant-user
// check. my_orders is registered before {id} so it is never parsed as an id.
// assign_staff is refused to non-owners before the order is looked up.
func (h *Handler) Register(r chi.Router) {
	r.Get("/orders/", h.HandleList)
	r.Post("/orders/", h.HandleCreate)
	r.Get("/orders/my_orders", h.HandleMyOrders)
	r.Get("/orders/{id}", h.HandleGet)
	r.Put("/orders/{id}", h.HandleUpdate)
	r.Patch("/orders/{id}", h.HandleUpdate)
	r.Delete("/orders/{id}", h.HandleDelete)
	r.With(authz.Require(h.logger, h.authzMetrics, authz.StoreOwnerOnly)).
		Post("/orders/{id}/assign_staff", h.HandleAssignStaff)
	r.Post("/orders/{id}/update_status", h.HandleUpdateStatus)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	orders, err := h.service.List(ctx, p, strings.TrimSpace(r.URL.Query().Get("status")))
	if err != nil {
		h.fail(ctx, w, "failed to list orders", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toOrderList(orders))
}

func (h *Handler) HandleMyOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	orders, err := h.service.MyOrders(ctx, p)
	if err != nil {
		h.fail(ctx, w, "failed to list own orders", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toOrderList(orders))
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateOrderRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	order, err := h.service.Create(ctx, p, req.Input())
	if err != nil {
		h.fail(ctx, w, "failed to create order", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toOrderDetail(*order))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}
	order, err := h.service.Get(ctx, p, orderID)
	if err != nil {
		h.fail(ctx, w, "failed to get order", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toOrderDetail(*order))
}

// HandleUpdate serves PUT and PATCH alike: the three writable fields are all
// optional and anything else in the body is ignored.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateOrderRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	order, err := h.service.Update(ctx, p, orderID, req.Update())
	if err != nil {
		h.fail(ctx, w, "failed to update order", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toOrderDetail(*order))
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(ctx, p, orderID); err != nil {
		h.fail(ctx, w, "failed to delete order", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleAssignStaff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AssignStaffRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	order, err := h.service.AssignStaff(ctx, p, orderID, req.staffID)
	if err != nil {
		h.fail(ctx, w, "failed to assign staff", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toOrderDetail(*order))
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateStatusRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	order, err := h.service.UpdateStatus(ctx, p, orderID, req.Status)
	if err != nil {
		h.fail(ctx, w, "failed to update order status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toOrderDetail(*order))
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (requestcontext.Principal, bool) {
	p, ok := requestcontext.PrincipalFrom(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Authentication credentials were not provided"))
		return requestcontext.Principal{}, false
	}
	return p, true
}

func parseOrderID(w http.ResponseWriter, r *http.Request) (id.OrderID, bool) {
	orderID, err := id.ParseOrderID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "order not found"))
		return id.OrderID{}, false
	}
	return orderID, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
