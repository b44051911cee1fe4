package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"storefront/internal/catalog/models"
	"storefront/internal/catalog/service"
	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/httputil"
	"storefront/pkg/requestcontext"
)

// Service is the catalog surface the handler depends on.
type Service interface {
	List(ctx context.Context, p requestcontext.Principal, f models.Filter) ([]service.ProductView, error)
	Get(ctx context.Context, p requestcontext.Principal, productID id.ProductID) (*service.ProductView, error)
	Categories(ctx context.Context, p requestcontext.Principal) ([]string, error)
	Create(ctx context.Context, p requestcontext.Principal, in models.ProductInput) (*service.ProductView, error)
	Update(ctx context.Context, p requestcontext.Principal, productID id.ProductID, update models.ProductUpdate) (*service.ProductView, error)
	Delete(ctx context.Context, p requestcontext.Principal, productID id.ProductID) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the product routes. Callers wrap r with bearer auth and the
// tenant-user and staff-or-read-only checks.
func (h *Handler) Register(r chi.Router) {
	r.Get("/products/", h.HandleList)
	r.Post("/products/", h.HandleCreate)
	r.Get("/products/categories", h.HandleCategories)
	r.Get("/products/{id}", h.HandleGet)
	r.Put("/products/{id}", h.HandleReplace)
	r.Patch("/products/{id}", h.HandlePatch)
	r.Delete("/products/{id}", h.HandleDelete)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	products, err := h.service.List(ctx, p, filter)
	if err != nil {
		h.fail(ctx, w, "failed to list products", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProductList(products))
}

func (h *Handler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	categories, err := h.service.Categories(ctx, p)
	if err != nil {
		h.fail(ctx, w, "failed to list categories", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, categories)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ProductRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	product, err := h.service.Create(ctx, p, req.Input())
	if err != nil {
		h.fail(ctx, w, "failed to create product", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toProductResponse(*product))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}
	product, err := h.service.Get(ctx, p, productID)
	if err != nil {
		h.fail(ctx, w, "failed to get product", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProductResponse(*product))
}

func (h *Handler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[ProductRequest](w, r, h.logger, r.Context(), requestcontext.RequestID(r.Context()))
	if !ok {
		return
	}
	h.update(w, r, req.Update())
}

func (h *Handler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[PatchProductRequest](w, r, h.logger, r.Context(), requestcontext.RequestID(r.Context()))
	if !ok {
		return
	}
	h.update(w, r, req.Update())
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, update models.ProductUpdate) {
	ctx := r.Context()
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}
	product, err := h.service.Update(ctx, p, productID, update)
	if err != nil {
		h.fail(ctx, w, "failed to update product", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProductResponse(*product))
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(ctx, p, productID); err != nil {
		h.fail(ctx, w, "failed to delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseFilter reads category, is_active and search from the query string.
func parseFilter(r *http.Request) (models.Filter, error) {
	q := r.URL.Query()
	f := models.Filter{
		Category: strings.TrimSpace(q.Get("category")),
		Search:   strings.TrimSpace(q.Get("search")),
	}
	if raw := strings.TrimSpace(q.Get("is_active")); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return models.Filter{}, dErrors.NewField(dErrors.CodeValidation, "is_active", "Enter a valid boolean.")
		}
		f.IsActive = &active
	}
	return f, nil
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (requestcontext.Principal, bool) {
	p, ok := requestcontext.PrincipalFrom(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Authentication credentials were not provided"))
		return requestcontext.Principal{}, false
	}
	return p, true
}

// parseProductID treats a malformed id as not found.
func parseProductID(w http.ResponseWriter, r *http.Request) (id.ProductID, bool) {
	productID, err := id.ParseProductID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "product not found"))
		return id.ProductID{}, false
	}
	return productID, true
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
