package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"storefront/internal/auth/models"
	"storefront/internal/auth/service"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/httputil"
	"storefront/pkg/requestcontext"
)

// Service is the account surface the handler depends on.
type Service interface {
	Register(ctx context.Context, in service.RegisterInput) (*models.User, error)
	Login(ctx context.Context, in service.LoginInput) (*service.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*service.Session, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public account routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/register", h.HandleRegister)
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/refresh", h.HandleRefresh)
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	u, err := h.service.Register(ctx, req.Input())
	if err != nil {
		h.fail(ctx, w, "registration failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toUserResponse(u))
}

// HandleLogin takes the tenant from the body, falling back to the tenant
// resolved from the request.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	in := req.Input()
	if in.TenantID == nil {
		if t, ok := requestcontext.TenantFrom(ctx); ok {
			tenantID := t.ID
			in.TenantID = &tenantID
		}
	}
	session, err := h.service.Login(ctx, in)
	if err != nil {
		h.fail(ctx, w, "login failed", err)
		return
	}
	h.logger.InfoContext(ctx, "user logged in",
		"request_id", requestID,
		"user_id", session.User.ID.String(),
		"tenant_id", session.User.TenantID.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, toLoginResponse(session))
}

func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[RefreshRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	session, err := h.service.Refresh(ctx, req.Refresh)
	if err != nil {
		h.fail(ctx, w, "token refresh failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, TokenPairResponse{
		Access:  session.Tokens.Access,
		Refresh: session.Tokens.Refresh,
	})
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
