package authz

import (
	"log/slog"
	"net/http"

	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/httputil"
	"storefront/pkg/requestcontext"
)

// DeniedMessage is the generic body for every denial.
const DeniedMessage = "You do not have permission to perform this action."

// Require gates a route on every predicate passing. An unauthenticated caller
// gets 401; a failing predicate gets 403.
func Require(logger *slog.Logger, metrics *Metrics, preds ...Predicate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			s := Subject{Method: r.Method}
			if p, ok := requestcontext.PrincipalFrom(ctx); ok {
				s.Principal = &p
			}
			if t, ok := requestcontext.TenantFrom(ctx); ok {
				s.Tenant = t
			}

			denied, ok := firstDenied(s, preds)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			metrics.IncrementDenied(denied.Name)
			if s.Principal == nil {
				logger.WarnContext(ctx, "authorization denied - unauthenticated",
					"check", denied.Name,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Authentication credentials were not provided"))
				return
			}
			logger.WarnContext(ctx, "authorization denied",
				"check", denied.Name,
				"user_id", s.Principal.UserID.String(),
				"request_id", requestcontext.RequestID(ctx),
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, DeniedMessage))
		})
	}
}
