package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/httputil"
	"storefront/pkg/requestcontext"
)

// TokenValidator validates an access token and returns its claims.
type TokenValidator interface {
	ValidateAccessToken(token string) (*Claims, error)
}

// TokenRevocationChecker reports whether a token id has been revoked.
type TokenRevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Claims is what the middleware needs from a validated access token.
type Claims struct {
	UserID     string
	TenantID   string
	TenantName string
	Username   string
	Role       string
	Superuser  bool
	JTI        string
}

// Principal converts raw claims into a typed principal.
func (c *Claims) Principal() (requestcontext.Principal, error) {
	userID, err := id.ParseUserID(c.UserID)
	if err != nil {
		return requestcontext.Principal{}, err
	}
	tenantID, err := id.ParseTenantID(c.TenantID)
	if err != nil {
		return requestcontext.Principal{}, err
	}
	role := id.Role(c.Role)
	if !role.Valid() {
		return requestcontext.Principal{}, dErrors.New(dErrors.CodeInvalidInput, "invalid role claim")
	}
	return requestcontext.Principal{
		UserID:     userID,
		TenantID:   tenantID,
		TenantName: c.TenantName,
		Username:   c.Username,
		Role:       role,
		Superuser:  c.Superuser,
	}, nil
}

func unauthorized(w http.ResponseWriter, desc string) {
	httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, desc))
}

// RequireAuth rejects requests without a valid bearer access token and attaches
// the caller's principal to the context.
func RequireAuth(validator TokenValidator, revocationChecker TokenRevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				unauthorized(w, "Authentication credentials were not provided")
				return
			}

			claims, err := validator.ValidateAccessToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				unauthorized(w, "Invalid or expired token")
				return
			}

			if revocationChecker != nil && claims.JTI != "" {
				revoked, err := revocationChecker.IsRevoked(ctx, claims.JTI)
				if err != nil {
					logger.ErrorContext(ctx, "failed to check token revocation",
						"error", err,
						"request_id", requestID,
					)
					httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to validate token"))
					return
				}
				if revoked {
					logger.WarnContext(ctx, "unauthorized access - token revoked",
						"jti", claims.JTI,
						"request_id", requestID,
					)
					unauthorized(w, "Token has been revoked")
					return
				}
			}

			principal, err := claims.Principal()
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - malformed claims",
					"error", err,
					"request_id", requestID,
				)
				unauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithPrincipal(ctx, principal)))
		})
	}
}
