package testutil

import (
	"net/http"

	"github.com/google/uuid"

	id "storefront/pkg/domain"
	"storefront/pkg/requestcontext"
)

// NewPrincipal builds a principal with a fresh user ID in tenantID.
func NewPrincipal(tenantID id.TenantID, role id.Role) requestcontext.Principal {
	return requestcontext.Principal{
		UserID:   id.UserID(uuid.New()),
		TenantID: tenantID,
		Username: string(role) + "-" + uuid.NewString()[:8],
		Role:     role,
	}
}

// WithPrincipal attaches p to the request context.
// This simulates what the auth middleware would do for authenticated requests.
func WithPrincipal(req *http.Request, p requestcontext.Principal) *http.Request {
	return req.WithContext(requestcontext.WithPrincipal(req.Context(), p))
}

// WithTenant attaches a resolved tenant to the request context, as the tenant
// resolver middleware would.
func WithTenant(req *http.Request, tenantID id.TenantID) *http.Request {
	return req.WithContext(requestcontext.WithTenant(req.Context(), &requestcontext.Tenant{ID: tenantID}))
}

// WithAuth attaches both principal and its own tenant. This is the typical
// state for an authenticated request on a tenant host.
func WithAuth(req *http.Request, p requestcontext.Principal) *http.Request {
	return WithTenant(WithPrincipal(req, p), p.TenantID)
}
