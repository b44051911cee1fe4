// Package tenant attaches the resolved tenant to every request.
package tenant

import (
	"context"
	"net/http"

	"storefront/pkg/requestcontext"
)

const HeaderTenantID = "X-Tenant-ID"

// Resolver maps request routing data to an active tenant. An empty header
// value counts as absent. A nil result means no tenant; resolvers never fail
// the request.
type Resolver interface {
	Resolve(ctx context.Context, headerValue, host string) *requestcontext.Tenant
}

// Middleware resolves the tenant before any handler runs.
func Middleware(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t := resolver.Resolve(r.Context(), r.Header.Get(HeaderTenantID), r.Host)
			next.ServeHTTP(w, r.WithContext(requestcontext.WithTenant(r.Context(), t)))
		})
	}
}
