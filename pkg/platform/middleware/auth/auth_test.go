package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "storefront/pkg/domain"
	"storefront/pkg/requestcontext"
)

type stubValidator struct {
	claims *Claims
	err    error
}

func (s stubValidator) ValidateAccessToken(string) (*Claims, error) { return s.claims, s.err }

type stubRevocations struct {
	revoked bool
	err     error
}

func (s stubRevocations) IsRevoked(context.Context, string) (bool, error) { return s.revoked, s.err }

func validClaims() *Claims {
	return &Claims{
		UserID:   uuid.NewString(),
		TenantID: uuid.NewString(),
		Username: "alice",
		Role:     "staff",
		JTI:      "jti-1",
	}
}

func serve(t *testing.T, v TokenValidator, rc TokenRevocationChecker, header string) (*httptest.ResponseRecorder, requestcontext.Principal, bool) {
	t.Helper()
	var (
		got    requestcontext.Principal
		called bool
	)
	h := RequireAuth(v, rc, slog.New(slog.NewTextHandler(io.Discard, nil)))(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		called = true
		got, _ = requestcontext.PrincipalFrom(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr, got, called
}

func TestRequireAuth(t *testing.T) {
	t.Run("missing header", func(t *testing.T) {
		rr, _, called := serve(t, stubValidator{claims: validClaims()}, nil, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.False(t, called)
	})

	t.Run("non bearer scheme", func(t *testing.T) {
		rr, _, called := serve(t, stubValidator{claims: validClaims()}, nil, "Basic abc")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.False(t, called)
	})

	t.Run("invalid token", func(t *testing.T) {
		rr, _, _ := serve(t, stubValidator{err: errors.New("expired")}, nil, "Bearer x")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "Invalid or expired token")
	})

	t.Run("revoked token", func(t *testing.T) {
		rr, _, called := serve(t, stubValidator{claims: validClaims()}, stubRevocations{revoked: true}, "Bearer x")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.False(t, called)
	})

	t.Run("revocation lookup failure", func(t *testing.T) {
		rr, _, _ := serve(t, stubValidator{claims: validClaims()}, stubRevocations{err: errors.New("redis down")}, "Bearer x")
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})

	t.Run("unknown role claim", func(t *testing.T) {
		c := validClaims()
		c.Role = "admin"
		rr, _, called := serve(t, stubValidator{claims: c}, nil, "Bearer x")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.False(t, called)
	})

	t.Run("valid token attaches principal", func(t *testing.T) {
		c := validClaims()
		rr, p, called := serve(t, stubValidator{claims: c}, stubRevocations{}, "Bearer x")
		require.True(t, called)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, c.UserID, p.UserID.String())
		assert.Equal(t, c.TenantID, p.TenantID.String())
		assert.Equal(t, id.RoleStaff, p.Role)
	})
}
