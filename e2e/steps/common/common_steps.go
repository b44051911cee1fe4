package common

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (interface{}, error)
	StatusCode() int
	Body() []byte
	SetTenantID(id string)
	SetSession(username, access, refresh string)
	Anonymous()
}

// RegisterSteps registers background, request and assertion steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	// Background
	ctx.Step(`^the storefront is running$`, steps.storefrontIsRunning)
	ctx.Step(`^a fresh tenant "([^"]*)"$`, steps.freshTenant)

	// Generic requests
	ctx.Step(`^I GET "([^"]*)"$`, steps.get)
	ctx.Step(`^I GET "([^"]*)" without a token$`, steps.getAnonymously)

	// Assertions
	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
	ctx.Step(`^the error code should be "([^"]*)"$`, steps.errorCodeShouldBe)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) storefrontIsRunning(ctx context.Context) error {
	if err := s.tc.GET("/healthz", nil); err != nil {
		return err
	}
	return s.statusShouldBe(ctx, http.StatusOK)
}

// freshTenant creates an isolated tenant as the superuser so scenarios never
// see each other's data.
func (s *commonSteps) freshTenant(ctx context.Context, name string) error {
	username := envOr("E2E_SUPERUSER_USERNAME", "admin")
	pw := envOr("E2E_SUPERUSER_PASSWORD", "admin-password")
	s.tc.SetTenantID("")
	if err := s.tc.POST("/auth/login", map[string]interface{}{
		"username": username,
		"password": pw,
	}); err != nil {
		return err
	}
	if err := s.statusShouldBe(ctx, http.StatusOK); err != nil {
		return fmt.Errorf("superuser login: %w", err)
	}
	access, err := s.tc.GetResponseField("access")
	if err != nil {
		return err
	}
	s.tc.SetSession(username, access.(string), "")

	suffix := strconv.FormatInt(time.Now().UnixNano(), 36)
	if err := s.tc.POST("/tenants/", map[string]interface{}{
		"name":          name + " " + suffix,
		"store_name":    name + " Store",
		"subdomain":     strings.ToLower(strings.ReplaceAll(name, " ", "")) + suffix,
		"contact_email": "owner@example.com",
	}); err != nil {
		return err
	}
	if err := s.statusShouldBe(ctx, http.StatusCreated); err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}
	tenantID, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	s.tc.SetTenantID(tenantID.(string))
	s.tc.Anonymous()
	return nil
}

func (s *commonSteps) get(ctx context.Context, path string) error {
	return s.tc.GET(path, nil)
}

func (s *commonSteps) getAnonymously(ctx context.Context, path string) error {
	s.tc.Anonymous()
	return s.tc.GET(path, nil)
}

func (s *commonSteps) statusShouldBe(ctx context.Context, expected int) error {
	if got := s.tc.StatusCode(); got != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, got, s.tc.Body())
	}
	return nil
}

func (s *commonSteps) fieldShouldBe(ctx context.Context, field, expected string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != expected {
		return fmt.Errorf("expected %s=%q, got %q", field, expected, got)
	}
	return nil
}

func (s *commonSteps) errorCodeShouldBe(ctx context.Context, code string) error {
	return s.fieldShouldBe(ctx, "error", code)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
