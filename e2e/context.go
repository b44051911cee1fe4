// Package e2e drives a running storefront server through Gherkin scenarios.
//
// The server address comes from E2E_BASE_URL. The server must be started with
// SUPERUSER_USERNAME and SUPERUSER_PASSWORD matching E2E_SUPERUSER_USERNAME and
// E2E_SUPERUSER_PASSWORD so scenarios can create their own tenants.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// TestContext carries HTTP state across the steps of one scenario.
type TestContext struct {
	BaseURL string
	client  *http.Client

	lastStatus int
	lastBody   []byte

	tenantID    string
	accessToken string
	tokens      map[string]string
	refresh     map[string]string
	current     string
	saved       map[string]string
}

func NewTestContext() *TestContext {
	base := os.Getenv("E2E_BASE_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	return &TestContext{
		BaseURL: strings.TrimRight(base, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		tokens:  make(map[string]string),
		refresh: make(map[string]string),
		saved:   make(map[string]string),
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.tenantID = ""
	tc.accessToken = ""
	tc.current = ""
	tc.tokens = make(map[string]string)
	tc.refresh = make(map[string]string)
	tc.saved = make(map[string]string)
}

func (tc *TestContext) POST(path string, body interface{}) error {
	return tc.Do(http.MethodPost, path, body, nil)
}

func (tc *TestContext) GET(path string, headers map[string]string) error {
	return tc.Do(http.MethodGet, path, nil, headers)
}

// Do sends a request with the current tenant header and bearer token. Explicit
// headers override both.
func (tc *TestContext) Do(method, path string, body interface{}, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.tenantID != "" {
		req.Header.Set("X-Tenant-ID", tc.tenantID)
	}
	if tc.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+tc.accessToken)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) StatusCode() int {
	return tc.lastStatus
}

func (tc *TestContext) Body() []byte {
	return tc.lastBody
}

// GetResponseField reads a top-level field of the last JSON object response.
func (tc *TestContext) GetResponseField(field string) (interface{}, error) {
	var obj map[string]interface{}
	if err := json.Unmarshal(tc.lastBody, &obj); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %s", tc.lastBody)
	}
	v, ok := obj[field]
	if !ok {
		return nil, fmt.Errorf("response has no field %q: %s", field, tc.lastBody)
	}
	return v, nil
}

func (tc *TestContext) TenantID() string      { return tc.tenantID }
func (tc *TestContext) SetTenantID(id string) { tc.tenantID = id }

func (tc *TestContext) GetAccessToken() string { return tc.accessToken }

// SetSession records a user's tokens and makes that user current.
func (tc *TestContext) SetSession(username, access, refresh string) {
	tc.tokens[username] = access
	tc.refresh[username] = refresh
	tc.current = username
	tc.accessToken = access
}

// ActAs switches the bearer token to a user logged in earlier.
func (tc *TestContext) ActAs(username string) error {
	token, ok := tc.tokens[username]
	if !ok {
		return fmt.Errorf("no session for %q", username)
	}
	tc.current = username
	tc.accessToken = token
	return nil
}

func (tc *TestContext) CurrentUser() string { return tc.current }

func (tc *TestContext) RefreshToken(username string) string { return tc.refresh[username] }

// Anonymous drops the bearer token for following requests.
func (tc *TestContext) Anonymous() {
	tc.current = ""
	tc.accessToken = ""
}

func (tc *TestContext) Save(key, value string) { tc.saved[key] = value }

func (tc *TestContext) Saved(key string) (string, error) {
	v, ok := tc.saved[key]
	if !ok {
		return "", fmt.Errorf("nothing saved under %q", key)
	}
	return v, nil
}
