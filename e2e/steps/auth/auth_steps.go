package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
)

const defaultPassword = "correct-horse"

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (interface{}, error)
	StatusCode() int
	Body() []byte
	TenantID() string
	SetSession(username, access, refresh string)
	ActAs(username string) error
	CurrentUser() string
	RefreshToken(username string) string
	Save(key, value string)
}

// RegisterSteps registers authentication-related step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &authSteps{tc: tc}

	// Registration and login
	ctx.Step(`^a registered ([a-z_]+) "([^"]*)"$`, steps.registeredUser)
	ctx.Step(`^I register as ([a-z_]+) "([^"]*)" with password "([^"]*)" confirmed as "([^"]*)"$`, steps.register)
	ctx.Step(`^I log in as "([^"]*)" with password "([^"]*)"$`, steps.login)
	ctx.Step(`^I am "([^"]*)"$`, steps.actAs)
	ctx.Step(`^I refresh my token$`, steps.refresh)

	// Token checks
	ctx.Step(`^I GET "([^"]*)" with invalid token "([^"]*)"$`, steps.getWithInvalidToken)
}

type authSteps struct {
	tc TestContext
}

// registeredUser signs a user up in the scenario tenant and logs them in.
func (s *authSteps) registeredUser(ctx context.Context, role, username string) error {
	if err := s.register(ctx, role, username, defaultPassword, defaultPassword); err != nil {
		return err
	}
	if s.tc.StatusCode() != http.StatusCreated {
		return fmt.Errorf("register %s: status %d: %s", username, s.tc.StatusCode(), s.tc.Body())
	}
	if err := s.login(ctx, username, defaultPassword); err != nil {
		return err
	}
	if s.tc.StatusCode() != http.StatusOK {
		return fmt.Errorf("login %s: status %d: %s", username, s.tc.StatusCode(), s.tc.Body())
	}
	return nil
}

func (s *authSteps) register(ctx context.Context, role, username, pw, confirm string) error {
	return s.tc.POST("/auth/register", map[string]interface{}{
		"username":   username,
		"email":      username + "@example.com",
		"password":   pw,
		"password2":  confirm,
		"first_name": username,
		"role":       role,
		"tenant_id":  s.tc.TenantID(),
	})
}

func (s *authSteps) login(ctx context.Context, username, pw string) error {
	if err := s.tc.POST("/auth/login", map[string]interface{}{
		"username":  username,
		"password":  pw,
		"tenant_id": s.tc.TenantID(),
	}); err != nil {
		return err
	}
	if s.tc.StatusCode() != http.StatusOK {
		return nil
	}
	return s.saveSession(username)
}

func (s *authSteps) actAs(ctx context.Context, username string) error {
	return s.tc.ActAs(username)
}

func (s *authSteps) refresh(ctx context.Context) error {
	username := s.tc.CurrentUser()
	if err := s.tc.POST("/auth/refresh", map[string]interface{}{
		"refresh": s.tc.RefreshToken(username),
	}); err != nil {
		return err
	}
	if s.tc.StatusCode() != http.StatusOK {
		return nil
	}
	return s.saveSession(username)
}

func (s *authSteps) saveSession(username string) error {
	access, err := s.tc.GetResponseField("access")
	if err != nil {
		return err
	}
	refresh, err := s.tc.GetResponseField("refresh")
	if err != nil {
		return err
	}
	s.tc.SetSession(username, access.(string), refresh.(string))
	if userID, err := s.tc.GetResponseField("user_id"); err == nil {
		s.tc.Save("user:"+username, userID.(string))
	}
	return nil
}

func (s *authSteps) getWithInvalidToken(ctx context.Context, path, token string) error {
	return s.tc.GET(path, map[string]string{
		"Authorization": "Bearer " + token,
	})
}
