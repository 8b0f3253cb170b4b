package handlers

import (
	"net/http"
	"testing"

	"github.com/triagedesk/triagedesk/internal/middleware"
	"github.com/triagedesk/triagedesk/internal/testhelpers"
)

func newTestAuth(t *testing.T) (*middleware.JWTAuthMiddleware, *http.ServeMux) {
	t.Helper()
	hash, err := middleware.HashPassword("secret")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	jwtAuth := middleware.NewJWTAuthMiddleware(&middleware.JWTAuthConfig{
		Enabled:           true,
		AdminUsername:     "admin",
		AdminPasswordHash: hash,
		JWTSecret:         "test-secret",
		JWTExpiryHours:    1,
		SkipPaths:         []string{"/auth/login"},
	})

	mux := http.NewServeMux()
	NewAuthHandler(jwtAuth).SetupRoutes(mux)
	return jwtAuth, mux
}

func TestLogin_Success(t *testing.T) {
	jwtAuth, mux := newTestAuth(t)

	var resp LoginResponse
	testhelpers.NewHTTPTestContext(t, "POST", "/auth/login", nil).
		WithJSONBody(LoginRequest{Username: "admin", Password: "secret"}).
		Execute(jwtAuth.Wrap(mux)).
		AssertStatus(http.StatusOK).
		DecodeJSON(&resp)

	if resp.Token == "" {
		t.Error("expected a token")
	}
	if resp.Username != "admin" {
		t.Errorf("expected username admin, got %s", resp.Username)
	}

	claims, err := jwtAuth.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("expected valid token: %v", err)
	}
	if claims.Username != "admin" {
		t.Errorf("expected claims for admin, got %s", claims.Username)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	jwtAuth, mux := newTestAuth(t)

	testhelpers.NewHTTPTestContext(t, "POST", "/auth/login", nil).
		WithJSONBody(LoginRequest{Username: "admin", Password: "wrong"}).
		Execute(jwtAuth.Wrap(mux)).
		AssertStatus(http.StatusUnauthorized).
		AssertBodyContains("Invalid username or password")
}

func TestLogin_WrongUsername(t *testing.T) {
	jwtAuth, mux := newTestAuth(t)

	testhelpers.NewHTTPTestContext(t, "POST", "/auth/login", nil).
		WithJSONBody(LoginRequest{Username: "root", Password: "secret"}).
		Execute(jwtAuth.Wrap(mux)).
		AssertStatus(http.StatusUnauthorized)
}

func TestLogin_MissingFields(t *testing.T) {
	jwtAuth, mux := newTestAuth(t)

	testhelpers.NewHTTPTestContext(t, "POST", "/auth/login", nil).
		WithJSONBody(LoginRequest{Username: "admin"}).
		Execute(jwtAuth.Wrap(mux)).
		AssertStatus(http.StatusBadRequest).
		AssertBodyContains("Username and password are required")
}

func TestVerify_WithValidToken(t *testing.T) {
	jwtAuth, mux := newTestAuth(t)

	token, err := jwtAuth.GenerateToken("admin")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	testhelpers.NewHTTPTestContext(t, "GET", "/auth/verify", nil).
		WithBearerToken(token).
		Execute(jwtAuth.Wrap(mux)).
		AssertStatus(http.StatusOK).
		AssertBodyContains(`"valid":true`)
}

func TestVerify_WithoutToken(t *testing.T) {
	jwtAuth, mux := newTestAuth(t)

	testhelpers.NewHTTPTestContext(t, "GET", "/auth/verify", nil).
		Execute(jwtAuth.Wrap(mux)).
		AssertStatus(http.StatusUnauthorized)
}
