package integrationtests

import (
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"deskbook/pkg/model"
	"deskbook/test/integration/testutil"
)

// These tests exercise a running accounts service end to end. They are
// skipped unless TEST_ACCOUNTS_URL points at a live instance, e.g.
//
//	TEST_ACCOUNTS_URL=http://localhost:8080 go test ./test/integration/...
func accountsClient(t *testing.T) *testutil.Client {
	t.Helper()

	url := os.Getenv("TEST_ACCOUNTS_URL")
	if url == "" {
		t.Skip("TEST_ACCOUNTS_URL not set, skipping integration test")
	}

	client := testutil.NewClient(url)
	client.WaitForHealthy(t, 30*time.Second)
	return client
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@deskbook.test", prefix, time.Now().UnixNano())
}

type authEnvelope struct {
	Data model.AuthResponse `json:"data"`
}

type accountEnvelope struct {
	Data model.Account `json:"data"`
}

func register(t *testing.T, client *testutil.Client, email, role string) model.AuthResponse {
	t.Helper()

	resp := client.POST(t, "/api/v1/auth/register", model.RegisterRequest{
		Email:    email,
		Password: "s3cret-pass",
		Role:     role,
		FullName: "Integration Tester",
	})
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	var env authEnvelope
	if err := resp.DecodeJSON(&env); err != nil {
		t.Fatalf("failed to decode register response: %v", err)
	}
	if env.Data.Token == "" {
		t.Fatal("register returned no session token")
	}
	return env.Data
}

func TestRegisterLoginFlow(t *testing.T) {
	client := accountsClient(t)
	email := uniqueEmail("seeker")

	auth := register(t, client, email, "seeker")
	if auth.Account.Role != "seeker" {
		t.Fatalf("expected role seeker, got %q", auth.Account.Role)
	}

	// Registering the same email twice must conflict.
	dup := client.POST(t, "/api/v1/auth/register", model.RegisterRequest{
		Email:    email,
		Password: "another-pass",
		Role:     "seeker",
	})
	testutil.AssertStatusCode(t, dup, http.StatusConflict)

	login := client.POST(t, "/api/v1/auth/login", model.LoginRequest{
		Email:    email,
		Password: "s3cret-pass",
	})
	testutil.AssertStatusCode(t, login, http.StatusOK)

	var env authEnvelope
	if err := login.DecodeJSON(&env); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	if env.Data.Account.Email != email {
		t.Fatalf("expected email %q, got %q", email, env.Data.Account.Email)
	}

	wrong := client.POST(t, "/api/v1/auth/login", model.LoginRequest{
		Email:    email,
		Password: "wrong-pass",
	})
	testutil.AssertStatusCode(t, wrong, http.StatusUnauthorized)
}

func TestCurrentAccountAndLogout(t *testing.T) {
	client := accountsClient(t)
	auth := register(t, client, uniqueEmail("owner"), "owner")
	authed := client.WithToken(auth.Token)

	me := authed.GET(t, "/api/v1/accounts/me")
	testutil.AssertStatusCode(t, me, http.StatusOK)

	var env accountEnvelope
	if err := me.DecodeJSON(&env); err != nil {
		t.Fatalf("failed to decode account response: %v", err)
	}
	if env.Data.ID != auth.Account.ID {
		t.Fatalf("expected account %q, got %q", auth.Account.ID, env.Data.ID)
	}

	logout := authed.POST(t, "/api/v1/auth/logout", nil)
	testutil.AssertStatusCode(t, logout, http.StatusNoContent)

	// The token still carries a valid signature but the session marker
	// is gone, so the identity endpoint must reject it.
	revoked := authed.GET(t, "/api/v1/accounts/me")
	testutil.AssertStatusCode(t, revoked, http.StatusUnauthorized)
}

func TestUpdateProfile(t *testing.T) {
	client := accountsClient(t)
	auth := register(t, client, uniqueEmail("seeker"), "seeker")
	authed := client.WithToken(auth.Token)

	resp := authed.PATCH(t, "/api/v1/accounts/me", model.ProfileUpdate{
		FullName: "Renamed Tester",
	})
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var env accountEnvelope
	if err := resp.DecodeJSON(&env); err != nil {
		t.Fatalf("failed to decode account response: %v", err)
	}
	if env.Data.FullName != "Renamed Tester" {
		t.Fatalf("expected updated name, got %q", env.Data.FullName)
	}
	if env.Data.Role != auth.Account.Role {
		t.Fatalf("profile update must not change role, got %q", env.Data.Role)
	}

	empty := authed.PATCH(t, "/api/v1/accounts/me", model.ProfileUpdate{})
	testutil.AssertStatusCode(t, empty, http.StatusBadRequest)
}
