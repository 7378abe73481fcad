package auth

import (
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	m := NewSessionManager("test-secret", time.Hour)

	token, err := m.Issue("665f1c2ab1e5d24f887a31c0", "owner")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.AccountID != "665f1c2ab1e5d24f887a31c0" {
		t.Errorf("expected account id to round-trip, got %q", claims.AccountID)
	}
	if claims.Role != "owner" {
		t.Errorf("expected role 'owner', got %q", claims.Role)
	}
	if claims.ID == "" {
		t.Error("expected a token id for revocation")
	}
}

func TestVerify_ExpiredToken(t *testing.T) {
	m := NewSessionManager("test-secret", -time.Minute)

	token, err := m.Issue("665f1c2ab1e5d24f887a31c0", "seeker")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := m.Verify(token); err != ErrExpiredToken {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	issuer := NewSessionManager("secret-a", time.Hour)
	verifier := NewSessionManager("secret-b", time.Hour)

	token, err := issuer.Issue("665f1c2ab1e5d24f887a31c0", "seeker")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := verifier.Verify(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_Garbage(t *testing.T) {
	m := NewSessionManager("test-secret", time.Hour)

	if _, err := m.Verify("not.a.token"); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}
