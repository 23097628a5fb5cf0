package auth

import (
	"testing"
	"time"

	"calldash/internal/config"
)

func TestIssueAndVerifyToken(t *testing.T) {
	m, err := NewManager(config.AuthConfig{
		JWTSecret: "secret",
		JWTIssuer: "issuer",
		TokenTTL:  12 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	now := time.Unix(1700000000, 0).UTC()
	tok, err := m.Issue(now, "alice", "client", "agent_1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tok == "" {
		t.Fatalf("expected token string")
	}

	claims, err := m.Verify(tok, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Username != "alice" || claims.Role != "client" || claims.AgentID != "agent_1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyUsesSuppliedClock(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", TokenTTL: time.Hour})

	// An instant long in the past: if verification consulted the wall
	// clock instead of the supplied one, this token would be expired.
	issued := time.Unix(1500000000, 0).UTC()
	tok, err := m.Issue(issued, "alice", "client", "agent_1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := m.Verify(tok, issued.Add(30*time.Minute)); err != nil {
		t.Fatalf("verify within ttl: %v", err)
	}
	if _, err := m.Verify(tok, issued.Add(2*time.Hour)); err == nil {
		t.Fatalf("expected expiry at the supplied clock")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", TokenTTL: time.Minute})
	now := time.Unix(1700000000, 0).UTC()
	tok, err := m.Issue(now, "alice", "client", "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(tok, now.Add(12*time.Hour)); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer, _ := NewManager(config.AuthConfig{JWTSecret: "secret-a", TokenTTL: time.Hour})
	verifier, _ := NewManager(config.AuthConfig{JWTSecret: "secret-b", TokenTTL: time.Hour})

	tok, err := issuer.Issue(time.Now(), "alice", "admin", "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.Verify(tok, time.Now()); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestNewManagerRequiresSecret(t *testing.T) {
	if _, err := NewManager(config.AuthConfig{}); err == nil {
		t.Fatalf("expected error")
	}
}
