package auth

import (
	"testing"
	"time"

	"cold-backend/internal/config"
	"cold-backend/internal/models"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpirationHours = 1
	cfg.JWT.Issuer = "picking-coordinator"
	return cfg
}

func TestJWTManager_GenerateAndValidateRoundTrip(t *testing.T) {
	jm := NewJWTManager(testConfig())
	user := &models.User{ID: 7, Username: "packer1", Role: "staff", IsActive: true}

	token, err := jm.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := jm.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != user.ID || claims.Username != user.Username || claims.Role != user.Role {
		t.Errorf("claims = %+v, want matching user %+v", claims, user)
	}
	if claims.Issuer != "picking-coordinator" {
		t.Errorf("claims.Issuer = %q, want %q", claims.Issuer, "picking-coordinator")
	}
}

func TestJWTManager_ValidateToken_RejectsWrongSecret(t *testing.T) {
	jm := NewJWTManager(testConfig())
	token, err := jm.GenerateToken(&models.User{ID: 1, Username: "u", Role: "staff"})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	other := testConfig()
	other.JWT.Secret = "a-different-secret"
	if _, err := NewJWTManager(other).ValidateToken(token); err == nil {
		t.Fatal("expected ValidateToken to reject a token signed with a different secret")
	}
}

func TestJWTManager_ValidateToken_RejectsExpired(t *testing.T) {
	cfg := testConfig()
	cfg.JWT.ExpirationHours = -1 // already expired the instant it's issued
	jm := NewJWTManager(cfg)

	token, err := jm.GenerateToken(&models.User{ID: 1, Username: "u", Role: "staff"})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	time.Sleep(time.Millisecond)
	if _, err := jm.ValidateToken(token); err == nil {
		t.Fatal("expected ValidateToken to reject an expired token")
	}
}

func TestJWTManager_ValidateToken_RejectsGarbage(t *testing.T) {
	jm := NewJWTManager(testConfig())
	if _, err := jm.ValidateToken("not.a.jwt"); err == nil {
		t.Fatal("expected ValidateToken to reject a malformed token string")
	}
}
