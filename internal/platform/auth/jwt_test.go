package auth

import (
	"testing"
	"time"

	"hookgate/internal/platform/config"
)

func testService() *TokenService {
	return NewTokenService(config.AuthConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 720 * time.Hour,
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := testService()

	token, err := svc.GenerateAccessToken("usr_123", "admin@example.com", "admin")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != "usr_123" {
		t.Errorf("UserID = %s, want usr_123", claims.UserID)
	}
	if claims.Email != "admin@example.com" {
		t.Errorf("Email = %s, want admin@example.com", claims.Email)
	}
	if claims.Role != "admin" {
		t.Errorf("Role = %s, want admin", claims.Role)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := testService().GenerateAccessToken("usr_123", "a@b.com", "viewer")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	other := NewTokenService(config.AuthConfig{JWTSecret: "different-secret", AccessTokenTTL: time.Minute})
	if _, err := other.ValidateToken(token); err == nil {
		t.Error("expected validation to fail with wrong secret")
	}
}

func TestValidateExpiredToken(t *testing.T) {
	svc := NewTokenService(config.AuthConfig{
		JWTSecret:      "test-secret",
		AccessTokenTTL: -time.Minute,
	})

	token, err := svc.GenerateAccessToken("usr_123", "a@b.com", "viewer")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("expected validation to fail for expired token")
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	svc := testService()

	token, err := svc.GenerateRefreshToken("usr_456")
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}

	subject, err := svc.ValidateRefreshToken(token)
	if err != nil {
		t.Fatalf("ValidateRefreshToken() error = %v", err)
	}
	if subject != "usr_456" {
		t.Errorf("subject = %s, want usr_456", subject)
	}
}

func TestRefreshTokenRejectsAccessToken(t *testing.T) {
	svc := testService()

	// Access tokens carry no subject, so the refresh path must reject them.
	token, err := svc.GenerateAccessToken("usr_123", "a@b.com", "admin")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if _, err := svc.ValidateRefreshToken(token); err == nil {
		t.Error("expected refresh validation to reject an access token")
	}
}
