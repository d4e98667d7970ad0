package middleware

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	apiContext "hookgate/internal/api/context"
	"hookgate/internal/platform/auth"
	"hookgate/internal/platform/config"
	"hookgate/internal/platform/models"
	"hookgate/internal/platform/repositories"
)

func testTokenService() *auth.TokenService {
	return auth.NewTokenService(config.AuthConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	})
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	tokenSvc := testTokenService()
	token, err := tokenSvc.GenerateAccessToken("usr_1", "admin@example.com", "admin")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	mid := NewAuthMiddleware(tokenSvc, nil)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	handler := mid.Handle(func(w http.ResponseWriter, r *http.Request) {
		claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
		if claims.UserID != "usr_1" {
			t.Errorf("UserID = %s, want usr_1", claims.UserID)
		}
		if claims.Role != "admin" {
			t.Errorf("Role = %s, want admin", claims.Role)
		}
		w.WriteHeader(http.StatusOK)
	})
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

func TestAuthMiddlewareRejects(t *testing.T) {
	mid := NewAuthMiddleware(testTokenService(), nil)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rr := httptest.NewRecorder()
			handler := mid.Handle(func(w http.ResponseWriter, r *http.Request) {
				t.Error("handler should not be reached")
			})
			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rr.Code)
			}
		})
	}
}

func testKeyRepo(t *testing.T) *repositories.APIKeyRepository {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
	CREATE TABLE api_keys (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT,
		key_hash TEXT UNIQUE NOT NULL,
		key_prefix TEXT,
		scopes TEXT,
		created_at INTEGER NOT NULL,
		expires_at INTEGER,
		last_used_at INTEGER,
		revoked_at INTEGER
	);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return repositories.NewAPIKeyRepository(db)
}

func createTestKey(t *testing.T, repo *repositories.APIKeyRepository, rawKey string, scopes []string) *models.APIKey {
	hash := sha256.Sum256([]byte(rawKey))
	key := &models.APIKey{
		UserID:    "usr_1",
		Name:      "ci",
		KeyHash:   hex.EncodeToString(hash[:]),
		KeyPrefix: rawKey[:11] + "...",
		Scopes:    scopes,
	}
	if err := repo.Create(key); err != nil {
		t.Fatalf("Failed to create key: %v", err)
	}
	return key
}

func TestAuthMiddlewareAPIKey(t *testing.T) {
	repo := testKeyRepo(t)
	rawKey := APIKeyPrefix + "0123456789abcdef"
	createTestKey(t, repo, rawKey, []string{"admin"})

	mid := NewAuthMiddleware(testTokenService(), repo)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+rawKey)

	rr := httptest.NewRecorder()
	handler := mid.Handle(func(w http.ResponseWriter, r *http.Request) {
		claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
		if claims.UserID != "usr_1" {
			t.Errorf("UserID = %s, want usr_1", claims.UserID)
		}
		if claims.Role != "admin" {
			t.Errorf("Role = %s, want admin", claims.Role)
		}
		w.WriteHeader(http.StatusOK)
	})
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

func TestAuthMiddlewareRevokedAPIKey(t *testing.T) {
	repo := testKeyRepo(t)
	rawKey := APIKeyPrefix + "0123456789abcdef"
	key := createTestKey(t, repo, rawKey, nil)
	if err := repo.Revoke(key.ID); err != nil {
		t.Fatalf("Failed to revoke key: %v", err)
	}

	mid := NewAuthMiddleware(testTokenService(), repo)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+rawKey)

	rr := httptest.NewRecorder()
	handler := mid.Handle(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	})
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter()

	limit := 5
	for i := 0; i < limit; i++ {
		if !rl.Allow("key:test", limit) {
			t.Fatalf("request %d should be allowed", i)
		}
	}

	if rl.Allow("key:test", limit) {
		t.Error("request over limit should be denied")
	}

	// A different key has its own bucket.
	if !rl.Allow("other:test", limit) {
		t.Error("separate key should be allowed")
	}
}
