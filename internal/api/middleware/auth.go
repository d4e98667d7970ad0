package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	apiContext "hookgate/internal/api/context"
	"hookgate/internal/pkg/errors"
	"hookgate/internal/platform/auth"
	"hookgate/internal/platform/repositories"
)

// APIKeyPrefix marks bearer credentials that are API keys rather than JWTs.
const APIKeyPrefix = "hg_live_"

type AuthMiddleware struct {
	tokenSvc *auth.TokenService
	keys     *repositories.APIKeyRepository
}

func NewAuthMiddleware(tokenSvc *auth.TokenService, keys *repositories.APIKeyRepository) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc, keys: keys}
}

func (m *AuthMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Missing authorization header", nil)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid authorization header format", nil)
			return
		}

		var claims *auth.Claims
		var err error
		if strings.HasPrefix(parts[1], APIKeyPrefix) {
			claims, err = m.authenticateKey(parts[1])
		} else {
			claims, err = m.tokenSvc.ValidateToken(parts[1])
		}
		if err != nil {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid or expired credentials", nil)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Claims, claims)
		next(w, r.WithContext(ctx))
	}
}

// authenticateKey resolves an API key to claims. Keys act on behalf of the
// user that issued them; the admin role requires an explicit scope.
func (m *AuthMiddleware) authenticateKey(rawKey string) (*auth.Claims, error) {
	if m.keys == nil {
		return nil, fmt.Errorf("api key auth not configured")
	}

	hash := sha256.Sum256([]byte(rawKey))
	key, err := m.keys.GetByHash(hex.EncodeToString(hash[:]))
	if err != nil {
		return nil, err
	}
	if key.RevokedAt != nil {
		return nil, fmt.Errorf("api key revoked")
	}
	if key.ExpiresAt != nil && *key.ExpiresAt < time.Now().Unix() {
		return nil, fmt.Errorf("api key expired")
	}

	go m.keys.UpdateLastUsed(key.ID)

	role := "viewer"
	for _, scope := range key.Scopes {
		if scope == "admin" {
			role = "admin"
		}
	}
	return &auth.Claims{UserID: key.UserID, Role: role}, nil
}
