package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Cheertaboi/storefront-service/internal/models"
)

type ctxKey string

const claimsKey ctxKey = "admin_claims"

const adminRole = "admin"

// AdminClaims extracts the verified token claims stored by RequireAdmin.
func AdminClaims(ctx context.Context) jwt.MapClaims {
	c, _ := ctx.Value(claimsKey).(jwt.MapClaims)
	return c
}

// RequireAdmin accepts only requests carrying an HS256 bearer token signed
// with secret whose "role" claim is "admin".
func RequireAdmin(secret []byte) func(http.Handler) http.Handler {
	return requireAdmin(secret, false)
}

// RequireAdminQueryToken is RequireAdmin for websocket upgrades. Browsers
// cannot set headers on a websocket handshake, so the token may also come
// from the "token" query parameter.
func RequireAdminQueryToken(secret []byte) func(http.Handler) http.Handler {
	return requireAdmin(secret, true)
}

func requireAdmin(secret []byte, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("Authorization")
			if raw == "" && allowQuery {
				raw = r.URL.Query().Get("token")
			}
			claims, err := parseAdminToken(raw, secret)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error": models.ErrUnauthorized.Message,
					"code":  models.ErrUnauthorized.Code,
				})
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseAdminToken(header string, secret []byte) (jwt.MapClaims, error) {
	raw := strings.TrimSpace(header)
	if raw == "" {
		return nil, errors.New("authorization header is missing")
	}
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, errors.Wrap(err, "parse token")
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if role, _ := claims["role"].(string); role != adminRole {
		return nil, errors.New("token is not an admin token")
	}
	return claims, nil
}
