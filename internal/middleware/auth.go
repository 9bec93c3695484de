package middleware

import (
	"context"
	"net/http"
	"strings"

	"postutme-be/internal/utils"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	AdminIDKey     contextKey = "adminID"
	TokenClaimsKey contextKey = "jwtClaims"
)

// RequireAdmin protects back-office operations (manual verify, expiry
// sweep). Unlike candidate-facing endpoints there is no anonymous path:
// a missing or invalid token is rejected outright.
func RequireAdmin(secret string, next http.Handler) http.Handler {
	jwtKey := []byte(secret)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			utils.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return jwtKey, nil
		})
		if err != nil || !token.Valid {
			utils.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || claims["role"] != "admin" {
			utils.WriteJSONError(w, "forbidden", http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), TokenClaimsKey, claims)
		if sub, ok := claims["sub"].(string); ok {
			ctx = context.WithValue(ctx, AdminIDKey, sub)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
