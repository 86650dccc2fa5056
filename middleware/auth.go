package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"chatstate/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const UserIDKey contextKey = "userID"

// UserID returns the caller identity placed on the request by AuthMiddleware.
func UserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// AuthMiddleware resolves the caller's user id. With an empty secret every
// request acts as defaultUserID; otherwise an HMAC-signed JWT is required and
// its "sub" claim is the user id.
func AuthMiddleware(secret, defaultUserID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				ctx := context.WithValue(r.Context(), UserIDKey, defaultUserID)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			// For WebSockets, tokens are often passed in the query string
			// because the browser's WebSocket API doesn't support custom headers.
			tokenString := r.URL.Query().Get("token")
			if tokenString == "" {
				authHeader := r.Header.Get("Authorization")
				tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			}

			if tokenString == "" {
				http.Error(w, "Unauthorized: No token provided", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				logger.Sugar.Infof("Invalid token: %v", err)
				http.Error(w, "Unauthorized: Invalid or expired token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "Unauthorized: Could not parse token claims", http.StatusUnauthorized)
				return
			}
			userID, ok := claims["sub"].(string)
			if !ok || userID == "" {
				http.Error(w, "Unauthorized: User ID (sub) claim is missing or invalid", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
