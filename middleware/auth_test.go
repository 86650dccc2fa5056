package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(UserID(r.Context())))
	})
}

func signed(t *testing.T, claims jwt.MapClaims, secret string) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthMiddlewareWithoutSecretUsesDefaultUser(t *testing.T) {
	rec := httptest.NewRecorder()
	AuthMiddleware("", "local-user")(echoUser()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "local-user", rec.Body.String())
}

func TestAuthMiddlewareValidatesToken(t *testing.T) {
	handler := AuthMiddleware(testSecret, "local-user")(echoUser())
	valid := signed(t, jwt.MapClaims{"sub": "alice", "exp": time.Now().Add(time.Hour).Unix()}, testSecret)

	tests := []struct {
		name     string
		target   string
		header   string
		wantCode int
		wantBody string
	}{
		{name: "bearer header", target: "/", header: "Bearer " + valid, wantCode: http.StatusOK, wantBody: "alice"},
		{name: "query token", target: "/?token=" + valid, wantCode: http.StatusOK, wantBody: "alice"},
		{name: "missing token", target: "/", wantCode: http.StatusUnauthorized},
		{name: "wrong secret", target: "/", header: "Bearer " + signed(t, jwt.MapClaims{"sub": "alice"}, "other"), wantCode: http.StatusUnauthorized},
		{name: "expired", target: "/", header: "Bearer " + signed(t, jwt.MapClaims{"sub": "alice", "exp": time.Now().Add(-time.Hour).Unix()}, testSecret), wantCode: http.StatusUnauthorized},
		{name: "no subject", target: "/", header: "Bearer " + signed(t, jwt.MapClaims{"name": "alice"}, testSecret), wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}
