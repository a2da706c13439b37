package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "scranton-branch-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func protectedHandler(t *testing.T, sawClaims **Claims) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*sawClaims = GetClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth(t *testing.T) {
	validator := NewJWTValidator(testSecret)
	mw := NewAuthMiddleware(validator, zap.NewNop())

	t.Run("valid token passes claims through", func(t *testing.T) {
		var sawClaims *Claims
		handler := mw.RequireAuth(protectedHandler(t, &sawClaims))

		token := signToken(t, testSecret, jwt.MapClaims{
			"sub":  "auditor-1",
			"name": "Toby Flenderson",
			"exp":  time.Now().Add(time.Hour).Unix(),
			"iat":  time.Now().Unix(),
		})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/audit", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, sawClaims)
		assert.Equal(t, "auditor-1", sawClaims.Sub)
		assert.Equal(t, "Toby Flenderson", sawClaims.Name)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		var sawClaims *Claims
		handler := mw.RequireAuth(protectedHandler(t, &sawClaims))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/audit", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Nil(t, sawClaims)
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		var sawClaims *Claims
		handler := mw.RequireAuth(protectedHandler(t, &sawClaims))

		token := signToken(t, "some-other-secret", jwt.MapClaims{
			"sub": "auditor-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/audit", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		var sawClaims *Claims
		handler := mw.RequireAuth(protectedHandler(t, &sawClaims))

		token := signToken(t, testSecret, jwt.MapClaims{
			"sub": "auditor-1",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/audit", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header is rejected", func(t *testing.T) {
		var sawClaims *Claims
		handler := mw.RequireAuth(protectedHandler(t, &sawClaims))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/audit", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestExtractToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, extractToken(req))

	req.Header.Set("Authorization", "Bearer abc123")
	assert.Equal(t, "abc123", extractToken(req))

	req.Header.Set("Authorization", "bearer abc123")
	assert.Equal(t, "abc123", extractToken(req))

	req.Header.Set("Authorization", "abc123")
	assert.Empty(t, extractToken(req))
}
