package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/checkout/internal/http/auth"
)

var secret = []byte("test-secret")

func signToken(t *testing.T, userID uuid.UUID, role auth.Role, key []byte) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID.String(),
		"role":   string(role),
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	signed, err := token.SignedString(key)
	require.NoError(t, err)

	return signed
}

func TestMiddleware(t *testing.T) {
	userID := uuid.New()

	handler := auth.Middleware(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.FromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, auth.RoleReseller, claims.Role)

		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"ValidToken", "Bearer " + signToken(t, userID, auth.RoleReseller, secret), http.StatusNoContent},
		{"MissingHeader", "", http.StatusUnauthorized},
		{"NotBearer", "Basic abc", http.StatusUnauthorized},
		{"WrongKey", "Bearer " + signToken(t, userID, auth.RoleReseller, []byte("other")), http.StatusUnauthorized},
		{"Garbage", "Bearer not-a-token", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestMiddleware_RejectsNonUUIDSubject(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": "42",
		"role":   "USER",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	signed, err := token.SignedString(secret)
	require.NoError(t, err)

	handler := auth.Middleware(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoles(t *testing.T) {
	userID := uuid.New()

	chain := func(role auth.Role, allowed ...auth.Role) int {
		handler := auth.Middleware(secret)(auth.RequireRoles(allowed...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, userID, role, secret))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, chain(auth.RoleAdmin, auth.RoleAdmin))
	assert.Equal(t, http.StatusNoContent, chain(auth.RoleUser, auth.RoleAdmin, auth.RoleUser))
	assert.Equal(t, http.StatusForbidden, chain(auth.RoleUser, auth.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, chain(auth.RoleReseller, auth.RoleAdmin))
}

func TestRequireRoles_WithoutMiddleware(t *testing.T) {
	handler := auth.RequireRoles(auth.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
