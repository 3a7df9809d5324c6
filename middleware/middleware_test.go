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

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

// echoUser writes the user id found in the request context.
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(UserID(r.Context())))
})

func TestAuthMiddleware(t *testing.T) {
	valid := signToken(t, testSecret, jwt.MapClaims{"sub": "user-42", "exp": time.Now().Add(time.Hour).Unix()})
	expired := signToken(t, testSecret, jwt.MapClaims{"sub": "user-42", "exp": time.Now().Add(-time.Hour).Unix()})
	otherKey := signToken(t, "other", jwt.MapClaims{"sub": "user-42"})
	noSub := signToken(t, testSecret, jwt.MapClaims{"role": "authenticated"})

	tests := []struct {
		name     string
		target   string
		header   string
		wantCode int
		wantUser string
	}{
		{name: "bearer header", target: "/api/notes", header: "Bearer " + valid, wantCode: http.StatusOK, wantUser: "user-42"},
		{name: "query token", target: "/ws?token=" + valid, wantCode: http.StatusOK, wantUser: "user-42"},
		{name: "missing token", target: "/api/notes", wantCode: http.StatusUnauthorized},
		{name: "expired", target: "/api/notes", header: "Bearer " + expired, wantCode: http.StatusUnauthorized},
		{name: "wrong key", target: "/api/notes", header: "Bearer " + otherKey, wantCode: http.StatusUnauthorized},
		{name: "no sub claim", target: "/api/notes", header: "Bearer " + noSub, wantCode: http.StatusUnauthorized},
	}

	h := AuthMiddleware(testSecret)(echoUser)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantUser != "" {
				assert.Equal(t, tt.wantUser, rec.Body.String())
			}
		})
	}
}

func TestAuthDisabledWithoutSecret(t *testing.T) {
	rec := httptest.NewRecorder()
	AuthMiddleware("")(echoUser).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notes", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, AnonymousUser, rec.Body.String())
}

func TestCORSMiddleware(t *testing.T) {
	called := false
	h := CORSMiddleware("http://localhost:3000")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/notes", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, called, "preflight is answered by the middleware")
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notes", nil))
	assert.True(t, called)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")

	rec = httptest.NewRecorder()
	CORSMiddleware("")(echoUser).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
