package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	assistantService "mynotes/internal/assistant/service"
	"mynotes/internal/assistant/session"
	dataService "mynotes/internal/data/service"
	"mynotes/internal/upload"
	"mynotes/socket"
)

func newTestDeps(t *testing.T) Deps {
	t.Helper()
	store := dataService.NewStore(nil)
	store.Load(context.Background())

	dir := t.TempDir()
	storage, err := upload.NewDiskStorage(dir, "/uploads")
	require.NoError(t, err)

	hub := socket.NewHub(func(sink session.Sink, in session.SpeechInput, out session.SpeechOutput) *session.Session {
		return session.New(store, nil, nil, sink)
	})

	return Deps{
		Store:           store,
		Proxy:           assistantService.NewProxy(nil, 0.7, 300),
		Storage:         storage,
		Hub:             hub,
		CORSOrigin:      "*",
		UploadDir:       dir,
		UploadURLPrefix: "/uploads",
	}
}

func TestHealth(t *testing.T) {
	h := Setup(newTestDeps(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRoutesWithoutSecret(t *testing.T) {
	h := Setup(newTestDeps(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notes", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var notes []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notes))
	assert.NotEmpty(t, notes, "offline store serves the seed notes")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRoutesRequireTokenWithSecret(t *testing.T) {
	deps := newTestDeps(t)
	deps.JWTSecret = "secret"
	h := Setup(deps)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/todos", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health and preflight stay open.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/todos", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestServesDiskUploads(t *testing.T) {
	deps := newTestDeps(t)
	require.NoError(t, os.WriteFile(filepath.Join(deps.UploadDir, "1-a.txt"), []byte("hello"), 0o644))
	h := Setup(deps)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/1-a.txt", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())
}
