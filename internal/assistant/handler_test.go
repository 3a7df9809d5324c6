package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mynotes/internal/assistant/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCompleter struct {
	text  string
	err   error
	calls int
}

func (c *countingCompleter) Complete(context.Context, string, string, service.CompletionOptions) (string, error) {
	c.calls++
	return c.text, c.err
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestChatWithoutKey(t *testing.T) {
	h := NewAssistantHandler(service.NewProxy(nil, 0.7, 300))

	rec := httptest.NewRecorder()
	h.Chat(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hej","context":{}}`)))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["useLocal"])
	assert.Equal(t, "Brak klucza API OpenAI", body["error"])
}

func TestChatActionReply(t *testing.T) {
	c := &countingCompleter{text: `{"action":"add_event","event":{"title":"X","start_time":"2026-10-20T14:00:00Z"},"response":"Done"}`}
	h := NewAssistantHandler(service.NewProxy(c, 0.7, 300))

	rec := httptest.NewRecorder()
	h.Chat(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"dodaj X","context":{"notesCount":1}}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "add_event", body["action"])
	assert.Equal(t, "Done", body["response"])
	assert.Equal(t, "X", body["event"].(map[string]any)["title"])
	assert.Equal(t, 1, c.calls)
}

func TestChatPlainReply(t *testing.T) {
	h := NewAssistantHandler(service.NewProxy(&countingCompleter{text: "Cześć!"}, 0.7, 300))

	rec := httptest.NewRecorder()
	h.Chat(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hej"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"response":"Cześć!"}`, rec.Body.String())
}

func TestChatProviderFailure(t *testing.T) {
	h := NewAssistantHandler(service.NewProxy(&countingCompleter{err: errors.New("invalid api key")}, 0.7, 300))

	rec := httptest.NewRecorder()
	h.Chat(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hej"}`)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Wystąpił błąd API", body["error"])
	assert.Contains(t, body["details"], "invalid api key")
	assert.Equal(t, true, body["useLocal"])
}

func TestChatRejectsWrongMethodAndBody(t *testing.T) {
	h := NewAssistantHandler(service.NewProxy(&countingCompleter{}, 0.7, 300))

	rec := httptest.NewRecorder()
	h.Chat(rec, httptest.NewRequest(http.MethodGet, "/api/chat", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.Chat(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateResponse(t *testing.T) {
	c := &countingCompleter{text: "Potwierdzam odbiór dokumentów."}
	h := NewAssistantHandler(service.NewProxy(c, 0.7, 300))

	rec := httptest.NewRecorder()
	body := `{"client":{"full_name":"Jan Kowalski","email":"jan@example.com","phone":"1"},"notes":[]}`
	h.GenerateResponse(rec, httptest.NewRequest(http.MethodPost, "/api/generate-response", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"response":"Potwierdzam odbiór dokumentów."}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.GenerateResponse(rec, httptest.NewRequest(http.MethodPost, "/api/generate-response", strings.NewReader(`{"notes":[]}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Brak danych klienta", decode(t, rec)["error"])
}

func TestGenerateResponseFailure(t *testing.T) {
	h := NewAssistantHandler(service.NewProxy(nil, 0.7, 300))

	rec := httptest.NewRecorder()
	h.GenerateResponse(rec, httptest.NewRequest(http.MethodPost, "/api/generate-response", strings.NewReader(`{"client":{}}`)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Wystąpił błąd podczas generowania odpowiedzi.", body["error"])
	assert.NotEmpty(t, body["details"])
}
