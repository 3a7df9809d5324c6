package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"mynotes/internal/assistant/model"
	"mynotes/internal/assistant/service"
	"mynotes/pkg/logger"
)

type AssistantHandler struct {
	Proxy *service.Proxy
}

func NewAssistantHandler(proxy *service.Proxy) *AssistantHandler {
	return &AssistantHandler{Proxy: proxy}
}

// Chat answers one assistant message. Every failure response carries
// useLocal so the caller can answer with the local interpreter.
func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.Proxy.Available() {
		writeJSON(w, http.StatusServiceUnavailable, model.ErrorResponse{Error: "Brak klucza API OpenAI", UseLocal: true})
		return
	}

	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request body", UseLocal: true})
		return
	}

	reply, err := h.Proxy.Chat(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrNoCredential) {
			writeJSON(w, http.StatusServiceUnavailable, model.ErrorResponse{Error: "Brak klucza API OpenAI", UseLocal: true})
			return
		}
		logger.Sugar.Errorf("Handler: chat failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: "Wystąpił błąd API", Details: err.Error(), UseLocal: true})
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

func (h *AssistantHandler) GenerateResponse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req model.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request body"})
		return
	}

	text, err := h.Proxy.GenerateClientResponse(r.Context(), req)
	switch {
	case errors.Is(err, service.ErrMissingClient):
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "Brak danych klienta"})
	case err != nil:
		logger.Sugar.Errorf("Handler: generate-response failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: "Wystąpił błąd podczas generowania odpowiedzi.", Details: err.Error()})
	default:
		writeJSON(w, http.StatusOK, model.GenerateResponse{Response: text})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Sugar.Errorf("Failed to encode response: %v", err)
	}
}
