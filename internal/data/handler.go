package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"mynotes/internal/data/model"
	"mynotes/internal/data/service"
	"mynotes/pkg/logger"
)

type DataHandler struct {
	Store *service.Store
}

func NewDataHandler(store *service.Store) *DataHandler {
	return &DataHandler{Store: store}
}

// --- Notes ---

func (h *DataHandler) GetNotes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.Store.Notes())
}

func (h *DataHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req model.Note
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	note, err := h.Store.AddNote(r.Context(), req)
	if err != nil {
		writeStoreError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (h *DataHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut && r.Method != http.MethodPatch {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Missing id parameter", http.StatusBadRequest)
		return
	}

	var patch model.NotePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil || patch.Empty() {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	note, err := h.Store.UpdateNote(r.Context(), id, patch)
	if err != nil {
		writeStoreError(w, "update note "+id, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *DataHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := deleteID(w, r)
	if !ok {
		return
	}
	h.Store.DeleteNote(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// --- Todos ---

func (h *DataHandler) GetTodos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.Store.Todos())
}

func (h *DataHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req model.Todo
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	todo, err := h.Store.AddTodo(r.Context(), req)
	if err != nil {
		writeStoreError(w, "create todo", err)
		return
	}
	writeJSON(w, http.StatusCreated, todo)
}

func (h *DataHandler) ToggleTodo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut && r.Method != http.MethodPatch {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Missing id parameter", http.StatusBadRequest)
		return
	}

	todo, err := h.Store.ToggleTodo(r.Context(), id)
	if err != nil {
		writeStoreError(w, "toggle todo "+id, err)
		return
	}
	writeJSON(w, http.StatusOK, todo)
}

func (h *DataHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := deleteID(w, r)
	if !ok {
		return
	}
	h.Store.DeleteTodo(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// --- Calendar ---

func (h *DataHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.Store.Events())
}

func (h *DataHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req model.CalendarEvent
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	event, err := h.Store.AddEvent(r.Context(), req)
	if err != nil {
		writeStoreError(w, "create event", err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *DataHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := deleteID(w, r)
	if !ok {
		return
	}
	h.Store.DeleteEvent(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// --- Attachments ---

func (h *DataHandler) GetAttachments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.Store.Attachments())
}

func (h *DataHandler) CreateAttachment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req model.Attachment
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	attachment, err := h.Store.AddAttachment(r.Context(), req)
	if err != nil {
		writeStoreError(w, "create attachment", err)
		return
	}
	writeJSON(w, http.StatusCreated, attachment)
}

func (h *DataHandler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := deleteID(w, r)
	if !ok {
		return
	}
	h.Store.DeleteAttachment(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// --- Misc ---

func (h *DataHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.Store.Users())
}

// GetSyncStatus reports the last remote write outcome per entity.
func (h *DataHandler) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.Store.SyncStatus())
}

func deleteID(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return "", false
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Missing id parameter", http.StatusBadRequest)
		return "", false
	}
	return id, true
}

func writeStoreError(w http.ResponseWriter, what string, err error) {
	switch {
	case errors.Is(err, model.ErrInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	default:
		logger.Sugar.Errorf("Handler: Failed to %s: %v", what, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Sugar.Errorf("Failed to encode response: %v", err)
	}
}
