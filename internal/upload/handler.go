package upload

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"mynotes/pkg/logger"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// SanitizeName replaces every character outside [a-zA-Z0-9.-] with "_".
func SanitizeName(name string) string {
	return unsafeChars.ReplaceAllString(name, "_")
}

type UploadHandler struct {
	Storage  Storage
	MaxBytes int64
	Now      func() time.Time
}

func NewUploadHandler(storage Storage, maxBytes int64) *UploadHandler {
	return &UploadHandler{Storage: storage, MaxBytes: maxBytes, Now: time.Now}
}

type uploadResponse struct {
	URL     string `json:"url"`
	Success bool   `json:"success"`
}

// Upload stores the multipart "file" field as "<unix millis>-<sanitized name>".
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			writeError(w, http.StatusBadRequest, "No file uploaded")
			return
		}
		logger.Sugar.Errorf("Upload error: %v", err)
		writeError(w, http.StatusInternalServerError, "Upload failed")
		return
	}
	defer file.Close()

	name := fmt.Sprintf("%d-%s", h.Now().UnixMilli(), SanitizeName(header.Filename))
	url, err := h.Storage.Put(r.Context(), name, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		logger.Sugar.Errorf("Upload error: %v", err)
		writeError(w, http.StatusInternalServerError, "Upload failed")
		return
	}

	logger.Sugar.Infof("Stored upload %s (%d bytes)", name, header.Size)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(uploadResponse{URL: url, Success: true})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
