package router

import (
	"net/http"
	"strings"

	assistantHandler "mynotes/internal/assistant"
	assistantService "mynotes/internal/assistant/service"
	dataHandler "mynotes/internal/data"
	dataService "mynotes/internal/data/service"
	"mynotes/internal/upload"
	"mynotes/middleware"
	"mynotes/socket"
)

// Deps are the long-lived components the HTTP surface is built on.
type Deps struct {
	Store   *dataService.Store
	Proxy   *assistantService.Proxy
	Storage upload.Storage
	Hub     *socket.Hub

	JWTSecret      string
	CORSOrigin     string
	MaxUploadBytes int64

	// UploadDir and UploadURLPrefix are set for the disk backend only;
	// the files are then served from UploadURLPrefix.
	UploadDir       string
	UploadURLPrefix string
}

func Setup(deps Deps) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.AuthMiddleware(deps.JWTSecret)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// WebSocket
	wsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		socket.ServeWs(deps.Hub, w, r, middleware.UserID(r.Context()))
	})
	mux.Handle("/ws", auth(wsHandler))

	// Assistant proxy
	chat := assistantHandler.NewAssistantHandler(deps.Proxy)
	mux.Handle("/api/chat", auth(http.HandlerFunc(chat.Chat)))
	mux.Handle("/api/generate-response", auth(http.HandlerFunc(chat.GenerateResponse)))

	// Uploads
	up := upload.NewUploadHandler(deps.Storage, deps.MaxUploadBytes)
	mux.Handle("/api/upload", auth(http.HandlerFunc(up.Upload)))
	if deps.UploadDir != "" {
		prefix := "/" + strings.Trim(deps.UploadURLPrefix, "/") + "/"
		mux.Handle(prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(deps.UploadDir))))
	}

	// Data facade
	data := dataHandler.NewDataHandler(deps.Store)

	mux.Handle("/api/notes", auth(http.HandlerFunc(data.GetNotes)))
	mux.Handle("/api/notes/create", auth(http.HandlerFunc(data.CreateNote)))
	mux.Handle("/api/notes/update", auth(http.HandlerFunc(data.UpdateNote)))
	mux.Handle("/api/notes/delete", auth(http.HandlerFunc(data.DeleteNote)))

	mux.Handle("/api/todos", auth(http.HandlerFunc(data.GetTodos)))
	mux.Handle("/api/todos/create", auth(http.HandlerFunc(data.CreateTodo)))
	mux.Handle("/api/todos/toggle", auth(http.HandlerFunc(data.ToggleTodo)))
	mux.Handle("/api/todos/delete", auth(http.HandlerFunc(data.DeleteTodo)))

	mux.Handle("/api/events", auth(http.HandlerFunc(data.GetEvents)))
	mux.Handle("/api/events/create", auth(http.HandlerFunc(data.CreateEvent)))
	mux.Handle("/api/events/delete", auth(http.HandlerFunc(data.DeleteEvent)))

	mux.Handle("/api/attachments", auth(http.HandlerFunc(data.GetAttachments)))
	mux.Handle("/api/attachments/create", auth(http.HandlerFunc(data.CreateAttachment)))
	mux.Handle("/api/attachments/delete", auth(http.HandlerFunc(data.DeleteAttachment)))

	mux.Handle("/api/users", auth(http.HandlerFunc(data.GetUsers)))
	mux.Handle("/api/sync-status", auth(http.HandlerFunc(data.GetSyncStatus)))

	return middleware.CORSMiddleware(deps.CORSOrigin)(mux)
}
