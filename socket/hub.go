package socket

import (
	"encoding/json"
	"sync"

	"mynotes/internal/assistant/session"
	"mynotes/internal/data/service"
	"mynotes/pkg/logger"
)

// Client → server message types.
const (
	ChatType       = "CHAT"        // {message}
	InputType      = "INPUT"       // {text} compose buffer edited (also sent back by the server)
	VoiceStartType = "VOICE_START" // user pressed the mic button
	VoiceStopType  = "VOICE_STOP"  // user released it
	TranscriptType = "TRANSCRIPT"  // {text} recognizer result
	VoiceEndType   = "VOICE_END"   // recognizer run ended
	VoiceErrorType = "VOICE_ERROR" // {error} recognizer error code
)

// Server → client message types.
const (
	HistoryType     = "HISTORY"      // full transcript on connect
	MessageType     = "MESSAGE"      // one appended chat message
	PendingType     = "PENDING"      // {pending}
	ListeningType   = "LISTENING"    // {listening}
	NotifyType      = "NOTIFY"       // {title, description, variant}
	SpeakType       = "SPEAK"        // {text} read the reply aloud
	RecognitionType = "RECOGNITION"  // {command: start|stop}
	DataChangedType = "DATA_CHANGED" // a facade mutation, for UI refresh
)

type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func newMessage(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WSMessage{Type: msgType, Payload: raw})
}

// SessionFactory creates the assistant session a new connection talks to.
type SessionFactory func(sink session.Sink, in session.SpeechInput, out session.SpeechOutput) *session.Session

type Hub struct {
	Clients    map[*Client]bool
	Broadcast  chan WSMessage
	Register   chan *Client
	Unregister chan *Client
	newSession SessionFactory
	mu         sync.Mutex
}

func NewHub(newSession SessionFactory) *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Broadcast:  make(chan WSMessage, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		newSession: newSession,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.Clients[client] = true
			h.mu.Unlock()

			// The new client starts from the session's full transcript.
			if msg, err := newMessage(HistoryType, client.session.History()); err == nil {
				client.enqueue(msg)
			}
			logger.Sugar.Infof("Assistant session opened for %s", client.UserID)

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				client.close()
				logger.Sugar.Infof("Assistant session closed for %s", client.UserID)
			}
			h.mu.Unlock()

		case msg := <-h.Broadcast:
			payload, err := json.Marshal(msg)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling broadcast message: %v", err)
				continue
			}

			// Collect recipients under the lock, send outside of it.
			h.mu.Lock()
			clientsToSend := make([]*Client, 0, len(h.Clients))
			for client := range h.Clients {
				clientsToSend = append(clientsToSend, client)
			}
			h.mu.Unlock()

			for _, client := range clientsToSend {
				select {
				case client.Send <- payload:
				default:
					// A lagging client is dropped instead of blocking the hub.
					logger.Sugar.Warnf("Client %s's send buffer is full. Unregistering.", client.UserID)
					h.mu.Lock()
					delete(h.Clients, client)
					h.mu.Unlock()
					client.close()
				}
			}
		}
	}
}

// Publish broadcasts a data facade change to every connected client.
func (h *Hub) Publish(c service.Change) {
	raw, err := json.Marshal(c)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling change: %v", err)
		return
	}
	select {
	case h.Broadcast <- WSMessage{Type: DataChangedType, Payload: raw}:
	default:
		logger.Sugar.Warnf("Broadcast queue full, dropping %s %s change", c.Op, c.Entity)
	}
}

// ClientCount reports the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.Clients)
}
