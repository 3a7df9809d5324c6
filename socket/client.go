package socket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"mynotes/internal/assistant/model"
	"mynotes/internal/assistant/session"
	"mynotes/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CheckOrigin allows the front-end dev server to connect
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one websocket connection and the assistant session behind it.
// It is the session's Sink, SpeechInput and SpeechOutput: recognition runs
// in the browser and is driven by RECOGNITION/SPEAK messages.
type Client struct {
	Hub     *Hub
	Conn    *websocket.Conn
	UserID  string
	Send    chan []byte
	session *session.Session
	speech  bool

	done      chan struct{}
	closeOnce sync.Once
}

func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Sugar.Error(err)
		return
	}

	// Browsers without a speech recognizer connect with ?speech=0.
	speech := r.URL.Query().Get("speech")

	client := &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, 256),
		speech: speech != "0" && speech != "false",
		done:   make(chan struct{}),
	}
	client.session = hub.newSession(client, client, client)

	client.Hub.Register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, rawMessage, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Sugar.Errorf("error: %v", err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(rawMessage, &msg); err != nil {
			logger.Sugar.Errorf("Error unmarshalling message: %v", err)
			continue
		}
		c.handle(ctx, msg)
	}
}

type textPayload struct {
	Message string `json:"message"`
	Text    string `json:"text"`
	Error   string `json:"error"`
}

func (c *Client) handle(ctx context.Context, msg WSMessage) {
	var p textPayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			logger.Sugar.Warnf("Bad %s payload from %s: %v", msg.Type, c.UserID, err)
			return
		}
	}

	switch msg.Type {
	case ChatType:
		// Replies may take seconds; keep reading meanwhile.
		go c.session.Send(ctx, p.Message)
	case InputType:
		c.session.SetInput(p.Text)
	case VoiceStartType:
		c.session.StartListening()
	case VoiceStopType:
		c.session.StopListening()
	case TranscriptType:
		c.session.OnTranscript(p.Text)
	case VoiceEndType:
		c.session.OnEnd()
	case VoiceErrorType:
		c.session.OnError(p.Error)
	default:
		logger.Sugar.Warnf("Unknown message type %q from %s", msg.Type, c.UserID)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second) // Send ping every 30s
	defer ticker.Stop()

	for {
		select {
		case message := <-c.Send:
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return // Connection is dead
			}
		case <-c.done:
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// enqueue never blocks and never sends after the client is gone.
func (c *Client) enqueue(msg []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.Send <- msg:
	case <-c.done:
	default:
		logger.Sugar.Warnf("Client %s's send buffer is full, dropping message", c.UserID)
	}
}

func (c *Client) emit(msgType string, payload any) {
	msg, err := newMessage(msgType, payload)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling %s: %v", msgType, err)
		return
	}
	c.enqueue(msg)
}

// --- session.Sink ---

func (c *Client) MessageAdded(m model.ChatMessage) { c.emit(MessageType, m) }
func (c *Client) PendingChanged(pending bool) {
	c.emit(PendingType, map[string]bool{"pending": pending})
}
func (c *Client) InputChanged(text string) {
	c.emit(InputType, map[string]string{"text": text})
}
func (c *Client) ListeningChanged(listening bool) {
	c.emit(ListeningType, map[string]bool{"listening": listening})
}
func (c *Client) Notify(n session.Notification) { c.emit(NotifyType, n) }

// --- session.SpeechInput / SpeechOutput ---

func (c *Client) Available() bool { return c.speech }

func (c *Client) Start() error {
	c.emit(RecognitionType, map[string]string{"command": "start"})
	return nil
}

func (c *Client) Stop() {
	c.emit(RecognitionType, map[string]string{"command": "stop"})
}

func (c *Client) Speak(text string) {
	c.emit(SpeakType, map[string]string{"text": text})
}
