package socket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mynotes/internal/assistant/interpreter"
	"mynotes/internal/assistant/model"
	"mynotes/internal/assistant/session"
	datamodel "mynotes/internal/data/model"
	"mynotes/internal/data/service"
)

// Helper function to read messages from a WebSocket connection with a timeout.
func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	var msg WSMessage
	// Set a deadline to avoid tests hanging forever.
	conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	_, p, err := conn.ReadMessage()
	require.NoError(t, err, "Failed to read message from WebSocket")
	err = json.Unmarshal(p, &msg)
	require.NoError(t, err, "Failed to unmarshal WSMessage JSON")
	return msg
}

// readUntil skips messages until one of the given type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) WSMessage {
	t.Helper()
	for i := 0; i < 20; i++ {
		msg := readMessage(t, conn)
		if msg.Type == msgType {
			return msg
		}
	}
	t.Fatalf("no %s message received", msgType)
	return WSMessage{}
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	msg, err := newMessage(msgType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, msg))
}

func setupServer(t *testing.T) (*Hub, *service.Store, string) {
	t.Helper()
	store := service.NewStore(nil)
	store.Load(context.Background())
	local := interpreter.New(store)

	hub := NewHub(func(sink session.Sink, in session.SpeechInput, out session.SpeechOutput) *session.Session {
		return session.New(store, nil, local, sink, session.WithSpeech(in, out))
	})
	store.SetNotifier(hub)
	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r, r.URL.Query().Get("user_id"))
	}))
	t.Cleanup(server.Close)

	// Convert http:// to ws://
	return hub, store, "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestConnectSendsHistory(t *testing.T) {
	_, _, wsURL := setupServer(t)
	conn := dial(t, wsURL+"?user_id=user-1")

	msg := readMessage(t, conn)
	require.Equal(t, HistoryType, msg.Type)

	var history []model.ChatMessage
	require.NoError(t, json.Unmarshal(msg.Payload, &history))
	require.Len(t, history, 1)
	assert.Equal(t, session.Greeting, history[0].Content)
	assert.Equal(t, model.RoleAssistant, history[0].Role)
}

func TestChatRoundTrip(t *testing.T) {
	_, _, wsURL := setupServer(t)
	conn := dial(t, wsURL+"?user_id=user-1")
	readUntil(t, conn, HistoryType)

	send(t, conn, ChatType, map[string]string{"message": "Ile mam notatek?"})

	var user model.ChatMessage
	require.NoError(t, json.Unmarshal(readUntil(t, conn, MessageType).Payload, &user))
	assert.Equal(t, model.RoleUser, user.Role)
	assert.Equal(t, "Ile mam notatek?", user.Content)

	pending := readUntil(t, conn, PendingType)
	assert.JSONEq(t, `{"pending":true}`, string(pending.Payload))

	var reply model.ChatMessage
	require.NoError(t, json.Unmarshal(readUntil(t, conn, MessageType).Payload, &reply))
	assert.Equal(t, model.RoleAssistant, reply.Role)
	assert.Contains(t, reply.Content, "Masz aktualnie")
	assert.Contains(t, reply.Content, "notatek")

	speak := readUntil(t, conn, SpeakType)
	var spoken map[string]string
	require.NoError(t, json.Unmarshal(speak.Payload, &spoken))
	assert.Equal(t, reply.Content, spoken["text"])

	pending = readUntil(t, conn, PendingType)
	assert.JSONEq(t, `{"pending":false}`, string(pending.Payload))
}

func TestDataChangesAreBroadcast(t *testing.T) {
	hub, store, wsURL := setupServer(t)
	conn1 := dial(t, wsURL+"?user_id=user-1")
	conn2 := dial(t, wsURL+"?user_id=user-2")
	readUntil(t, conn1, HistoryType)
	readUntil(t, conn2, HistoryType)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	todo, err := store.AddTodo(context.Background(), datamodel.Todo{Text: "Zadzwonić do klienta"})
	require.NoError(t, err)

	for _, conn := range []*websocket.Conn{conn1, conn2} {
		msg := readUntil(t, conn, DataChangedType)
		var change struct {
			Entity string `json:"entity"`
			Op     string `json:"op"`
			ID     string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(msg.Payload, &change))
		assert.Equal(t, "todos", change.Entity)
		assert.Equal(t, "create", change.Op)
		assert.Equal(t, todo.ID, change.ID)
	}
}

func TestVoiceControl(t *testing.T) {
	_, _, wsURL := setupServer(t)
	conn := dial(t, wsURL+"?user_id=user-1")
	readUntil(t, conn, HistoryType)

	send(t, conn, InputType, map[string]string{"text": "Notatka:"})
	send(t, conn, VoiceStartType, nil)

	recognition := readUntil(t, conn, RecognitionType)
	assert.JSONEq(t, `{"command":"start"}`, string(recognition.Payload))
	listening := readUntil(t, conn, ListeningType)
	assert.JSONEq(t, `{"listening":true}`, string(listening.Payload))

	send(t, conn, TranscriptType, map[string]string{"text": "kupić mleko"})
	input := readUntil(t, conn, InputType)
	assert.JSONEq(t, `{"text":"Notatka: kupić mleko"}`, string(input.Payload))

	send(t, conn, VoiceErrorType, map[string]string{"error": session.SpeechErrNotAllowed})
	listening = readUntil(t, conn, ListeningType)
	assert.JSONEq(t, `{"listening":false}`, string(listening.Payload))
	notify := readUntil(t, conn, NotifyType)
	assert.Contains(t, string(notify.Payload), session.VariantDestructive)
}

func TestVoiceUnsupported(t *testing.T) {
	_, _, wsURL := setupServer(t)
	conn := dial(t, wsURL+"?user_id=user-1&speech=0")
	readUntil(t, conn, HistoryType)

	send(t, conn, VoiceStartType, nil)
	notify := readUntil(t, conn, NotifyType)
	assert.Contains(t, string(notify.Payload), session.VariantDestructive)
}

func TestDisconnectUnregisters(t *testing.T) {
	hub, _, wsURL := setupServer(t)
	conn := dial(t, wsURL+"?user_id=user-1")
	readUntil(t, conn, HistoryType)
	require.Equal(t, 1, hub.ClientCount())

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}
