package model

import "time"

// ActionAddEvent is the only action the language model may request.
const ActionAddEvent = "add_event"

// ChatContext is the data summary sent with every chat message.
type ChatContext struct {
	NotesCount        int    `json:"notesCount"`
	LatestNotes       string `json:"latestNotes"`
	AttachmentsCount  int    `json:"attachmentsCount"`
	PendingTodosCount int    `json:"pendingTodosCount"`
	NextEvents        string `json:"nextEvents"`
}

type ChatRequest struct {
	Message string      `json:"message"`
	Context ChatContext `json:"context"`
}

// EventDraft is the event payload of an add_event action. Times are kept as
// the model produced them and decoded by the consumer.
type EventDraft struct {
	Title       string `json:"title"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time,omitempty"`
	Description string `json:"description,omitempty"`
}

// ChatReply is either plain text (Response only) or a structured action.
type ChatReply struct {
	Action   string      `json:"action,omitempty"`
	Event    *EventDraft `json:"event,omitempty"`
	Response string      `json:"response,omitempty"`
}

func (r ChatReply) WantsEvent() bool {
	return r.Action == ActionAddEvent && r.Event != nil
}

type Client struct {
	FullName      string `json:"full_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	AIContextNote string `json:"ai_context_note"`
}

type ClientNote struct {
	Content string `json:"content"`
	Author  string `json:"author"`
	Date    string `json:"date"`
}

type GenerateRequest struct {
	Client *Client      `json:"client"`
	Notes  []ClientNote `json:"notes"`
}

type GenerateResponse struct {
	Response string `json:"response"`
}

// ErrorResponse is the JSON error body of the assistant endpoints.
type ErrorResponse struct {
	Error    string `json:"error"`
	Details  string `json:"details,omitempty"`
	UseLocal bool   `json:"useLocal,omitempty"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one entry of a session transcript. Never persisted.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
