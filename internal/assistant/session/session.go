// Package session holds the state of one assistant conversation: the
// transcript, the compose buffer, pending requests and voice dictation.
package session

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mynotes/internal/assistant/model"
	"mynotes/internal/assistant/service"
	datamodel "mynotes/internal/data/model"
	"mynotes/pkg/logger"
)

const (
	Greeting        = "Cześć! Jestem Twoim asystentem AI. Pomogę Ci w zarządzaniu notatkami i zadaniami. W czym mogę Ci dzisiaj pomóc?"
	Acknowledgement = "Zrobione!"

	contextNotes  = 3
	contextEvents = 3
	eventLayout   = "02.01 15:04"
)

const VariantDestructive = "destructive"

type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant"`
}

var (
	notifyNetwork     = Notification{"Błąd sieci", "Sprawdź połączenie z internetem. Rozpoznawanie mowy wymaga dostępu do sieci.", VariantDestructive}
	notifyNotAllowed  = Notification{"Brak dostępu", "Sprawdź uprawnienia do mikrofonu.", VariantDestructive}
	notifyUnsupported = Notification{"Błąd", "Twoja przeglądarka nie obsługuje rozpoznawania mowy.", VariantDestructive}
)

// Responder is the remote assistant (the proxy).
type Responder interface {
	Chat(ctx context.Context, req model.ChatRequest) (*model.ChatReply, error)
}

// Local answers when the responder fails.
type Local interface {
	Interpret(ctx context.Context, query string) string
}

// Data is what the session reads to build the chat context and the one
// write an assistant action may perform.
type Data interface {
	Notes() []datamodel.Note
	Attachments() []datamodel.Attachment
	Todos() []datamodel.Todo
	Events() []datamodel.CalendarEvent
	AddEvent(ctx context.Context, e datamodel.CalendarEvent) (datamodel.CalendarEvent, error)
}

// Sink receives every visible state change of the session.
type Sink interface {
	MessageAdded(msg model.ChatMessage)
	PendingChanged(pending bool)
	InputChanged(text string)
	ListeningChanged(listening bool)
	Notify(n Notification)
}

type Session struct {
	data      Data
	responder Responder
	local     Local
	sink      Sink
	speechIn  SpeechInput
	speechOut SpeechOutput
	now       func() time.Time
	newID     func() string

	mu        sync.Mutex
	history   []model.ChatMessage
	input     string
	pending   int
	listening bool
	keepAlive bool
	committed string
}

type Option func(*Session)

func WithSpeech(in SpeechInput, out SpeechOutput) Option {
	return func(s *Session) {
		if in != nil {
			s.speechIn = in
		}
		if out != nil {
			s.speechOut = out
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Session) { s.newID = gen }
}

func New(data Data, responder Responder, local Local, sink Sink, opts ...Option) *Session {
	if sink == nil {
		sink = nopSink{}
	}
	s := &Session{
		data:      data,
		responder: responder,
		local:     local,
		sink:      sink,
		speechIn:  NoSpeech{},
		speechOut: NoSpeech{},
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.history = []model.ChatMessage{{ID: "1", Role: model.RoleAssistant, Content: Greeting, Timestamp: s.now()}}
	return s
}

func (s *Session) History() []model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

func (s *Session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// SetInput replaces the compose buffer (typing in the UI).
func (s *Session) SetInput(text string) {
	s.mu.Lock()
	s.input = text
	s.mu.Unlock()
}

func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending > 0
}

func (s *Session) Listening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listening
}

// Send submits text, or the compose buffer when text is empty. Blank input
// is ignored. The reply comes from the responder when it succeeds and from
// the local interpreter otherwise; it is appended, spoken, and returned.
// Concurrent sends are allowed and their replies append in completion order.
func (s *Session) Send(ctx context.Context, text string) (model.ChatMessage, bool) {
	s.mu.Lock()
	content := text
	if content == "" {
		content = s.input
	}
	if strings.TrimSpace(content) == "" {
		s.mu.Unlock()
		return model.ChatMessage{}, false
	}
	userMsg := model.ChatMessage{ID: s.newID(), Role: model.RoleUser, Content: content, Timestamp: s.now()}
	s.history = append(s.history, userMsg)
	s.input = ""
	s.pending++
	s.mu.Unlock()

	s.sink.MessageAdded(userMsg)
	s.sink.InputChanged("")
	s.sink.PendingChanged(true)

	reply := s.respond(ctx, content)

	s.mu.Lock()
	aiMsg := model.ChatMessage{ID: s.newID(), Role: model.RoleAssistant, Content: reply, Timestamp: s.now()}
	s.history = append(s.history, aiMsg)
	s.mu.Unlock()

	s.sink.MessageAdded(aiMsg)
	s.speechOut.Speak(reply)

	s.mu.Lock()
	s.pending--
	idle := s.pending == 0
	s.mu.Unlock()
	if idle {
		s.sink.PendingChanged(false)
	}
	return aiMsg, true
}

func (s *Session) respond(ctx context.Context, content string) string {
	if s.responder == nil {
		return s.local.Interpret(ctx, content)
	}

	reply, err := s.responder.Chat(ctx, model.ChatRequest{Message: content, Context: s.ChatContext()})
	if err != nil {
		logger.Sugar.Infof("Falling back to local logic: %v", err)
		return s.local.Interpret(ctx, content)
	}

	if reply.WantsEvent() {
		s.applyEvent(ctx, *reply.Event)
	}
	if reply.Response == "" {
		return Acknowledgement
	}
	return reply.Response
}

// applyEvent performs an add_event action. An event whose start cannot be
// decoded is skipped; the reply is shown either way.
func (s *Session) applyEvent(ctx context.Context, draft model.EventDraft) {
	now := s.now()
	start, err := service.ParseTimestamp(draft.StartTime, now, now.Location())
	if err != nil {
		logger.Sugar.Warnf("Skipping add_event with unreadable start_time %q: %v", draft.StartTime, err)
		return
	}

	var end time.Time
	if draft.EndTime != "" {
		if end, err = service.ParseTimestamp(draft.EndTime, now, now.Location()); err != nil {
			end = time.Time{}
		}
	}

	event := datamodel.CalendarEvent{
		Title:       draft.Title,
		StartTime:   start,
		EndTime:     end,
		Type:        datamodel.EventMeeting,
		Description: draft.Description,
	}
	if _, err := s.data.AddEvent(ctx, event.WithDefaultEnd()); err != nil {
		logger.Sugar.Warnf("Assistant event %q was not added: %v", draft.Title, err)
	}
}

// ChatContext summarizes the current data for the responder.
func (s *Session) ChatContext() model.ChatContext {
	notes := s.data.Notes()
	titles := make([]string, 0, contextNotes)
	for _, n := range notes[:min(contextNotes, len(notes))] {
		titles = append(titles, n.Title)
	}

	pending := 0
	for _, t := range s.data.Todos() {
		if !t.Completed {
			pending++
		}
	}

	now := s.now()
	var upcoming []string
	for _, e := range s.data.Events() {
		if len(upcoming) == contextEvents {
			break
		}
		if e.StartTime.Before(now) {
			continue
		}
		upcoming = append(upcoming, e.Title+" ("+e.StartTime.In(now.Location()).Format(eventLayout)+")")
	}

	return model.ChatContext{
		NotesCount:        len(notes),
		LatestNotes:       strings.Join(titles, ", "),
		AttachmentsCount:  len(s.data.Attachments()),
		PendingTodosCount: pending,
		NextEvents:        strings.Join(upcoming, ", "),
	}
}

type nopSink struct{}

func (nopSink) MessageAdded(model.ChatMessage) {}
func (nopSink) PendingChanged(bool)            {}
func (nopSink) InputChanged(string)            {}
func (nopSink) ListeningChanged(bool)          {}
func (nopSink) Notify(Notification)            {}
