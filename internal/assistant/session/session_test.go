package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"mynotes/internal/assistant/interpreter"
	"mynotes/internal/assistant/model"
	"mynotes/internal/assistant/service"
	datamodel "mynotes/internal/data/model"
	dataservice "mynotes/internal/data/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResponder struct {
	reply *model.ChatReply
	err   error

	mu   sync.Mutex
	reqs []model.ChatRequest
}

func (f *fakeResponder) Chat(_ context.Context, req model.ChatRequest) (*model.ChatReply, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	return f.reply, f.err
}

type recordingSink struct {
	mu        sync.Mutex
	messages  []model.ChatMessage
	pending   []bool
	inputs    []string
	listening []bool
	notes     []Notification
}

func (r *recordingSink) MessageAdded(m model.ChatMessage) {
	r.mu.Lock()
	r.messages = append(r.messages, m)
	r.mu.Unlock()
}
func (r *recordingSink) PendingChanged(p bool) {
	r.mu.Lock()
	r.pending = append(r.pending, p)
	r.mu.Unlock()
}
func (r *recordingSink) InputChanged(s string) {
	r.mu.Lock()
	r.inputs = append(r.inputs, s)
	r.mu.Unlock()
}
func (r *recordingSink) ListeningChanged(l bool) {
	r.mu.Lock()
	r.listening = append(r.listening, l)
	r.mu.Unlock()
}
func (r *recordingSink) Notify(n Notification) {
	r.mu.Lock()
	r.notes = append(r.notes, n)
	r.mu.Unlock()
}

type recordingSpeaker struct {
	mu     sync.Mutex
	spoken []string
}

func (r *recordingSpeaker) Speak(text string) {
	r.mu.Lock()
	r.spoken = append(r.spoken, text)
	r.mu.Unlock()
}

var sessionNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store   *dataservice.Store
	sink    *recordingSink
	speaker *recordingSpeaker
	session *Session
}

func newFixture(t *testing.T, responder Responder, opts ...Option) *fixture {
	t.Helper()
	clock := func() time.Time { return sessionNow }

	store := dataservice.NewStore(nil, dataservice.WithClock(clock))
	store.Load(context.Background())

	local := interpreter.New(store)
	local.Now = clock

	f := &fixture{store: store, sink: &recordingSink{}, speaker: &recordingSpeaker{}}
	n := 0
	base := []Option{
		WithClock(clock),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("m%d", n) }),
		WithSpeech(nil, f.speaker),
	}
	f.session = New(store, responder, local, f.sink, append(base, opts...)...)
	return f
}

func TestNewSessionStartsWithGreeting(t *testing.T) {
	f := newFixture(t, nil)

	history := f.session.History()
	require.Len(t, history, 1)
	assert.Equal(t, model.RoleAssistant, history[0].Role)
	assert.Equal(t, Greeting, history[0].Content)
}

func TestSendAppliesActionOnce(t *testing.T) {
	responder := &fakeResponder{reply: &model.ChatReply{
		Action:   model.ActionAddEvent,
		Event:    &model.EventDraft{Title: "X", StartTime: "2026-10-20T14:00:00Z"},
		Response: "Done",
	}}
	f := newFixture(t, responder)

	reply, ok := f.session.Send(context.Background(), "dodaj X jutro o 14")
	require.True(t, ok)
	assert.Equal(t, "Done", reply.Content)

	events := f.store.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "X", events[0].Title)
	assert.Equal(t, time.Date(2026, 10, 20, 15, 0, 0, 0, time.UTC), events[0].EndTime.UTC())
	assert.Equal(t, datamodel.EventMeeting, events[0].Type)

	history := f.session.History()
	require.Len(t, history, 3)
	assert.Equal(t, "Done", history[2].Content)
	assert.Equal(t, []string{"Done"}, f.speaker.spoken)
	assert.Equal(t, []bool{true, false}, f.sink.pending)
	assert.False(t, f.session.Pending())
}

func TestSendSendsFreshContext(t *testing.T) {
	responder := &fakeResponder{reply: &model.ChatReply{Response: "ok"}}
	f := newFixture(t, responder)
	_, err := f.store.AddEvent(context.Background(), datamodel.CalendarEvent{Title: "Stare", StartTime: sessionNow.Add(-time.Hour)})
	require.NoError(t, err)
	_, err = f.store.AddEvent(context.Background(), datamodel.CalendarEvent{Title: "Sprint", StartTime: sessionNow.Add(25 * time.Hour)})
	require.NoError(t, err)

	f.session.Send(context.Background(), "co nowego?")

	require.Len(t, responder.reqs, 1)
	ctx := responder.reqs[0].Context
	assert.Equal(t, "co nowego?", responder.reqs[0].Message)
	assert.Equal(t, 3, ctx.NotesCount)
	assert.Equal(t, "Pomysły na aplikację, Przepis na ciasto, Spotkanie z zespołem", ctx.LatestNotes)
	assert.Equal(t, 2, ctx.PendingTodosCount)
	assert.Equal(t, 0, ctx.AttachmentsCount)
	assert.Equal(t, "Sprint (20.10 10:00)", ctx.NextEvents)
}

func TestSendFallsBackToInterpreter(t *testing.T) {
	responder := &fakeResponder{err: &service.ProviderError{Err: errors.New("timeout")}}
	f := newFixture(t, responder)

	reply, ok := f.session.Send(context.Background(), "ile mam notatek?")
	require.True(t, ok)
	assert.Equal(t, "Masz aktualnie 3 notatek.", reply.Content)
	assert.Equal(t, []string{reply.Content}, f.speaker.spoken)
}

func TestSendWithoutResponderUsesInterpreter(t *testing.T) {
	f := newFixture(t, nil)

	reply, _ := f.session.Send(context.Background(), "dodaj spotkanie z klientem jutro o 14")
	assert.Equal(t, `Dodałem wydarzenie: "z klientem" na 20.10.2026 14:00.`, reply.Content)
	assert.Len(t, f.store.Events(), 1)
}

func TestSendEmptyReplyAcknowledges(t *testing.T) {
	f := newFixture(t, &fakeResponder{reply: &model.ChatReply{}})

	reply, _ := f.session.Send(context.Background(), "hej")
	assert.Equal(t, Acknowledgement, reply.Content)
}

func TestSendSkipsUnreadableEvent(t *testing.T) {
	f := newFixture(t, &fakeResponder{reply: &model.ChatReply{
		Action:   model.ActionAddEvent,
		Event:    &model.EventDraft{Title: "Y", StartTime: "???"},
		Response: "Dodałem",
	}})

	reply, _ := f.session.Send(context.Background(), "dodaj Y")
	assert.Equal(t, "Dodałem", reply.Content)
	assert.Empty(t, f.store.Events())
}

func TestSendUsesComposeBuffer(t *testing.T) {
	f := newFixture(t, nil)

	_, ok := f.session.Send(context.Background(), "   ")
	assert.False(t, ok)
	assert.Len(t, f.session.History(), 1)

	f.session.SetInput("kim jesteś")
	reply, ok := f.session.Send(context.Background(), "")
	require.True(t, ok)
	assert.Contains(t, reply.Content, "asystentem")
	assert.Empty(t, f.session.Input())
	assert.Equal(t, "kim jesteś", f.session.History()[1].Content)
}

func TestConcurrentSends(t *testing.T) {
	f := newFixture(t, &fakeResponder{reply: &model.ChatReply{Response: "ok"}})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f.session.Send(context.Background(), fmt.Sprintf("pytanie %d", i))
		}(i)
	}
	wg.Wait()

	assert.Len(t, f.session.History(), 11)
	assert.False(t, f.session.Pending())
	f.sink.mu.Lock()
	defer f.sink.mu.Unlock()
	assert.False(t, f.sink.pending[len(f.sink.pending)-1])
}
