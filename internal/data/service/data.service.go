package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"mynotes/internal/data/model"
	"mynotes/pkg/logger"

	"github.com/google/uuid"
)

var (
	// ErrNotFound reports an update of an entity that is not held locally.
	ErrNotFound = errors.New("not found")
	// ErrOffline is what every remote call returns when no datastore is configured.
	ErrOffline = errors.New("datastore offline")
)

type Entity string

const (
	EntityNotes       Entity = "notes"
	EntityAttachments Entity = "attachments"
	EntityEvents      Entity = "calendar_events"
	EntityTodos       Entity = "todos"
)

var entities = []Entity{EntityNotes, EntityAttachments, EntityEvents, EntityTodos}

type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpReload Op = "reload"
)

// Change describes one applied mutation of the local state.
type Change struct {
	Entity Entity `json:"entity"`
	Op     Op     `json:"op"`
	ID     string `json:"id,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// Notifier receives every applied change (the socket hub, in the server).
type Notifier interface {
	Publish(Change)
}

// Remote is the datastore the store mirrors.
type Remote interface {
	Probe(ctx context.Context) error

	ListNotes(ctx context.Context) ([]model.Note, error)
	InsertNote(ctx context.Context, n model.Note) error
	UpdateNote(ctx context.Context, n model.Note) error
	DeleteNote(ctx context.Context, id string) error

	ListAttachments(ctx context.Context) ([]model.Attachment, error)
	InsertAttachment(ctx context.Context, a model.Attachment) error
	DeleteAttachment(ctx context.Context, id string) error

	ListEvents(ctx context.Context) ([]model.CalendarEvent, error)
	InsertEvent(ctx context.Context, e model.CalendarEvent) (string, error)
	DeleteEvent(ctx context.Context, id string) error

	ListTodos(ctx context.Context) ([]model.Todo, error)
	InsertTodo(ctx context.Context, t model.Todo) error
	SetTodoCompleted(ctx context.Context, id string, completed bool) error
	DeleteTodo(ctx context.Context, id string) error
}

// Store is the single owner of notes, attachments, calendar events, todos and
// users. Every mutation attempts the remote write first and then applies the
// local change regardless of the outcome; the outcome is kept per entity and
// exposed through LastSyncError.
type Store struct {
	remote   Remote
	notifier Notifier
	now      func() time.Time
	newID    func() string

	mu          sync.RWMutex
	notes       []model.Note
	attachments []model.Attachment
	events      []model.CalendarEvent
	todos       []model.Todo
	users       []model.User
	syncErrs    map[Entity]error
}

type Option func(*Store)

func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// NewStore builds a store over remote. A nil remote means no datastore is
// configured: every remote call fails with ErrOffline.
func NewStore(remote Remote, opts ...Option) *Store {
	if remote == nil {
		remote = offlineRemote{}
	}
	s := &Store{
		remote:   remote,
		now:      time.Now,
		newID:    uuid.NewString,
		users:    seedUsers(),
		syncErrs: make(map[Entity]error),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetNotifier attaches the change listener after construction (the hub
// needs the store and the store needs the hub).
func (s *Store) SetNotifier(n Notifier) {
	s.mu.Lock()
	s.notifier = n
	s.mu.Unlock()
}

// Load fills the local mirror. If the probe fails every entity with a seed
// falls back to it; otherwise each table is loaded independently.
func (s *Store) Load(ctx context.Context) {
	if err := s.remote.Probe(ctx); err != nil {
		logger.Sugar.Infof("Datastore unreachable or empty, using sample data: %v", err)
		s.mu.Lock()
		s.notes = seedNotes()
		s.todos = seedTodos()
		s.attachments = seedAttachments()
		s.events = nil
		for _, e := range entities {
			s.syncErrs[e] = err
		}
		s.mu.Unlock()
		s.publish(Change{Op: OpReload})
		return
	}

	notes, notesErr := s.remote.ListNotes(ctx)
	if notesErr != nil || len(notes) == 0 {
		notes = seedNotes()
	}
	attachments, attErr := s.remote.ListAttachments(ctx)
	if attErr != nil || len(attachments) == 0 {
		attachments = seedAttachments()
	}
	events, eventsErr := s.remote.ListEvents(ctx)
	if eventsErr != nil {
		events = nil
	}
	todos, todosErr := s.remote.ListTodos(ctx)
	if todosErr != nil || len(todos) == 0 {
		todos = seedTodos()
	}

	s.mu.Lock()
	s.notes, s.attachments, s.events, s.todos = notes, attachments, events, todos
	s.syncErrs[EntityNotes] = notesErr
	s.syncErrs[EntityAttachments] = attErr
	s.syncErrs[EntityEvents] = eventsErr
	s.syncErrs[EntityTodos] = todosErr
	s.mu.Unlock()

	logger.Sugar.Infof("Loaded %d notes, %d attachments, %d events, %d todos", len(notes), len(attachments), len(events), len(todos))
	s.publish(Change{Op: OpReload})
}

// --- Reads ---

func (s *Store) Notes() []model.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.notes)
}

func (s *Store) Note(id string) (model.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.notes, func(n model.Note) bool { return n.ID == id })
	if i < 0 {
		return model.Note{}, false
	}
	return s.notes[i], true
}

func (s *Store) Attachments() []model.Attachment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.attachments)
}

func (s *Store) Events() []model.CalendarEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events)
}

func (s *Store) Todos() []model.Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.todos)
}

func (s *Store) Users() []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.users)
}

// LastSyncError returns the outcome of the most recent remote call for entity.
func (s *Store) LastSyncError(entity Entity) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncErrs[entity]
}

// SyncStatus maps every entity to its last remote error message ("" when in sync).
func (s *Store) SyncStatus() map[Entity]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status := make(map[Entity]string, len(entities))
	for _, e := range entities {
		if err := s.syncErrs[e]; err != nil {
			status[e] = err.Error()
		} else {
			status[e] = ""
		}
	}
	return status
}

// --- Notes ---

func (s *Store) AddNote(ctx context.Context, n model.Note) (model.Note, error) {
	now := s.now()
	if n.ID == "" {
		n.ID = s.newID()
	}
	if n.Category == "" {
		n.Category = model.CategoryOther
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = n.CreatedAt
	}
	if err := n.Validate(); err != nil {
		return model.Note{}, err
	}

	s.sync(EntityNotes, func() error { return s.remote.InsertNote(ctx, n) })

	s.mu.Lock()
	s.notes = append([]model.Note{n}, s.notes...)
	s.mu.Unlock()

	s.publish(Change{Entity: EntityNotes, Op: OpCreate, ID: n.ID, Data: n})
	return n, nil
}

func (s *Store) UpdateNote(ctx context.Context, id string, patch model.NotePatch) (model.Note, error) {
	current, ok := s.Note(id)
	if !ok {
		return model.Note{}, ErrNotFound
	}
	updated := patch.Apply(current)
	updated.UpdatedAt = s.now()
	if err := updated.Validate(); err != nil {
		return model.Note{}, err
	}

	s.sync(EntityNotes, func() error { return s.remote.UpdateNote(ctx, updated) })

	s.mu.Lock()
	for i := range s.notes {
		if s.notes[i].ID == id {
			s.notes[i] = patch.Apply(s.notes[i])
			s.notes[i].UpdatedAt = updated.UpdatedAt
			updated = s.notes[i]
			break
		}
	}
	s.mu.Unlock()

	s.publish(Change{Entity: EntityNotes, Op: OpUpdate, ID: id, Data: updated})
	return updated, nil
}

func (s *Store) DeleteNote(ctx context.Context, id string) {
	s.sync(EntityNotes, func() error { return s.remote.DeleteNote(ctx, id) })

	s.mu.Lock()
	s.notes = slices.DeleteFunc(s.notes, func(n model.Note) bool { return n.ID == id })
	s.mu.Unlock()

	s.publish(Change{Entity: EntityNotes, Op: OpDelete, ID: id})
}

// --- Attachments ---

func (s *Store) AddAttachment(ctx context.Context, a model.Attachment) (model.Attachment, error) {
	a.ID = s.newID()
	a.UploadDate = s.now()
	if a.Type == "" {
		a.Type = model.AttachmentOther
	}
	if err := a.Validate(); err != nil {
		return model.Attachment{}, err
	}

	s.sync(EntityAttachments, func() error { return s.remote.InsertAttachment(ctx, a) })

	s.mu.Lock()
	s.attachments = append([]model.Attachment{a}, s.attachments...)
	s.mu.Unlock()

	s.publish(Change{Entity: EntityAttachments, Op: OpCreate, ID: a.ID, Data: a})
	return a, nil
}

func (s *Store) DeleteAttachment(ctx context.Context, id string) {
	s.sync(EntityAttachments, func() error { return s.remote.DeleteAttachment(ctx, id) })

	s.mu.Lock()
	s.attachments = slices.DeleteFunc(s.attachments, func(a model.Attachment) bool { return a.ID == id })
	s.mu.Unlock()

	s.publish(Change{Entity: EntityAttachments, Op: OpDelete, ID: id})
}

// --- Calendar ---

// AddEvent is the one insert whose identifier depends on the remote outcome:
// the datastore's id on success, a generated one otherwise.
func (s *Store) AddEvent(ctx context.Context, e model.CalendarEvent) (model.CalendarEvent, error) {
	e = e.WithDefaultEnd()
	if e.Type == "" {
		e.Type = model.EventMeeting
	}
	if err := e.Validate(); err != nil {
		return model.CalendarEvent{}, err
	}

	var remoteID string
	err := s.sync(EntityEvents, func() error {
		id, err := s.remote.InsertEvent(ctx, e)
		remoteID = id
		return err
	})
	if err == nil && remoteID != "" {
		e.ID = remoteID
	} else {
		e.ID = s.newID()
	}

	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()

	s.publish(Change{Entity: EntityEvents, Op: OpCreate, ID: e.ID, Data: e})
	return e, nil
}

func (s *Store) DeleteEvent(ctx context.Context, id string) {
	s.sync(EntityEvents, func() error { return s.remote.DeleteEvent(ctx, id) })

	s.mu.Lock()
	s.events = slices.DeleteFunc(s.events, func(e model.CalendarEvent) bool { return e.ID == id })
	s.mu.Unlock()

	s.publish(Change{Entity: EntityEvents, Op: OpDelete, ID: id})
}

// --- Todos ---

func (s *Store) AddTodo(ctx context.Context, t model.Todo) (model.Todo, error) {
	t.ID = s.newID()
	t.CreatedAt = s.now()
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	if err := t.Validate(); err != nil {
		return model.Todo{}, err
	}

	s.sync(EntityTodos, func() error { return s.remote.InsertTodo(ctx, t) })

	s.mu.Lock()
	s.todos = append([]model.Todo{t}, s.todos...)
	s.mu.Unlock()

	s.publish(Change{Entity: EntityTodos, Op: OpCreate, ID: t.ID, Data: t})
	return t, nil
}

func (s *Store) ToggleTodo(ctx context.Context, id string) (model.Todo, error) {
	s.mu.RLock()
	i := slices.IndexFunc(s.todos, func(t model.Todo) bool { return t.ID == id })
	var completed bool
	if i >= 0 {
		completed = !s.todos[i].Completed
	}
	s.mu.RUnlock()
	if i < 0 {
		return model.Todo{}, ErrNotFound
	}

	s.sync(EntityTodos, func() error { return s.remote.SetTodoCompleted(ctx, id, completed) })

	var toggled model.Todo
	s.mu.Lock()
	for i := range s.todos {
		if s.todos[i].ID == id {
			s.todos[i].Completed = completed
			toggled = s.todos[i]
			break
		}
	}
	s.mu.Unlock()

	s.publish(Change{Entity: EntityTodos, Op: OpUpdate, ID: id, Data: toggled})
	return toggled, nil
}

func (s *Store) DeleteTodo(ctx context.Context, id string) {
	s.sync(EntityTodos, func() error { return s.remote.DeleteTodo(ctx, id) })

	s.mu.Lock()
	s.todos = slices.DeleteFunc(s.todos, func(t model.Todo) bool { return t.ID == id })
	s.mu.Unlock()

	s.publish(Change{Entity: EntityTodos, Op: OpDelete, ID: id})
}

// sync runs the best-effort remote side of a mutation and records its outcome.
// The error is informational; callers apply the local change regardless.
func (s *Store) sync(entity Entity, write func() error) error {
	err := write()
	if err != nil {
		logger.Sugar.Warnf("Remote write for %s failed, applying locally only: %v", entity, err)
	}
	s.mu.Lock()
	s.syncErrs[entity] = err
	s.mu.Unlock()
	return err
}

func (s *Store) publish(c Change) {
	s.mu.RLock()
	n := s.notifier
	s.mu.RUnlock()
	if n != nil {
		n.Publish(c)
	}
}

type offlineRemote struct{}

func (offlineRemote) Probe(context.Context) error { return ErrOffline }
func (offlineRemote) ListNotes(context.Context) ([]model.Note, error) {
	return nil, ErrOffline
}
func (offlineRemote) InsertNote(context.Context, model.Note) error { return ErrOffline }
func (offlineRemote) UpdateNote(context.Context, model.Note) error { return ErrOffline }
func (offlineRemote) DeleteNote(context.Context, string) error     { return ErrOffline }
func (offlineRemote) ListAttachments(context.Context) ([]model.Attachment, error) {
	return nil, ErrOffline
}
func (offlineRemote) InsertAttachment(context.Context, model.Attachment) error { return ErrOffline }
func (offlineRemote) DeleteAttachment(context.Context, string) error           { return ErrOffline }
func (offlineRemote) ListEvents(context.Context) ([]model.CalendarEvent, error) {
	return nil, ErrOffline
}
func (offlineRemote) InsertEvent(context.Context, model.CalendarEvent) (string, error) {
	return "", ErrOffline
}
func (offlineRemote) DeleteEvent(context.Context, string) error { return ErrOffline }
func (offlineRemote) ListTodos(context.Context) ([]model.Todo, error) {
	return nil, ErrOffline
}
func (offlineRemote) InsertTodo(context.Context, model.Todo) error             { return ErrOffline }
func (offlineRemote) SetTodoCompleted(context.Context, string, bool) error     { return ErrOffline }
func (offlineRemote) DeleteTodo(context.Context, string) error                 { return ErrOffline }
