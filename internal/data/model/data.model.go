package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Category string

const (
	CategoryPersonal Category = "Osobiste"
	CategoryWork     Category = "Praca"
	CategoryIdeas    Category = "Pomysły"
	CategoryProjects Category = "Projekty"
	CategoryOther    Category = "Inne"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryPersonal, CategoryWork, CategoryIdeas, CategoryProjects, CategoryOther:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type EventType string

const (
	EventMeeting  EventType = "meeting"
	EventReminder EventType = "reminder"
	EventOther    EventType = "other"
)

type AttachmentType string

const (
	AttachmentPDF   AttachmentType = "pdf"
	AttachmentImage AttachmentType = "image"
	AttachmentText  AttachmentType = "text"
	AttachmentOther AttachmentType = "other"
)

// DateLayout is the wire format of calendar dates without a time component.
const DateLayout = "2006-01-02"

type Note struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Category   Category  `json:"category"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	IsFavorite bool      `json:"isFavorite"`
}

// NotePatch carries a partial note update; nil fields are left untouched.
type NotePatch struct {
	Title      *string   `json:"title,omitempty"`
	Content    *string   `json:"content,omitempty"`
	Category   *Category `json:"category,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	IsFavorite *bool     `json:"isFavorite,omitempty"`
}

func (p NotePatch) Apply(n Note) Note {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Category != nil {
		n.Category = *p.Category
	}
	if p.Tags != nil {
		n.Tags = append([]string(nil), p.Tags...)
	}
	if p.IsFavorite != nil {
		n.IsFavorite = *p.IsFavorite
	}
	return n
}

func (p NotePatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Category == nil && p.Tags == nil && p.IsFavorite == nil
}

type Todo struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	Priority    Priority  `json:"priority"`
	DueDate     string    `json:"dueDate,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CalendarEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Type        EventType `json:"type"`
	Description string    `json:"description,omitempty"`
	NoteID      string    `json:"noteId,omitempty"`
}

type Attachment struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Type       AttachmentType `json:"type"`
	Size       string         `json:"size"`
	UploadDate time.Time      `json:"uploadDate"`
	NoteID     string         `json:"noteId,omitempty"`
	URL        string         `json:"url,omitempty"`
}

type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Avatar string `json:"avatar,omitempty"`
}

var ErrInvalid = errors.New("invalid entity")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func (n Note) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return invalid("note title is required")
	}
	if !n.Category.Valid() {
		return invalid("unknown note category %q", n.Category)
	}
	return nil
}

func (t Todo) Validate() error {
	if strings.TrimSpace(t.Text) == "" {
		return invalid("todo text is required")
	}
	switch t.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
	default:
		return invalid("unknown todo priority %q", t.Priority)
	}
	if t.DueDate != "" {
		if _, err := time.Parse(DateLayout, t.DueDate); err != nil {
			return invalid("dueDate must be YYYY-MM-DD")
		}
	}
	return nil
}

func (e CalendarEvent) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return invalid("event title is required")
	}
	if e.StartTime.IsZero() {
		return invalid("event start_time is required")
	}
	if e.EndTime.Before(e.StartTime) {
		return invalid("event end_time precedes start_time")
	}
	switch e.Type {
	case EventMeeting, EventReminder, EventOther:
	default:
		return invalid("unknown event type %q", e.Type)
	}
	return nil
}

func (a Attachment) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return invalid("attachment name is required")
	}
	switch a.Type {
	case AttachmentPDF, AttachmentImage, AttachmentText, AttachmentOther:
	default:
		return invalid("unknown attachment type %q", a.Type)
	}
	return nil
}

// WithDefaultEnd fills a missing end time with start + 1 hour.
func (e CalendarEvent) WithDefaultEnd() CalendarEvent {
	if e.EndTime.IsZero() {
		e.EndTime = e.StartTime.Add(time.Hour)
	}
	return e
}
