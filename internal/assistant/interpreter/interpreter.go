// Package interpreter answers assistant messages without a language model,
// using a fixed list of Polish keyword rules over the local data.
package interpreter

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"mynotes/internal/data/model"
	"mynotes/pkg/logger"
)

const (
	DefaultTitle     = "Spotkanie"
	EventDescription = "Dodane przez asystenta AI"
	DisplayLayout    = "02.01.2006 15:04"

	replyEventFailed  = "Próbowałem dodać wydarzenie, ale coś poszło nie tak. Spróbuj podać dokładniejszą datę."
	replyGreeting     = "Dzień dobry! W czym mogę Ci pomóc?"
	replyIdentity     = "Jestem Twoim asystentem notatnika AI. Pomagam organizować Twoje myśli i zadania."
	replyUnrecognized = "Przepraszam, nie zrozumiałem. Zapytaj o notatki, zadania lub kalendarz."

	maxListedNotes = 5
)

var (
	timePattern     = regexp.MustCompile(`(\d{1,2})[:.]?(\d{2})?`)
	titlePattern    = regexp.MustCompile(`(?i)dodaj (spotkanie|wydarzenie) (.+?) (jutro|dziś|o \d)`)
	greetingPattern = regexp.MustCompile(`^(cześć|hej|witaj|dzień dobry)`)
)

// Data is the slice of the data facade the interpreter reads and writes.
type Data interface {
	Notes() []model.Note
	Todos() []model.Todo
	AddEvent(ctx context.Context, e model.CalendarEvent) (model.CalendarEvent, error)
}

type Interpreter struct {
	Data Data
	Now  func() time.Time
}

func New(data Data) *Interpreter {
	return &Interpreter{Data: data, Now: time.Now}
}

// Interpret returns the reply for a user utterance. The first matching rule
// wins. Adding a calendar event is the only side effect.
func (in *Interpreter) Interpret(ctx context.Context, query string) string {
	lower := strings.ToLower(query)

	switch {
	case strings.HasPrefix(lower, "dodaj spotkanie"), strings.HasPrefix(lower, "dodaj wydarzenie"):
		return in.addEvent(ctx, query, lower)
	case greetingPattern.MatchString(lower):
		return replyGreeting
	case strings.Contains(lower, "kim jesteś"):
		return replyIdentity
	}

	if strings.Contains(lower, "notat") {
		notes := in.Data.Notes()
		if strings.Contains(lower, "ile") || strings.Contains(lower, "liczba") {
			return fmt.Sprintf("Masz aktualnie %d notatek.", len(notes))
		}
		if strings.Contains(lower, "lista") || strings.Contains(lower, "pokaż") {
			return "Oto Twoje ostatnie notatki:\n" + listTitles(notes, maxListedNotes)
		}
	}

	if strings.Contains(lower, "zadan") || strings.Contains(lower, "todo") {
		pending := 0
		for _, t := range in.Data.Todos() {
			if !t.Completed {
				pending++
			}
		}
		return fmt.Sprintf("Masz %d niezakończonych zadań.", pending)
	}

	return replyUnrecognized
}

func (in *Interpreter) addEvent(ctx context.Context, query, lower string) string {
	start, err := in.eventStart(query, lower)
	if err != nil {
		logger.Sugar.Debugf("Interpreter: could not read event time from %q: %v", query, err)
		return replyEventFailed
	}

	title := DefaultTitle
	if m := titlePattern.FindStringSubmatch(query); m != nil && strings.TrimSpace(m[2]) != "" {
		title = strings.TrimSpace(m[2])
	}

	_, err = in.Data.AddEvent(ctx, model.CalendarEvent{
		Title:       title,
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
		Type:        model.EventMeeting,
		Description: EventDescription,
	})
	if err != nil {
		logger.Sugar.Warnf("Interpreter: failed to add event %q: %v", title, err)
		return replyEventFailed
	}

	return fmt.Sprintf("Dodałem wydarzenie: \"%s\" na %s.", title, start.Format(DisplayLayout))
}

// eventStart resolves the day (today, or tomorrow when "jutro" appears) and
// the first time-of-day in the query, defaulting to 12:00.
func (in *Interpreter) eventStart(query, lower string) (time.Time, error) {
	now := in.now()
	day := now
	if strings.Contains(lower, "jutro") {
		day = now.AddDate(0, 0, 1)
	}

	hour, minute := 12, 0
	if m := timePattern.FindStringSubmatch(query); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute = 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
	}
	if hour > 23 || minute > 59 {
		return time.Time{}, fmt.Errorf("time %d:%02d out of range", hour, minute)
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location()), nil
}

func (in *Interpreter) now() time.Time {
	if in.Now == nil {
		return time.Now()
	}
	return in.Now()
}

func listTitles(notes []model.Note, limit int) string {
	if len(notes) > limit {
		notes = notes[:limit]
	}
	lines := make([]string, len(notes))
	for i, n := range notes {
		lines[i] = "- " + n.Title
	}
	return strings.Join(lines, "\n")
}
