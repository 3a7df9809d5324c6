package repository

import (
	"context"
	"database/sql"
	"errors"

	"mynotes/internal/data/model"
	"mynotes/pkg/logger"

	"github.com/lib/pq"
)

// ErrNotFound is returned by updates and deletes that matched no row.
var ErrNotFound = errors.New("record not found")

type DataRepository struct {
	DB *sql.DB
}

func NewDataRepository(db *sql.DB) *DataRepository {
	return &DataRepository{DB: db}
}

// Probe is the lightweight existence check run before the initial load.
func (r *DataRepository) Probe(ctx context.Context) error {
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1").Scan(&one)
	if err != nil {
		logger.Sugar.Warnf("Datastore probe failed: %v", err)
	}
	return err
}

// --- Notes ---

func (r *DataRepository) ListNotes(ctx context.Context) ([]model.Note, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, title, content, category, tags, is_favorite, created_at, updated_at
		FROM notes ORDER BY created_at DESC`)
	if err != nil {
		logger.Sugar.Errorf("Failed to list notes: %v", err)
		return nil, err
	}
	defer rows.Close()

	var notes []model.Note
	for rows.Next() {
		var n model.Note
		var category string
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &category, pq.Array(&n.Tags), &n.IsFavorite, &n.CreatedAt, &n.UpdatedAt); err != nil {
			logger.Sugar.Errorf("Failed to scan note: %v", err)
			continue
		}
		n.Category = model.Category(category)
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (r *DataRepository) InsertNote(ctx context.Context, n model.Note) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO notes (id, title, content, category, tags, is_favorite, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, n.Title, n.Content, string(n.Category), pq.Array(n.Tags), n.IsFavorite, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to insert note %s: %v", n.ID, err)
	}
	return err
}

// UpdateNote writes the full row; the caller has already merged the patch.
func (r *DataRepository) UpdateNote(ctx context.Context, n model.Note) error {
	result, err := r.DB.ExecContext(ctx, `UPDATE notes SET title = $1, content = $2, category = $3, tags = $4, is_favorite = $5, updated_at = $6
		WHERE id = $7`,
		n.Title, n.Content, string(n.Category), pq.Array(n.Tags), n.IsFavorite, n.UpdatedAt, n.ID)
	if err != nil {
		logger.Sugar.Errorf("Failed to update note %s: %v", n.ID, err)
		return err
	}
	return expectRow(result)
}

func (r *DataRepository) DeleteNote(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "DELETE FROM notes WHERE id = $1", id)
}

// --- Attachments ---

func (r *DataRepository) ListAttachments(ctx context.Context) ([]model.Attachment, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name, type, size, upload_date, note_id, url
		FROM attachments ORDER BY upload_date DESC`)
	if err != nil {
		logger.Sugar.Errorf("Failed to list attachments: %v", err)
		return nil, err
	}
	defer rows.Close()

	var attachments []model.Attachment
	for rows.Next() {
		var a model.Attachment
		var kind string
		var noteID, url sql.NullString
		if err := rows.Scan(&a.ID, &a.Name, &kind, &a.Size, &a.UploadDate, &noteID, &url); err != nil {
			logger.Sugar.Errorf("Failed to scan attachment: %v", err)
			continue
		}
		a.Type = model.AttachmentType(kind)
		a.NoteID = noteID.String
		a.URL = url.String
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

func (r *DataRepository) InsertAttachment(ctx context.Context, a model.Attachment) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO attachments (id, name, type, size, upload_date, note_id, url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.Name, string(a.Type), a.Size, a.UploadDate, nullString(a.NoteID), nullString(a.URL))
	if err != nil {
		logger.Sugar.Errorf("Failed to insert attachment %s: %v", a.ID, err)
	}
	return err
}

func (r *DataRepository) DeleteAttachment(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "DELETE FROM attachments WHERE id = $1", id)
}

// --- Calendar events ---

func (r *DataRepository) ListEvents(ctx context.Context) ([]model.CalendarEvent, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, title, start_time, end_time, type, description, note_id
		FROM calendar_events ORDER BY start_time ASC`)
	if err != nil {
		logger.Sugar.Errorf("Failed to list calendar events: %v", err)
		return nil, err
	}
	defer rows.Close()

	var events []model.CalendarEvent
	for rows.Next() {
		var e model.CalendarEvent
		var kind string
		var description, noteID sql.NullString
		if err := rows.Scan(&e.ID, &e.Title, &e.StartTime, &e.EndTime, &kind, &description, &noteID); err != nil {
			logger.Sugar.Errorf("Failed to scan calendar event: %v", err)
			continue
		}
		e.Type = model.EventType(kind)
		e.Description = description.String
		e.NoteID = noteID.String
		events = append(events, e)
	}
	return events, rows.Err()
}

// InsertEvent lets the datastore assign the identifier and returns it.
func (r *DataRepository) InsertEvent(ctx context.Context, e model.CalendarEvent) (string, error) {
	var id string
	err := r.DB.QueryRowContext(ctx, `INSERT INTO calendar_events (title, start_time, end_time, type, description, note_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		e.Title, e.StartTime, e.EndTime, string(e.Type), nullString(e.Description), nullString(e.NoteID),
	).Scan(&id)
	if err != nil {
		logger.Sugar.Errorf("Failed to insert calendar event %q: %v", e.Title, err)
	}
	return id, err
}

func (r *DataRepository) DeleteEvent(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "DELETE FROM calendar_events WHERE id = $1", id)
}

// --- Todos ---

func (r *DataRepository) ListTodos(ctx context.Context) ([]model.Todo, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, text, description, completed, priority, due_date, created_at
		FROM todos ORDER BY created_at DESC`)
	if err != nil {
		logger.Sugar.Errorf("Failed to list todos: %v", err)
		return nil, err
	}
	defer rows.Close()

	var todos []model.Todo
	for rows.Next() {
		var t model.Todo
		var priority string
		var description sql.NullString
		var due sql.NullTime
		if err := rows.Scan(&t.ID, &t.Text, &description, &t.Completed, &priority, &due, &t.CreatedAt); err != nil {
			logger.Sugar.Errorf("Failed to scan todo: %v", err)
			continue
		}
		t.Priority = model.Priority(priority)
		t.Description = description.String
		if due.Valid {
			t.DueDate = due.Time.Format(model.DateLayout)
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

func (r *DataRepository) InsertTodo(ctx context.Context, t model.Todo) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO todos (id, text, description, completed, priority, due_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.Text, nullString(t.Description), t.Completed, string(t.Priority), nullString(t.DueDate), t.CreatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to insert todo %s: %v", t.ID, err)
	}
	return err
}

func (r *DataRepository) SetTodoCompleted(ctx context.Context, id string, completed bool) error {
	result, err := r.DB.ExecContext(ctx, "UPDATE todos SET completed = $1 WHERE id = $2", completed, id)
	if err != nil {
		logger.Sugar.Errorf("Failed to update todo %s: %v", id, err)
		return err
	}
	return expectRow(result)
}

func (r *DataRepository) DeleteTodo(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "DELETE FROM todos WHERE id = $1", id)
}

func (r *DataRepository) deleteByID(ctx context.Context, query, id string) error {
	_, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete %s: %v", id, err)
	}
	return err
}

func expectRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
