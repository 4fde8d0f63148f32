package store

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

// List limits.
const (
	DefaultEventLimit = 100
	MaxEventLimit     = 1000
)

// Event is one row of the event log.
type Event struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Mode      string    `json:"mode"`
	Fingers   string    `json:"fingers"`
	Detail    string    `json:"detail,omitempty"`
	Value     float64   `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// EventFilter narrows List. Zero fields do not filter.
type EventFilter struct {
	Kind  string
	Since time.Time
	Limit int
}

// EventRepository provides access to the event log.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Create inserts e, assigning an ID and timestamp when they are empty.
func (r *EventRepository) Create(e *Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.Mode == "" {
		e.Mode = "none"
	}

	_, err := r.db.Exec(
		`INSERT INTO events (id, kind, mode, fingers, detail, value, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Kind, e.Mode, e.Fingers, e.Detail, e.Value, e.CreatedAt.UnixMilli(),
	)
	return err
}

// List returns events newest first.
func (r *EventRepository) List(f EventFilter) ([]*Event, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultEventLimit
	}
	if limit > MaxEventLimit {
		limit = MaxEventLimit
	}

	var (
		where []string
		args  []any
	)
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, f.Kind)
	}
	if !f.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, f.Since.UnixMilli())
	}

	query := `SELECT id, kind, mode, fingers, detail, value, created_at FROM events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		e := &Event{}
		var createdAt int64

		if err := rows.Scan(&e.ID, &e.Kind, &e.Mode, &e.Fingers, &e.Detail, &e.Value, &createdAt); err != nil {
			return nil, err
		}

		e.CreatedAt = time.UnixMilli(createdAt)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// CountByKind returns the number of stored events per kind.
func (r *EventRepository) CountByKind() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT kind, COUNT(*) FROM events GROUP BY kind`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[kind] = n
	}

	return counts, rows.Err()
}

// Prune deletes events created before t and returns how many were removed.
func (r *EventRepository) Prune(before time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM events WHERE created_at < ?`, before.UnixMilli())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
