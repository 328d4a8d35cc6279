package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/andrewbaggio1/sthealth-core/internal/models"
)

// eventColumns is the canonical column list for all SELECT queries.
// Order must match scanOne/scanMany.
const eventColumns = `id, ts, context, item_identifier, interaction_type,
	duration, intensity, metadata`

// EventStore is the append-only engagement log on SQLite. Events are never
// updated; the only delete path is ClearAll for a full account reset.
type EventStore struct {
	db *DB
}

func NewEventStore(db *DB) *EventStore {
	return &EventStore{db: db}
}

// Insert appends one event. The caller must set all fields including ID.
func (s *EventStore) Insert(e *models.EngagementEvent) error {
	var metadataJSON []byte
	if len(e.Metadata) > 0 {
		metadataJSON, _ = json.Marshal(e.Metadata)
	}

	_, err := s.db.Exec(`
		INSERT INTO events (
			id, ts, context, item_identifier, interaction_type,
			duration, intensity, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID, e.Timestamp, string(e.Context), e.ItemIdentifier,
		string(e.InteractionType), e.Duration, e.Intensity,
		nullableString(metadataJSON),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetByID fetches a single event by ID.
func (s *EventStore) GetByID(id string) (*models.EngagementEvent, error) {
	e, err := s.scanOne(s.db.QueryRow(
		fmt.Sprintf(`SELECT %s FROM events WHERE id = ?`, eventColumns), id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

// Query returns events matching the filter in chronological order. A concept
// filter matches as a substring of item_identifier or of any metadata value.
func (s *EventStore) Query(q *models.EventQuery) ([]*models.EngagementEvent, error) {
	where := []string{"1=1"}
	args := []any{}

	if q.Concept != "" {
		where = append(where, `(item_identifier LIKE ? OR (metadata IS NOT NULL AND EXISTS (
			SELECT 1 FROM json_each(events.metadata) WHERE json_each.value LIKE ?
		)))`)
		pattern := "%" + q.Concept + "%"
		args = append(args, pattern, pattern)
	}
	if len(q.Contexts) > 0 {
		placeholders := make([]string, len(q.Contexts))
		for i, c := range q.Contexts {
			placeholders[i] = "?"
			args = append(args, string(c))
		}
		where = append(where, fmt.Sprintf("context IN (%s)", strings.Join(placeholders, ",")))
	}
	if q.Since > 0 {
		where = append(where, "ts >= ?")
		args = append(args, q.Since)
	}
	if q.Until > 0 {
		where = append(where, "ts <= ?")
		args = append(args, q.Until)
	}

	query := fmt.Sprintf(`SELECT %s FROM events WHERE %s ORDER BY ts ASC`,
		eventColumns, strings.Join(where, " AND "))
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	return s.scanMany(rows)
}

// All returns the entire event log in chronological order.
func (s *EventStore) All() ([]*models.EngagementEvent, error) {
	return s.Query(&models.EventQuery{})
}

// Since returns all events with ts >= the given unix time.
func (s *EventStore) Since(ts int64) ([]*models.EngagementEvent, error) {
	return s.Query(&models.EventQuery{Since: ts})
}

// Stats returns the event count and the newest event timestamp. Cheap enough
// to call before deciding whether a cached profile snapshot is still fresh.
func (s *EventStore) Stats() (count int, lastTS int64, err error) {
	var last sql.NullInt64
	err = s.db.QueryRow("SELECT COUNT(*), MAX(ts) FROM events").Scan(&count, &last)
	if err != nil {
		return 0, 0, fmt.Errorf("event stats: %w", err)
	}
	if last.Valid {
		lastTS = last.Int64
	}
	return count, lastTS, nil
}

// ClearAll wipes the event log. Account reset only.
func (s *EventStore) ClearAll() (int64, error) {
	res, err := s.db.Exec("DELETE FROM events")
	if err != nil {
		return 0, fmt.Errorf("clear events: %w", err)
	}
	return res.RowsAffected()
}

func (s *EventStore) scanOne(row *sql.Row) (*models.EngagementEvent, error) {
	var e models.EngagementEvent
	var metadataJSON sql.NullString

	err := row.Scan(
		&e.ID, &e.Timestamp, &e.Context, &e.ItemIdentifier,
		&e.InteractionType, &e.Duration, &e.Intensity, &metadataJSON,
	)
	if err != nil {
		return nil, err
	}

	if metadataJSON.Valid {
		json.Unmarshal([]byte(metadataJSON.String), &e.Metadata)
	}
	return &e, nil
}

func (s *EventStore) scanMany(rows *sql.Rows) ([]*models.EngagementEvent, error) {
	var result []*models.EngagementEvent
	for rows.Next() {
		var e models.EngagementEvent
		var metadataJSON sql.NullString

		if err := rows.Scan(
			&e.ID, &e.Timestamp, &e.Context, &e.ItemIdentifier,
			&e.InteractionType, &e.Duration, &e.Intensity, &metadataJSON,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}

		if metadataJSON.Valid {
			json.Unmarshal([]byte(metadataJSON.String), &e.Metadata)
		}
		result = append(result, &e)
	}
	return result, rows.Err()
}

// nullableString converts a byte slice to a *string for nullable TEXT columns.
func nullableString(b []byte) *string {
	if b == nil {
		return nil
	}
	s := string(b)
	return &s
}
