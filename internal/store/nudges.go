package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/andrewbaggio1/sthealth-core/internal/models"
)

// nudgeColumns is the canonical column list for all SELECT queries.
// Order must match scanOne/scanMany.
const nudgeColumns = `id, content, nudge_type, framework, generated_at,
	delivered_at, response, response_ts, delivery_context`

// NudgeStore archives nudges once they reach a terminal response. Rows are
// written exactly once per nudge; the live nudge lives in the scheduler.
type NudgeStore struct {
	db *DB
}

func NewNudgeStore(db *DB) *NudgeStore {
	return &NudgeStore{db: db}
}

// Insert archives a nudge. The caller must set all fields including ID.
func (s *NudgeStore) Insert(n *models.Nudge) error {
	var contextJSON []byte
	if len(n.DeliveryContext) > 0 {
		contextJSON, _ = json.Marshal(n.DeliveryContext)
	}

	var response *string
	if n.Response != nil {
		r := string(*n.Response)
		response = &r
	}

	_, err := s.db.Exec(`
		INSERT INTO nudges (
			id, content, nudge_type, framework, generated_at,
			delivered_at, response, response_ts, delivery_context
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		n.ID, n.Content, string(n.Type), string(n.Framework), n.GeneratedAt,
		n.DeliveredAt, response, n.ResponseTimestamp,
		nullableString(contextJSON),
	)
	if err != nil {
		return fmt.Errorf("insert nudge: %w", err)
	}
	return nil
}

// GetByID fetches a single archived nudge by ID.
func (s *NudgeStore) GetByID(id string) (*models.Nudge, error) {
	n, err := s.scanOne(s.db.QueryRow(
		fmt.Sprintf(`SELECT %s FROM nudges WHERE id = ?`, nudgeColumns), id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return n, err
}

// List returns archived nudges newest first.
func (s *NudgeStore) List(limit int) ([]*models.Nudge, error) {
	query := fmt.Sprintf(`SELECT %s FROM nudges ORDER BY generated_at DESC`, nudgeColumns)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list nudges: %w", err)
	}
	defer rows.Close()
	return s.scanMany(rows)
}

// Count returns the total number of archived nudges.
func (s *NudgeStore) Count() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM nudges").Scan(&count)
	return count, err
}

func (s *NudgeStore) scanOne(row *sql.Row) (*models.Nudge, error) {
	var n models.Nudge
	var deliveredAt, responseTS sql.NullInt64
	var response, contextJSON sql.NullString

	err := row.Scan(
		&n.ID, &n.Content, &n.Type, &n.Framework, &n.GeneratedAt,
		&deliveredAt, &response, &responseTS, &contextJSON,
	)
	if err != nil {
		return nil, err
	}

	populateNudgeNullables(&n, deliveredAt, response, responseTS, contextJSON)
	return &n, nil
}

func (s *NudgeStore) scanMany(rows *sql.Rows) ([]*models.Nudge, error) {
	var result []*models.Nudge
	for rows.Next() {
		var n models.Nudge
		var deliveredAt, responseTS sql.NullInt64
		var response, contextJSON sql.NullString

		if err := rows.Scan(
			&n.ID, &n.Content, &n.Type, &n.Framework, &n.GeneratedAt,
			&deliveredAt, &response, &responseTS, &contextJSON,
		); err != nil {
			return nil, fmt.Errorf("scan nudge: %w", err)
		}

		populateNudgeNullables(&n, deliveredAt, response, responseTS, contextJSON)
		result = append(result, &n)
	}
	return result, rows.Err()
}

// populateNudgeNullables fills in optional fields from nullable SQL columns.
func populateNudgeNullables(
	n *models.Nudge,
	deliveredAt sql.NullInt64,
	response sql.NullString,
	responseTS sql.NullInt64,
	contextJSON sql.NullString,
) {
	if deliveredAt.Valid {
		n.DeliveredAt = &deliveredAt.Int64
	}
	if response.Valid {
		r := models.NudgeResponse(response.String)
		n.Response = &r
	}
	if responseTS.Valid {
		n.ResponseTimestamp = &responseTS.Int64
	}
	if contextJSON.Valid {
		json.Unmarshal([]byte(contextJSON.String), &n.DeliveryContext)
	}
}
