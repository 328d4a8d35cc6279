package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// StateKeyLastNudgeDelivery persists the minimum-interval gate across
// process restarts.
const StateKeyLastNudgeDelivery = "last_nudge_delivery"

// StateStore is a small key/value table for scheduler state that must
// survive restarts.
type StateStore struct {
	db *DB
}

func NewStateStore(db *DB) *StateStore {
	return &StateStore{db: db}
}

// Get returns the value for a key, or "" if the key is unset.
func (s *StateStore) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM scheduler_state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get state %s: %w", key, err)
	}
	return value, nil
}

// Set upserts the value for a key.
func (s *StateStore) Set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO scheduler_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("set state %s: %w", key, err)
	}
	return nil
}

// LastNudgeDelivery returns the unix time of the last delivered nudge, or 0
// if none was ever delivered.
func (s *StateStore) LastNudgeDelivery() (int64, error) {
	value, err := s.Get(StateKeyLastNudgeDelivery)
	if err != nil || value == "" {
		return 0, err
	}
	ts, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse last delivery time: %w", err)
	}
	return ts, nil
}

// SetLastNudgeDelivery records the unix time of a delivery.
func (s *StateStore) SetLastNudgeDelivery(ts int64) error {
	return s.Set(StateKeyLastNudgeDelivery, strconv.FormatInt(ts, 10))
}
