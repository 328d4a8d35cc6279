package store

import (
	"path/filepath"
	"testing"
	"time"
)

func TestStateStore(t *testing.T) {
	db := setupTestDB(t)
	ss := NewStateStore(db)

	t.Run("unset key reads as empty", func(t *testing.T) {
		v, err := ss.Get("nothing")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if v != "" {
			t.Fatalf("expected empty value, got %q", v)
		}
	})

	t.Run("Set upserts", func(t *testing.T) {
		if err := ss.Set("k", "one"); err != nil {
			t.Fatalf("set failed: %v", err)
		}
		if err := ss.Set("k", "two"); err != nil {
			t.Fatalf("second set failed: %v", err)
		}
		v, err := ss.Get("k")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if v != "two" {
			t.Fatalf("expected overwritten value, got %q", v)
		}
	})

	t.Run("last delivery defaults to zero", func(t *testing.T) {
		ts, err := ss.LastNudgeDelivery()
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if ts != 0 {
			t.Fatalf("expected 0 for never-delivered, got %d", ts)
		}
	})

	t.Run("last delivery round-trips", func(t *testing.T) {
		want := time.Now().Unix()
		if err := ss.SetLastNudgeDelivery(want); err != nil {
			t.Fatalf("set failed: %v", err)
		}
		got, err := ss.LastNudgeDelivery()
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	})
}

// The interval gate has to hold across restarts, so the persisted delivery
// time must survive closing and reopening the database file.
func TestStateStoreSurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	want := time.Now().Unix() - 3600

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := NewStateStore(db).SetLastNudgeDelivery(want); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	db.Close()

	db, err = Open(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db.Close()

	got, err := NewStateStore(db).LastNudgeDelivery()
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != want {
		t.Fatalf("expected %d after reopen, got %d", want, got)
	}
}
