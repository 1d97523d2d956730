package storage

import (
	"errors"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionRoundTrip(t *testing.T) {
	s := openTestStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	sess := Session{
		ID:          "sess-1",
		ProfileJSON: `{"age":"25-34"}`,
		Language:    "es",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.SaveSession(sess); err != nil {
		t.Fatalf("SaveSession() error: %v", err)
	}

	got, err := s.GetSession("sess-1")
	if err != nil {
		t.Fatalf("GetSession() error: %v", err)
	}
	if got.ProfileJSON != sess.ProfileJSON {
		t.Errorf("ProfileJSON = %q, want %q", got.ProfileJSON, sess.ProfileJSON)
	}
	if got.Language != "es" {
		t.Errorf("Language = %q, want es", got.Language)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, now)
	}
}

func TestSaveSession_Upsert(t *testing.T) {
	s := openTestStore(t)

	now := time.Now().UTC()
	sess := Session{ID: "sess-1", ProfileJSON: `{}`, Language: "en", CreatedAt: now, UpdatedAt: now}
	if err := s.SaveSession(sess); err != nil {
		t.Fatalf("SaveSession() error: %v", err)
	}

	sess.ProfileJSON = `{"country":"Peru"}`
	sess.UpdatedAt = now.Add(time.Minute)
	if err := s.SaveSession(sess); err != nil {
		t.Fatalf("SaveSession() upsert error: %v", err)
	}

	got, err := s.GetSession("sess-1")
	if err != nil {
		t.Fatalf("GetSession() error: %v", err)
	}
	if got.ProfileJSON != `{"country":"Peru"}` {
		t.Errorf("ProfileJSON = %q after upsert", got.ProfileJSON)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetSession("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSession(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDeleteSession(t *testing.T) {
	s := openTestStore(t)

	now := time.Now().UTC()
	if err := s.SaveSession(Session{ID: "sess-1", ProfileJSON: `{}`, Language: "en", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("SaveSession() error: %v", err)
	}
	if err := s.SaveTurn(TurnRecord{ID: "t1", SessionID: "sess-1", Status: "need_more_info", CreatedAt: now}); err != nil {
		t.Fatalf("SaveTurn() error: %v", err)
	}

	if err := s.DeleteSession("sess-1"); err != nil {
		t.Fatalf("DeleteSession() error: %v", err)
	}
	if _, err := s.GetSession("sess-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSession after delete = %v, want ErrNotFound", err)
	}
	turns, err := s.ListTurns("sess-1", 10)
	if err != nil {
		t.Fatalf("ListTurns() error: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("ListTurns after delete = %d records, want 0", len(turns))
	}

	if err := s.DeleteSession("sess-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteSession(missing) = %v, want ErrNotFound", err)
	}
}

func TestDeleteSession_NotFoundRollsBack(t *testing.T) {
	s := openTestStore(t)

	// Turn rows without a session row: the failed delete must roll back
	// without touching them.
	now := time.Now().UTC()
	if err := s.SaveTurn(TurnRecord{ID: "t1", SessionID: "sess-1", Status: "need_more_info", CreatedAt: now}); err != nil {
		t.Fatalf("SaveTurn() error: %v", err)
	}

	if err := s.DeleteSession("sess-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("DeleteSession() = %v, want ErrNotFound", err)
	}

	turns, err := s.ListTurns("sess-1", 10)
	if err != nil {
		t.Fatalf("ListTurns() error: %v", err)
	}
	if len(turns) != 1 {
		t.Errorf("ListTurns after failed delete = %d records, want 1", len(turns))
	}
}

func TestListTurns_OrderAndLimit(t *testing.T) {
	s := openTestStore(t)

	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"t1", "t2", "t3"} {
		rec := TurnRecord{
			ID:        id,
			SessionID: "sess-1",
			Status:    "need_more_info",
			UserText:  "hello",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := s.SaveTurn(rec); err != nil {
			t.Fatalf("SaveTurn(%s) error: %v", id, err)
		}
	}

	turns, err := s.ListTurns("sess-1", 2)
	if err != nil {
		t.Fatalf("ListTurns() error: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("len(turns) = %d, want 2", len(turns))
	}
	if turns[0].ID != "t1" || turns[1].ID != "t2" {
		t.Errorf("turns = [%s, %s], want oldest first", turns[0].ID, turns[1].ID)
	}
	if turns[0].Diagnostics != "{}" {
		t.Errorf("Diagnostics default = %q, want {}", turns[0].Diagnostics)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	s := openTestStore(t)

	// A second run over the same database must be a no-op.
	if err := s.migrate(); err != nil {
		t.Fatalf("second migrate() error: %v", err)
	}
}
