package store

import (
	"path/filepath"
	"testing"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_StudentRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)

	rec := StudentRecord{
		ID:               "s1",
		Name:             "Alex Johnson",
		Classroom:        "1",
		FocusScore:       8,
		ShortDescription: "Taking notes on Greek history",
		Description:      "Working through the assignment.",
		History:          []string{"Opened the class portal", "Started the video"},
		Screenshot:       "https://picsum.photos/300/200?random=1",
		Active:           true,
	}
	if err := s.UpsertStudent(rec); err != nil {
		t.Fatalf("UpsertStudent: %v", err)
	}

	got, err := s.FindStudentByID("s1")
	if err != nil {
		t.Fatalf("FindStudentByID: %v", err)
	}
	if got == nil {
		t.Fatalf("expected student")
	}
	if got.Name != rec.Name || got.FocusScore != rec.FocusScore || len(got.History) != 2 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.LastUpdated.IsZero() {
		t.Fatalf("lastUpdated not stamped on upsert")
	}

	// Upsert with the same id updates in place.
	rec.FocusScore = 3
	rec.ShortDescription = "Scrolling through TikTok"
	if err := s.UpsertStudent(rec); err != nil {
		t.Fatalf("UpsertStudent: %v", err)
	}
	got, err = s.FindStudentByID("s1")
	if err != nil {
		t.Fatalf("FindStudentByID: %v", err)
	}
	if got.FocusScore != 3 || got.ShortDescription != "Scrolling through TikTok" {
		t.Fatalf("update not applied: %+v", got)
	}

	missing, err := s.FindStudentByID("nope")
	if err != nil {
		t.Fatalf("FindStudentByID: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown student")
	}
}

func TestSQLiteStore_FindStudentsByClassroom(t *testing.T) {
	s := newTestSQLiteStore(t)

	records := []StudentRecord{
		{ID: "a", Name: "Zed", Classroom: "1", Active: true},
		{ID: "b", Name: "Amy", Classroom: "1", Active: true},
		{ID: "c", Name: "Ben", Classroom: "1", Active: false},
		{ID: "d", Name: "Cat", Classroom: "2", Active: true},
	}
	for _, rec := range records {
		if err := s.UpsertStudent(rec); err != nil {
			t.Fatalf("UpsertStudent: %v", err)
		}
	}

	active, err := s.FindStudentsByClassroom("1", true)
	if err != nil {
		t.Fatalf("FindStudentsByClassroom: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active students, got %d", len(active))
	}
	if active[0].Name != "Amy" || active[1].Name != "Zed" {
		t.Fatalf("expected name ordering, got %v", active)
	}

	all, err := s.FindStudentsByClassroom("1", false)
	if err != nil {
		t.Fatalf("FindStudentsByClassroom: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 students, got %d", len(all))
	}
}

func TestSQLiteStore_MessageUpsert(t *testing.T) {
	s := newTestSQLiteStore(t)

	first, created, err := s.UpsertMessage("s1", "1", "First", SenderTeacher)
	if err != nil {
		t.Fatalf("UpsertMessage: %v", err)
	}
	if !created {
		t.Fatalf("expected created on first upsert")
	}

	second, created, err := s.UpsertMessage("s1", "1", "Second", SenderAutomation)
	if err != nil {
		t.Fatalf("UpsertMessage: %v", err)
	}
	if created {
		t.Fatalf("expected replace on second upsert")
	}
	if second.ID != first.ID {
		t.Fatalf("replace must keep the row id")
	}

	msg, err := s.FindMessage("s1", "1")
	if err != nil {
		t.Fatalf("FindMessage: %v", err)
	}
	if msg.Text != "Second" || msg.Sender != SenderAutomation {
		t.Fatalf("unexpected stored message: %+v", msg)
	}
	if !msg.Timestamp.After(first.Timestamp) && !msg.Timestamp.Equal(second.Timestamp) {
		t.Fatalf("timestamp not refreshed")
	}

	none, err := s.FindMessage("s1", "2")
	if err != nil {
		t.Fatalf("FindMessage: %v", err)
	}
	if none != nil {
		t.Fatalf("expected no message for other classroom")
	}
}

func TestSQLiteStore_AssignmentUpsert(t *testing.T) {
	s := newTestSQLiteStore(t)

	_, created, err := s.UpsertAssignment("1", "Watch the Greek history video")
	if err != nil {
		t.Fatalf("UpsertAssignment: %v", err)
	}
	if !created {
		t.Fatalf("expected created")
	}

	_, created, err = s.UpsertAssignment("1", "Write a short essay")
	if err != nil {
		t.Fatalf("UpsertAssignment: %v", err)
	}
	if created {
		t.Fatalf("expected update, not create")
	}

	rec, err := s.FindAssignment("1")
	if err != nil {
		t.Fatalf("FindAssignment: %v", err)
	}
	if rec.Description != "Write a short essay" {
		t.Fatalf("unexpected assignment: %+v", rec)
	}
}
