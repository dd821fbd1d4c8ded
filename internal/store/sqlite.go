package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS students (
        id TEXT PRIMARY KEY,
        name TEXT NOT NULL,
        classroom TEXT NOT NULL,
        focus_score REAL NOT NULL DEFAULT 0,
        short_description TEXT,
        description TEXT,
        history_json TEXT, -- JSON array of past activity strings, most-recent-last
        screenshot TEXT,
        active BOOLEAN NOT NULL DEFAULT TRUE,
        last_updated DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS messages (
        id TEXT PRIMARY KEY, -- UUID
        student_id TEXT NOT NULL,
        classroom TEXT NOT NULL,
        text TEXT NOT NULL,
        sender TEXT NOT NULL CHECK (sender IN ('TEACHER', 'SUSSI_AI', 'AUTOMATION')),
        timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
        UNIQUE (student_id, classroom)
    );

    CREATE TABLE IF NOT EXISTS assignments (
        classroom TEXT PRIMARY KEY,
        description TEXT NOT NULL,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// Student methods

func (s *SQLiteStore) FindStudentsByClassroom(classroom string, activeOnly bool) ([]StudentRecord, error) {
	query := "SELECT id, name, classroom, focus_score, short_description, description, history_json, screenshot, active, last_updated FROM students WHERE classroom = ?"
	if activeOnly {
		query += " AND active = TRUE"
	}
	query += " ORDER BY name ASC"

	rows, err := s.db.Query(query, classroom)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var students []StudentRecord
	for rows.Next() {
		rec, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *rec)
	}
	return students, nil
}

func (s *SQLiteStore) FindStudentByID(id string) (*StudentRecord, error) {
	row := s.db.QueryRow("SELECT id, name, classroom, focus_score, short_description, description, history_json, screenshot, active, last_updated FROM students WHERE id = ?", id)
	rec, err := scanStudent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, err
	}
	return rec, nil
}

func (s *SQLiteStore) UpsertStudent(rec StudentRecord) error {
	historyJSON, err := json.Marshal(rec.History)
	if err != nil {
		return fmt.Errorf("failed to marshal student history: %w", err)
	}

	stmt, err := s.db.Prepare(`
        INSERT INTO students (id, name, classroom, focus_score, short_description, description, history_json, screenshot, active, last_updated)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (id) DO UPDATE SET
            name = excluded.name,
            classroom = excluded.classroom,
            focus_score = excluded.focus_score,
            short_description = excluded.short_description,
            description = excluded.description,
            history_json = excluded.history_json,
            screenshot = excluded.screenshot,
            active = excluded.active,
            last_updated = excluded.last_updated`)
	if err != nil {
		return fmt.Errorf("failed to prepare student upsert: %w", err)
	}
	defer stmt.Close()

	if rec.LastUpdated.IsZero() {
		rec.LastUpdated = time.Now()
	}
	_, err = stmt.Exec(rec.ID, rec.Name, rec.Classroom, rec.FocusScore, rec.ShortDescription, rec.Description, string(historyJSON), rec.Screenshot, rec.Active, rec.LastUpdated)
	if err != nil {
		return fmt.Errorf("failed to execute student upsert: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (*StudentRecord, error) {
	var rec StudentRecord
	var shortDescription, description, historyJSON, screenshot sql.NullString
	err := row.Scan(&rec.ID, &rec.Name, &rec.Classroom, &rec.FocusScore, &shortDescription, &description, &historyJSON, &screenshot, &rec.Active, &rec.LastUpdated)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan student row: %w", err)
	}
	rec.ShortDescription = shortDescription.String
	rec.Description = description.String
	rec.Screenshot = screenshot.String
	if historyJSON.Valid && historyJSON.String != "" {
		if err := json.Unmarshal([]byte(historyJSON.String), &rec.History); err != nil {
			log.Printf("Warning: failed to unmarshal history for student %s: %v. History will be empty.", rec.ID, err)
			rec.History = nil
		}
	}
	return &rec, nil
}

// Message methods

func (s *SQLiteStore) UpsertMessage(studentID, classroom, text, sender string) (*MessageRecord, bool, error) {
	existing, err := s.FindMessage(studentID, classroom)
	if err != nil {
		return nil, false, err
	}

	now := time.Now()
	if existing != nil {
		stmt, err := s.db.Prepare("UPDATE messages SET text = ?, sender = ?, timestamp = ? WHERE student_id = ? AND classroom = ?")
		if err != nil {
			return nil, false, fmt.Errorf("failed to prepare message update: %w", err)
		}
		defer stmt.Close()

		if _, err := stmt.Exec(text, sender, now, studentID, classroom); err != nil {
			return nil, false, fmt.Errorf("failed to execute message update: %w", err)
		}
		existing.Text = text
		existing.Sender = sender
		existing.Timestamp = now
		return existing, false, nil
	}

	msg := MessageRecord{
		ID:        uuid.NewString(),
		StudentID: studentID,
		Classroom: classroom,
		Text:      text,
		Sender:    sender,
		Timestamp: now,
	}
	stmt, err := s.db.Prepare("INSERT INTO messages (id, student_id, classroom, text, sender, timestamp) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return nil, false, fmt.Errorf("failed to prepare message insert: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.Exec(msg.ID, msg.StudentID, msg.Classroom, msg.Text, msg.Sender, msg.Timestamp); err != nil {
		return nil, false, fmt.Errorf("failed to execute message insert: %w", err)
	}
	return &msg, true, nil
}

func (s *SQLiteStore) FindMessage(studentID, classroom string) (*MessageRecord, error) {
	var msg MessageRecord
	err := s.db.QueryRow("SELECT id, student_id, classroom, text, sender, timestamp FROM messages WHERE student_id = ? AND classroom = ?", studentID, classroom).
		Scan(&msg.ID, &msg.StudentID, &msg.Classroom, &msg.Text, &msg.Sender, &msg.Timestamp)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to query message: %w", err)
	}
	return &msg, nil
}

// Assignment methods

func (s *SQLiteStore) UpsertAssignment(classroom, description string) (*AssignmentRecord, bool, error) {
	existing, err := s.FindAssignment(classroom)
	if err != nil {
		return nil, false, err
	}

	rec := AssignmentRecord{
		Classroom:   classroom,
		Description: description,
		UpdatedAt:   time.Now(),
	}
	stmt, err := s.db.Prepare(`
        INSERT INTO assignments (classroom, description, updated_at) VALUES (?, ?, ?)
        ON CONFLICT (classroom) DO UPDATE SET description = excluded.description, updated_at = excluded.updated_at`)
	if err != nil {
		return nil, false, fmt.Errorf("failed to prepare assignment upsert: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.Exec(rec.Classroom, rec.Description, rec.UpdatedAt); err != nil {
		return nil, false, fmt.Errorf("failed to execute assignment upsert: %w", err)
	}
	return &rec, existing == nil, nil
}

func (s *SQLiteStore) FindAssignment(classroom string) (*AssignmentRecord, error) {
	var rec AssignmentRecord
	err := s.db.QueryRow("SELECT classroom, description, updated_at FROM assignments WHERE classroom = ?", classroom).
		Scan(&rec.Classroom, &rec.Description, &rec.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to query assignment: %w", err)
	}
	return &rec, nil
}
