package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store used when no real activity-inference
// pipeline is feeding the database (STORE_DRIVER=memory). It is seeded with a
// fixture roster so the dashboard has something to show out of the box.
type MemStore struct {
	mu sync.RWMutex

	studentsByID map[string]StudentRecord
	messages     map[string]MessageRecord // studentID + "|" + classroom
	assignments  map[string]AssignmentRecord

	failWrites bool // test hook
}

func NewMemStore() *MemStore {
	s := &MemStore{
		studentsByID: make(map[string]StudentRecord),
		messages:     make(map[string]MessageRecord),
		assignments:  make(map[string]AssignmentRecord),
	}
	for _, rec := range fixtureRoster("1") {
		s.studentsByID[rec.ID] = rec
	}
	return s
}

// NewEmptyMemStore returns a MemStore without the fixture roster.
func NewEmptyMemStore() *MemStore {
	return &MemStore{
		studentsByID: make(map[string]StudentRecord),
		messages:     make(map[string]MessageRecord),
		assignments:  make(map[string]AssignmentRecord),
	}
}

// FailWrites makes every write return an error. Test hook for the paths that
// downgrade store failures to in-band tool results.
func (s *MemStore) FailWrites(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = fail
}

func (s *MemStore) Close() error { return nil }

func (s *MemStore) FindStudentsByClassroom(classroom string, activeOnly bool) ([]StudentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var students []StudentRecord
	for _, rec := range s.studentsByID {
		if rec.Classroom != classroom {
			continue
		}
		if activeOnly && !rec.Active {
			continue
		}
		students = append(students, rec)
	}
	sortStudentsByName(students)
	return students, nil
}

func (s *MemStore) FindStudentByID(id string) (*StudentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.studentsByID[id]
	if !ok {
		return nil, nil // Not found
	}
	return &rec, nil
}

func (s *MemStore) UpsertStudent(rec StudentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites {
		return errors.New("memstore: writes disabled")
	}
	if rec.LastUpdated.IsZero() {
		rec.LastUpdated = time.Now()
	}
	s.studentsByID[rec.ID] = rec
	return nil
}

func (s *MemStore) UpsertMessage(studentID, classroom, text, sender string) (*MessageRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites {
		return nil, false, errors.New("memstore: writes disabled")
	}

	key := messageKey(studentID, classroom)
	now := time.Now()
	if existing, ok := s.messages[key]; ok {
		existing.Text = text
		existing.Sender = sender
		existing.Timestamp = now
		s.messages[key] = existing
		return &existing, false, nil
	}

	msg := MessageRecord{
		ID:        uuid.NewString(),
		StudentID: studentID,
		Classroom: classroom,
		Text:      text,
		Sender:    sender,
		Timestamp: now,
	}
	s.messages[key] = msg
	return &msg, true, nil
}

func (s *MemStore) FindMessage(studentID, classroom string) (*MessageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messages[messageKey(studentID, classroom)]
	if !ok {
		return nil, nil // Not found
	}
	return &msg, nil
}

func (s *MemStore) UpsertAssignment(classroom, description string) (*AssignmentRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites {
		return nil, false, errors.New("memstore: writes disabled")
	}

	_, existed := s.assignments[classroom]
	rec := AssignmentRecord{
		Classroom:   classroom,
		Description: description,
		UpdatedAt:   time.Now(),
	}
	s.assignments[classroom] = rec
	return &rec, !existed, nil
}

func (s *MemStore) FindAssignment(classroom string) (*AssignmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.assignments[classroom]
	if !ok {
		return nil, nil // Not found
	}
	return &rec, nil
}

func messageKey(studentID, classroom string) string {
	return studentID + "|" + classroom
}

func sortStudentsByName(students []StudentRecord) {
	sort.Slice(students, func(i, j int) bool { return students[i].Name < students[j].Name })
}

// fixtureRoster mirrors the roster a monitored classroom would report.
func fixtureRoster(classroom string) []StudentRecord {
	now := time.Now()
	return []StudentRecord{
		{
			ID: "stu001", Name: "Alex Johnson", Classroom: classroom,
			FocusScore:       8,
			ShortDescription: "Watching a YouTube video about Greek history",
			Description:      "Alex has been following the assigned video closely and pausing to take notes.",
			History:          []string{"Opened the class portal", "Searched for the assigned video"},
			Screenshot:       "https://picsum.photos/300/200?random=1",
			Active:           true, LastUpdated: now,
		},
		{
			ID: "stu002", Name: "Sarah Chen", Classroom: classroom,
			FocusScore:       3,
			ShortDescription: "Scrolling through TikTok",
			Description:      "Sarah drifted off the assignment a few minutes ago and has not returned to it.",
			History:          []string{"Watched two minutes of the assigned video", "Switched to TikTok"},
			Screenshot:       "https://picsum.photos/300/200?random=2",
			Active:           true, LastUpdated: now,
		},
		{
			ID: "stu003", Name: "Michael Rodriguez", Classroom: classroom,
			FocusScore:       9,
			ShortDescription: "Reading a Wikipedia article on Greek history",
			Description:      "Michael finished the video early and moved on to supplementary reading.",
			History:          []string{"Watched the assigned video", "Opened Wikipedia"},
			Screenshot:       "https://picsum.photos/300/200?random=3",
			Active:           true, LastUpdated: now,
		},
		{
			ID: "stu004", Name: "Emily Davis", Classroom: classroom,
			FocusScore:       2,
			ShortDescription: "Playing an online game",
			Description:      "Emily has been in a browser game for most of the session.",
			History:          []string{"Opened the class portal", "Opened a game site"},
			Screenshot:       "https://picsum.photos/300/200?random=4",
			Active:           true, LastUpdated: now,
		},
		{
			ID: "stu005", Name: "David Kim", Classroom: classroom,
			FocusScore:       7,
			ShortDescription: "Taking notes on Greek history",
			Description:      "David is working through the assignment and cross-referencing sources.",
			History:          []string{"Watched the assigned video", "Opened a notes document"},
			Screenshot:       "https://picsum.photos/300/200?random=5",
			Active:           true, LastUpdated: now,
		},
		{
			ID: "stu006", Name: "Lisa Wang", Classroom: classroom,
			FocusScore:       5,
			ShortDescription: "Searching Google for essay topics",
			Description:      "Lisa is searching around the assignment topic but keeps opening unrelated tabs.",
			History:          []string{"Opened the class portal", "Started a Google search"},
			Screenshot:       "https://picsum.photos/300/200?random=6",
			Active:           true, LastUpdated: now,
		},
	}
}
