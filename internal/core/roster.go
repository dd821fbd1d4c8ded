package core

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"sussi.app/classroom-monitor/internal/store"
)

// ErrStudentAlreadyAdded is returned when a mock student's id collides with
// an entry already on the dashboard.
var ErrStudentAlreadyAdded = fmt.Errorf("student already added to the dashboard")

// ErrStudentNotFound is returned for lookups of unknown mock students.
var ErrStudentNotFound = fmt.Errorf("student not found")

// RosterService produces the merged dashboard roster: the latest server
// snapshot is the ground truth every cycle, and locally simulated mock
// students are carried across refreshes until explicitly removed.
type RosterService struct {
	dbStore     store.Store
	classroomID string

	mu        sync.Mutex
	mocks     map[string]Student
	mockOrder []string
	rng       *rand.Rand
}

func NewRosterService(db store.Store, classroomID string) *RosterService {
	return &RosterService{
		dbStore:     db,
		classroomID: classroomID,
		mocks:       make(map[string]Student),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ListStudents returns the active server-backed students of the classroom,
// classified with the roster-view thresholds.
func (s *RosterService) ListStudents(classroomID string) ([]Student, error) {
	records, err := s.dbStore.FindStudentsByClassroom(classroomID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch students: %w", err)
	}

	students := make([]Student, 0, len(records))
	for _, rec := range records {
		students = append(students, studentFromRecord(rec, ListThresholds))
	}
	return students, nil
}

// GetStudent returns one server-backed student, classified with the
// detail-view thresholds. Returns (nil, nil) when the id is unknown.
func (s *RosterService) GetStudent(id string) (*Student, error) {
	rec, err := s.dbStore.FindStudentByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch student: %w", err)
	}
	if rec == nil {
		return nil, nil
	}
	st := studentFromRecord(*rec, DetailThresholds)
	return &st, nil
}

// Roster returns the merged list: fresh server snapshot first, then the
// surviving mock students in the order they were added.
func (s *RosterService) Roster() ([]Student, error) {
	live, err := s.ListStudents(s.classroomID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := make([]Student, 0, len(live)+len(s.mockOrder))
	merged = append(merged, live...)
	for _, id := range s.mockOrder {
		merged = append(merged, s.mocks[id])
	}
	return merged, nil
}

// AddMockStudent registers a simulated student. Ids already present in the
// merged list (live or mock) are rejected rather than duplicated.
func (s *RosterService) AddMockStudent(id, name string) (*Student, error) {
	live, err := s.ListStudents(s.classroomID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.mocks[id]; ok {
		return nil, ErrStudentAlreadyAdded
	}
	for _, st := range live {
		if st.ID == id {
			return nil, ErrStudentAlreadyAdded
		}
	}

	st := advanceActivity(Student{
		ID:     id,
		Name:   name,
		Active: true,
		IsMock: true,
	}, s.rng, time.Now())

	s.mocks[id] = st
	s.mockOrder = append(s.mockOrder, id)
	return &st, nil
}

// RemoveMockStudent deletes a simulated student permanently; it will not
// reappear on later refreshes.
func (s *RosterService) RemoveMockStudent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.mocks[id]; !ok {
		return ErrStudentNotFound
	}
	delete(s.mocks, id)
	for i, existing := range s.mockOrder {
		if existing == id {
			s.mockOrder = append(s.mockOrder[:i], s.mockOrder[i+1:]...)
			break
		}
	}
	return nil
}

// AdvanceMocks runs one simulation step over every mock student.
func (s *RosterService) AdvanceMocks() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, st := range s.mocks {
		s.mocks[id] = advanceActivity(st, s.rng, now)
	}
}

// StartSimulation advances the mock roster on a fixed cadence until the
// context is cancelled. This mirrors the dashboard's refresh interval.
func (s *RosterService) StartSimulation(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Println("Roster simulation stopped")
				return
			case <-ticker.C:
				s.AdvanceMocks()
			}
		}
	}()
}
