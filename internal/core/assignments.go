package core

import (
	"fmt"

	"sussi.app/classroom-monitor/internal/store"
)

// AssignmentService keeps one current assignment per classroom.
type AssignmentService struct {
	dbStore store.Store
}

func NewAssignmentService(db store.Store) *AssignmentService {
	return &AssignmentService{dbStore: db}
}

// Update upserts the classroom's assignment and reports whether it was newly
// created.
func (s *AssignmentService) Update(classroomID, description string) (*store.AssignmentRecord, bool, error) {
	rec, created, err := s.dbStore.UpsertAssignment(classroomID, description)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert assignment: %w", err)
	}
	return rec, created, nil
}

// Current returns the classroom's assignment, or nil when none has been set.
func (s *AssignmentService) Current(classroomID string) (*store.AssignmentRecord, error) {
	rec, err := s.dbStore.FindAssignment(classroomID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assignment: %w", err)
	}
	return rec, nil
}
