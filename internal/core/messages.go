package core

import (
	"errors"
	"fmt"

	"sussi.app/classroom-monitor/internal/store"
)

// ErrInvalidSender rejects senders outside the TEACHER/SUSSI_AI/AUTOMATION set.
var ErrInvalidSender = errors.New("invalid sender")

// MessageService delivers messages to students. Each (student, classroom)
// pair holds at most one live message: a send replaces whatever was there.
type MessageService struct {
	dbStore store.Store
}

func NewMessageService(db store.Store) *MessageService {
	return &MessageService{dbStore: db}
}

type SendResult struct {
	Created bool                 `json:"created"`
	Message *store.MessageRecord `json:"message"`
}

func (s *MessageService) Send(studentID, classroomID, text, sender string) (*SendResult, error) {
	if !store.ValidSender(sender) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSender, sender)
	}

	msg, created, err := s.dbStore.UpsertMessage(studentID, classroomID, text, sender)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return &SendResult{Created: created, Message: msg}, nil
}

// Current returns the live message for a pair, or nil when none exists.
func (s *MessageService) Current(studentID, classroomID string) (*store.MessageRecord, error) {
	msg, err := s.dbStore.FindMessage(studentID, classroomID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}
	return msg, nil
}
