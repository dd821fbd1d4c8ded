package store

import "time"

// Sender values accepted for stored messages.
const (
	SenderTeacher    = "TEACHER"
	SenderSussiAI    = "SUSSI_AI"
	SenderAutomation = "AUTOMATION"
)

func ValidSender(sender string) bool {
	switch sender {
	case SenderTeacher, SenderSussiAI, SenderAutomation:
		return true
	}
	return false
}

// StudentRecord is a row in the students collection. The focus score is the
// source of truth for on/off-task status; status itself is never stored.
type StudentRecord struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Classroom        string    `json:"classroom"`
	FocusScore       float64   `json:"focusScore"`
	ShortDescription string    `json:"shortDescription"`
	Description      string    `json:"description"`
	History          []string  `json:"history"`
	Screenshot       string    `json:"screenshot"`
	Active           bool      `json:"active"`
	LastUpdated      time.Time `json:"lastUpdated"`
}

// MessageRecord is the single live message for a (student, classroom) pair.
// Each send replaces the previous one; this collection is not a log.
type MessageRecord struct {
	ID        string    `json:"id"` // UUID row id
	StudentID string    `json:"studentId"`
	Classroom string    `json:"classroom"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

type AssignmentRecord struct {
	Classroom   string    `json:"classroom"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
