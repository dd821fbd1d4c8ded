package core

import (
	"time"

	"sussi.app/classroom-monitor/internal/store"
)

// Student is the display-facing view of a roster entry. Mock students exist
// only in server memory and never reach the database.
type Student struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Screenshot      string    `json:"screenshot"`
	Status          Status    `json:"status"`
	CurrentActivity string    `json:"currentActivity"`
	Description     string    `json:"description,omitempty"`
	History         []string  `json:"history,omitempty"`
	FocusScore      float64   `json:"focusScore"`
	LastUpdated     time.Time `json:"lastUpdated"`
	Active          bool      `json:"active"`
	IsMock          bool      `json:"isMock"`
}

const placeholderScreenshot = "/screenshots/placeholder.png"

// studentFromRecord derives the display view of a stored student. Status is
// always recomputed from the focus score; there is no other mutation path.
func studentFromRecord(rec store.StudentRecord, profile ThresholdProfile) Student {
	name := rec.Name
	if name == "" {
		name = "Student " + rec.ID
	}
	screenshot := rec.Screenshot
	if screenshot == "" {
		screenshot = placeholderScreenshot
	}
	activity := rec.ShortDescription
	if activity == "" {
		activity = "No task information"
	}
	lastUpdated := rec.LastUpdated
	if lastUpdated.IsZero() {
		lastUpdated = time.Now()
	}

	return Student{
		ID:              rec.ID,
		Name:            name,
		Screenshot:      screenshot,
		Status:          ClassifyFocusScore(rec.FocusScore, profile),
		CurrentActivity: activity,
		Description:     rec.Description,
		History:         rec.History,
		FocusScore:      rec.FocusScore,
		LastUpdated:     lastUpdated,
		Active:          rec.Active,
		IsMock:          false,
	}
}
