package core

import "strings"

type Status string

const (
	StatusOnTask       Status = "ON_TASK"
	StatusMaybeOffTask Status = "MAYBE_OFF_TASK"
	StatusNeedsHelp    Status = "NEEDS_HELP"
)

// ThresholdProfile holds the focus-score boundaries for one classification
// call site. The roster view and the detail view ship different boundaries;
// whether that divergence is intentional is an open question upstream, so both
// profiles are kept rather than unified.
type ThresholdProfile struct {
	OnTask       float64 // score above this is ON_TASK
	MaybeOffTask float64 // score above this (but not OnTask) is MAYBE_OFF_TASK
}

var (
	// ListThresholds is applied when fetching the whole roster.
	ListThresholds = ThresholdProfile{OnTask: 7, MaybeOffTask: 4}
	// DetailThresholds is applied when fetching a single student.
	DetailThresholds = ThresholdProfile{OnTask: 3, MaybeOffTask: 1}
)

// ClassifyFocusScore maps a focus score to a status under the given profile.
func ClassifyFocusScore(score float64, profile ThresholdProfile) Status {
	if score > profile.OnTask {
		return StatusOnTask
	}
	if score > profile.MaybeOffTask {
		return StatusMaybeOffTask
	}
	return StatusNeedsHelp
}

// StatusForActivity derives a status from an activity summary by keyword
// match. Only the activity simulator uses this; real students are classified
// from their focus score.
func StatusForActivity(activity string) Status {
	lower := strings.ToLower(activity)
	switch {
	case strings.Contains(lower, "greek history"):
		return StatusOnTask
	case strings.Contains(lower, "wikipedia"),
		strings.Contains(lower, "google"),
		activity == "Watching a YouTube video":
		return StatusMaybeOffTask
	default:
		return StatusNeedsHelp
	}
}
