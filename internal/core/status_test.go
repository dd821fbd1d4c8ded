package core

import "testing"

func TestClassifyFocusScore_ListThresholds(t *testing.T) {
	cases := []struct {
		score float64
		want  Status
	}{
		{10, StatusOnTask},
		{8, StatusOnTask},
		{7, StatusMaybeOffTask}, // boundary is exclusive
		{5, StatusMaybeOffTask},
		{4, StatusNeedsHelp},
		{2, StatusNeedsHelp},
		{0, StatusNeedsHelp},
		{-1, StatusNeedsHelp},
	}
	for _, c := range cases {
		if got := ClassifyFocusScore(c.score, ListThresholds); got != c.want {
			t.Fatalf("ClassifyFocusScore(%g, list) = %s, want %s", c.score, got, c.want)
		}
	}
}

func TestClassifyFocusScore_DetailThresholds(t *testing.T) {
	cases := []struct {
		score float64
		want  Status
	}{
		{4, StatusOnTask},
		{3.5, StatusOnTask},
		{3, StatusMaybeOffTask},
		{2, StatusMaybeOffTask},
		{1, StatusNeedsHelp},
		{0, StatusNeedsHelp},
	}
	for _, c := range cases {
		if got := ClassifyFocusScore(c.score, DetailThresholds); got != c.want {
			t.Fatalf("ClassifyFocusScore(%g, detail) = %s, want %s", c.score, got, c.want)
		}
	}
}

// Severity must be non-decreasing as the score drops, under any profile.
func TestClassifyFocusScore_Monotonic(t *testing.T) {
	severity := map[Status]int{
		StatusOnTask:       0,
		StatusMaybeOffTask: 1,
		StatusNeedsHelp:    2,
	}

	for _, profile := range []ThresholdProfile{ListThresholds, DetailThresholds} {
		prev := -1
		for score := 12.0; score >= -2; score -= 0.25 {
			s := severity[ClassifyFocusScore(score, profile)]
			if s < prev {
				t.Fatalf("severity decreased at score %g under %+v", score, profile)
			}
			prev = s
		}
	}
}

func TestStatusForActivity(t *testing.T) {
	cases := []struct {
		activity string
		want     Status
	}{
		{"Watching a YouTube video about Greek history", StatusOnTask},
		{"Taking notes on Greek history", StatusOnTask},
		{"Reading a Wikipedia article", StatusMaybeOffTask},
		{"Searching Google for essay topics", StatusMaybeOffTask},
		{"Watching a YouTube video", StatusMaybeOffTask}, // exact match only
		{"Watching a YouTube video essay", StatusNeedsHelp},
		{"Scrolling through TikTok", StatusNeedsHelp},
		{"Playing an online game", StatusNeedsHelp},
	}
	for _, c := range cases {
		if got := StatusForActivity(c.activity); got != c.want {
			t.Fatalf("StatusForActivity(%q) = %s, want %s", c.activity, got, c.want)
		}
	}
}
