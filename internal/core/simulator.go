package core

import (
	"fmt"
	"math/rand"
	"time"
)

// activityCatalog is the fixed set of simulated activities. It stands in for
// a real monitored device whose activity is inferred elsewhere.
var activityCatalog = []string{
	"Watching a YouTube video about Greek history",
	"Reading a Wikipedia article on Greek history",
	"Taking notes on Greek history",
	"Watching a YouTube video",
	"Reading a Wikipedia article",
	"Searching Google for essay topics",
	"Scrolling through TikTok",
	"Playing an online game",
	"Checking social media",
	"Watching Netflix",
}

// advanceActivity moves a mock student one simulation step forward: a new
// random activity from the catalog, a status derived from it by keyword
// match, and a fresh placeholder screenshot. Must only be called on mock
// students; server-backed students are classified from real focus scores.
func advanceActivity(st Student, rng *rand.Rand, now time.Time) Student {
	activity := activityCatalog[rng.Intn(len(activityCatalog))]

	st.CurrentActivity = activity
	st.Status = StatusForActivity(activity)
	st.Screenshot = fmt.Sprintf("https://picsum.photos/300/200?random=%d", rng.Intn(1000))
	st.LastUpdated = now
	return st
}
