package core

import (
	"math/rand"
	"testing"
	"time"
)

func TestAdvanceActivity(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	now := time.Now()

	st := Student{
		ID:         "mock1",
		Name:       "Mock Student",
		Screenshot: "old-screenshot",
		Active:     true,
		IsMock:     true,
	}

	inCatalog := func(activity string) bool {
		for _, a := range activityCatalog {
			if a == activity {
				return true
			}
		}
		return false
	}

	for i := 0; i < 50; i++ {
		st = advanceActivity(st, rng, now)
		if !inCatalog(st.CurrentActivity) {
			t.Fatalf("activity %q not in catalog", st.CurrentActivity)
		}
		if st.Status != StatusForActivity(st.CurrentActivity) {
			t.Fatalf("status %s does not match activity %q", st.Status, st.CurrentActivity)
		}
		if st.Screenshot == "old-screenshot" || st.Screenshot == "" {
			t.Fatalf("screenshot not replaced: %q", st.Screenshot)
		}
		if !st.LastUpdated.Equal(now) {
			t.Fatalf("lastUpdated not stamped")
		}
	}

	// Identity fields are untouched by the simulation step.
	if st.ID != "mock1" || st.Name != "Mock Student" || !st.IsMock {
		t.Fatalf("identity fields changed: %+v", st)
	}
}
