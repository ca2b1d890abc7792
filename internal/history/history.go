// Package history keeps the plans generated during one browser session.
package history

import (
	"fmt"
	"time"

	"github.com/fitplan/fitplan/internal/workout"
)

// Plan is one generated workout plan.
type Plan struct {
	Text      string
	Request   workout.Request
	CreatedAt time.Time
}

// Entry is a plan paired with its display label.
type Entry struct {
	Label string
	Plan
}

// History is the ordered list of plans of a session, oldest first.
// The zero value is an empty history.
type History struct {
	plans []Plan
}

// Append returns a new History with plan added at the end. The receiver
// is left untouched.
func (h History) Append(plan Plan) History {
	plans := make([]Plan, len(h.plans), len(h.plans)+1)
	copy(plans, h.plans)
	return History{plans: append(plans, plan)}
}

// Len returns the number of plans.
func (h History) Len() int {
	return len(h.plans)
}

// Latest returns the most recently generated plan, if any.
func (h History) Latest() (Plan, bool) {
	if len(h.plans) == 0 {
		return Plan{}, false
	}
	return h.plans[len(h.plans)-1], true
}

// Entries returns the plans oldest first, labelled "Workout 1", "Workout 2", ...
func (h History) Entries() []Entry {
	entries := make([]Entry, 0, len(h.plans))
	for i, p := range h.plans {
		entries = append(entries, Entry{
			Label: fmt.Sprintf("Workout %d", i+1),
			Plan:  p,
		})
	}
	return entries
}
