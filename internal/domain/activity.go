package domain

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNotFound is returned when an update or delete names an unknown ID.
var ErrNotFound = errors.New("not found")

// Category classifies a planned activity.
type Category string

const (
	CategoryBriefing    Category = "Briefing"
	CategoryFlight      Category = "Flight"
	CategoryMaintenance Category = "Maintenance"
	CategoryTraining    Category = "Training"
	CategoryMeeting     Category = "Meeting"
)

// Valid reports whether c is one of the closed set of categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryBriefing, CategoryFlight, CategoryMaintenance, CategoryTraining, CategoryMeeting:
		return true
	}
	return false
}

// Activity is one entry on the daily activity board. Unlike feedback logs,
// activities support full CRUD keyed by ID.
type Activity struct {
	ID       int64    `json:"id"`
	Time     string   `json:"time"` // HH:MM
	Content  string   `json:"content"`
	Category Category `json:"category"`
}

// Validate checks an activity before it enters the list.
func (a Activity) Validate() error {
	if a.Content == "" {
		return fmt.Errorf("content is required")
	}
	if !hhmmRe.MatchString(a.Time) {
		return fmt.Errorf("invalid time %q: want HH:MM", a.Time)
	}
	if !a.Category.Valid() {
		return fmt.Errorf("invalid category %q", a.Category)
	}
	return nil
}

// ActivityList is the flat ordered list of planned activities.
type ActivityList []Activity

// Add appends an activity.
func (l ActivityList) Add(a Activity) ActivityList {
	return append(l, a)
}

// Update returns a copy with the activity of the same ID replaced. The
// receiver is unchanged.
func (l ActivityList) Update(a Activity) (ActivityList, error) {
	for i := range l {
		if l[i].ID == a.ID {
			out := make(ActivityList, len(l))
			copy(out, l)
			out[i] = a
			return out, nil
		}
	}
	return nil, fmt.Errorf("activity %d: %w", a.ID, ErrNotFound)
}

// Delete removes the activity with the given ID.
func (l ActivityList) Delete(id int64) (ActivityList, error) {
	for i := range l {
		if l[i].ID == id {
			return append(l[:i:i], l[i+1:]...), nil
		}
	}
	return l, fmt.Errorf("activity %d: %w", id, ErrNotFound)
}

// SortedByTime returns a derived copy sorted ascending by time, the order
// the activity board displays. Stored order is untouched.
func (l ActivityList) SortedByTime() []Activity {
	out := make([]Activity, len(l))
	copy(out, l)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time < out[j].Time
	})
	return out
}
