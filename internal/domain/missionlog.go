package domain

import (
	"fmt"
	"regexp"
	"sort"
	"sync/atomic"
)

// hhmmRe matches 24-hour HH:MM times as produced by the feedback and
// activity forms.
var hhmmRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ImpactLevel is the observed GNSS impact on a piece of equipment, using
// the operator-facing Korean labels.
type ImpactLevel string

const (
	ImpactNormal  ImpactLevel = "정상"
	ImpactCaution ImpactLevel = "주의"
	ImpactDanger  ImpactLevel = "위험"
)

// Valid reports whether l is one of the closed set of impact levels.
func (l ImpactLevel) Valid() bool {
	switch l {
	case ImpactNormal, ImpactCaution, ImpactDanger:
		return true
	}
	return false
}

// MissionLog is one submitted feedback entry. Entries are append-only and
// never edited in place.
type MissionLog struct {
	ID          int64       `json:"id"`
	Time        string      `json:"time"` // HH:MM
	Equipment   string      `json:"equipment"`
	ImpactLevel ImpactLevel `json:"impactLevel"`
}

// Validate checks a feedback entry before it enters the log book.
func (m MissionLog) Validate() error {
	if m.Equipment == "" {
		return fmt.Errorf("equipment is required")
	}
	if !hhmmRe.MatchString(m.Time) {
		return fmt.Errorf("invalid time %q: want HH:MM", m.Time)
	}
	if !m.ImpactLevel.Valid() {
		return fmt.Errorf("invalid impact level %q", m.ImpactLevel)
	}
	return nil
}

// LogBook groups feedback entries by date key. Buckets preserve insertion
// order; read paths sort derived copies.
type LogBook map[DateKey][]MissionLog

// Add returns a book with the entry appended to the bucket for key. The
// receiver is unchanged, so a caller can persist the result and discard
// it if the write fails.
func (b LogBook) Add(key DateKey, entry MissionLog) LogBook {
	out := make(LogBook, len(b)+1)
	for k, v := range b {
		out[k] = v
	}
	bucket := make([]MissionLog, len(b[key]), len(b[key])+1)
	copy(bucket, b[key])
	out[key] = append(bucket, entry)
	return out
}

// ForDate returns the entries for key sorted ascending by time. The sort
// is stable and operates on a copy; stored order is untouched. A date with
// no entries yields an empty slice, which is a normal state, not an error.
func (b LogBook) ForDate(key DateKey) []MissionLog {
	bucket := b[key]
	out := make([]MissionLog, len(bucket))
	copy(out, bucket)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time < out[j].Time
	})
	return out
}

// Dates returns every date key with at least one entry, ascending by
// calendar date.
func (b LogBook) Dates() []DateKey {
	keys := make([]DateKey, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Time().Before(keys[j].Time())
	})
	return keys
}

// lastEntryID tracks the most recently issued entry ID so that two entries
// created within the same clock millisecond still get distinct IDs.
var lastEntryID atomic.Int64

// NextEntryID returns a unique creation-timestamp-derived identifier.
func NextEntryID() int64 {
	for {
		id := clock.Now().UnixMilli()
		last := lastEntryID.Load()
		if id <= last {
			id = last + 1
		}
		if lastEntryID.CompareAndSwap(last, id) {
			return id
		}
	}
}
