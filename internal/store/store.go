// Package store persists the console's three independent state slices:
// settings, mission logs, and activities.
package store

import "context"

// Slice keys. Each slice is round-tripped through JSON independently;
// there is no multi-slice transaction because slices never cross-reference.
const (
	KeySettings    = "settings"
	KeyMissionLogs = "mission_logs"
	KeyActivities  = "activities"
)

// KV is the injected persistence contract: load a value by key or report
// its absence, and save a value. Implementations must be safe for use from
// concurrent HTTP handlers, though each slice has a single logical writer.
type KV interface {
	Load(ctx context.Context, key string) (value []byte, ok bool, err error)
	Save(ctx context.Context, key string, value []byte) error
}
