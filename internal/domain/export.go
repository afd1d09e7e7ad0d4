package domain

import "time"

// FeedbackEvent is the serialized form of an accepted feedback entry
// destined for the export topic.
type FeedbackEvent struct {
	Date       DateKey    `json:"date"`
	Entry      MissionLog `json:"entry"`
	UnitName   string     `json:"unitName"`
	RecordedAt time.Time  `json:"recordedAt"`
}
