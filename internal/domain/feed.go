package domain

import (
	"errors"
	"strconv"
	"strings"
)

// ErrNoDataForToday signals that the feed fetch and parse succeeded but no
// row matched today's date key. Distinct from a fetch or parse failure.
var ErrNoDataForToday = errors.New("no feed data for today")

// Feed column names expected in the published dataset's header row.
const (
	FeedColTime      = "time"
	FeedColGNSSError = "gnss_error"
	FeedColTEC       = "tec"
)

// FeedRow is one forecast sample for today: a timestamp with the predicted
// GNSS error rate (percent) and TEC (TECU). Derived and ephemeral, never
// persisted.
type FeedRow struct {
	Timestamp     string  `json:"timestamp"`
	GNSSErrorRate float64 `json:"gnssErrorRate"`
	TEC           float64 `json:"tec"`
}

// SeriesPoint is one (timestamp, value) sample of a chart series.
type SeriesPoint struct {
	T string  `json:"t"`
	V float64 `json:"v"`
}

// ChartPayload is the complete forecast chart: two measured series plus a
// constant threshold line derived from settings. Either all three series
// are populated or the payload is not produced at all.
type ChartPayload struct {
	GNSSError []SeriesPoint `json:"gnssError"`
	TEC       []SeriesPoint `json:"tec"`
	Threshold []SeriesPoint `json:"threshold"`
}

// FilterToday keeps the records whose time field starts with today's date
// key. Records without a time field never match.
func FilterToday(records []Record, today DateKey) []FeedRow {
	rows := make([]FeedRow, 0, len(records))
	for _, rec := range records {
		ts := rec[FeedColTime]
		if !strings.HasPrefix(ts, string(today)) {
			continue
		}
		rows = append(rows, FeedRow{
			Timestamp:     ts,
			GNSSErrorRate: parseFloatOrZero(rec[FeedColGNSSError]),
			TEC:           parseFloatOrZero(rec[FeedColTEC]),
		})
	}
	return rows
}

// BuildChartPayload reshapes today's rows into the chart series. Returns
// ErrNoDataForToday when rows is empty.
func BuildChartPayload(rows []FeedRow, threshold float64) (ChartPayload, error) {
	if len(rows) == 0 {
		return ChartPayload{}, ErrNoDataForToday
	}

	p := ChartPayload{
		GNSSError: make([]SeriesPoint, len(rows)),
		TEC:       make([]SeriesPoint, len(rows)),
		Threshold: make([]SeriesPoint, len(rows)),
	}
	for i, row := range rows {
		p.GNSSError[i] = SeriesPoint{T: row.Timestamp, V: row.GNSSErrorRate}
		p.TEC[i] = SeriesPoint{T: row.Timestamp, V: row.TEC}
		p.Threshold[i] = SeriesPoint{T: row.Timestamp, V: threshold}
	}
	return p, nil
}

// parseFloatOrZero parses a string as float64, returning 0 on failure.
func parseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
