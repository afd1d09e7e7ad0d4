// Package service orchestrates the console's state slices and upstream
// adapters behind the HTTP API.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/air4space/ops-console/internal/domain"
	"github.com/air4space/ops-console/internal/observability"
	"github.com/air4space/ops-console/internal/store"
)

// Weather looks up current conditions for a coordinate pair.
type Weather interface {
	Current(ctx context.Context, coords domain.Coordinates) (domain.CurrentConditions, error)
}

// Forecast produces today's chart payload and supports superseding
// in-flight fetches when settings change underneath them.
type Forecast interface {
	FetchToday(ctx context.Context, today domain.DateKey, threshold float64) (domain.ChartPayload, error)
	Supersede()
}

// Exporter publishes accepted feedback entries downstream.
type Exporter interface {
	Publish(ctx context.Context, event domain.FeedbackEvent) error
}

// Console owns the authoritative in-memory state. Each slice is loaded
// once at construction and written back after every committed mutation.
type Console struct {
	state    *store.StateStore
	weather  Weather
	forecast Forecast
	exporter Exporter // nil when export is disabled
	opStatus domain.StatusMap
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu         sync.Mutex
	settings   domain.Settings
	logBook    domain.LogBook
	activities domain.ActivityList
}

// New builds a Console, loading the persisted slices. Pass a nil exporter
// to disable feedback export.
func New(ctx context.Context, state *store.StateStore, weather Weather, forecast Forecast, exporter Exporter, opStatus domain.StatusMap, logger *slog.Logger, metrics *observability.Metrics) *Console {
	if opStatus == nil {
		opStatus = domain.StatusMap{}
	}
	return &Console{
		state:      state,
		weather:    weather,
		forecast:   forecast,
		exporter:   exporter,
		opStatus:   opStatus,
		logger:     logger,
		metrics:    metrics,
		settings:   state.LoadSettings(ctx),
		logBook:    state.LoadLogBook(ctx),
		activities: state.LoadActivities(ctx),
	}
}

// CheckReadiness reports whether the persisted store is reachable.
func (c *Console) CheckReadiness(ctx context.Context) error {
	return c.state.Check(ctx)
}

// Settings returns a copy of the authoritative settings, safe to hand to
// the settings view as the basis of a staged edit.
func (c *Console) Settings() domain.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings.Clone()
}

// CommitSettings validates and commits a staged settings copy, persisting
// it and superseding any forecast fetch built against the old settings.
// The authoritative copy changes only after the persist succeeds.
// A staged copy that is never committed (the operator navigating away)
// simply never reaches this method; authoritative state is untouched.
func (c *Console) CommitSettings(ctx context.Context, staged domain.Settings) (domain.Settings, error) {
	if err := staged.Validate(); err != nil {
		return domain.Settings{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	staged.Normalize()

	candidate := staged.Clone()

	c.mu.Lock()
	if err := c.state.SaveSettings(ctx, candidate); err != nil {
		c.mu.Unlock()
		return domain.Settings{}, err
	}
	c.settings = candidate
	committed := candidate.Clone()
	c.mu.Unlock()

	c.forecast.Supersede()
	c.logger.Info("settings committed",
		"unit", committed.UnitName,
		"method", committed.Location.Method,
		"timezone", committed.Timezone,
		"threshold", committed.DefaultThreshold,
	)
	return committed, nil
}

// SubmitFeedback validates and appends one feedback entry. Validation and
// persist failures both leave the in-memory book unchanged, so a retried
// submission cannot duplicate the entry. The entry ID is derived from the
// creation time.
func (c *Console) SubmitFeedback(ctx context.Context, date, hhmm, equipment string, impact domain.ImpactLevel) (domain.DateKey, domain.MissionLog, error) {
	key, err := domain.ParseDateKey(date)
	if err != nil {
		return "", domain.MissionLog{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	entry := domain.MissionLog{
		ID:          domain.NextEntryID(),
		Time:        hhmm,
		Equipment:   equipment,
		ImpactLevel: impact,
	}
	if err := entry.Validate(); err != nil {
		return "", domain.MissionLog{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	c.mu.Lock()
	candidate := c.logBook.Add(key, entry)
	if err := c.state.SaveLogBook(ctx, candidate); err != nil {
		c.mu.Unlock()
		return "", domain.MissionLog{}, err
	}
	c.logBook = candidate
	unitName := c.settings.UnitName
	c.mu.Unlock()
	c.metrics.FeedbackSubmitted.Inc()

	c.export(ctx, key, entry, unitName)
	return key, entry, nil
}

// export publishes the entry when export is enabled. Publish failures are
// logged and counted; they never fail the submission.
func (c *Console) export(ctx context.Context, key domain.DateKey, entry domain.MissionLog, unitName string) {
	if c.exporter == nil {
		return
	}
	event := domain.FeedbackEvent{
		Date:       key,
		Entry:      entry,
		UnitName:   unitName,
		RecordedAt: domain.Now(),
	}
	if err := c.exporter.Publish(ctx, event); err != nil {
		c.logger.Warn("feedback export failed", "date", key, "entry_id", entry.ID, "error", err)
		c.metrics.ExportErrors.Inc()
		return
	}
	c.metrics.ExportPublished.Inc()
}

// LogsForDate returns the entries for a date sorted ascending by time. An
// unknown date yields an empty slice, a normal state.
func (c *Console) LogsForDate(date string) ([]domain.MissionLog, error) {
	key, err := domain.ParseDateKey(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logBook.ForDate(key), nil
}

// DateLogs pairs a date key with its sorted entries.
type DateLogs struct {
	Date domain.DateKey      `json:"date"`
	Logs []domain.MissionLog `json:"logs"`
}

// FeedbackHistory lists every date with feedback, newest date first, each
// with its entries sorted ascending by time.
func (c *Console) FeedbackHistory() []DateLogs {
	c.mu.Lock()
	defer c.mu.Unlock()

	dates := c.logBook.Dates()
	out := make([]DateLogs, 0, len(dates))
	for i := len(dates) - 1; i >= 0; i-- {
		out = append(out, DateLogs{Date: dates[i], Logs: c.logBook.ForDate(dates[i])})
	}
	return out
}

// Activities returns the activity board sorted by time.
func (c *Console) Activities() []domain.Activity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activities.SortedByTime()
}

// AddActivity validates and appends a new activity.
func (c *Console) AddActivity(ctx context.Context, hhmm, content string, category domain.Category) (domain.Activity, error) {
	activity := domain.Activity{
		ID:       domain.NextEntryID(),
		Time:     hhmm,
		Content:  content,
		Category: category,
	}
	if err := activity.Validate(); err != nil {
		return domain.Activity{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	candidate := c.activities.Add(activity)
	if err := c.state.SaveActivities(ctx, candidate); err != nil {
		return domain.Activity{}, err
	}
	c.activities = candidate
	return activity, nil
}

// UpdateActivity replaces an existing activity by ID.
func (c *Console) UpdateActivity(ctx context.Context, activity domain.Activity) error {
	if err := activity.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	candidate, err := c.activities.Update(activity)
	if err != nil {
		return err
	}
	if err := c.state.SaveActivities(ctx, candidate); err != nil {
		return err
	}
	c.activities = candidate
	return nil
}

// DeleteActivity removes an activity by ID.
func (c *Console) DeleteActivity(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	candidate, err := c.activities.Delete(id)
	if err != nil {
		return err
	}
	if err := c.state.SaveActivities(ctx, candidate); err != nil {
		return err
	}
	c.activities = candidate
	return nil
}

// OperationStatus returns the calendar annotation map.
func (c *Console) OperationStatus() domain.StatusMap {
	return c.opStatus
}
