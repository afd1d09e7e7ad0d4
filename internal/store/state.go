package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/air4space/ops-console/internal/domain"
	"github.com/air4space/ops-console/internal/observability"
)

// StateStore round-trips the typed state slices through a KV backend.
// Absent or corrupt persisted data falls back to a well-defined default
// with a diagnostic log; load never fails upward. Saves happen once per
// committed mutation, with no batching.
type StateStore struct {
	kv      KV
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewStateStore creates a StateStore over the given backend.
func NewStateStore(kv KV, logger *slog.Logger, metrics *observability.Metrics) *StateStore {
	return &StateStore{kv: kv, logger: logger, metrics: metrics}
}

// Check probes the backing store, for readiness reporting.
func (s *StateStore) Check(ctx context.Context) error {
	_, _, err := s.kv.Load(ctx, KeySettings)
	return err
}

// LoadSettings returns the persisted settings, or the defaults when the
// slice is absent, unreadable, or fails validation.
func (s *StateStore) LoadSettings(ctx context.Context) domain.Settings {
	var settings domain.Settings
	if !s.loadSlice(ctx, KeySettings, &settings) {
		return domain.DefaultSettings()
	}
	if err := settings.Validate(); err != nil {
		s.fallback(KeySettings, err)
		return domain.DefaultSettings()
	}
	settings.Normalize()
	return settings
}

// SaveSettings persists the committed settings.
func (s *StateStore) SaveSettings(ctx context.Context, settings domain.Settings) error {
	return s.saveSlice(ctx, KeySettings, settings)
}

// LoadLogBook returns the persisted mission logs, or an empty book.
func (s *StateStore) LoadLogBook(ctx context.Context) domain.LogBook {
	var book domain.LogBook
	if !s.loadSlice(ctx, KeyMissionLogs, &book) || book == nil {
		return domain.LogBook{}
	}
	return book
}

// SaveLogBook persists the mission log book.
func (s *StateStore) SaveLogBook(ctx context.Context, book domain.LogBook) error {
	return s.saveSlice(ctx, KeyMissionLogs, book)
}

// LoadActivities returns the persisted activity list, or an empty list.
func (s *StateStore) LoadActivities(ctx context.Context) domain.ActivityList {
	var list domain.ActivityList
	if !s.loadSlice(ctx, KeyActivities, &list) || list == nil {
		return domain.ActivityList{}
	}
	return list
}

// SaveActivities persists the activity list.
func (s *StateStore) SaveActivities(ctx context.Context, list domain.ActivityList) error {
	return s.saveSlice(ctx, KeyActivities, list)
}

// loadSlice reports whether v was populated from the store. Absence and
// corruption both return false; corruption is additionally logged.
func (s *StateStore) loadSlice(ctx context.Context, key string, v any) bool {
	data, ok, err := s.kv.Load(ctx, key)
	if err != nil {
		s.fallback(key, err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.fallback(key, err)
		return false
	}
	return true
}

func (s *StateStore) saveSlice(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("serialize %q: %w", key, err)
	}
	if err := s.kv.Save(ctx, key, data); err != nil {
		return err
	}
	s.metrics.StateWrites.WithLabelValues(key).Inc()
	return nil
}

func (s *StateStore) fallback(key string, err error) {
	s.logger.Warn("state slice unreadable, using default", "slice", key, "error", err)
	s.metrics.StateLoadFallbacks.WithLabelValues(key).Inc()
}
