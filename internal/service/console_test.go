package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/air4space/ops-console/internal/adapter/openweather"
	"github.com/air4space/ops-console/internal/domain"
	"github.com/air4space/ops-console/internal/observability"
	"github.com/air4space/ops-console/internal/store"
)

type memKV struct {
	data    map[string][]byte
	saveErr error
}

func newMemKV() *memKV {
	return &memKV{data: map[string][]byte{}}
}

func (m *memKV) Load(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Save(_ context.Context, key string, value []byte) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

type fakeWeather struct {
	cond   domain.CurrentConditions
	err    error
	gotLat float64
	gotLon float64
	called bool
}

func (f *fakeWeather) Current(_ context.Context, coords domain.Coordinates) (domain.CurrentConditions, error) {
	f.called = true
	if coords.Complete() {
		f.gotLat, f.gotLon = *coords.Lat, *coords.Lon
	}
	return f.cond, f.err
}

type fakeForecast struct {
	payload      domain.ChartPayload
	err          error
	gotToday     domain.DateKey
	gotThreshold float64
	superseded   int
}

func (f *fakeForecast) FetchToday(_ context.Context, today domain.DateKey, threshold float64) (domain.ChartPayload, error) {
	f.gotToday = today
	f.gotThreshold = threshold
	return f.payload, f.err
}

func (f *fakeForecast) Supersede() {
	f.superseded++
}

type fakeExporter struct {
	events []domain.FeedbackEvent
	err    error
}

func (f *fakeExporter) Publish(_ context.Context, event domain.FeedbackEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type consoleFixture struct {
	console  *Console
	kv       *memKV
	weather  *fakeWeather
	forecast *fakeForecast
	exporter *fakeExporter
}

func newTestConsole(t *testing.T, opStatus domain.StatusMap) consoleFixture {
	t.Helper()
	kv := newMemKV()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	state := store.NewStateStore(kv, logger, metrics)
	weather := &fakeWeather{}
	forecast := &fakeForecast{}
	exporter := &fakeExporter{}
	console := New(context.Background(), state, weather, forecast, exporter, opStatus, logger, metrics)
	return consoleFixture{console: console, kv: kv, weather: weather, forecast: forecast, exporter: exporter}
}

func coordsPtr(lat, lon float64) domain.Coordinates {
	return domain.Coordinates{Lat: &lat, Lon: &lon}
}

func TestConsole_SettingsReturnsCopy(t *testing.T) {
	fx := newTestConsole(t, nil)

	first := fx.console.Settings()
	first.UnitName = "다른 부대"
	*first.Location.Coords.Lat = 0

	second := fx.console.Settings()
	assert.Equal(t, domain.DefaultUnitName, second.UnitName)
	assert.Equal(t, 37.434879, *second.Location.Coords.Lat)
}

func TestConsole_CommitSettings(t *testing.T) {
	fx := newTestConsole(t, nil)

	staged := fx.console.Settings()
	staged.SetUnitName("제17전투비행단")
	staged.Timezone = domain.TimezoneUTC
	staged.DefaultThreshold = 7.5

	committed, err := fx.console.CommitSettings(context.Background(), staged)
	require.NoError(t, err)
	assert.Equal(t, "제17전투비행단", committed.UnitName)
	assert.Equal(t, 36.722701, *committed.Location.Coords.Lat)
	assert.Equal(t, 1, fx.forecast.superseded)

	// The committed settings survive a reload from the same backend.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	reloaded := store.NewStateStore(fx.kv, logger, metrics).LoadSettings(context.Background())
	assert.Equal(t, committed, reloaded)
}

func TestConsole_CommitSettings_Invalid(t *testing.T) {
	fx := newTestConsole(t, nil)

	staged := fx.console.Settings()
	staged.DefaultThreshold = -1

	_, err := fx.console.CommitSettings(context.Background(), staged)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, fx.forecast.superseded)
	assert.Equal(t, 5.0, fx.console.Settings().DefaultThreshold, "authoritative settings untouched")
}

func TestConsole_CommitSettings_PersistFailureDiscardsStaged(t *testing.T) {
	fx := newTestConsole(t, nil)
	fx.kv.saveErr = errors.New("disk full")

	staged := fx.console.Settings()
	staged.SetUnitName("제17전투비행단")

	_, err := fx.console.CommitSettings(context.Background(), staged)
	require.Error(t, err)

	assert.Equal(t, domain.DefaultUnitName, fx.console.Settings().UnitName, "authoritative settings unchanged")
	assert.Zero(t, fx.forecast.superseded)
}

func TestConsole_SubmitFeedback(t *testing.T) {
	fx := newTestConsole(t, nil)

	key, entry, err := fx.console.SubmitFeedback(context.Background(), "2025-09-02", "14:30", "정찰 드론", domain.ImpactCaution)
	require.NoError(t, err)
	assert.Equal(t, domain.DateKey("2025-09-02"), key)
	assert.NotZero(t, entry.ID)

	logs, err := fx.console.LogsForDate("2025-09-02")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, entry, logs[0])

	require.Len(t, fx.exporter.events, 1)
	assert.Equal(t, key, fx.exporter.events[0].Date)
	assert.Equal(t, domain.DefaultUnitName, fx.exporter.events[0].UnitName)
}

func TestConsole_SubmitFeedback_ValidationAbortsBeforeMutation(t *testing.T) {
	tests := []struct {
		name  string
		date  string
		hhmm  string
		equip string
	}{
		{name: "bad date", date: "09/02/2025", hhmm: "14:30", equip: "레이더"},
		{name: "bad time", date: "2025-09-02", hhmm: "25:99", equip: "레이더"},
		{name: "empty equipment", date: "2025-09-02", hhmm: "14:30", equip: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newTestConsole(t, nil)
			_, _, err := fx.console.SubmitFeedback(context.Background(), tt.date, tt.hhmm, tt.equip, domain.ImpactNormal)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Empty(t, fx.console.FeedbackHistory())
			assert.Empty(t, fx.exporter.events)
		})
	}
}

func TestConsole_SubmitFeedback_PersistFailureDiscardsEntry(t *testing.T) {
	fx := newTestConsole(t, nil)
	ctx := context.Background()
	fx.kv.saveErr = errors.New("disk full")

	_, _, err := fx.console.SubmitFeedback(ctx, "2025-09-02", "14:30", "레이더", domain.ImpactNormal)
	require.Error(t, err)
	assert.Empty(t, fx.console.FeedbackHistory(), "failed persist must not leave the entry in memory")
	assert.Empty(t, fx.exporter.events)

	// A retry after the store recovers yields exactly one entry.
	fx.kv.saveErr = nil
	_, _, err = fx.console.SubmitFeedback(ctx, "2025-09-02", "14:30", "레이더", domain.ImpactNormal)
	require.NoError(t, err)

	logs, err := fx.console.LogsForDate("2025-09-02")
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestConsole_Activities_PersistFailureDiscardsChange(t *testing.T) {
	fx := newTestConsole(t, nil)
	ctx := context.Background()

	added, err := fx.console.AddActivity(ctx, "09:00", "비행 훈련", domain.CategoryFlight)
	require.NoError(t, err)

	fx.kv.saveErr = errors.New("disk full")

	_, err = fx.console.AddActivity(ctx, "10:00", "정비 점검", domain.CategoryMaintenance)
	require.Error(t, err)
	assert.Len(t, fx.console.Activities(), 1)

	changed := added
	changed.Content = "비행 훈련 (연장)"
	require.Error(t, fx.console.UpdateActivity(ctx, changed))
	assert.Equal(t, "비행 훈련", fx.console.Activities()[0].Content)

	require.Error(t, fx.console.DeleteActivity(ctx, added.ID))
	assert.Len(t, fx.console.Activities(), 1)
}

func TestConsole_SubmitFeedback_ExportFailureIsNonFatal(t *testing.T) {
	fx := newTestConsole(t, nil)
	fx.exporter.err = errors.New("broker down")

	_, _, err := fx.console.SubmitFeedback(context.Background(), "2025-09-02", "14:30", "레이더", domain.ImpactNormal)
	require.NoError(t, err)

	logs, err := fx.console.LogsForDate("2025-09-02")
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestConsole_FeedbackHistory_NewestDateFirst(t *testing.T) {
	fx := newTestConsole(t, nil)
	ctx := context.Background()

	_, _, err := fx.console.SubmitFeedback(ctx, "2025-09-01", "10:00", "레이더", domain.ImpactNormal)
	require.NoError(t, err)
	_, _, err = fx.console.SubmitFeedback(ctx, "2025-09-03", "09:00", "통신 장비", domain.ImpactDanger)
	require.NoError(t, err)
	_, _, err = fx.console.SubmitFeedback(ctx, "2025-09-03", "06:00", "GPS 수신기", domain.ImpactCaution)
	require.NoError(t, err)

	history := fx.console.FeedbackHistory()
	require.Len(t, history, 2)
	assert.Equal(t, domain.DateKey("2025-09-03"), history[0].Date)
	assert.Equal(t, domain.DateKey("2025-09-01"), history[1].Date)
	// Entries within a date are ordered by time of day.
	assert.Equal(t, "06:00", history[0].Logs[0].Time)
	assert.Equal(t, "09:00", history[0].Logs[1].Time)
}

func TestConsole_Activities(t *testing.T) {
	fx := newTestConsole(t, nil)
	ctx := context.Background()

	added, err := fx.console.AddActivity(ctx, "14:00", "정비 점검", domain.CategoryMaintenance)
	require.NoError(t, err)
	_, err = fx.console.AddActivity(ctx, "08:00", "아침 브리핑", domain.CategoryBriefing)
	require.NoError(t, err)

	t.Run("sorted by time", func(t *testing.T) {
		list := fx.console.Activities()
		require.Len(t, list, 2)
		assert.Equal(t, "08:00", list[0].Time)
		assert.Equal(t, "14:00", list[1].Time)
	})

	t.Run("update", func(t *testing.T) {
		added.Content = "정비 점검 (연장)"
		require.NoError(t, fx.console.UpdateActivity(ctx, added))
		list := fx.console.Activities()
		assert.Equal(t, "정비 점검 (연장)", list[1].Content)
	})

	t.Run("update unknown id", func(t *testing.T) {
		ghost := added
		ghost.ID = 999999
		assert.ErrorIs(t, fx.console.UpdateActivity(ctx, ghost), domain.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, fx.console.DeleteActivity(ctx, added.ID))
		assert.Len(t, fx.console.Activities(), 1)
		assert.ErrorIs(t, fx.console.DeleteActivity(ctx, added.ID), domain.ErrNotFound)
	})

	t.Run("invalid input rejected", func(t *testing.T) {
		_, err := fx.console.AddActivity(ctx, "14:00", "", domain.CategoryMeeting)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestConsole_CurrentWeather(t *testing.T) {
	t.Run("unit method shows unit name", func(t *testing.T) {
		fx := newTestConsole(t, nil)
		fx.weather.cond = domain.CurrentConditions{Temperature: 21.34, Description: "맑음", PlaceName: "Seongnam"}

		view := fx.console.CurrentWeather(context.Background(), nil)
		require.True(t, view.Available)
		assert.Equal(t, "제15특수임무비행단 | 맑음 | 21.3°C", view.Display)
		assert.Equal(t, 37.434879, fx.weather.gotLat)
	})

	t.Run("manual method shows place name", func(t *testing.T) {
		fx := newTestConsole(t, nil)
		fx.weather.cond = domain.CurrentConditions{Temperature: 18.0, Description: "흐림", PlaceName: "Cheongju"}

		staged := fx.console.Settings()
		staged.SetLocationMethod(domain.LocationManual)
		staged.Location.Coords = coordsPtr(36.72, 127.49)
		_, err := fx.console.CommitSettings(context.Background(), staged)
		require.NoError(t, err)

		view := fx.console.CurrentWeather(context.Background(), nil)
		require.True(t, view.Available)
		assert.Equal(t, "Cheongju | 흐림 | 18.0°C", view.Display)
	})

	t.Run("current method without device coords", func(t *testing.T) {
		fx := newTestConsole(t, nil)
		staged := fx.console.Settings()
		staged.SetLocationMethod(domain.LocationCurrent)
		_, err := fx.console.CommitSettings(context.Background(), staged)
		require.NoError(t, err)

		view := fx.console.CurrentWeather(context.Background(), nil)
		assert.False(t, view.Available)
		assert.Equal(t, "현재 위치를 찾을 수 없습니다", view.Message)
		assert.False(t, fx.weather.called, "no lookup without resolved coordinates")
	})

	t.Run("current method with device coords", func(t *testing.T) {
		fx := newTestConsole(t, nil)
		fx.weather.cond = domain.CurrentConditions{Temperature: 25.0, Description: "맑음", PlaceName: "Daegu"}
		staged := fx.console.Settings()
		staged.SetLocationMethod(domain.LocationCurrent)
		_, err := fx.console.CommitSettings(context.Background(), staged)
		require.NoError(t, err)

		override := coordsPtr(35.899526, 128.639791)
		view := fx.console.CurrentWeather(context.Background(), &override)
		require.True(t, view.Available)
		assert.Equal(t, 35.899526, fx.weather.gotLat)
		assert.Equal(t, "Daegu | 맑음 | 25.0°C", view.Display)
	})

	t.Run("manual method without coords", func(t *testing.T) {
		fx := newTestConsole(t, nil)
		staged := fx.console.Settings()
		staged.SetLocationMethod(domain.LocationManual)
		staged.Location.Coords = domain.Coordinates{}
		_, err := fx.console.CommitSettings(context.Background(), staged)
		require.NoError(t, err)

		view := fx.console.CurrentWeather(context.Background(), nil)
		assert.Equal(t, "위치 정보가 설정되지 않음", view.Message)
		assert.False(t, fx.weather.called)
	})

	t.Run("upstream no-location error", func(t *testing.T) {
		fx := newTestConsole(t, nil)
		fx.weather.err = openweather.ErrNoLocation

		view := fx.console.CurrentWeather(context.Background(), nil)
		assert.False(t, view.Available)
		assert.Equal(t, "위도/경도 정보 없음", view.Message)
	})

	t.Run("upstream failure folded into message", func(t *testing.T) {
		fx := newTestConsole(t, nil)
		fx.weather.err = errors.New("timeout")

		view := fx.console.CurrentWeather(context.Background(), nil)
		assert.False(t, view.Available)
		assert.Equal(t, "날씨 정보를 가져올 수 없습니다", view.Message)
	})
}

func TestConsole_Forecast_UsesTimezoneAndThreshold(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2025, 9, 2, 20, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	fx := newTestConsole(t, nil)
	fx.forecast.payload = domain.ChartPayload{Threshold: []domain.SeriesPoint{{T: "2025-09-03 00:00", V: 5}}}

	// Default timezone is KST, so 20:00 UTC is already the 3rd.
	_, err := fx.console.Forecast(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DateKey("2025-09-03"), fx.forecast.gotToday)
	assert.Equal(t, 5.0, fx.forecast.gotThreshold)

	staged := fx.console.Settings()
	staged.Timezone = domain.TimezoneUTC
	staged.DefaultThreshold = 8.0
	_, err = fx.console.CommitSettings(context.Background(), staged)
	require.NoError(t, err)

	_, err = fx.console.Forecast(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DateKey("2025-09-02"), fx.forecast.gotToday)
	assert.Equal(t, 8.0, fx.forecast.gotThreshold)
}

func TestConsole_Clock(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2025, 9, 2, 20, 30, 5, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	fx := newTestConsole(t, nil)

	view := fx.console.Clock()
	assert.Equal(t, "2025년 9월 3일", view.Date)
	assert.Equal(t, "05:30:05", view.Time)
	assert.Equal(t, domain.TimezoneKST, view.Timezone)
}

func TestConsole_OperationStatus(t *testing.T) {
	status := domain.StatusMap{"2025-09-02": domain.StatusWarning}
	fx := newTestConsole(t, status)
	assert.Equal(t, status, fx.console.OperationStatus())

	empty := newTestConsole(t, nil)
	assert.NotNil(t, empty.console.OperationStatus())
}

func TestConsole_StateSurvivesRestart(t *testing.T) {
	fx := newTestConsole(t, nil)
	ctx := context.Background()

	_, _, err := fx.console.SubmitFeedback(ctx, "2025-09-02", "10:00", "레이더", domain.ImpactNormal)
	require.NoError(t, err)
	_, err = fx.console.AddActivity(ctx, "09:00", "비행 훈련", domain.CategoryFlight)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	state := store.NewStateStore(fx.kv, logger, metrics)
	reborn := New(ctx, state, &fakeWeather{}, &fakeForecast{}, nil, nil, logger, metrics)

	logs, err := reborn.LogsForDate("2025-09-02")
	require.NoError(t, err)
	assert.Len(t, logs, 1)
	assert.Len(t, reborn.Activities(), 1)
}
