package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/air4space/ops-console/internal/adapter/openweather"
	"github.com/air4space/ops-console/internal/domain"
)

// ErrValidation marks operator input the API must reject with a blocking
// notice before any state mutation.
var ErrValidation = errors.New("validation")

// Operator-facing status strings for the header weather panel, carried
// over from the dashboard verbatim.
const (
	msgNoCoords           = "위도/경도 정보 없음"
	msgLocationUnresolved = "현재 위치를 찾을 수 없습니다"
	msgLocationUnset      = "위치 정보가 설정되지 않음"
	msgWeatherUnavailable = "날씨 정보를 가져올 수 없습니다"
)

// WeatherView is the header weather panel state: either a display line or
// a terse status message explaining why there is none.
type WeatherView struct {
	Available bool                      `json:"available"`
	Display   string                    `json:"display,omitempty"`
	Message   string                    `json:"message,omitempty"`
	Detail    *domain.CurrentConditions `json:"detail,omitempty"`
}

// CurrentWeather resolves coordinates per the configured location method
// and looks up conditions. For the current-location method the caller
// passes the device-resolved coordinates; a nil override means the device
// lookup failed or was denied, reported as a non-error unavailable state.
// Upstream failures are likewise folded into a status message and never
// escape as errors.
func (c *Console) CurrentWeather(ctx context.Context, override *domain.Coordinates) WeatherView {
	c.mu.Lock()
	settings := c.settings.Clone()
	c.mu.Unlock()

	coords := settings.Location.Coords
	if settings.Location.Method == domain.LocationCurrent {
		if override == nil {
			return WeatherView{Message: msgLocationUnresolved}
		}
		coords = *override
	} else if !coords.Complete() {
		return WeatherView{Message: msgLocationUnset}
	}

	cond, err := c.weather.Current(ctx, coords)
	switch {
	case errors.Is(err, openweather.ErrNoLocation):
		return WeatherView{Message: msgNoCoords}
	case err != nil:
		c.logger.Warn("weather lookup failed", "error", err)
		return WeatherView{Message: msgWeatherUnavailable}
	}

	name := cond.PlaceName
	if settings.Location.Method == domain.LocationUnit {
		name = settings.UnitName
	}
	return WeatherView{
		Available: true,
		Display:   fmt.Sprintf("%s | %s | %.1f°C", name, cond.Description, cond.Temperature),
		Detail:    &cond,
	}
}

// Forecast fetches today's chart payload using the configured timezone and
// threshold. Today is computed in the display timezone so the feed's KST
// timestamps join correctly.
func (c *Console) Forecast(ctx context.Context) (domain.ChartPayload, error) {
	c.mu.Lock()
	tz := c.settings.Timezone
	threshold := c.settings.DefaultThreshold
	c.mu.Unlock()

	today := domain.TodayKey(tz.Location())
	return c.forecast.FetchToday(ctx, today, threshold)
}

// ClockView is the header clock state in the configured timezone.
type ClockView struct {
	Date     string          `json:"date"` // e.g. 2026년 8월 28일
	Time     string          `json:"time"` // HH:MM:SS
	Timezone domain.Timezone `json:"timezone"`
}

// Clock returns the current date and time formatted for the header, an
// on-demand replacement for the dashboard's interval-driven clock.
func (c *Console) Clock() ClockView {
	c.mu.Lock()
	tz := c.settings.Timezone
	c.mu.Unlock()

	now := domain.Now().In(tz.Location())
	return ClockView{
		Date:     fmt.Sprintf("%d년 %d월 %d일", now.Year(), int(now.Month()), now.Day()),
		Time:     now.Format("15:04:05"),
		Timezone: tz,
	}
}
