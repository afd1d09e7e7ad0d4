// Package openweather implements the current-conditions lookup against the
// OpenWeather API.
package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/air4space/ops-console/internal/config"
	"github.com/air4space/ops-console/internal/domain"
	"github.com/air4space/ops-console/internal/observability"
)

// ErrNoLocation signals that no coordinates were available. No network
// request is issued in this case.
var ErrNoLocation = errors.New("no location data")

// Client fetches current conditions for a coordinate pair.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an OpenWeather client from the service configuration.
func NewClient(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		apiKey: cfg.WeatherAPIKey,
		httpClient: &http.Client{
			Timeout: cfg.WeatherTimeout,
		},
		baseURL: cfg.WeatherAPIURL,
		logger:  logger,
		metrics: metrics,
	}
}

// Current looks up the conditions at the given coordinates. With
// incomplete coordinates it returns ErrNoLocation synchronously without
// touching the network.
func (c *Client) Current(ctx context.Context, coords domain.Coordinates) (domain.CurrentConditions, error) {
	if !coords.Complete() {
		c.metrics.WeatherRequests.WithLabelValues("no_location").Inc()
		return domain.CurrentConditions{}, ErrNoLocation
	}

	params := url.Values{
		"lat":   {strconv.FormatFloat(*coords.Lat, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(*coords.Lon, 'f', -1, 64)},
		"appid": {c.apiKey},
		"units": {"metric"},
		"lang":  {"kr"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		return domain.CurrentConditions{}, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		return domain.CurrentConditions{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.WeatherAPIDuration.Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		return domain.CurrentConditions{}, fmt.Errorf("weather API error: status %d", resp.StatusCode)
	}

	var owResp response
	if err := json.NewDecoder(resp.Body).Decode(&owResp); err != nil {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		return domain.CurrentConditions{}, fmt.Errorf("decode response: %w", err)
	}

	// The API reports errors in-band: cod is a status code carried as a
	// data field and must be checked even on a 200 transport response.
	if cod, err := owResp.Cod.Int64(); err != nil || cod != http.StatusOK {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		return domain.CurrentConditions{}, fmt.Errorf("weather API error: cod %s: %s", owResp.Cod.String(), owResp.Message)
	}

	cond := domain.CurrentConditions{
		Temperature: owResp.Main.Temp,
		PlaceName:   owResp.Name,
	}
	if len(owResp.Weather) > 0 {
		cond.Description = owResp.Weather[0].Description
	}
	c.metrics.WeatherRequests.WithLabelValues("success").Inc()
	return cond, nil
}

// OpenWeather API response types. cod is numeric on success but a quoted
// string on some error payloads, hence json.Number.

type response struct {
	Cod     json.Number `json:"cod"`
	Message string      `json:"message"`
	Name    string      `json:"name"`
	Main    struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}
