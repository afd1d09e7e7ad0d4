// Package spaceweather fetches the published GNSS/TEC forecast dataset
// through its pass-through relay and reshapes today's rows for charting.
package spaceweather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/air4space/ops-console/internal/config"
	"github.com/air4space/ops-console/internal/domain"
	"github.com/air4space/ops-console/internal/observability"
)

// ErrSuperseded signals that a newer fetch (or a settings commit) started
// while this one was in flight; the stale result must be discarded.
var ErrSuperseded = errors.New("forecast fetch superseded")

// maxBodySize caps the relay response read. The dataset is a few hundred
// rows of short numeric fields.
const maxBodySize = 4 << 20

// Fetcher retrieves the dataset and produces chart payloads. Each fetch
// carries a generation token; committing settings or starting a newer
// fetch bumps the generation so stale in-flight results are dropped.
type Fetcher struct {
	datasetURL string
	relayURL   string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
	generation atomic.Uint64
}

// NewFetcher creates a Fetcher from the service configuration.
func NewFetcher(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	return &Fetcher{
		datasetURL: cfg.FeedURL,
		relayURL:   cfg.FeedRelayURL,
		httpClient: &http.Client{
			Timeout: cfg.FeedTimeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// Supersede invalidates any in-flight fetch, e.g. after a settings commit
// changed the threshold the payload would be built against.
func (f *Fetcher) Supersede() {
	f.generation.Add(1)
}

// FetchToday fetches and parses the dataset, filters rows to the given
// date key, and builds the chart payload with the given threshold line.
// Returns domain.ErrNoDataForToday when no row matches, ErrSuperseded when
// the result went stale in flight, and a wrapped error on fetch or parse
// failure. The caller never observes a partially built payload.
func (f *Fetcher) FetchToday(ctx context.Context, today domain.DateKey, threshold float64) (domain.ChartPayload, error) {
	gen := f.generation.Add(1)

	start := time.Now()
	text, err := f.fetch(ctx)
	if err != nil {
		f.metrics.FeedFetches.WithLabelValues("error").Inc()
		return domain.ChartPayload{}, err
	}
	f.metrics.FeedFetchDuration.Observe(time.Since(start).Seconds())

	if f.generation.Load() != gen {
		f.metrics.FeedFetches.WithLabelValues("superseded").Inc()
		return domain.ChartPayload{}, ErrSuperseded
	}

	rows := domain.FilterToday(domain.ParseTable(text), today)
	payload, err := domain.BuildChartPayload(rows, threshold)
	if err != nil {
		f.metrics.FeedFetches.WithLabelValues("no_data").Inc()
		return domain.ChartPayload{}, err
	}

	f.metrics.FeedFetches.WithLabelValues("success").Inc()
	return payload, nil
}

func (f *Fetcher) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.requestURL(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("feed error: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("read feed body: %w", err)
	}
	return string(body), nil
}

// requestURL wraps the dataset URL in the relay when one is configured.
// The dataset host does not serve the dashboard's origin directly.
func (f *Fetcher) requestURL() string {
	if f.relayURL == "" {
		return f.datasetURL
	}
	return f.relayURL + url.QueryEscape(f.datasetURL)
}
