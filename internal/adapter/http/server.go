// Package http exposes the console API consumed by the dashboard views,
// plus health, readiness, and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/air4space/ops-console/internal/adapter/spaceweather"
	"github.com/air4space/ops-console/internal/domain"
	"github.com/air4space/ops-console/internal/service"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server wraps the console service in an HTTP API.
type Server struct {
	httpServer *http.Server
	console    *service.Console
	logger     *slog.Logger
}

// NewServer creates the API server and wires all routes.
func NewServer(addr string, console *service.Console, logger *slog.Logger) *Server {
	s := &Server{
		console: console,
		logger:  logger,
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", handleReady(console)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/settings", s.handleGetSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings", s.handlePutSettings).Methods(http.MethodPut)
	api.HandleFunc("/units", s.handleListUnits).Methods(http.MethodGet)
	api.HandleFunc("/feedback", s.handleFeedbackHistory).Methods(http.MethodGet)
	api.HandleFunc("/feedback", s.handleSubmitFeedback).Methods(http.MethodPost)
	api.HandleFunc("/feedback/{date}", s.handleLogsForDate).Methods(http.MethodGet)
	api.HandleFunc("/activities", s.handleListActivities).Methods(http.MethodGet)
	api.HandleFunc("/activities", s.handleAddActivity).Methods(http.MethodPost)
	api.HandleFunc("/activities/{id}", s.handleUpdateActivity).Methods(http.MethodPut)
	api.HandleFunc("/activities/{id}", s.handleDeleteActivity).Methods(http.MethodDelete)
	api.HandleFunc("/weather", s.handleWeather).Methods(http.MethodGet)
	api.HandleFunc("/forecast", s.handleForecast).Methods(http.MethodGet)
	api.HandleFunc("/operation-status", s.handleOperationStatus).Methods(http.MethodGet)
	api.HandleFunc("/clock", s.handleClock).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.console.Settings())
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var staged domain.Settings
	if err := json.NewDecoder(r.Body).Decode(&staged); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings payload")
		return
	}
	committed, err := s.console.CommitSettings(r.Context(), staged)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, committed)
}

// handleListUnits serves the registry-backed unit choices for the settings
// view; units outside the list require manual coordinates.
func (s *Server) handleListUnits(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"units": domain.RegisteredUnits()})
}

func (s *Server) handleFeedbackHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.console.FeedbackHistory())
}

type feedbackRequest struct {
	Date        string             `json:"date"`
	Time        string             `json:"time"`
	Equipment   string             `json:"equipment"`
	ImpactLevel domain.ImpactLevel `json:"impactLevel"`
}

func (s *Server) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid feedback payload")
		return
	}
	date, entry, err := s.console.SubmitFeedback(r.Context(), req.Date, req.Time, req.Equipment, req.ImpactLevel)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"date": date, "entry": entry})
}

func (s *Server) handleLogsForDate(w http.ResponseWriter, r *http.Request) {
	logs, err := s.console.LogsForDate(mux.Vars(r)["date"])
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleListActivities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.console.Activities())
}

type activityRequest struct {
	Time     string          `json:"time"`
	Content  string          `json:"content"`
	Category domain.Category `json:"category"`
}

func (s *Server) handleAddActivity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid activity payload")
		return
	}
	activity, err := s.console.AddActivity(r.Context(), req.Time, req.Content, req.Category)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, activity)
}

func (s *Server) handleUpdateActivity(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid activity id")
		return
	}
	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid activity payload")
		return
	}
	activity := domain.Activity{ID: id, Time: req.Time, Content: req.Content, Category: req.Category}
	if err := s.console.UpdateActivity(r.Context(), activity); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

func (s *Server) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid activity id")
		return
	}
	if err := s.console.DeleteActivity(r.Context(), id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleWeather reads optional lat/lon query parameters: the client sends
// its device-resolved coordinates when the current-location method is
// active, and omits them when resolution failed.
func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	var override *domain.Coordinates
	latStr, lonStr := r.URL.Query().Get("lat"), r.URL.Query().Get("lon")
	switch {
	case latStr != "" && lonStr != "":
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lon, errLon := strconv.ParseFloat(lonStr, 64)
		if errLat != nil || errLon != nil {
			writeError(w, http.StatusBadRequest, "invalid coordinates")
			return
		}
		override = &domain.Coordinates{Lat: &lat, Lon: &lon}
	case latStr != "" || lonStr != "":
		// A half pair can only be a client bug, never a failed lookup.
		writeError(w, http.StatusBadRequest, "invalid coordinates")
		return
	}
	writeJSON(w, http.StatusOK, s.console.CurrentWeather(r.Context(), override))
}

type forecastResponse struct {
	State   string               `json:"state"` // ok | no_data
	Message string               `json:"message,omitempty"`
	Chart   *domain.ChartPayload `json:"chart,omitempty"`
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	payload, err := s.console.Forecast(r.Context())
	switch {
	case errors.Is(err, domain.ErrNoDataForToday):
		// A day without rows is a normal state, not a failure.
		writeJSON(w, http.StatusOK, forecastResponse{
			State:   "no_data",
			Message: "오늘 날짜에 해당하는 데이터가 없습니다.",
		})
	case errors.Is(err, spaceweather.ErrSuperseded):
		writeError(w, http.StatusConflict, "forecast superseded, retry")
	case err != nil:
		s.logger.Warn("forecast fetch failed", "error", err)
		writeError(w, http.StatusBadGateway, "데이터를 불러오는 데 실패했습니다.")
	default:
		writeJSON(w, http.StatusOK, forecastResponse{State: "ok", Chart: &payload})
	}
}

type statusEntry struct {
	Level domain.StatusLevel `json:"level"`
	Label string             `json:"label"`
}

func (s *Server) handleOperationStatus(w http.ResponseWriter, _ *http.Request) {
	statuses := s.console.OperationStatus()
	out := make(map[domain.DateKey]statusEntry, len(statuses))
	for date, level := range statuses {
		out[date] = statusEntry{Level: level, Label: level.Label()}
	}
	writeJSON(w, http.StatusOK, map[string]any{"operation_status": out})
}

func (s *Server) handleClock(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.console.Clock())
}

// writeServiceError maps service errors onto status codes: operator input
// problems are 400, unknown IDs 404, anything else 500.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
}
