package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/bankerai/agent/agents/orchestrator"
	statex "github.com/tanpawarit/bankerai/agent/state"
	metricsx "github.com/tanpawarit/bankerai/pkg/metrics"
)

type analysisRunner interface {
	RunAnalysis(ctx context.Context, query string, timeout time.Duration) orchestrator.Outcome
}

type reportStore interface {
	LoadReport(ctx context.Context, requestID string, out any) error
	DeleteReport(ctx context.Context, requestID string) error
}

type analyzeRequest struct {
	Query          string  `json:"query"`
	TimeoutSeconds float64 `json:"timeout_seconds"`
}

type server struct {
	runner         analysisRunner
	reports        reportStore
	defaultTimeout time.Duration
	mux            *http.ServeMux
}

// newServer routes POST /analyze, GET and DELETE /reports/{id}, GET /metrics
// and GET /healthz.
// reports and metrics may be nil.
func newServer(runner analysisRunner, reports reportStore, metrics *metricsx.Recorder, defaultTimeout time.Duration) *server {
	s := &server{runner: runner, reports: reports, defaultTimeout: defaultTimeout, mux: http.NewServeMux()}

	s.mux.HandleFunc("POST /analyze", s.handleAnalyze)
	s.mux.HandleFunc("GET /reports/{id}", s.handleReport)
	s.mux.HandleFunc("DELETE /reports/{id}", s.handleDeleteReport)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeHTTPJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metrics != nil {
		s.mux.Handle("GET /metrics", metrics.Handler())
	}
	return s
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeHTTPJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeHTTPJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	timeout := s.defaultTimeout
	if req.TimeoutSeconds > 0 {
		timeout = time.Duration(req.TimeoutSeconds * float64(time.Second))
	}

	out := s.runner.RunAnalysis(r.Context(), req.Query, timeout)
	status := http.StatusOK
	switch out.Status {
	case orchestrator.OutcomeTimeout:
		status = http.StatusGatewayTimeout
	case orchestrator.OutcomeError:
		status = http.StatusInternalServerError
	}
	writeHTTPJSON(w, status, out)
}

func (s *server) handleReport(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		writeHTTPJSON(w, http.StatusNotFound, map[string]string{"error": "report store is not configured"})
		return
	}

	var out map[string]any
	err := s.reports.LoadReport(r.Context(), r.PathValue("id"), &out)
	switch {
	case errors.Is(err, statex.ErrReportNotFound):
		writeHTTPJSON(w, http.StatusNotFound, map[string]string{"error": "report not found"})
	case err != nil:
		log.Error().Err(err).Str("request_id", r.PathValue("id")).Msg("load report")
		writeHTTPJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to load report"})
	default:
		writeHTTPJSON(w, http.StatusOK, out)
	}
}

func (s *server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		writeHTTPJSON(w, http.StatusNotFound, map[string]string{"error": "report store is not configured"})
		return
	}

	err := s.reports.DeleteReport(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, statex.ErrReportNotFound):
		writeHTTPJSON(w, http.StatusNotFound, map[string]string{"error": "report not found"})
	case err != nil:
		log.Error().Err(err).Str("request_id", r.PathValue("id")).Msg("delete report")
		writeHTTPJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to delete report"})
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeHTTPJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

// serve runs handler on addr until ctx is done.
func serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
