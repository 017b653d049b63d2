// Package api exposes the HTTP interface for the scraper service.
package api

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Hiromu1612/tabelog-scraper/internal/controller"
	"github.com/Hiromu1612/tabelog-scraper/internal/export/csvfile"
	"github.com/Hiromu1612/tabelog-scraper/internal/metrics"
	"github.com/Hiromu1612/tabelog-scraper/internal/scraper"
	"github.com/Hiromu1612/tabelog-scraper/internal/store"
)

const requestTimeout = 60 * time.Second

// Server wires HTTP handlers to the job controller and status store.
type Server struct {
	router     chi.Router
	controller *controller.Controller
	status     *store.StatusStore
	sheets     scraper.SheetWriter
	clock      scraper.Clock
	defaults   scraper.JobParameters
	logger     *zap.Logger
}

// NewServer constructs a Server with middleware and routes. The sheet
// writer may be nil when no spreadsheet credentials are configured.
// defaults carries the configured run policy (headless mode, page and
// item caps, item delay); requests override only region and headless.
func NewServer(
	ctrl *controller.Controller,
	statusStore *store.StatusStore,
	sheets scraper.SheetWriter,
	clock scraper.Clock,
	defaults scraper.JobParameters,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		controller: ctrl,
		status:     statusStore,
		sheets:     sheets,
		clock:      clock,
		defaults:   defaults,
		logger:     logger,
	}

	metrics.Init()

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(requestTimeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/scrape", s.startScrape)
		r.Post("/scrape/stop", s.stopScrape)
		r.Get("/status", s.getStatus)
		r.Post("/spreadsheet", s.exportSpreadsheet)
		r.Get("/export/csv", s.exportCSV)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(s.logger, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	// The snapshot store and controller are in-memory and always ready.
	writeJSON(s.logger, w, http.StatusOK, map[string]string{"status": "ready"})
}

type scrapeRequest struct {
	Region   string `json:"region"`
	Headless *bool  `json:"headless"`
}

func (s *Server) startScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(s.logger, w, http.StatusBadRequest, "invalid JSON")
		return
	}

	params := s.defaults
	params.Region = req.Region
	if req.Headless != nil {
		params.Headless = *req.Headless
	}

	err := s.controller.Start(params)
	switch {
	case errors.Is(err, scraper.ErrMissingRegion):
		writeError(s.logger, w, http.StatusBadRequest, "region is required")
	case errors.Is(err, scraper.ErrAlreadyRunning):
		writeError(s.logger, w, http.StatusConflict, "a scrape job is already running")
	case err != nil:
		writeError(s.logger, w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(s.logger, w, http.StatusAccepted, map[string]any{
			"success": true,
			"message": fmt.Sprintf("%sの飲食店情報の収集を開始しました", req.Region),
		})
	}
}

func (s *Server) stopScrape(w http.ResponseWriter, _ *http.Request) {
	s.controller.RequestStop()
	writeJSON(s.logger, w, http.StatusAccepted, map[string]any{
		"success": true,
		"message": "停止リクエストを受け付けました",
	})
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.status.Read()
	if dir, ok := parkingSort(r); ok {
		snap.Restaurants = scraper.SortByParking(snap.Restaurants, dir)
	}

	// Pollers must always observe fresh state.
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	writeJSON(s.logger, w, http.StatusOK, snap)
}

type spreadsheetRequest struct {
	Region      string           `json:"region"`
	Restaurants []scraper.Record `json:"restaurants"`
}

func (s *Server) exportSpreadsheet(w http.ResponseWriter, r *http.Request) {
	var req spreadsheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(s.logger, w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Region == "" {
		writeError(s.logger, w, http.StatusBadRequest, "region is required")
		return
	}
	if s.sheets == nil {
		writeJSON(s.logger, w, http.StatusOK, map[string]any{
			"success": false,
			"error":   "スプレッドシート連携が設定されていません",
		})
		return
	}

	records := req.Restaurants
	if len(records) == 0 {
		records = s.status.Read().Restaurants
	}

	count, err := s.sheets.Write(r.Context(), req.Region, records)
	if err != nil {
		s.logger.Error("spreadsheet export failed",
			zap.String("region", req.Region),
			zap.Error(err),
		)
		writeJSON(s.logger, w, http.StatusOK, map[string]any{
			"success": false,
			"message": "スプレッドシートへの保存中にエラーが発生しました",
			"error":   err.Error(),
		})
		return
	}

	writeJSON(s.logger, w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("%sの飲食店情報をスプレッドシートに保存しました", req.Region),
		"count":   count,
	})
}

func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	if region == "" {
		writeError(s.logger, w, http.StatusBadRequest, "region query parameter is required")
		return
	}

	snap := s.status.Read()
	if dir, ok := parkingSort(r); ok {
		snap.Restaurants = scraper.SortByParking(snap.Restaurants, dir)
	}
	filename := csvfile.Filename(region, s.clock.Now())

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename*=UTF-8''%s`, url.PathEscape(filename)))
	w.WriteHeader(http.StatusOK)

	if err := csvfile.Write(w, snap.Restaurants); err != nil {
		s.logger.Error("csv export failed", zap.Error(err))
	}
}

// parkingSort reads the optional ?sort=parking&order=asc|desc parameters.
func parkingSort(r *http.Request) (scraper.SortDirection, bool) {
	if r.URL.Query().Get("sort") != "parking" {
		return "", false
	}
	if r.URL.Query().Get("order") == string(scraper.SortDesc) {
		return scraper.SortDesc, true
	}
	return scraper.SortAsc, true
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("error", rec))
					writeError(logger, w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func writeJSON(logger *zap.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("write JSON failed", zap.Error(err))
	}
}

func writeError(logger *zap.Logger, w http.ResponseWriter, status int, msg string) {
	writeJSON(logger, w, status, map[string]any{"success": false, "error": msg})
}
