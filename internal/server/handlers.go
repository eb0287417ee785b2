package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dannythedev/file-archive-overlap-finder/internal/history"
	"github.com/dannythedev/file-archive-overlap-finder/internal/loader"
	"github.com/dannythedev/file-archive-overlap-finder/internal/models"
	"github.com/dannythedev/file-archive-overlap-finder/internal/scan"
	"github.com/dannythedev/file-archive-overlap-finder/internal/watcher"
)

type startScanRequest struct {
	Root      string  `json:"root"`
	Reference string  `json:"reference"`
	Threshold float64 `json:"threshold,omitempty"`
	Workers   int     `json:"workers,omitempty"`
}

func (s *Server) handleStartScan(w http.ResponseWriter, r *http.Request) {
	var req startScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Root == "" || req.Reference == "" {
		s.respondError(w, http.StatusBadRequest, "root and reference are required")
		return
	}
	opts := scan.Options{Threshold: req.Threshold, Workers: req.Workers}
	if opts.Threshold == 0 {
		opts.Threshold = s.config.Scan.Threshold
	}
	if opts.Workers == 0 {
		opts.Workers = s.config.Scan.Workers
	}
	session := scan.NewSession(s.loader, req.Root, req.Reference, opts, scan.WithLogger(s.logger))
	s.manager.Add(session)
	s.logger.Debug("scan request",
		zap.String("id", session.ID()),
		zap.String("root", req.Root),
		zap.String("reference", req.Reference),
	)

	go s.runScan(session)
	s.respondJSON(w, http.StatusAccepted, map[string]string{
		"id":     session.ID(),
		"status": string(models.ScanIdle),
	})
}

// runScan executes a session in the background, with a corpus watcher evicting
// stale cache entries when enabled, and records the outcome in history.
func (s *Server) runScan(session *scan.Session) {
	started := time.Now().UTC()

	if s.config.Watch.Enabled {
		wctx, wcancel := context.WithCancel(context.Background())
		defer wcancel()
		cw := watcher.New(session.Root(), s.loader.Extensions(), session.Index().Invalidate,
			watcher.WithLogger(s.logger))
		if err := cw.Start(wctx); err != nil {
			s.logger.Warn("corpus watcher failed to start", zap.Error(err))
		} else {
			defer cw.Stop()
		}
	}

	report, err := session.Run(nil)
	if err != nil {
		s.logger.Error("scan failed", zap.String("id", session.ID()), zap.Error(err))
		return
	}
	if s.history == nil {
		return
	}
	rec := &history.ScanRecord{
		ID:         session.ID(),
		Root:       report.Root,
		Reference:  report.Reference,
		Status:     report.Status,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Failures:   len(report.Failures),
		Results:    report.Results,
	}
	if err := s.history.SaveScan(context.Background(), rec); err != nil {
		s.logger.Warn("failed to record scan history", zap.String("id", session.ID()), zap.Error(err))
	}
}

func (s *Server) handleScanStatus(w http.ResponseWriter, r *http.Request) {
	session, ok := s.manager.Get(chi.URLParam(r, "id"))
	if !ok {
		s.respondError(w, http.StatusNotFound, "scan not found")
		return
	}
	resp := map[string]interface{}{
		"id":       session.ID(),
		"status":   string(session.Status()),
		"progress": session.Progress(),
	}
	if err := session.Err(); err != nil {
		resp["error"] = err.Error()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleScanResults(w http.ResponseWriter, r *http.Request) {
	session, ok := s.manager.Get(chi.URLParam(r, "id"))
	if !ok {
		s.respondError(w, http.StatusNotFound, "scan not found")
		return
	}
	switch session.Status() {
	case models.ScanIdle, models.ScanScanning:
		s.respondError(w, http.StatusConflict, "scan still running")
		return
	case models.ScanFailed:
		msg := "scan failed"
		if err := session.Err(); err != nil {
			msg = err.Error()
		}
		s.respondError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	s.respondJSON(w, http.StatusOK, session.Report())
}

func (s *Server) handleCancelScan(w http.ResponseWriter, r *http.Request) {
	session, ok := s.manager.Get(chi.URLParam(r, "id"))
	if !ok {
		s.respondError(w, http.StatusNotFound, "scan not found")
		return
	}
	s.logger.Debug("cancel request", zap.String("id", session.ID()))
	session.Cancel()
	s.respondJSON(w, http.StatusAccepted, map[string]string{
		"id":     session.ID(),
		"status": string(session.Status()),
	})
}

type compareRequest struct {
	Reference string `json:"reference"`
	Target    string `json:"target"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Reference == "" || req.Target == "" {
		s.respondError(w, http.StatusBadRequest, "reference and target are required")
		return
	}
	s.logger.Debug("compare request", zap.String("reference", req.Reference), zap.String("target", req.Target))
	report, err := s.aligner.Compare(r.Context(), req.Reference, req.Target)
	if err != nil {
		s.respondError(w, loadErrorStatus(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"reference":  report.RefPath,
		"target":     report.TargetPath,
		"alignments": report.Rows(),
	})
}

// loadErrorStatus maps document load failures to HTTP statuses.
func loadErrorStatus(err error) int {
	switch loader.KindOf(err) {
	case loader.KindUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case loader.KindCorruptFile:
		return http.StatusUnprocessableEntity
	case loader.KindIOError:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.respondError(w, http.StatusNotImplemented, "history not enabled")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	scans, err := s.history.ListScans(r.Context(), limit)
	if err != nil {
		s.logger.Error("history list failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"scans": scans})
}

func (s *Server) handleHistoryGet(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.respondError(w, http.StatusNotImplemented, "history not enabled")
		return
	}
	rec, err := s.history.GetScan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusNotFound, "scan not found")
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
