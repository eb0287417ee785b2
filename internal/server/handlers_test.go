package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dannythedev/file-archive-overlap-finder/internal/config"
	"github.com/dannythedev/file-archive-overlap-finder/internal/history"
	"github.com/dannythedev/file-archive-overlap-finder/internal/loader"
	"github.com/dannythedev/file-archive-overlap-finder/internal/models"
	"github.com/dannythedev/file-archive-overlap-finder/internal/scan"
	"github.com/dannythedev/file-archive-overlap-finder/internal/structural"
)

func newTestServer(t *testing.T, store history.Store) *Server {
	t.Helper()
	l := loader.NewLoader()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return NewServer(l, structural.NewAligner(l), scan.NewManager(), store, cfg, zap.NewNop())
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func doJSON(t *testing.T, srv *Server, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	r := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, r)
	return w
}

// waitForResults polls the results endpoint until the scan finishes.
func waitForResults(t *testing.T, srv *Server, id string) *httptest.ResponseRecorder {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		w := doJSON(t, srv, http.MethodGet, "/api/v1/scans/"+id+"/results", nil)
		if w.Code != http.StatusConflict {
			return w
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("scan did not finish in time")
	return nil
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	w := doJSON(t, srv, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
}

func TestScanLifecycle(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "ref.txt", "alpha beta gamma delta epsilon")
	writeFile(t, dir, "near.txt", "alpha beta gamma delta zeta")
	writeFile(t, dir, "far.txt", "completely unrelated words here")

	srv := newTestServer(t, nil)
	w := doJSON(t, srv, http.MethodPost, "/api/v1/scans", startScanRequest{Root: dir, Reference: ref})
	if w.Code != http.StatusAccepted {
		t.Fatalf("start scan: got %d, body %s", w.Code, w.Body.String())
	}
	var started struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(w.Body).Decode(&started); err != nil {
		t.Fatal(err)
	}
	if started.ID == "" {
		t.Fatal("empty scan id")
	}

	w = waitForResults(t, srv, started.ID)
	if w.Code != http.StatusOK {
		t.Fatalf("results: got %d, body %s", w.Code, w.Body.String())
	}
	var report models.ScanReport
	if err := json.NewDecoder(w.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if report.Status != models.ScanCompleted {
		t.Errorf("status = %s", report.Status)
	}
	for _, res := range report.Results {
		if res.FileName == "ref.txt" {
			t.Error("reference file should be excluded from results")
		}
	}
	if len(report.Results) == 0 || report.Results[0].FileName != "near.txt" {
		t.Errorf("expected near.txt ranked first, got %+v", report.Results)
	}

	w = doJSON(t, srv, http.MethodGet, "/api/v1/scans/"+started.ID, nil)
	if w.Code != http.StatusOK {
		t.Errorf("status endpoint: got %d", w.Code)
	}
	var status struct {
		Status   string          `json:"status"`
		Progress models.Progress `json:"progress"`
	}
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.Status != string(models.ScanCompleted) {
		t.Errorf("status = %s", status.Status)
	}
	if status.Progress.Processed != 2 {
		t.Errorf("processed = %d, want 2", status.Progress.Processed)
	}
}

func TestScanResultsWhileRunningConflict(t *testing.T) {
	// An Idle session that never runs stays in conflict.
	srv := newTestServer(t, nil)
	session := scan.NewSession(srv.loader, t.TempDir(), "ref.txt", scan.Options{})
	srv.manager.Add(session)
	w := doJSON(t, srv, http.MethodGet, "/api/v1/scans/"+session.ID()+"/results", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("got %d, want 409", w.Code)
	}
}

func TestScanNotFound(t *testing.T) {
	srv := newTestServer(t, nil)
	for _, req := range []struct{ method, target string }{
		{http.MethodGet, "/api/v1/scans/nope"},
		{http.MethodGet, "/api/v1/scans/nope/results"},
		{http.MethodDelete, "/api/v1/scans/nope"},
	} {
		w := doJSON(t, srv, req.method, req.target, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s %s: got %d, want 404", req.method, req.target, w.Code)
		}
	}
}

func TestStartScanValidation(t *testing.T) {
	srv := newTestServer(t, nil)
	w := doJSON(t, srv, http.MethodPost, "/api/v1/scans", map[string]string{"root": ""})
	if w.Code != http.StatusBadRequest {
		t.Errorf("got %d, want 400", w.Code)
	}
}

func TestCancelScan(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "ref.txt", "alpha beta gamma")
	srv := newTestServer(t, nil)
	session := scan.NewSession(srv.loader, dir, ref, scan.Options{})
	srv.manager.Add(session)

	w := doJSON(t, srv, http.MethodDelete, "/api/v1/scans/"+session.ID(), nil)
	if w.Code != http.StatusAccepted {
		t.Errorf("got %d, want 202", w.Code)
	}
}

func TestHandleCompare(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "ref.txt", "First paragraph here.\n\nSecond paragraph here.")
	target := writeFile(t, dir, "target.txt", "First paragraph here.\n\nSomething else entirely.")

	srv := newTestServer(t, nil)
	w := doJSON(t, srv, http.MethodPost, "/api/v1/compare", compareRequest{Reference: ref, Target: target})
	if w.Code != http.StatusOK {
		t.Fatalf("got %d, body %s", w.Code, w.Body.String())
	}
	var out struct {
		Alignments []models.AlignmentRow `json:"alignments"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Alignments) != 2 {
		t.Fatalf("alignments = %d, want 2", len(out.Alignments))
	}
	if out.Alignments[0].Score != 100.0 {
		t.Errorf("first alignment score = %v, want 100", out.Alignments[0].Score)
	}
}

func TestHandleCompareErrors(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "ref.txt", "some text")
	image := writeFile(t, dir, "pic.png", "not text")

	srv := newTestServer(t, nil)
	tests := []struct {
		name string
		req  compareRequest
		want int
	}{
		{"missing target", compareRequest{Reference: ref, Target: filepath.Join(dir, "nope.txt")}, http.StatusNotFound},
		{"unsupported format", compareRequest{Reference: ref, Target: image}, http.StatusUnsupportedMediaType},
		{"empty fields", compareRequest{}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, srv, http.MethodPost, "/api/v1/compare", tt.req)
			if w.Code != tt.want {
				t.Errorf("got %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestHistoryDisabled(t *testing.T) {
	srv := newTestServer(t, nil)
	w := doJSON(t, srv, http.MethodGet, "/api/v1/history", nil)
	if w.Code != http.StatusNotImplemented {
		t.Errorf("got %d, want 501", w.Code)
	}
}

func TestHistoryRecordsCompletedScan(t *testing.T) {
	store, err := history.NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	dir := t.TempDir()
	ref := writeFile(t, dir, "ref.txt", "alpha beta gamma delta")
	writeFile(t, dir, "copy.txt", "alpha beta gamma delta")

	srv := newTestServer(t, store)
	w := doJSON(t, srv, http.MethodPost, "/api/v1/scans", startScanRequest{Root: dir, Reference: ref})
	if w.Code != http.StatusAccepted {
		t.Fatal(w.Code)
	}
	var started struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(w.Body).Decode(&started); err != nil {
		t.Fatal(err)
	}
	waitForResults(t, srv, started.ID)

	// History write happens after Run returns; give it a moment.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		w = doJSON(t, srv, http.MethodGet, "/api/v1/history/"+started.ID, nil)
		if w.Code == http.StatusOK {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if w.Code != http.StatusOK {
		t.Fatalf("history get: got %d", w.Code)
	}
	var rec history.ScanRecord
	if err := json.NewDecoder(w.Body).Decode(&rec); err != nil {
		t.Fatal(err)
	}
	if rec.Status != models.ScanCompleted || len(rec.Results) != 1 {
		t.Errorf("record = %+v", rec)
	}

	w = doJSON(t, srv, http.MethodGet, "/api/v1/history", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history list: got %d", w.Code)
	}
}
