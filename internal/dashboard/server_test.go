package dashboard_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gramline/internal/config"
	"gramline/internal/dashboard"
	"gramline/internal/history"
	"gramline/internal/library"
	"gramline/internal/logging"
	"gramline/internal/testsupport"
	"gramline/internal/workflow"
)

type stubTrigger struct {
	report *workflow.RunReport
	err    error
	opts   workflow.RunOptions
	calls  int
}

func (s *stubTrigger) Run(_ context.Context, opts workflow.RunOptions) (*workflow.RunReport, error) {
	s.calls++
	s.opts = opts
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func newServer(t *testing.T, cfg *config.Config, ledger *history.Store, trigger dashboard.Trigger) *dashboard.Server {
	t.Helper()
	lib := library.New(cfg.Paths.ContentDir, cfg.Workflow.ImageExtensions)
	srv, err := dashboard.New(cfg, lib, ledger, trigger, logging.NewNop())
	if err != nil {
		t.Fatalf("dashboard.New: %v", err)
	}
	return srv
}

func TestStatsEndpoint(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.SeedMonth(t, cfg.Paths.ContentDir, 3, []string{"march"}, []string{"a.jpg", "b.jpg"})
	postedDir := testsupport.SeedMonth(t, cfg.Paths.ContentDir, 7, []string{"july"}, []string{"c.jpg"})
	postedAt := time.Date(2025, time.July, 1, 12, 0, 0, 0, time.UTC)
	testsupport.MarkPosted(t, postedDir, postedAt)

	srv := newServer(t, cfg, nil, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp dashboard.StatsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Months) != 2 {
		t.Fatalf("months = %d, want 2", len(resp.Months))
	}

	march := resp.Months[0]
	if march.Month != 3 || march.Name != "March" || march.Images != 2 || march.Captions != 1 {
		t.Fatalf("march = %+v", march)
	}
	if march.Posted || march.PostsAvailable != 2 {
		t.Fatalf("march availability = %+v", march)
	}

	july := resp.Months[1]
	if !july.Posted || july.PostsUsed != 1 || july.PostsAvailable != 0 {
		t.Fatalf("july = %+v", july)
	}
	if july.LastPost != postedAt.Format(time.RFC3339) {
		t.Fatalf("july last_post = %q", july.LastPost)
	}
}

func TestStatsMonthFilter(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.SeedMonth(t, cfg.Paths.ContentDir, 3, []string{"march"}, []string{"a.jpg"})
	testsupport.SeedMonth(t, cfg.Paths.ContentDir, 7, []string{"july"}, []string{"b.jpg"})

	srv := newServer(t, cfg, nil, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats?month=7", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp dashboard.StatsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Months) != 1 || resp.Months[0].Month != 7 {
		t.Fatalf("months = %+v, want only month 7", resp.Months)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats?month=5", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing month status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats?month=13", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("out-of-range month status = %d, want 400", rec.Code)
	}
}

func TestStatsUsesLedgerWhenPresent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := testsupport.SeedMonth(t, cfg.Paths.ContentDir, 2, []string{"feb"}, []string{"a.jpg"})
	testsupport.MarkPosted(t, dir, time.Now())

	ledger, err := history.OpenPath(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	defer ledger.Close()
	postedAt := time.Date(2025, time.February, 14, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		if _, err := ledger.RecordPost(context.Background(), history.Post{Month: 2, Image: "a.jpg", Caption: "feb", PostedAt: postedAt}); err != nil {
			t.Fatalf("RecordPost: %v", err)
		}
	}

	srv := newServer(t, cfg, ledger, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	var resp dashboard.StatsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Months[0].PostsUsed != 2 {
		t.Fatalf("posts_used = %d, want 2", resp.Months[0].PostsUsed)
	}
	if resp.LastPost != postedAt.Format(time.RFC3339) {
		t.Fatalf("last_post = %q", resp.LastPost)
	}
}

func TestPostTrigger(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	trigger := &stubTrigger{report: &workflow.RunReport{
		RunID:   "run-1",
		Results: []workflow.MonthResult{{Month: 4, Outcome: workflow.OutcomePublished, Image: "a.jpg"}},
	}}

	srv := newServer(t, cfg, nil, trigger)
	body := strings.NewReader(`{"month":4,"force":true}`)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/post", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if trigger.calls != 1 || trigger.opts.Month != 4 || !trigger.opts.Force {
		t.Fatalf("trigger opts = %+v calls = %d", trigger.opts, trigger.calls)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["run_id"] != "run-1" || resp["published"].(float64) != 1 {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestPostTriggerValidatesMonth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srv := newServer(t, cfg, nil, &stubTrigger{report: &workflow.RunReport{}})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/post", strings.NewReader(`{"month":13}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestImageUpload(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srv := newServer(t, cfg, nil, nil)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "sunset.webp")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("image-bytes")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/months/5/images", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	data, err := os.ReadFile(filepath.Join(cfg.Paths.ContentDir, "5", "sunset.webp"))
	if err != nil {
		t.Fatalf("read uploaded file: %v", err)
	}
	if string(data) != "image-bytes" {
		t.Fatalf("uploaded bytes = %q", data)
	}
}

func TestImageUploadRejectsUnsupportedType(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srv := newServer(t, cfg, nil, nil)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, _ := writer.CreateFormFile("file", "malware.exe")
	_, _ = part.Write([]byte("nope"))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/months/5/images", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestBearerAuthRequired(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIToken = "secret-token"
	srv := newServer(t, cfg, nil, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status with token = %d, want 200", rec.Code)
	}
}

func TestStaticUIIsServed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srv := newServer(t, cfg, nil, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Gramline") {
		t.Fatalf("index.html not served: %q", rec.Body.String()[:min(80, rec.Body.Len())])
	}
}
