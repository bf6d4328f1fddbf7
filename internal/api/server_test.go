package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/pipeline"
	"github.com/dgallion1/docoutline/internal/stats"
)

const testKey = "secret"

func newTestServer(t *testing.T, start bool) (*Server, *pipeline.Orchestrator) {
	t.Helper()
	cfg := config.Config{
		APIKey:         testKey,
		WorkerCount:    2,
		MaxQueueSize:   8,
		MaxUploadBytes: 1 << 20,
		JobTTL:         time.Hour,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := pipeline.NewOrchestrator(cfg, stats.NewBuildStats(time.Hour), log)
	if start {
		orch.Start(context.Background())
		t.Cleanup(orch.Stop)
	}
	return NewServer(orch, log, cfg), orch
}

// uploadRequest builds an authenticated multipart request.
func uploadRequest(t *testing.T, target, field string, files map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range files {
		fw, err := mw.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write([]byte(content))
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func authGet(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, false)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestAuth(t *testing.T) {
	srv, _ := newTestServer(t, false)

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong scheme", "Basic " + testKey},
		{"wrong key", "Bearer nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/stats/build", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
			if decode(t, rec)["error"] == nil {
				t.Error("expected json error body")
			}
		})
	}
}

func TestOutline_JSON(t *testing.T) {
	srv, _ := newTestServer(t, false)
	req := uploadRequest(t, "/api/outline", "file", map[string]string{
		"guide.md": "## Install\n\n## Usage\n\n### Flags\n",
	})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Title   string `json:"title"`
		DocID   string `json:"doc_id"`
		Outline struct {
			Headers    int `json:"headers"`
			StartLevel int `json:"start_level"`
			Entries    []struct {
				Anchor string `json:"anchor"`
			} `json:"entries"`
		} `json:"outline"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Title != "guide" || len(body.DocID) != 16 {
		t.Errorf("unexpected title/doc id %q/%q", body.Title, body.DocID)
	}
	if body.Outline.Headers != 3 || body.Outline.StartLevel != 2 || len(body.Outline.Entries) != 3 {
		t.Errorf("unexpected outline %+v", body.Outline)
	}
	if body.Outline.Entries[0].Anchor != "anchor1" {
		t.Errorf("expected anchor1, got %q", body.Outline.Entries[0].Anchor)
	}
}

func TestOutline_HTMLFormat(t *testing.T) {
	srv, _ := newTestServer(t, false)
	req := uploadRequest(t, "/api/outline?format=html", "file", map[string]string{
		"notes.md": "## A\n\n## B\n",
	})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected html content type, got %q", ct)
	}
	page := rec.Body.String()
	if !strings.Contains(page, `<a href="#anchor2">B</a>`) {
		t.Errorf("expected outline link in page: %s", page)
	}
	if !strings.Contains(page, `<a id="anchor1" name="anchor1"></a>`) {
		t.Errorf("expected anchor target in page: %s", page)
	}
}

func TestOutline_TitleAppliesToPage(t *testing.T) {
	srv, _ := newTestServer(t, false)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "notes.md")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write([]byte("## A\n\n## B\n"))
	mw.WriteField("title", "Release Notes")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/outline?format=html", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testKey)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "<title>Release Notes</title>") {
		t.Errorf("expected requested title in page, got %s", rec.Body.String())
	}
}

func TestOutline_Rejections(t *testing.T) {
	srv, _ := newTestServer(t, false)

	tests := []struct {
		name  string
		field string
		files map[string]string
		code  int
	}{
		{"unsupported type", "file", map[string]string{"sheet.xlsx": "x"}, http.StatusBadRequest},
		{"missing file", "other", map[string]string{"a.md": "x"}, http.StatusBadRequest},
		{"no content root", "file", map[string]string{
			"page.html": `<ul id="contentsList"></ul><h2>A</h2>`,
		}, http.StatusUnprocessableEntity},
		{"too large", "file", map[string]string{"big.txt": strings.Repeat("a", 1<<20+1)}, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, uploadRequest(t, "/api/outline", tt.field, tt.files))
			if rec.Code != tt.code {
				t.Errorf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
		})
	}
}

func waitDone(t *testing.T, orch *pipeline.Orchestrator, id string) pipeline.JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap := orch.GetJob(id).Snapshot()
		if snap.Status == pipeline.StatusCompleted || snap.Status == pipeline.StatusFailed {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return pipeline.JobSnapshot{}
}

func TestJobs_SubmitAndFetch(t *testing.T) {
	srv, orch := newTestServer(t, true)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, "/api/jobs", "file", map[string]string{
		"doc.md": "# One\n\n# Two\n",
	}))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	jobID, _ := body["job_id"].(string)
	if body["poll_url"] != "/api/jobs/"+jobID+"/status" {
		t.Errorf("unexpected poll url %v", body["poll_url"])
	}

	if snap := waitDone(t, orch, jobID); snap.Status != pipeline.StatusCompleted {
		t.Fatalf("expected completed, got %q: %v", snap.Status, snap.Progress.Errors)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authGet("/api/jobs/"+jobID+"/status"))
	if status := decode(t, rec)["status"]; status != "completed" {
		t.Errorf("expected completed status, got %v", status)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authGet("/api/jobs/"+jobID+"/result"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	outline, _ := decode(t, rec)["outline"].(map[string]any)
	if outline["headers"] != float64(2) {
		t.Errorf("expected 2 headers, got %v", outline["headers"])
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authGet("/api/jobs/"+jobID+"/document"))
	if !strings.Contains(rec.Body.String(), `id="contentsList"`) {
		t.Errorf("expected rendered page, got %s", rec.Body.String())
	}
}

func TestJobs_ResultPending(t *testing.T) {
	srv, orch := newTestServer(t, false)
	job := pipeline.NewJob("doc.md", "", []byte("# x"))
	if err := orch.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}

	for _, path := range []string{"/result", "/document"} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, authGet("/api/jobs/"+job.ID+path))
		if rec.Code != http.StatusConflict {
			t.Errorf("%s: expected 409, got %d", path, rec.Code)
		}
	}
}

func TestJobs_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, false)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authGet("/api/jobs/missing/status"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestJobs_Batch(t *testing.T) {
	srv, _ := newTestServer(t, false)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, "/api/jobs/batch", "files", map[string]string{
		"a.md":   "# A",
		"b.txt":  "text",
		"c.xlsx": "nope",
	}))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Jobs []map[string]any `json:"jobs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Jobs) != 3 {
		t.Fatalf("expected 3 results, got %d", len(body.Jobs))
	}
	accepted, rejected := 0, 0
	for _, j := range body.Jobs {
		if _, ok := j["error"]; ok {
			rejected++
		} else {
			accepted++
		}
	}
	if accepted != 2 || rejected != 1 {
		t.Errorf("expected 2 accepted and 1 rejected, got %d/%d", accepted, rejected)
	}
}

func TestBuildStats(t *testing.T) {
	srv, _ := newTestServer(t, false)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(t, "/api/outline", "file", map[string]string{"a.md": "## A\n\n## B\n"}))

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authGet("/api/stats/build"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	st, _ := decode(t, rec)["stats"].(map[string]any)
	if st == nil {
		t.Fatalf("missing stats: %s", rec.Body.String())
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"doc.md", "doc.md"},
		{"../../etc/passwd.md", "passwd.md"},
		{"a..b.md", "a_b.md"},
		{"", "unnamed"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
