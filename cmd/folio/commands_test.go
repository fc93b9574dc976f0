package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server   *httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.mu.Lock()
		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})
		ts.mu.Unlock()

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"message":"not found","type":"not_found_error"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		httpClient: ts.server.Client(),
	}
}

func (ts *testServer) recorded() []recordedRequest {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]recordedRequest(nil), ts.requests...)
}

// runCLI executes rootCmd against ts and returns what went to out.
func runCLI(t *testing.T, ts *testServer, args ...string) (string, error) {
	t.Helper()

	origClient, origOut := newAPIClient, out
	t.Cleanup(func() {
		newAPIClient, out = origClient, origOut
		rootCmd.SetArgs(nil)
	})

	if ts != nil {
		newAPIClient = func() (*apiClient, error) { return ts.client(), nil }
	}
	var buf bytes.Buffer
	out = &buf

	rootCmd.SetArgs(append([]string{"--no-color"}, args...))
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeForm(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "form.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

var ctx = context.Background()

func TestLogin(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/session": `{"admin":true,"userId":"u-admin","token":"jwt-123"}`,
	})

	sess, err := login(ctx, ts.client(), "me@example.com", "pw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Token != "jwt-123" || sess.UserID != "u-admin" {
		t.Errorf("session = %+v", sess)
	}

	reqs := ts.recorded()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	var body map[string]string
	if err := json.Unmarshal([]byte(reqs[0].Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["email"] != "me@example.com" || body["password"] != "pw" {
		t.Errorf("body = %v", body)
	}
}

func TestLogin_Rejected(t *testing.T) {
	ts := newTestServer(t, nil)

	_, err := login(ctx, ts.client(), "me@example.com", "pw")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %q, want server message", err)
	}
}

func TestLoginCommand_MissingArgs(t *testing.T) {
	t.Setenv("FOLIO_ADMIN_PASSWORD", "")

	_, err := runCLI(t, nil, "login")
	if err == nil {
		t.Fatal("expected error for missing args")
	}
	if !strings.Contains(err.Error(), "required") {
		t.Errorf("error = %q, want it to mention 'required'", err.Error())
	}
}

func TestAPIClientAuth(t *testing.T) {
	ts := newTestServer(t, map[string]string{"GET /health": `{"status":"ok"}`})

	c := ts.client()
	resp, err := c.get(ctx, "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	c.token = ""
	resp, err = c.get(ctx, "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	reqs := ts.recorded()
	if reqs[0].Auth != "Bearer test-token" {
		t.Errorf("auth = %q, want Bearer test-token", reqs[0].Auth)
	}
	if reqs[1].Auth != "" {
		t.Errorf("auth without token = %q, want empty", reqs[1].Auth)
	}
}

func TestDecodeJSON_ErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.WriteHeader(http.StatusUnauthorized)
	rec.WriteString(`{"error":{"message":"admin session required","type":"authentication_error"}}`)

	err := decodeJSON(rec.Result(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got != "server returned 401: admin session required" {
		t.Errorf("error = %q", got)
	}
}

func TestDecodeJSON_PlainErrorBody(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.WriteHeader(http.StatusBadGateway)
	rec.WriteString("upstream down")

	err := decodeJSON(rec.Result(), nil)
	if err == nil || !strings.Contains(err.Error(), "upstream down") {
		t.Errorf("error = %v", err)
	}
}

func TestWhoami(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/session": `{"admin":true,"userId":"u-admin"}`,
	})

	got, err := runCLI(t, ts, "whoami")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(got) != "admin u-admin" {
		t.Errorf("output = %q", got)
	}
}

func TestProjectsList(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/portfolio": `{"projects":[{"id":"p-1","title":"Folio"},{"id":"p-2","title":"Tracker"}],"internships":[]}`,
	})

	got, err := runCLI(t, ts, "projects", "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "p-1  Folio\np-2  Tracker\n"
	if got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestInternshipsList_Empty(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/portfolio": `{"projects":[],"internships":[]}`,
	})

	got, err := runCLI(t, ts, "internships", "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(got) != "No internships." {
		t.Errorf("output = %q", got)
	}
}

func TestProjectsAdd_SendsForm(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/projects": `{"id":"p-1700000000000","title":"Folio"}`,
	})
	form := writeForm(t, map[string]string{"title": "Folio", "tags": "Go, HTMX"})

	if _, err := runCLI(t, ts, "projects", "add", "--file", form); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reqs := ts.recorded()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	r := reqs[0]
	if r.Method != http.MethodPost || r.Path != "/api/projects" {
		t.Errorf("request = %s %s", r.Method, r.Path)
	}
	var body map[string]string
	if err := json.Unmarshal([]byte(r.Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["tags"] != "Go, HTMX" {
		t.Errorf("body.tags = %q", body["tags"])
	}
}

func TestInternshipsUpdate_EscapesID(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"PUT /api/internships/int 1": `{"id":"int 1"}`,
	})
	form := writeForm(t, map[string]string{"company": "Acme"})

	if _, err := runCLI(t, ts, "internships", "update", "int 1", "--file", form); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reqs := ts.recorded()
	if len(reqs) != 1 || reqs[0].Path != "/api/internships/int%201" {
		t.Errorf("requests = %+v", reqs)
	}
}

func TestAdd_InvalidJSONFile(t *testing.T) {
	ts := newTestServer(t, nil)
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := runCLI(t, ts, "services", "add", "--file", path)
	if err == nil || !strings.Contains(err.Error(), "not valid JSON") {
		t.Fatalf("error = %v", err)
	}
	if n := len(ts.recorded()); n != 0 {
		t.Errorf("sent %d requests for invalid input", n)
	}
}

func TestPurge_RequiresConfirm(t *testing.T) {
	ts := newTestServer(t, map[string]string{"DELETE /api/services": `{"status":"deleted","count":3}`})

	if _, err := runCLI(t, ts, "services", "purge"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(ts.recorded()); n != 0 {
		t.Errorf("purge without --confirm sent %d requests", n)
	}
}

func TestExport_ToFile(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/projects/export": `[{"id":"p-1","title":"Folio"}]`,
	})
	path := filepath.Join(t.TempDir(), "projects.json")

	if _, err := runCLI(t, ts, "projects", "export", "--output", path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `[{"id":"p-1","title":"Folio"}]` {
		t.Errorf("export = %s", data)
	}
}

func TestSyncFailures_List(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/sync/failures": `[{"id":"f-1","entity":"project","op":"update","targetId":"p-1","error":"backend unavailable","createdAt":"2026-03-01T12:00:00Z"}]`,
	})

	got, err := runCLI(t, ts, "sync", "failures", "--limit", "5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "update project/p-1") || !strings.Contains(got, "backend unavailable") {
		t.Errorf("output = %q", got)
	}
	if reqs := ts.recorded(); reqs[0].Path != "/api/sync/failures?limit=5" {
		t.Errorf("path = %q", reqs[0].Path)
	}
}

func TestReportStatus_Stopped(t *testing.T) {
	ts := newTestServer(t, nil)
	c := ts.client()
	ts.server.Close()

	// Must not panic or block when nothing is listening.
	done := make(chan struct{})
	go func() {
		reportStatus(ctx, c)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("reportStatus blocked")
	}
}

func TestTokenFile_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	if got := loadToken(dir); got != "" {
		t.Errorf("loadToken on missing file = %q", got)
	}
	if err := saveToken(dir, "jwt-abc\n"); err != nil {
		t.Fatal(err)
	}
	if got := loadToken(dir); got != "jwt-abc" {
		t.Errorf("loadToken = %q, want jwt-abc", got)
	}
	info, err := os.Stat(tokenFilePath(dir))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("token file mode = %o, want 600", perm)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCountLabel(t *testing.T) {
	tests := []struct {
		count, limit int
		want         string
	}{
		{0, 100, "0"},
		{42, 100, "42"},
		{100, 100, "100+"},
	}
	for _, tt := range tests {
		if got := countLabel(tt.count, tt.limit); got != tt.want {
			t.Errorf("countLabel(%d, %d) = %q, want %q", tt.count, tt.limit, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("héllo wörld", 5); got != "héllo..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
}
