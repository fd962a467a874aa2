package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ainick2469-sudo/AIOffice-sub002/pkg/models"
)

func TestNew(t *testing.T) {
	c := New("http://localhost:4820", "")
	if c.BaseURL != "http://localhost:4820" || c.APIKey != "" {
		t.Errorf("New: %+v", c)
	}
	c2 := New("http://localhost:4820", "secret")
	if c2.APIKey != "secret" {
		t.Errorf("New with key: %+v", c2)
	}
}

func TestListProjects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/projects" {
			t.Errorf("path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"projects":[{"name":"ai-office","branch":"main"},{"name":"alpha"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	projects, err := c.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != 2 || projects[0].Name != "ai-office" || projects[1].Name != "alpha" {
		t.Errorf("projects: %+v", projects)
	}
}

func TestErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"detail":"project exists"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	_, err := c.CreateProject(context.Background(), "alpha", "")
	if err == nil {
		t.Fatal("expected error from 409")
	}
	if err.Error() != "project exists" {
		t.Errorf("detail: %q", err.Error())
	}
}

func TestErrorFallbackField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad branch"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	_, err := c.MergePreview(context.Background(), "alpha", "a", "b")
	if err == nil {
		t.Fatal("expected error from 400")
	}
	if err.Error() != "bad branch" {
		t.Errorf("error field: %q", err.Error())
	}
}

func TestErrorStatusOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	_, err := c.ListProjects(context.Background())
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Status != http.StatusBadGateway {
		t.Errorf("status: %d", apiErr.Status)
	}
}

func TestConfirmDeleteProject_encodesToken(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	if err := c.ConfirmDeleteProject(context.Background(), "beta", "a+b/c"); err != nil {
		t.Fatalf("ConfirmDeleteProject: %v", err)
	}
	if gotQuery != "confirm_token=a%2Bb%2Fc" {
		t.Errorf("query: %q", gotQuery)
	}
}

func TestListProcesses_includeLogs(t *testing.T) {
	var gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		w.Write([]byte(`{"processes":[{"id":"p1","command":"npm start","status":"running","pid":42,"logs":["a","b"]}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	procs, err := c.ListProcesses(context.Background(), "main", true)
	if err != nil {
		t.Fatalf("ListProcesses: %v", err)
	}
	if gotURL != "/api/process/list/main?include_logs=true" {
		t.Errorf("url: %s", gotURL)
	}
	if len(procs) != 1 || len(procs[0].Logs) != 2 {
		t.Errorf("processes: %+v", procs)
	}

	_, _ = c.ListProcesses(context.Background(), "main", false)
	if gotURL != "/api/process/list/main" {
		t.Errorf("url without logs: %s", gotURL)
	}
}

func TestConsoleEvents_filters(t *testing.T) {
	var gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		w.Write([]byte(`[{"id":"e1","source":"builder","event_type":"stage","created_at":"2026-01-01T00:00:00Z"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	events, err := c.ConsoleEvents(context.Background(), "main", 200, "stage", "")
	if err != nil {
		t.Fatalf("ConsoleEvents: %v", err)
	}
	if gotURL != "/api/console/events/main?event_type=stage&limit=200" {
		t.Errorf("url: %s", gotURL)
	}
	if len(events) != 1 || events[0].ID != "e1" {
		t.Errorf("events: %+v", events)
	}

	_, _ = c.ConsoleEvents(context.Background(), "main", 0, "", "")
	if gotURL != "/api/console/events/main" {
		t.Errorf("url without filters: %s", gotURL)
	}
}

func TestGetBuildConfig_wrappedAndBare(t *testing.T) {
	body := `{"config":{"build_cmd":"make","test_cmd":"make test","run_cmd":""}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	cfg, err := c.GetBuildConfig(context.Background(), "alpha")
	if err != nil {
		t.Fatalf("GetBuildConfig: %v", err)
	}
	if cfg.BuildCmd != "make" || cfg.TestCmd != "make test" || cfg.RunCmd != "" {
		t.Errorf("wrapped config: %+v", cfg)
	}

	body = `{"build_cmd":"go build","test_cmd":"","run_cmd":"./app"}`
	cfg, err = c.GetBuildConfig(context.Background(), "alpha")
	if err != nil {
		t.Fatalf("GetBuildConfig bare: %v", err)
	}
	if cfg.BuildCmd != "go build" || cfg.RunCmd != "./app" {
		t.Errorf("bare config: %+v", cfg)
	}
}

func TestRunStage_rejectsUnknown(t *testing.T) {
	c := New("http://localhost:4820", "")
	if _, err := c.RunStage(context.Background(), "alpha", "deploy"); err == nil {
		t.Fatal("expected error for unknown stage")
	}
}

func TestClient_setsHeaders(t *testing.T) {
	var gotKey, gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		gotReqID = r.Header.Get("X-Request-ID")
		w.Write([]byte(`{"projects":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "mykey")
	_, _ = c.ListProjects(context.Background())
	if gotKey != "mykey" {
		t.Errorf("X-API-Key: got %q", gotKey)
	}
	if gotReqID == "" {
		t.Error("X-Request-ID not set")
	}
}

func TestKillSwitch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/process/kill-switch" || r.Method != http.MethodPost {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"autonomy_mode":"SAFE","stopped_count":3}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	res, err := c.KillSwitch(context.Background(), "main")
	if err != nil {
		t.Fatalf("KillSwitch: %v", err)
	}
	if res.AutonomyMode != models.AutonomySafe || res.StoppedCount != 3 {
		t.Errorf("result: %+v", res)
	}
}

func TestDebugBundle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		w.Write([]byte("PK\x03\x04bundle"))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	b, err := c.DebugBundle(context.Background(), models.DebugBundleRequest{Channel: "main", Minutes: 30, RedactSecrets: true})
	if err != nil {
		t.Fatalf("DebugBundle: %v", err)
	}
	if string(b[:2]) != "PK" {
		t.Errorf("bundle bytes: %q", b)
	}
}
