package controlplane

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ainick2469-sudo/AIOffice-sub002/pkg/client"
	"github.com/ainick2469-sudo/AIOffice-sub002/pkg/models"
)

// recordingServer is a fake backend that records request lines in order.
type recordingServer struct {
	mu       sync.Mutex
	requests []string
	srv      *httptest.Server
}

func newRecordingServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *recordingServer {
	t.Helper()
	rs := &recordingServer{}
	rs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		rs.requests = append(rs.requests, r.Method+" "+r.URL.String())
		rs.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(rs.srv.Close)
	return rs
}

func (rs *recordingServer) Requests() []string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := make([]string, len(rs.requests))
	copy(out, rs.requests)
	return out
}

// stubConfirmer records prompts and answers a fixed way.
type stubConfirmer struct {
	answer  bool
	prompts []string
}

func (s *stubConfirmer) Confirm(prompt string) bool {
	s.prompts = append(s.prompts, prompt)
	return s.answer
}

type statusRecorder struct {
	mu   sync.Mutex
	msgs []string
}

func (s *statusRecorder) fn() StatusFunc {
	return func(msg string) {
		s.mu.Lock()
		s.msgs = append(s.msgs, msg)
		s.mu.Unlock()
	}
}

func (s *statusRecorder) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.msgs) == 0 {
		return ""
	}
	return s.msgs[len(s.msgs)-1]
}

func (s *statusRecorder) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.msgs))
	copy(out, s.msgs)
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestCreate_normalisesName(t *testing.T) {
	var gotName string
	rs := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/projects":
			if r.Method == http.MethodPost {
				var body map[string]string
				_ = json.NewDecoder(r.Body).Decode(&body)
				gotName = body["name"]
				writeJSON(w, models.Project{Name: body["name"]})
				return
			}
			writeJSON(w, map[string]any{"projects": []models.Project{}})
		}
	})

	r := &Registry{Client: client.New(rs.srv.URL, ""), Session: NewSession("main")}
	if err := r.Create(context.Background(), "  My-App ", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if gotName != "my-app" {
		t.Errorf("dispatched name: %q", gotName)
	}
}

func TestCreate_rejectsInvalidBeforeDispatch(t *testing.T) {
	rs := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	r := &Registry{Client: client.New(rs.srv.URL, ""), Session: NewSession("main")}

	if err := r.Create(context.Background(), "   ", ""); err == nil {
		t.Error("empty name: expected error")
	}
	if err := r.Create(context.Background(), "-bad", ""); err == nil {
		t.Error("leading dash: expected error")
	}
	if err := r.Create(context.Background(), "ok-name", "java"); err == nil {
		t.Error("unknown template: expected error")
	}
	if n := len(rs.Requests()); n != 0 {
		t.Errorf("requests issued: %d", n)
	}
}

// S1: switch cascade targets the new project, in order.
func TestSwitchTo_cascade(t *testing.T) {
	rs := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/projects/switch":
			writeJSON(w, map[string]any{"active": models.ActiveProjectBinding{
				Channel: "main", Project: "alpha", Branch: "main", Path: "/srv/alpha",
			}})
		case r.URL.Path == "/api/projects/alpha/build-config":
			writeJSON(w, models.BuildConfig{BuildCmd: "make"})
		case r.URL.Path == "/api/projects/alpha/autonomy-mode":
			writeJSON(w, map[string]string{"mode": "TRUSTED"})
		case r.URL.Path == "/api/projects/alpha/branches":
			writeJSON(w, models.BranchSet{Branches: []string{"main"}, ActiveBranch: "main"})
		default:
			http.NotFound(w, r)
		}
	})

	session := NewSession("main")
	cl := client.New(rs.srv.URL, "")
	reg := &Registry{Client: cl, Session: session}
	build := &Build{Client: cl, Session: session}
	sup := &Supervisor{Client: cl, Session: session}
	branches := &Branches{Client: cl, Session: session}
	reg.BindCascade(
		func(ctx context.Context, _ string) { _ = build.LoadConfig(ctx) },
		func(ctx context.Context, _ string) { _ = sup.LoadAutonomy(ctx) },
		func(ctx context.Context, _ string) { _ = branches.Load(ctx) },
	)

	if err := reg.SwitchTo(context.Background(), "alpha"); err != nil {
		t.Fatalf("SwitchTo: %v", err)
	}

	want := []string{
		"POST /api/projects/switch",
		"GET /api/projects/alpha/build-config",
		"GET /api/projects/alpha/autonomy-mode",
		"GET /api/projects/alpha/branches?channel=main",
	}
	got := rs.Requests()
	if len(got) != len(want) {
		t.Fatalf("requests: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("request %d: got %q want %q", i, got[i], want[i])
		}
	}

	active := session.Active()
	if active.Project != "alpha" || active.Branch != "main" {
		t.Errorf("active binding: %+v", active)
	}
	if session.Autonomy() != "TRUSTED" {
		t.Errorf("autonomy: %q", session.Autonomy())
	}
	if build.Config().BuildCmd != "make" {
		t.Errorf("build config: %+v", build.Config())
	}
}

// A failing cascade reload owns the final status line; the switch
// confirmation is written first.
func TestSwitchTo_cascadeFailureWinsStatus(t *testing.T) {
	rs := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/projects/switch":
			writeJSON(w, map[string]any{"active": models.ActiveProjectBinding{
				Channel: "main", Project: "alpha", Branch: "main",
			}})
		case "/api/projects/alpha/build-config":
			w.WriteHeader(http.StatusInternalServerError)
			writeJSON(w, map[string]string{"detail": "config store down"})
		default:
			http.NotFound(w, r)
		}
	})

	session := NewSession("main")
	cl := client.New(rs.srv.URL, "")
	status := &statusRecorder{}
	reg := &Registry{Client: cl, Session: session, Status: status.fn()}
	build := &Build{Client: cl, Session: session, Status: status.fn()}
	reg.BindCascade(func(ctx context.Context, _ string) { _ = build.LoadConfig(ctx) })

	if err := reg.SwitchTo(context.Background(), "alpha"); err != nil {
		t.Fatalf("SwitchTo: %v", err)
	}
	if status.last() != "config store down" {
		t.Errorf("final status: %q", status.last())
	}
	all := status.all()
	if len(all) != 2 || all[0] != "Switched to alpha" {
		t.Errorf("status sequence: %v", all)
	}
}

// S2: two HTTP calls iff the first response requires confirmation.
func TestDelete_twoStep(t *testing.T) {
	var deletes []string
	rs := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			deletes = append(deletes, r.URL.String())
			if r.URL.Query().Get("confirm_token") == "" {
				writeJSON(w, models.DeleteReceipt{RequiresConfirmation: true, ConfirmToken: "abc"})
			} else {
				writeJSON(w, map[string]any{})
			}
			return
		}
		writeJSON(w, map[string]any{"projects": []models.Project{}})
	})

	confirm := &stubConfirmer{answer: true}
	r := &Registry{Client: client.New(rs.srv.URL, ""), Session: NewSession("main"), Confirm: confirm}
	outcome, err := r.Delete(context.Background(), "beta")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if outcome != DeleteDone {
		t.Errorf("outcome: %v", outcome)
	}
	if len(deletes) != 2 {
		t.Fatalf("delete calls: %v", deletes)
	}
	if deletes[0] != "/api/projects/beta" || deletes[1] != "/api/projects/beta?confirm_token=abc" {
		t.Errorf("delete calls: %v", deletes)
	}
	// Project list reloaded after delete.
	reqs := rs.Requests()
	if reqs[len(reqs)-1] != "GET /api/projects" {
		t.Errorf("last request: %q", reqs[len(reqs)-1])
	}
}

func TestDelete_singleCallWhenNoConfirmation(t *testing.T) {
	deletes := 0
	rs := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			deletes++
			writeJSON(w, models.DeleteReceipt{RequiresConfirmation: false})
			return
		}
		writeJSON(w, map[string]any{"projects": []models.Project{}})
	})

	r := &Registry{Client: client.New(rs.srv.URL, ""), Session: NewSession("main"), Confirm: &stubConfirmer{answer: true}}
	if _, err := r.Delete(context.Background(), "beta"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deletes != 1 {
		t.Errorf("delete calls: %d", deletes)
	}
}

func TestDelete_declinedIsSilentNoop(t *testing.T) {
	rs := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	status := &statusRecorder{}
	r := &Registry{Client: client.New(rs.srv.URL, ""), Session: NewSession("main"), Confirm: &stubConfirmer{answer: false}, Status: status.fn()}
	outcome, err := r.Delete(context.Background(), "beta")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if outcome != DeleteAborted {
		t.Errorf("outcome: %v", outcome)
	}
	if len(status.all()) != 0 {
		t.Errorf("status set on decline: %v", status.all())
	}
}

func TestList_failureKeepsPreviousList(t *testing.T) {
	fail := false
	rs := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			writeJSON(w, map[string]string{"detail": "boom"})
			return
		}
		writeJSON(w, map[string]any{"projects": []models.Project{{Name: "ai-office"}}})
	})

	status := &statusRecorder{}
	r := &Registry{Client: client.New(rs.srv.URL, ""), Session: NewSession("main"), Status: status.fn()}
	if _, err := r.List(context.Background()); err != nil {
		t.Fatalf("List: %v", err)
	}
	fail = true
	if _, err := r.List(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if status.last() != "Failed to load projects" {
		t.Errorf("status: %q", status.last())
	}
	if got := r.Projects(); len(got) != 1 || got[0].Name != "ai-office" {
		t.Errorf("previous list lost: %v", got)
	}
}

func TestLoadActive_failureFallsBackToDefault(t *testing.T) {
	rs := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	session := NewSession("main")
	r := &Registry{Client: client.New(rs.srv.URL, ""), Session: session}
	b := r.LoadActive(context.Background())
	if b.Project != models.DefaultProject || b.Branch != models.DefaultBranch {
		t.Errorf("binding: %+v", b)
	}
	if !r.Stale() {
		t.Error("expected stale after failed fetch")
	}
}

func TestSwitchTo_serverDetailSurfaced(t *testing.T) {
	rs := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]string{"detail": "no such project"})
	})
	status := &statusRecorder{}
	r := &Registry{Client: client.New(rs.srv.URL, ""), Session: NewSession("main"), Status: status.fn()}
	if err := r.SwitchTo(context.Background(), "ghost"); err == nil {
		t.Fatal("expected error")
	}
	if status.last() != "no such project" {
		t.Errorf("status: %q", status.last())
	}
}

func TestSwitchTo_transportFailureGenericMessage(t *testing.T) {
	session := NewSession("main")
	status := &statusRecorder{}
	// Unroutable server: transport error, not an API detail.
	r := &Registry{Client: client.New("http://127.0.0.1:1", ""), Session: session, Status: status.fn()}
	if err := r.SwitchTo(context.Background(), "alpha"); err == nil {
		t.Fatal("expected error")
	}
	if status.last() != "Failed to switch project." {
		t.Errorf("status: %q", status.last())
	}
	if session.Active().Project != models.DefaultProject {
		t.Errorf("binding clobbered: %+v", session.Active())
	}
}

func TestNormalizeName(t *testing.T) {
	if got := NormalizeName("  Some-Name "); got != "some-name" {
		t.Errorf("NormalizeName: %q", got)
	}
	if !strings.HasPrefix(NormalizeName("X"), "x") {
		t.Error("NormalizeName: lowercase")
	}
}
