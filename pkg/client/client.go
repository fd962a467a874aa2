// Package client provides a Go SDK for the AI Office control-plane HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/ainick2469-sudo/AIOffice-sub002/pkg/models"
)

// Client calls the AI Office HTTP API. It is safe for concurrent use.
type Client struct {
	BaseURL    string       // e.g. "http://localhost:4820"
	APIKey     string       // optional; set for X-API-Key
	HTTPClient *http.Client // optional; nil uses http.DefaultClient
}

// New returns a client for the given base URL (e.g. "http://localhost:4820").
// APIKey is optional; when set, requests carry an X-API-Key header.
func New(baseURL, apiKey string) *Client {
	return &Client{BaseURL: baseURL, APIKey: apiKey}
}

// APIError is a non-2xx response. The server reports either {detail} or
// {error}; both are accepted and Detail holds whichever was present.
type APIError struct {
	Status int
	Detail string
	Method string
	Path   string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("api %s %s: status %d", e.Method, e.Path, e.Status)
}

func (c *Client) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(b)
	}
	u := c.BaseURL + "/api" + path
	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}
	return c.client().Do(req)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Detail string `json:"detail"`
			Error  string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		detail := errBody.Detail
		if detail == "" {
			detail = errBody.Error
		}
		return &APIError{Status: resp.StatusCode, Detail: detail, Method: method, Path: path}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// ListProjects returns all projects in server order.
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var out struct {
		Projects []models.Project `json:"projects"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/projects", nil, &out)
	return out.Projects, err
}

// CreateProject creates a project. Template may be empty or one of
// react, python, rust.
func (c *Client) CreateProject(ctx context.Context, name, template string) (*models.Project, error) {
	body := map[string]string{"name": name}
	if template != "" {
		body["template"] = template
	}
	var out models.Project
	err := c.doJSON(ctx, http.MethodPost, "/projects", body, &out)
	return &out, err
}

// ActiveProject returns the active project binding for a channel.
func (c *Client) ActiveProject(ctx context.Context, channel string) (*models.ActiveProjectBinding, error) {
	var out models.ActiveProjectBinding
	err := c.doJSON(ctx, http.MethodGet, "/projects/active/"+url.PathEscape(channel), nil, &out)
	return &out, err
}

// SwitchProject makes name the channel's active project and returns the new binding.
func (c *Client) SwitchProject(ctx context.Context, channel, name string) (*models.ActiveProjectBinding, error) {
	var out struct {
		Active models.ActiveProjectBinding `json:"active"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/projects/switch", map[string]string{
		"channel": channel, "name": name,
	}, &out)
	return &out.Active, err
}

// DeleteProject issues the first call of a two-step delete. When the receipt
// carries requires_confirmation, finish with ConfirmDeleteProject.
func (c *Client) DeleteProject(ctx context.Context, name string) (*models.DeleteReceipt, error) {
	var out models.DeleteReceipt
	err := c.doJSON(ctx, http.MethodDelete, "/projects/"+url.PathEscape(name), nil, &out)
	return &out, err
}

// ConfirmDeleteProject completes a two-step delete with the server-issued token.
func (c *Client) ConfirmDeleteProject(ctx context.Context, name, confirmToken string) error {
	path := "/projects/" + url.PathEscape(name) + "?confirm_token=" + url.QueryEscape(confirmToken)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// ListBranches returns the branch set of a project as seen from a channel.
func (c *Client) ListBranches(ctx context.Context, project, channel string) (*models.BranchSet, error) {
	path := "/projects/" + url.PathEscape(project) + "/branches?channel=" + url.QueryEscape(channel)
	var out models.BranchSet
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return &out, err
}

// SwitchBranchResult is the response to a branch switch; the server returns
// either a full binding or just the branch name.
type SwitchBranchResult struct {
	Active *models.ActiveProjectBinding `json:"active,omitempty"`
	Branch string                       `json:"branch,omitempty"`
}

// SwitchBranch checks out branch in the project, creating it when createIfMissing.
func (c *Client) SwitchBranch(ctx context.Context, project, channel, branch string, createIfMissing bool) (*SwitchBranchResult, error) {
	var out SwitchBranchResult
	err := c.doJSON(ctx, http.MethodPost, "/projects/"+url.PathEscape(project)+"/branches/switch", map[string]any{
		"channel": channel, "branch": branch, "create_if_missing": createIfMissing,
	}, &out)
	return &out, err
}

// MergePreview computes a dry-run merge of source into target. Pure: no server
// state changes.
func (c *Client) MergePreview(ctx context.Context, project, source, target string) (*models.MergeOutcome, error) {
	var out models.MergeOutcome
	err := c.doJSON(ctx, http.MethodPost, "/projects/"+url.PathEscape(project)+"/merge-preview", map[string]string{
		"source_branch": source, "target_branch": target,
	}, &out)
	return &out, err
}

// MergeApply merges source into target. The server mutates only on a clean merge.
func (c *Client) MergeApply(ctx context.Context, project, source, target string) (*models.MergeOutcome, error) {
	var out models.MergeOutcome
	err := c.doJSON(ctx, http.MethodPost, "/projects/"+url.PathEscape(project)+"/merge-apply", map[string]string{
		"source_branch": source, "target_branch": target,
	}, &out)
	return &out, err
}

// GetBuildConfig returns a project's build/test/run commands.
func (c *Client) GetBuildConfig(ctx context.Context, project string) (*models.BuildConfig, error) {
	var out struct {
		Config *models.BuildConfig `json:"config"`
		models.BuildConfig
	}
	err := c.doJSON(ctx, http.MethodGet, "/projects/"+url.PathEscape(project)+"/build-config", nil, &out)
	if err != nil {
		return nil, err
	}
	if out.Config != nil {
		return out.Config, nil
	}
	return &out.BuildConfig, nil
}

// PutBuildConfig persists a project's build/test/run commands.
func (c *Client) PutBuildConfig(ctx context.Context, project string, cfg models.BuildConfig) (*models.BuildConfig, error) {
	var out models.BuildConfig
	err := c.doJSON(ctx, http.MethodPut, "/projects/"+url.PathEscape(project)+"/build-config", cfg, &out)
	return &out, err
}

// RunStage executes one of build, test, run for the project and returns the result.
func (c *Client) RunStage(ctx context.Context, project, stage string) (*models.StageResult, error) {
	if !models.ValidStage(stage) {
		return nil, fmt.Errorf("unknown stage %q", stage)
	}
	var out models.StageResult
	err := c.doJSON(ctx, http.MethodPost, "/projects/"+url.PathEscape(project)+"/"+stage, nil, &out)
	return &out, err
}

// GetAutonomyMode returns the project's autonomy mode.
func (c *Client) GetAutonomyMode(ctx context.Context, project string) (string, error) {
	var out struct {
		Mode string `json:"mode"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/projects/"+url.PathEscape(project)+"/autonomy-mode", nil, &out)
	return out.Mode, err
}

// PutAutonomyMode sets the project's autonomy mode and returns the stored value.
func (c *Client) PutAutonomyMode(ctx context.Context, project, mode string) (string, error) {
	var out struct {
		Mode string `json:"mode"`
	}
	err := c.doJSON(ctx, http.MethodPut, "/projects/"+url.PathEscape(project)+"/autonomy-mode", map[string]string{"mode": mode}, &out)
	return out.Mode, err
}

// ListProcesses returns the channel's supervised processes. When includeLogs,
// each process carries a capped log tail.
func (c *Client) ListProcesses(ctx context.Context, channel string, includeLogs bool) ([]models.Process, error) {
	path := "/process/list/" + url.PathEscape(channel)
	if includeLogs {
		path += "?include_logs=true"
	}
	var out struct {
		Processes []models.Process `json:"processes"`
	}
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out.Processes, err
}

// StartProcess launches a command under supervision in the channel.
func (c *Client) StartProcess(ctx context.Context, channel, command, name, project string) (*models.Process, error) {
	body := map[string]string{"channel": channel, "command": command, "project": project}
	if name != "" {
		body["name"] = name
	}
	var out struct {
		Process models.Process `json:"process"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/process/start", body, &out)
	return &out.Process, err
}

// StopProcess stops a supervised process. Idempotent per process_id on the server.
func (c *Client) StopProcess(ctx context.Context, channel, processID string) error {
	return c.doJSON(ctx, http.MethodPost, "/process/stop", map[string]string{
		"channel": channel, "process_id": processID,
	}, nil)
}

// KillSwitch stops every process in the channel and forces autonomy mode SAFE.
func (c *Client) KillSwitch(ctx context.Context, channel string) (*models.KillSwitchResult, error) {
	var out models.KillSwitchResult
	err := c.doJSON(ctx, http.MethodPost, "/process/kill-switch", map[string]string{"channel": channel}, &out)
	return &out, err
}

// ConsoleEvents returns recent events for the channel. eventType and source
// filter when non-empty; limit 0 uses the server default.
func (c *Client) ConsoleEvents(ctx context.Context, channel string, limit int, eventType, source string) ([]models.ConsoleEvent, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if eventType != "" {
		q.Set("event_type", eventType)
	}
	if source != "" {
		q.Set("source", source)
	}
	path := "/console/events/" + url.PathEscape(channel)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []models.ConsoleEvent
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// DebugBundle exports a zip of recent diagnostics and returns its bytes.
func (c *Client) DebugBundle(ctx context.Context, req models.DebugBundleRequest) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodPost, "/debug/bundle", req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Detail string `json:"detail"`
			Error  string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		detail := errBody.Detail
		if detail == "" {
			detail = errBody.Error
		}
		return nil, &APIError{Status: resp.StatusCode, Detail: detail, Method: http.MethodPost, Path: "/debug/bundle"}
	}
	return io.ReadAll(resp.Body)
}
