// Package client provides a Go SDK for the Optishift HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/optishift/optishift/pkg/models"
)

// Client calls the Optishift HTTP API. It is safe for concurrent use.
type Client struct {
	BaseURL    string       // e.g. "http://localhost:3584"
	APIKey     string       // optional; set for X-API-Key / api_key
	HTTPClient *http.Client // optional; nil uses http.DefaultClient
}

// New returns a client for the given base URL (e.g. "http://localhost:3584").
// APIKey is optional; when set, requests use the X-API-Key header.
func New(baseURL, apiKey string) *Client {
	return &Client{BaseURL: baseURL, APIKey: apiKey}
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
	u := c.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
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
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if errBody.Error != "" {
			return fmt.Errorf("api %s %s: %s", method, path, errBody.Error)
		}
		return fmt.Errorf("api %s %s: status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Health returns the /health response (ok: true).
func (c *Client) Health(ctx context.Context) (ok bool, err error) {
	var out struct {
		OK bool `json:"ok"`
	}
	err = c.doJSON(ctx, http.MethodGet, "/health", nil, &out)
	return out.OK, err
}

// CreateRun submits a new optimization run and returns it in draft status.
func (c *Client) CreateRun(ctx context.Context, req models.CreateRunRequest) (*models.Run, error) {
	var out models.Run
	err := c.doJSON(ctx, http.MethodPost, "/runs", req, &out)
	return &out, err
}

// ListRuns returns recent runs, newest first.
func (c *Client) ListRuns(ctx context.Context) ([]models.Run, error) {
	var out []models.Run
	err := c.doJSON(ctx, http.MethodGet, "/runs", nil, &out)
	return out, err
}

// GetRun returns a run with its stage records and overall progress.
func (c *Client) GetRun(ctx context.Context, runID string) (*models.RunStatus, error) {
	var out models.RunStatus
	err := c.doJSON(ctx, http.MethodGet, "/runs/"+url.PathEscape(runID), nil, &out)
	return &out, err
}

// CancelRun requests cancellation of a run.
func (c *Client) CancelRun(ctx context.Context, runID string) error {
	return c.doJSON(ctx, http.MethodPost, "/runs/"+url.PathEscape(runID)+"/cancel", nil, nil)
}

// ListSuggestions returns a run's suggestions: compliant and ranked by
// default, everything when all is true.
func (c *Client) ListSuggestions(ctx context.Context, runID string, all bool) ([]models.Suggestion, error) {
	path := "/runs/" + url.PathEscape(runID) + "/suggestions"
	if all {
		path += "?all=1"
	}
	var out []models.Suggestion
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// ListIntervals returns a run's coverage intervals.
func (c *Client) ListIntervals(ctx context.Context, runID string) ([]models.CoverageInterval, error) {
	var out []models.CoverageInterval
	err := c.doJSON(ctx, http.MethodGet, "/runs/"+url.PathEscape(runID)+"/intervals", nil, &out)
	return out, err
}

// ListPatterns returns a run's detected gap patterns.
func (c *Client) ListPatterns(ctx context.Context, runID string) ([]models.GapPattern, error) {
	var out []models.GapPattern
	err := c.doJSON(ctx, http.MethodGet, "/runs/"+url.PathEscape(runID)+"/patterns", nil, &out)
	return out, err
}

// ListConstraints returns constraints active at t (zero time = now).
func (c *Client) ListConstraints(ctx context.Context, at time.Time) ([]models.Constraint, error) {
	path := "/constraints"
	if !at.IsZero() {
		path += "?active_at=" + url.QueryEscape(at.Format(time.RFC3339))
	}
	var out []models.Constraint
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// UpsertConstraint creates or updates a constraint by name.
func (c *Client) UpsertConstraint(ctx context.Context, constraint models.Constraint) error {
	return c.doJSON(ctx, http.MethodPost, "/constraints", constraint, nil)
}

// ListEmployees returns the roster.
func (c *Client) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	var out []models.Employee
	err := c.doJSON(ctx, http.MethodGet, "/employees", nil, &out)
	return out, err
}

// UpsertEmployee creates or updates an employee by name and returns it.
func (c *Client) UpsertEmployee(ctx context.Context, e models.Employee) (*models.Employee, error) {
	var out models.Employee
	err := c.doJSON(ctx, http.MethodPost, "/employees", e, &out)
	return &out, err
}
