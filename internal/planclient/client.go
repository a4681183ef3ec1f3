// Package planclient talks to the Plan Service: it generates plans from a
// prompt and scan paths, fetches and lists stored plans, and applies them.
package planclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tormodhaugland/planner/internal/model"
)

// Client is an HTTP client for the Plan Service
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
}

// errorResponse is the error body returned by the service
type errorResponse struct {
	Message string `json:"message"`
}

type getPlanResponse struct {
	Plan model.Plan `json:"plan"`
}

type applyRequest struct {
	PlanID      string `json:"planId"`
	ProjectRoot string `json:"projectRoot,omitempty"`
}

type applyChunkRequest struct {
	ProjectRoot string `json:"projectRoot,omitempty"`
}

type applyResponse struct {
	Result model.ApplyResult `json:"result"`
}

// New creates a Plan Service client. token is sent as a bearer token when
// non-empty.
func New(baseURL, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		client: &http.Client{
			Timeout: 10 * time.Minute, // plan generation runs an LLM
		},
		logger: logger.With("component", "planclient"),
	}
}

// GeneratePlan asks the service for a new plan.
func (c *Client) GeneratePlan(ctx context.Context, in model.LLMInput) (*model.GeneratePlanResponse, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var resp model.GeneratePlanResponse
	if err := c.do(ctx, http.MethodPost, "/plan", in, &resp, "Failed to generate plan."); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetPlan fetches a stored plan by id.
func (c *Client) GetPlan(ctx context.Context, planID string) (*model.Plan, error) {
	var resp getPlanResponse
	path := "/plan/" + url.PathEscape(planID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, fmt.Sprintf("Failed to fetch plan %s.", planID)); err != nil {
		return nil, err
	}
	return &resp.Plan, nil
}

// ListPlans returns one page of stored plans. Pages start at 1.
func (c *Client) ListPlans(ctx context.Context, page, pageSize int) (*model.PaginatedPlans, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))

	var resp model.PaginatedPlans
	if err := c.do(ctx, http.MethodGet, "/planner/paginated?"+q.Encode(), nil, &resp, "Failed to fetch paginated plans."); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ApplyPlan applies every change of a plan under projectRoot.
func (c *Client) ApplyPlan(ctx context.Context, planID, projectRoot string) (*model.ApplyResult, error) {
	var resp applyResponse
	body := applyRequest{PlanID: planID, ProjectRoot: projectRoot}
	if err := c.do(ctx, http.MethodPost, "/plan/apply", body, &resp, "Failed to apply plan."); err != nil {
		return nil, err
	}
	return &resp.Result, nil
}

// ApplyChange applies a single change of a plan, by index.
func (c *Client) ApplyChange(ctx context.Context, planID string, index int, projectRoot string) (*model.ApplyResult, error) {
	var resp applyResponse
	path := fmt.Sprintf("/plan/%s/apply-chunk/%d", url.PathEscape(planID), index)
	if err := c.do(ctx, http.MethodPost, path, applyChunkRequest{ProjectRoot: projectRoot}, &resp, "Failed to apply single file change."); err != nil {
		return nil, err
	}
	return &resp.Result, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, failMsg string) error {
	var body io.Reader
	if in != nil {
		reqJSON, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(reqJSON)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("plan service unreachable", "method", method, "path", path, "request_id", requestID, "err", err)
		return fmt.Errorf("%s %w", failMsg, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	c.logger.Debug("plan service call", "method", method, "path", path, "status", resp.StatusCode,
		"request_id", requestID, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp errorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Message != "" {
			return &Error{StatusCode: resp.StatusCode, Message: errResp.Message}
		}
		return &Error{StatusCode: resp.StatusCode, Message: failMsg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// Error is a non-2xx answer from the Plan Service.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}
