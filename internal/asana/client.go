package asana

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	baseURL  = "https://app.asana.com/api/1.0"
	pageSize = "100"

	// Asana allows 150 requests per minute on free workspaces.
	defaultRequestsPerMinute = 150
	defaultBurst             = 10
)

// DefaultTaskFields are the fields requested when expanding a compact task.
var DefaultTaskFields = []string{"completed", "name", "notes", "due_on"}

type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimit replaces the default request budget. rate.Inf disables it.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// RequestsPerMinute converts a per-minute quota into a limiter option.
func RequestsPerMinute(n int) Option {
	if n <= 0 {
		return func(*Client) {}
	}
	return WithRateLimit(rate.Every(time.Minute/time.Duration(n)), defaultBurst)
}

func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		token:      token,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/defaultRequestsPerMinute), defaultBurst),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Workspace struct {
	GID  string `json:"gid"`
	Name string `json:"name"`
}

type Project struct {
	GID  string `json:"gid"`
	Name string `json:"name"`
}

// CompactTask is the minimal reference returned by list endpoints.
type CompactTask struct {
	GID  string `json:"gid"`
	Name string `json:"name"`
}

type Task struct {
	GID       string  `json:"gid"`
	Name      string  `json:"name"`
	Notes     string  `json:"notes"`
	Completed bool    `json:"completed"`
	DueOn     *string `json:"due_on"`
}

type nextPage struct {
	Offset string `json:"offset"`
}

type listResponse[T any] struct {
	Data     []T       `json:"data"`
	NextPage *nextPage `json:"next_page"`
}

type itemResponse[T any] struct {
	Data T `json:"data"`
}

// APIError is a non-2xx answer from the Asana API.
type APIError struct {
	StatusCode int
	Messages   []string
}

func (e *APIError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("asana API error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("asana API error (status %d): %s", e.StatusCode, strings.Join(e.Messages, "; "))
}

type errorResponse struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Workspaces lists every workspace visible to the token.
func (c *Client) Workspaces(ctx context.Context) ([]Workspace, error) {
	return list[Workspace](ctx, c, "/workspaces", url.Values{})
}

// Projects lists the projects of a workspace filtered by archive state.
func (c *Client) Projects(ctx context.Context, workspaceID string, archived bool) ([]Project, error) {
	params := url.Values{}
	params.Set("workspace", workspaceID)
	params.Set("archived", fmt.Sprintf("%t", archived))
	params.Set("opt_fields", "name")
	return list[Project](ctx, c, "/projects", params)
}

// Tasks lists the tasks of a project that are incomplete or were completed
// on or after since.
func (c *Client) Tasks(ctx context.Context, projectID, since string) ([]CompactTask, error) {
	params := url.Values{}
	params.Set("project", projectID)
	if since != "" {
		params.Set("completed_since", since)
	}
	return list[CompactTask](ctx, c, "/tasks", params)
}

// Task fetches a single task. Without fields, DefaultTaskFields are used.
func (c *Client) Task(ctx context.Context, taskID string, fields ...string) (*Task, error) {
	if len(fields) == 0 {
		fields = DefaultTaskFields
	}
	params := url.Values{}
	params.Set("opt_fields", strings.Join(fields, ","))

	var result itemResponse[Task]
	if err := c.get(ctx, "/tasks/"+url.PathEscape(taskID), params, &result); err != nil {
		return nil, err
	}
	return &result.Data, nil
}

func list[T any](ctx context.Context, c *Client, path string, params url.Values) ([]T, error) {
	params.Set("limit", pageSize)

	var all []T
	for {
		var page listResponse[T]
		if err := c.get(ctx, path, params, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Data...)

		if page.NextPage == nil || page.NextPage.Offset == "" {
			return all, nil
		}
		params.Set("offset", page.NextPage.Offset)
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode}

		var parsed errorResponse
		if json.Unmarshal(body, &parsed) == nil {
			for _, e := range parsed.Errors {
				apiErr.Messages = append(apiErr.Messages, e.Message)
			}
		}
		if len(apiErr.Messages) == 0 && len(body) > 0 {
			apiErr.Messages = []string{strings.TrimSpace(string(body))}
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
