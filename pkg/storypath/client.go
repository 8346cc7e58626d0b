// Package storypath provides a typed client for the StoryPath REST backend.
// The backend is PostgREST-shaped: list endpoints take eq. filters as query
// parameters and writes are plain JSON POSTs. This package is the only point
// of contact with network state; everything above it works on typed rows.
package storypath

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/storypath/storypath-cli/internal/model"
)

// Client defines the backend operations the rest of the app consumes.
type Client interface {
	// ListPublishedProjects returns every project with is_published = true.
	ListPublishedProjects(ctx context.Context) ([]model.Project, error)
	// GetProject returns one published project by id, or ErrProjectNotFound.
	GetProject(ctx context.Context, projectID int) (*model.Project, error)
	// ListLocations returns all locations belonging to a project.
	ListLocations(ctx context.Context, projectID int) ([]model.Location, error)
	// ListTracking returns every tracking row for a project, all participants.
	ListTracking(ctx context.Context, projectID int) ([]model.Tracking, error)
	// ListParticipantTracking returns the tracking rows for one participant.
	ListParticipantTracking(ctx context.Context, projectID int, participant string) ([]model.Tracking, error)
	// SubmitTracking appends one visit event. This is the only mutating call
	// in the system; callers must validate and duplicate-check first.
	SubmitTracking(ctx context.Context, tracking model.Tracking) error
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(baseURL string) Option {
	return func(c *httpClient) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithUsername sets the API credential owner written into the username field
// of every tracking row this client submits.
func WithUsername(username string) Option {
	return func(c *httpClient) {
		c.username = username
	}
}

type httpClient struct {
	jwt      string
	username string
	baseURL  string
	http     *http.Client
}

// NewClient creates a backend client authenticating with the given JWT.
func NewClient(jwt string, opts ...Option) Client {
	c := &httpClient{
		jwt:     jwt,
		baseURL: "https://0b5ff8b0.uqcloud.net/api",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) ListPublishedProjects(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	if err := c.getJSON(ctx, "/project", url.Values{"is_published": {"eq.true"}}, &projects); err != nil {
		return nil, eris.Wrap(err, "storypath: list published projects")
	}
	return projects, nil
}

func (c *httpClient) GetProject(ctx context.Context, projectID int) (*model.Project, error) {
	var projects []model.Project
	q := url.Values{
		"id":           {fmt.Sprintf("eq.%d", projectID)},
		"is_published": {"eq.true"},
	}
	if err := c.getJSON(ctx, "/project", q, &projects); err != nil {
		return nil, eris.Wrapf(err, "storypath: get project %d", projectID)
	}
	if len(projects) == 0 {
		return nil, eris.Wrapf(ErrProjectNotFound, "project %d", projectID)
	}
	return &projects[0], nil
}

func (c *httpClient) ListLocations(ctx context.Context, projectID int) ([]model.Location, error) {
	var locations []model.Location
	q := url.Values{"project_id": {fmt.Sprintf("eq.%d", projectID)}}
	if err := c.getJSON(ctx, "/location", q, &locations); err != nil {
		return nil, eris.Wrapf(err, "storypath: list locations for project %d", projectID)
	}
	return locations, nil
}

func (c *httpClient) ListTracking(ctx context.Context, projectID int) ([]model.Tracking, error) {
	var tracking []model.Tracking
	q := url.Values{"project_id": {fmt.Sprintf("eq.%d", projectID)}}
	if err := c.getJSON(ctx, "/tracking", q, &tracking); err != nil {
		return nil, eris.Wrapf(err, "storypath: list tracking for project %d", projectID)
	}
	return tracking, nil
}

func (c *httpClient) ListParticipantTracking(ctx context.Context, projectID int, participant string) ([]model.Tracking, error) {
	var tracking []model.Tracking
	q := url.Values{
		"project_id":           {fmt.Sprintf("eq.%d", projectID)},
		"participant_username": {"eq." + participant},
	}
	if err := c.getJSON(ctx, "/tracking", q, &tracking); err != nil {
		return nil, eris.Wrapf(err, "storypath: list tracking for participant %s", participant)
	}
	return tracking, nil
}

func (c *httpClient) SubmitTracking(ctx context.Context, tracking model.Tracking) error {
	if tracking.Username == "" {
		tracking.Username = c.username
	}

	body, err := json.Marshal(tracking)
	if err != nil {
		return eris.Wrap(err, "storypath: marshal tracking")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tracking", bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "storypath: build tracking request")
	}
	c.setHeaders(req)

	// The backend replies 201/204 with an empty body unless a representation
	// is requested. Empty body is success, not a parse failure.
	//
	// The write is issued exactly once. A transient status after the backend
	// committed the row would duplicate it on a second attempt, so the error
	// surfaces and the caller rescans, which re-runs the duplicate check.
	_, _, err = c.do(req)
	if err != nil {
		return eris.Wrap(err, "storypath: submit tracking")
	}
	return nil
}

func (c *httpClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return eris.Wrap(err, "build request")
	}
	c.setHeaders(req)

	body, err := c.retryDo(ctx, req)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}

func (c *httpClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.jwt)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// do executes a request once and classifies the outcome through the error
// taxonomy: 401/403 map to AuthError, any other failure to NetworkError.
// retryable reports whether retryDo may issue the request again.
func (c *httpClient) do(req *http.Request) (body []byte, retryable bool, err error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, networkError(0, err)
	}

	respBody, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, false, networkError(resp.StatusCode, eris.Wrap(readErr, "read response body"))
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return respBody, false, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, false, authError(resp.StatusCode)
	default:
		return nil, retryableStatusCode(resp.StatusCode),
			networkError(resp.StatusCode, eris.Errorf("status %d: %s", resp.StatusCode, truncate(respBody)))
	}
}

// retryDo executes a read request with bounded exponential backoff on
// transient failures. Only idempotent requests may go through here; the
// tracking write calls do directly so a transient status never re-issues it.
func (c *httpClient) retryDo(ctx context.Context, req *http.Request) ([]byte, error) {
	const maxAttempts = 3
	backoff := 1 * time.Second

	for attempt := 1; ; attempt++ {
		body, retryable, err := c.do(req.Clone(ctx))
		if err == nil {
			return body, nil
		}
		if !retryable || attempt == maxAttempts {
			return nil, err
		}
		if serr := sleep(ctx, backoff); serr != nil {
			return nil, serr
		}
		backoff *= 2
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func truncate(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
