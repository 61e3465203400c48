// Package client is the HTTP client the command line tools use to talk to a
// running content server.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 60 * time.Second

// ErrRequestFailed wraps every failure to reach or be accepted by the server.
var ErrRequestFailed = errors.New("server request failed")

// Content is one stored row as returned by the server.
type Content struct {
	ID          int64  `json:"id"`
	Image       string `json:"image"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
	DeviceID    string `json:"deviceid"`
}

// Health is the server's health report.
type Health struct {
	Status   string `json:"status"`
	Contents int64  `json:"contents"`
}

// Range bounds a list or query to rows between two dates. Times are
// optional; the server widens missing fields to cover the whole day.
type Range struct {
	StartDate string
	StartTime string
	EndDate   string
	EndTime   string
}

func (r Range) empty() bool {
	return strings.TrimSpace(r.StartDate) == "" || strings.TrimSpace(r.EndDate) == ""
}

func (r Range) fill(form url.Values) {
	if r.empty() {
		return
	}
	form.Set("start_date", strings.TrimSpace(r.StartDate))
	form.Set("end_date", strings.TrimSpace(r.EndDate))
	if t := strings.TrimSpace(r.StartTime); t != "" {
		form.Set("start_time", t)
	}
	if t := strings.TrimSpace(r.EndTime); t != "" {
		form.Set("end_time", t)
	}
}

// Client talks to the content server's HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option adjusts client construction.
type Option func(*Client)

// WithHTTPClient substitutes the transport, primarily for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// New builds a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("client: server url required")
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// AddContent uploads one image. An empty description asks the server to fill
// it in with its vision provider.
func (c *Client) AddContent(ctx context.Context, imageBase64, description, deviceID string) error {
	if strings.TrimSpace(imageBase64) == "" {
		return fmt.Errorf("%w: image required", ErrRequestFailed)
	}
	payload := map[string]string{
		"image":       imageBase64,
		"description": description,
		"deviceid":    deviceID,
	}
	return c.postJSON(ctx, "/add_content", payload, nil)
}

// ListContents returns every stored row, or only the rows inside the range
// when one is supplied.
func (c *Client) ListContents(ctx context.Context, bounds Range) ([]Content, error) {
	if bounds.empty() {
		var rows []Content
		if err := c.getJSON(ctx, "/get_contents", &rows); err != nil {
			return nil, err
		}
		return rows, nil
	}

	form := url.Values{}
	bounds.fill(form)
	var out struct {
		Contents []Content `json:"contents"`
	}
	if err := c.postForm(ctx, "/contents", form, &out); err != nil {
		return nil, err
	}
	return out.Contents, nil
}

// DeleteContents removes the rows with the given ids and reports how many
// rows the server actually deleted. Unknown ids are ignored server side.
func (c *Client) DeleteContents(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	form := url.Values{}
	for _, id := range ids {
		form.Add("content_id", strconv.FormatInt(id, 10))
	}
	var out struct {
		Deleted int64 `json:"deleted"`
	}
	if err := c.postForm(ctx, "/contents", form, &out); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

// Query asks the server's query engine a question over the stored
// descriptions, optionally restricted to a date range.
func (c *Client) Query(ctx context.Context, question string, bounds Range) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("%w: question required", ErrRequestFailed)
	}
	form := url.Values{}
	form.Set("question", question)
	bounds.fill(form)

	var out struct {
		Answer string `json:"answer"`
	}
	if err := c.postForm(ctx, "/query", form, &out); err != nil {
		return "", err
	}
	return out.Answer, nil
}

// Healthz checks that the server is up and returns its content count.
func (c *Client) Healthz(ctx context.Context) (Health, error) {
	var health Health
	if err := c.getJSON(ctx, "/healthz", &health); err != nil {
		return Health{}, err
	}
	return health, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: encode request: %v", ErrRequestFailed, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s returned %d: %s", ErrRequestFailed, req.URL.Path, resp.StatusCode, responseMessage(body))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrRequestFailed, err)
	}
	return nil
}

// responseMessage pulls the human readable message out of an error body.
func responseMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
