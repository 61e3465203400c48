package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUploadFailed indicates the upload could not reach the server. The caller
// resets its camera handle and keeps running.
var ErrUploadFailed = errors.New("upload failed")

const defaultUploadTimeout = 30 * time.Second

// Ack is the server's response to an upload.
type Ack struct {
	StatusCode int
	Message    string
}

// Accepted reports whether the server stored the content.
func (a Ack) Accepted() bool {
	return a.StatusCode >= 200 && a.StatusCode < 300
}

// Client posts captures to the content server.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs an upload client for the given add_content endpoint.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("uploader: endpoint required")
	}
	client := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: defaultUploadTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type uploadPayload struct {
	Image       string `json:"image"`
	Description string `json:"description"`
	DeviceID    string `json:"deviceid"`
}

type uploadResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Upload posts one capture. Transport failures wrap ErrUploadFailed; any HTTP
// response, success or not, is returned as an Ack for the caller to log.
func (c *Client) Upload(ctx context.Context, imageBase64, description, deviceID string) (Ack, error) {
	if strings.TrimSpace(imageBase64) == "" {
		return Ack{}, fmt.Errorf("%w: empty image", ErrUploadFailed)
	}

	body, err := json.Marshal(uploadPayload{
		Image:       imageBase64,
		Description: description,
		DeviceID:    deviceID,
	})
	if err != nil {
		return Ack{}, fmt.Errorf("%w: encode payload: %v", ErrUploadFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Ack{}, fmt.Errorf("%w: new request: %v", ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Ack{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return Ack{}, fmt.Errorf("%w: read response: %v", ErrUploadFailed, err)
	}

	ack := Ack{StatusCode: resp.StatusCode}
	var parsed uploadResponse
	if json.Unmarshal(raw, &parsed) == nil {
		if parsed.Message != "" {
			ack.Message = parsed.Message
		} else {
			ack.Message = parsed.Error
		}
	}
	if ack.Message == "" {
		ack.Message = strings.TrimSpace(string(raw))
	}
	return ack, nil
}
