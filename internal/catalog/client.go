package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// DefaultBaseURL is the public Jikan v4 endpoint.
const DefaultBaseURL = "https://api.jikan.moe/v4"

// maxBodyBytes bounds how much of a response is read into memory.
const maxBodyBytes = 8 << 20

// Client talks to the catalog service. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	policy     RetryPolicy
	gate       *Gate
	logger     hclog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryPolicy replaces the unlimited fixed one-second policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// WithGate routes requests through a shared Gate.
func WithGate(g *Gate) Option {
	return func(c *Client) {
		if g != nil {
			c.gate = g
		}
	}
}

func WithLogger(l hclog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a catalog client. An empty baseURL selects DefaultBaseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("catalog url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		policy:     DefaultRetryPolicy(),
		logger:     hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.policy.Validate(); err != nil {
		return nil, fmt.Errorf("catalog retry policy: %w", err)
	}
	if c.gate == nil {
		c.gate = NewGate(DefaultMaxConcurrent, 0)
	}
	return c, nil
}

// Close releases idle connections held by the client.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Fetch issues GET path?query and returns the raw body of the first 2xx
// response. Rate-limited responses are retried per the client's policy; any
// other error status returns a *RemoteError without retrying.
func (c *Client) Fetch(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	for attempt := 1; ; attempt++ {
		body, status, err := c.do(ctx, endpoint)
		if err != nil {
			return nil, &TransportError{Path: path, Err: err}
		}

		if status == http.StatusTooManyRequests {
			if c.policy.Exhausted(attempt) {
				c.logger.Warn("catalog rate limit retries exhausted", "path", path, "attempts", attempt)
				return nil, fmt.Errorf("%s after %d attempts: %w", path, attempt, ErrRateLimited)
			}
			delay := c.policy.Delay(attempt)
			c.logger.Debug("catalog rate limited, backing off", "path", path, "attempt", attempt, "delay", delay)
			// the next Acquire waits out the pause, for this call and every other caller
			c.gate.Pause(delay)
			continue
		}

		if status < 200 || status > 299 {
			return nil, &RemoteError{StatusCode: status, Path: path, Message: remoteMessage(body)}
		}

		if attempt > 1 {
			c.logger.Debug("catalog request succeeded after retries", "path", path, "attempts", attempt)
		}
		return body, nil
	}
}

func (c *Client) do(ctx context.Context, endpoint string) ([]byte, int, error) {
	release, err := c.gate.Acquire(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer release()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, 0, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("read response (status=%d): %w", resp.StatusCode, err)
	}
	c.logger.Trace("catalog request", "url", endpoint, "status", resp.StatusCode, "latency", latency)
	return body, resp.StatusCode, nil
}

// remoteMessage extracts the human-readable part of a Jikan error body.
func remoteMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

// decodeEnvelope splits a response into its data and pagination parts.
func decodeEnvelope(path string, body []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, fmt.Errorf("decode %s: %w", path, errors.New("response has no data"))
	}
	return &env, nil
}
