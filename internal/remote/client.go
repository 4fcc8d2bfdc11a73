package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"levelup/internal/engine"
)

const (
	defaultTimeout = 10 * time.Second
	maxRetries     = 3
	initialDelay   = 250 * time.Millisecond
)

// Client talks to a levelup server. It implements engine.Persistence.
type Client struct {
	baseURL    string
	adminToken string
	client     *http.Client
	delay      time.Duration
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithAdminToken sets the token sent to /api/admin routes.
func WithAdminToken(token string) Option {
	return func(c *Client) { c.adminToken = token }
}

// WithRetryDelay sets the initial backoff between read retries.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.delay = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultTimeout},
		delay:   initialDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusError is a non-2xx response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Code, e.Message)
}

type response struct {
	Success  bool        `json:"success"`
	Error    string      `json:"error"`
	XP       int         `json:"xp"`
	Level    int         `json:"level"`
	Plan     engine.Plan `json:"plan"`
	MaxLevel int         `json:"maxLevel"`
}

func (c *Client) userPath(userID, suffix string) string {
	return c.baseURL + "/api/users/" + url.PathEscape(userID) + suffix
}

func (c *Client) adminPath(userID, suffix string) string {
	return c.baseURL + "/api/admin/users/" + url.PathEscape(userID) + suffix
}

// AddXP posts a delta. Writes are never retried; the engine logs failures
// and the next reconcile catches up.
func (c *Client) AddXP(ctx context.Context, userID string, gain engine.XPGain) (int, error) {
	resp, err := c.send(ctx, http.MethodPost, c.userPath(userID, "/xp"), gain, false)
	if err != nil {
		return 0, err
	}
	return resp.XP, nil
}

func (c *Client) FetchXP(ctx context.Context, userID string) (engine.XPSnapshot, error) {
	resp, err := c.send(ctx, http.MethodGet, c.userPath(userID, "/xp"), nil, true)
	if err != nil {
		return engine.XPSnapshot{}, err
	}
	return engine.XPSnapshot{XP: resp.XP, Level: resp.Level}, nil
}

func (c *Client) FetchPlan(ctx context.Context, userID string) (engine.SubscriptionPlan, error) {
	resp, err := c.send(ctx, http.MethodGet, c.userPath(userID, "/plan"), nil, true)
	if err != nil {
		return engine.SubscriptionPlan{}, err
	}
	if !resp.Plan.IsValid() {
		return engine.SubscriptionPlan{}, fmt.Errorf("unknown plan %q", resp.Plan)
	}
	return engine.SubscriptionPlan{Plan: resp.Plan, MaxLevel: resp.MaxLevel}, nil
}

// PlanProvider binds FetchPlan to one user.
func (c *Client) PlanProvider(userID string) engine.PlanProvider {
	return engine.PlanFunc(func(ctx context.Context) (engine.SubscriptionPlan, error) {
		return c.FetchPlan(ctx, userID)
	})
}

// SetXP overwrites a user's total through the admin API.
func (c *Client) SetXP(ctx context.Context, userID string, xp int) (engine.XPSnapshot, error) {
	resp, err := c.send(ctx, http.MethodPut, c.adminPath(userID, "/xp"), map[string]int{"xp": xp}, false)
	if err != nil {
		return engine.XPSnapshot{}, err
	}
	return engine.XPSnapshot{XP: resp.XP, Level: resp.Level}, nil
}

// SetPlan changes a user's plan through the admin API.
func (c *Client) SetPlan(ctx context.Context, userID string, plan engine.Plan) error {
	_, err := c.send(ctx, http.MethodPut, c.adminPath(userID, "/plan"), map[string]string{"plan": string(plan)}, false)
	return err
}

func (c *Client) send(ctx context.Context, method, endpoint string, payload any, retry bool) (*response, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	attempts := 1
	if retry {
		attempts = maxRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * c.delay
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err := c.do(ctx, method, endpoint, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		// Client errors will not change on retry.
		var se *StatusError
		if errors.As(err, &se) && se.Code < 500 && se.Code != http.StatusTooManyRequests {
			return nil, err
		}
	}
	if attempts == 1 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("max retries (%d) exceeded: %w", attempts, lastErr)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (*response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, r)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.adminToken != "" {
		req.Header.Set("X-Admin-Token", c.adminToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var out response
	decodeErr := json.Unmarshal(raw, &out)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && out.Error != "" {
			msg = out.Error
		}
		return nil, &StatusError{Code: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	return &out, nil
}
