package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/streamline/internal/config"
	"github.com/fyrsmithlabs/streamline/internal/logging"
	"github.com/fyrsmithlabs/streamline/internal/project"
)

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 10 << 20

// maxErrorMessage caps the error text kept from a non-JSON error body.
const maxErrorMessage = 512

// Client talks to the entity API. It implements project.Service.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logging.Logger
}

var _ project.Service = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithTransport sets the base round tripper under the bearer transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.httpClient.Transport = rt
		}
	}
}

// WithLimiter overrides the limiter built from the config.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Client from cfg.
func New(cfg config.RemoteConfig, opts ...Option) (*Client, error) {
	if cfg.BaseAddress == "" {
		return nil, errors.New("remote base address is required")
	}
	base, err := url.Parse(cfg.BaseAddress)
	if err != nil {
		return nil, fmt.Errorf("parsing base address: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base address must be http or https, got %q", cfg.BaseAddress)
	}

	timeout := cfg.Timeout.Duration()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout, Transport: http.DefaultTransport},
		logger:     logging.NewNop(),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	for _, opt := range opts {
		opt(c)
	}

	// Without a token requests go out unauthenticated.
	if cfg.BearerToken.IsSet() {
		c.httpClient.Transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.BearerToken.Value()}),
			Base:   c.httpClient.Transport,
		}
	}

	return c, nil
}

// GetProject fetches a project with its tasks.
func (c *Client) GetProject(ctx context.Context, id project.ID) (project.Project, error) {
	var p project.Project
	err := c.do(ctx, http.MethodGet, []string{"projects", string(id)}, nil, &p)
	return p, err
}

type statusRequest struct {
	Status project.Status `json:"status"`
}

// UpdateTaskStatus patches a task's status.
func (c *Client) UpdateTaskStatus(ctx context.Context, id project.ID, status project.Status) (project.Task, error) {
	var t project.Task
	err := c.do(ctx, http.MethodPatch, []string{"tasks", string(id)}, statusRequest{Status: status}, &t)
	return t, err
}

// CreateTask posts a new task.
func (c *Client) CreateTask(ctx context.Context, in project.NewTask) (project.Task, error) {
	var t project.Task
	err := c.do(ctx, http.MethodPost, []string{"tasks"}, in, &t)
	return t, err
}

func (c *Client) do(ctx context.Context, method string, segments []string, body, out interface{}) error {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		// PathEscape keeps dot segments, which JoinPath would then resolve.
		if s == "" || s == "." || s == ".." {
			return fmt.Errorf("%w: %q", project.ErrInvalidID, s)
		}
		escaped[i] = url.PathEscape(s)
	}
	u := c.baseURL.JoinPath(escaped...)
	path := u.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s %s: rate limiter: %w", method, path, err)
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: encoding request: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("%s %s: creating request: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug(ctx, "remote request",
		zap.String("http.method", method),
		zap.String("http.path", path),
		zap.Int("http.status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%s %s: reading response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", project.ErrMalformed, method, path, err)
	}
	return nil
}

// errorMessage extracts {"message": ...} from an error body, falling back
// to the raw text.
func errorMessage(body []byte) string {
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
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorMessage {
		msg = msg[:maxErrorMessage] + "..."
	}
	return msg
}
