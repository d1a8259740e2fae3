// Package api is the HTTP client for the skillbox REST backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Makepad-fr/skillbox/internal/model"
)

// Route templates, also used as metric labels.
const (
	RouteSpecifications = "/api/business-specifications"
	RouteSpecification  = "/api/business-specifications/{id}"
	RouteRequirements   = "/api/requirements"
	RouteTests          = "/api/tests"
)

// Client talks JSON to the backend. Every call takes a context; cancelling it
// abandons the request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *Metrics
	timeout    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each request. Zero keeps the transport default. The
// http.Client passed to WithHTTPClient is copied, never changed.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url scheme must be http or https, got %q", u.Scheme)
	}
	c := &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

// BaseURL returns the normalized backend root.
func (c *Client) BaseURL() string { return c.baseURL }

// ListSpecifications fetches every business specification.
func (c *Client) ListSpecifications(ctx context.Context) (model.SpecificationList, error) {
	var out model.SpecificationList
	err := c.do(ctx, http.MethodGet, RouteSpecifications, RouteSpecifications, nil, &out)
	return out, err
}

// GetSpecification fetches one specification. A null body yields (nil, nil).
func (c *Client) GetSpecification(ctx context.Context, id model.ID) (*model.Specification, error) {
	var out *model.Specification
	err := c.do(ctx, http.MethodGet, RouteSpecification, specPath(id), nil, &out)
	return out, err
}

// CreateSpecification posts a new specification; the backend assigns the id.
func (c *Client) CreateSpecification(ctx context.Context, s model.Specification) (*model.Specification, error) {
	s.ID = model.ID{}
	var out *model.Specification
	err := c.do(ctx, http.MethodPost, RouteSpecifications, RouteSpecifications, s, &out)
	return out, err
}

// UpdateSpecification replaces the specification with the given id.
func (c *Client) UpdateSpecification(ctx context.Context, id model.ID, s model.Specification) (*model.Specification, error) {
	var out *model.Specification
	err := c.do(ctx, http.MethodPut, RouteSpecification, specPath(id), s, &out)
	return out, err
}

// SaveSpecification updates when id is set and creates otherwise.
func (c *Client) SaveSpecification(ctx context.Context, id model.ID, s model.Specification) (*model.Specification, error) {
	if id.IsZero() {
		return c.CreateSpecification(ctx, s)
	}
	return c.UpdateSpecification(ctx, id, s)
}

// ListRequirements fetches the requirement collection.
func (c *Client) ListRequirements(ctx context.Context) (model.RequirementList, error) {
	var out model.RequirementList
	err := c.do(ctx, http.MethodGet, RouteRequirements, RouteRequirements, nil, &out)
	return out, err
}

// CreateTest posts a test record. The response body, if any, is returned.
func (c *Client) CreateTest(ctx context.Context, t model.Test) (*model.Test, error) {
	var out *model.Test
	err := c.do(ctx, http.MethodPost, RouteTests, RouteTests, t, &out)
	return out, err
}

func specPath(id model.ID) string {
	return RouteSpecifications + "/" + url.PathEscape(id.String())
}

func (c *Client) do(ctx context.Context, method, route, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := c.logger.With("request_id", requestID, "method", method, "path", path)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(route, method, 0, time.Since(start))
		log.Warn("Backend request failed", "error", err)
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	c.metrics.observe(route, method, resp.StatusCode, elapsed)
	if err != nil {
		log.Warn("Reading backend response failed", "status", resp.StatusCode, "error", err)
		return fmt.Errorf("%w: read response: %w", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := newStatusError(resp.StatusCode, data)
		log.Warn("Backend rejected request", "status", resp.StatusCode, "duration", elapsed, "error", serr.Fields.Error())
		return serr
	}
	log.Debug("Backend request done", "status", resp.StatusCode, "duration", elapsed)

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal response: %w (body: %s)", err, truncate(data, 200))
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
