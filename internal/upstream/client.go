// Package upstream holds thin HTTP clients for the third-party data sources
// behind the dashboard. Each client owns one host, a fixed timeout, a rate
// limiter and a circuit breaker.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/irfndi/btc-dashboard-go/internal/clock"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "btc-dashboard-go/1.0"
	maxErrorBody     = 512
	tracerName       = "github.com/irfndi/btc-dashboard-go/internal/upstream"
)

// Config configures one upstream host.
type Config struct {
	BaseURL   string            `mapstructure:"base_url"`
	Timeout   time.Duration     `mapstructure:"timeout"`
	RateLimit float64           `mapstructure:"rate_limit"` // requests per second, 0 disables
	Burst     int               `mapstructure:"burst"`
	UserAgent string            `mapstructure:"user_agent"`
	Headers   map[string]string `mapstructure:"headers"`
	Breaker   BreakerConfig     `mapstructure:"breaker"`
	Clock     clock.Clock       `mapstructure:"-"` // breaker timing, nil means wall clock
}

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	Upstream   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Upstream, e.StatusCode, e.Body)
}

// Client performs GET requests against a single host.
type Client struct {
	name       string
	baseURL    string
	userAgent  string
	headers    map[string]string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *CircuitBreaker
	tracer     trace.Tracer
	logger     *logrus.Logger
}

// NewClient creates a client for the named upstream.
func NewClient(name string, cfg Config, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		name:       name,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  userAgent,
		headers:    cfg.Headers,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		breaker:    NewCircuitBreaker(name, cfg.Breaker, cfg.Clock, logger),
		tracer:     otel.Tracer(tracerName),
		logger:     logger,
	}
}

// Name returns the upstream name used in logs and errors.
func (c *Client) Name() string { return c.name }

// Breaker exposes the client's circuit breaker.
func (c *Client) Breaker() *CircuitBreaker { return c.breaker }

// getJSON issues a GET and decodes the JSON body into result.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, result interface{}) error {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("%s: failed to unmarshal response: %w", c.name, err)
	}
	return nil
}

// getText issues a GET and returns the trimmed plain-text body.
func (c *Client) getText(ctx context.Context, path string, query url.Values) (string, error) {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	ctx, span := c.tracer.Start(ctx, c.name+" GET "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("upstream.name", c.name),
			attribute.String("http.request.method", http.MethodGet),
			attribute.String("url.full", endpoint),
		))
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rate limiter")
		return nil, fmt.Errorf("%s: rate limiter: %w", c.name, err)
	}

	var body []byte
	start := time.Now()
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		body, err = c.do(ctx, endpoint, span)
		return err
	})

	entry := c.logger.WithFields(logrus.Fields{
		"component":   "upstream",
		"upstream":    c.name,
		"path":        path,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		entry.WithError(err).Debug("Upstream request failed")
		return nil, err
	}
	entry.Debug("Upstream request completed")
	return body, nil
}

func (c *Client) do(ctx context.Context, endpoint string, span trace.Span) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to make request: %w", c.name, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.WithError(err).Debug("Error closing response body")
		}
	}()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response body: %w", c.name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &StatusError{Upstream: c.name, StatusCode: resp.StatusCode, Body: snippet}
	}
	return body, nil
}
