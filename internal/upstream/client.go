package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/cradlehq/cradle/backend/internal/infrastructure/resilience"
	"github.com/cradlehq/cradle/backend/internal/infrastructure/tracing"
)

var (
	// ErrNotConfigured is returned when the client has no base URL.
	ErrNotConfigured = errors.New("upstream not configured")
	// ErrUnavailable wraps network failures and an open breaker.
	ErrUnavailable = errors.New("upstream unavailable")
)

// DefaultAPIKeyHeader carries the API key when one is configured.
const DefaultAPIKeyHeader = "X-API-KEY"

// Config configures a Client.
type Config struct {
	Name         string
	BaseURL      string
	APIKey       string
	APIKeyHeader string
	Timeout      time.Duration
	// RateLimit is requests per second. Zero is unlimited.
	RateLimit float64
	// OnCall is told about every attempted call; status is 0 when no
	// response arrived.
	OnCall func(service string, status int, took time.Duration)
}

// Client is an HTTP client for one upstream service. It never retries:
// failures surface to the caller at once. A breaker stops calls to a service
// that keeps failing and a limiter smooths bursts.
type Client struct {
	name    string
	baseURL string
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	onCall  func(string, int, time.Duration)
	mu      sync.RWMutex
}

// NewClient creates a client for cfg.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.APIKeyHeader == "" {
		cfg.APIKeyHeader = DefaultAPIKeyHeader
	}

	// pooled transport only, retrying is left to the caller
	transport := retryablehttp.NewClient()
	transport.RetryMax = 0
	transport.Logger = nil

	r := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", "Cradle-Backend/1.0").
		SetTransport(transport.HTTPClient.Transport)
	if cfg.APIKey != "" {
		r.SetHeader(cfg.APIKeyHeader, cfg.APIKey)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		name:    cfg.Name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		resty:   r,
		limiter: limiter,
		onCall:  cfg.OnCall,
		breaker: resilience.New(cfg.Name, resilience.Settings{
			MaxRequests: 3,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts resilience.Counts) bool {
				return counts.ConsecutiveFailures >= 5 ||
					(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.7)
			},
		}),
	}
}

// Name returns the upstream name.
func (c *Client) Name() string { return c.name }

// Configured reports whether a base URL is set.
func (c *Client) Configured() bool { return c.baseURL != "" }

// BreakerState returns the breaker state, for health reporting.
func (c *Client) BreakerState() resilience.State { return c.breaker.State() }

// SetHeader adds a default header.
func (c *Client) SetHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resty.SetHeader(key, value)
}

// Request is one outgoing call. Path is joined to the base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Response is the raw upstream reply.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
	Duration    time.Duration
}

// Do sends req. Network failures and an open breaker return ErrUnavailable;
// any HTTP status, including 5xx, is returned as a Response.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if c.breaker.State() == resilience.StateOpen {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, c.name, resilience.ErrCircuitOpen)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	c.mu.RLock()
	r := c.resty.R().SetContext(ctx)
	c.mu.RUnlock()

	trace := map[string]string{}
	tracing.InjectTraceContext(ctx, trace)
	for key, value := range trace {
		r.SetHeader(key, value)
	}
	for key, values := range req.Header {
		for _, v := range values {
			r.Header.Add(key, v)
		}
	}
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	target := c.baseURL
	if p := strings.TrimLeft(req.Path, "/"); p != "" {
		target += "/" + p
	}

	start := time.Now()
	resp, err := resilience.Call(c.breaker, func() (*resty.Response, error) {
		return r.Execute(method, target)
	})
	if c.onCall != nil {
		status := 0
		if err == nil {
			status = resp.StatusCode()
		}
		c.onCall(c.name, status, time.Since(start))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, c.name, err)
	}

	return &Response{
		Status:      resp.StatusCode(),
		ContentType: resp.Header().Get("Content-Type"),
		Body:        resp.Body(),
		Duration:    resp.Time(),
	}, nil
}
