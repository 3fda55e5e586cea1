// Package httpsource pages over a remote JSON API.
//
// A Client[T] is a pagination.Source[T]: Fetch issues
// GET {BaseURL}{Endpoint}?offset=&limit= and decodes a JSON array of T,
// Count issues HEAD on the same endpoint and reads X-Total-Count. Transient
// failures are retried with backoff. Requests can be capped per second on
// the client side and, when a Redis client is configured, the source's
// X-RateLimit-* budget is tracked and honoured.
package httpsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/pagewindow/pkg/pagination"
	"github.com/Sternrassler/pagewindow/pkg/ratelimit"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Prometheus metrics for remote source requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagewindow_http_requests_total",
		Help: "Total remote source requests by source, method and status",
	}, []string{"source", "method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pagewindow_http_request_duration_seconds",
		Help:    "Remote source request duration in seconds by source and method",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"source", "method"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagewindow_http_errors_total",
		Help: "Total remote source errors by class",
	}, []string{"class"})
)

// HeaderTotalCount carries the total record count on HEAD responses.
const HeaderTotalCount = "X-Total-Count"

// Config holds the client configuration.
type Config struct {
	// BaseURL is the scheme and host of the remote API, e.g. "https://api.example.com".
	BaseURL string `validate:"required,url"`

	// Endpoint is the collection path, e.g. "/v1/orders".
	Endpoint string `validate:"required,startswith=/"`

	// Name labels metrics, logs and rate limit state (default: Endpoint).
	Name string

	// UserAgent is sent with every request.
	UserAgent string `validate:"required"`

	// Timeout bounds a single HTTP attempt (default: 30s).
	Timeout time.Duration `validate:"gte=0"`

	// RateLimit caps requests per second from this client (0: unlimited).
	RateLimit float64 `validate:"gte=0"`

	// Burst is the number of requests allowed at once under RateLimit (default: 1).
	Burst int `validate:"gte=0"`

	// Redis enables shared rate limit tracking when set.
	Redis *redis.Client

	// Retry overrides RetryConfigForErrorClass.
	Retry RetryPolicy
}

// DefaultConfig returns a default configuration for one remote collection.
func DefaultConfig(baseURL, endpoint string) Config {
	return Config{
		BaseURL:   baseURL,
		Endpoint:  endpoint,
		UserAgent: "pagewindow/0.1.0",
		Timeout:   30 * time.Second,
	}
}

var validate = validator.New()

// Client fetches pages of T from a remote JSON API.
type Client[T any] struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	rateLimiter *ratelimit.Tracker
	config      Config
	logger      zerolog.Logger
}

// New creates a client. It fails when the configuration is incomplete.
func New[T any](cfg Config) (*Client[T], error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("httpsource config: %w", err)
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.Name == "" {
		cfg.Name = cfg.Endpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := log.With().
		Str("component", "http-source").
		Str("source", cfg.Name).
		Logger()

	c := &Client[T]{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		logger:     logger,
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.Burst, 1))
	}
	if cfg.Redis != nil {
		c.rateLimiter = ratelimit.NewTracker(cfg.Redis, cfg.Name, logger)
	}
	return c, nil
}

// Name returns the source name.
func (c *Client[T]) Name() string {
	return c.config.Name
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client[T]) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Fetch implements pagination.Source.
func (c *Client[T]) Fetch(ctx context.Context, q pagination.Query, offset, limit int) ([]T, error) {
	// an explicit empty identifier list matches nothing
	if q.IDs != nil && len(q.IDs) == 0 {
		return []T{}, nil
	}

	params := queryValues(q)
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(limit))

	var records []T
	_, err := c.do(ctx, http.MethodGet, params, func(resp *http.Response) error {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &records); err != nil {
			return &APIError{
				StatusCode: resp.StatusCode,
				ErrorClass: ErrorClassDecode,
				Message:    "response is not a JSON array of records",
				Err:        err,
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int("offset", offset).
		Int("limit", limit).
		Int("records", len(records)).
		Msg("Fetched remote page")

	return records, nil
}

// Count implements pagination.Source. Sources that do not report
// X-Total-Count yield pagination.ErrCountUnsupported.
func (c *Client[T]) Count(ctx context.Context, q pagination.Query) (int, error) {
	params := queryValues(q)
	for k, v := range q.Count {
		params.Set("count."+k, fmt.Sprint(v))
	}

	header, err := c.do(ctx, http.MethodHead, params, nil)
	if err != nil {
		return 0, err
	}

	raw := header.Get(HeaderTotalCount)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s header missing", pagination.ErrCountUnsupported, HeaderTotalCount)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &APIError{
			StatusCode: http.StatusOK,
			ErrorClass: ErrorClassDecode,
			Message:    fmt.Sprintf("invalid %s header %q", HeaderTotalCount, raw),
			Err:        err,
		}
	}
	return n, nil
}

// do sends one logical request with rate limiting and retries. On success
// the response headers are returned and, for a non-nil read, the body is
// handed to read before it is closed.
func (c *Client[T]) do(ctx context.Context, method string, params url.Values, read func(*http.Response) error) (http.Header, error) {
	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(c.config.Name, method).Observe(time.Since(start).Seconds())
	}()

	if c.rateLimiter != nil {
		allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
		if err != nil {
			return nil, fmt.Errorf("rate limit check: %w", err)
		}
		if !allowed {
			c.logger.Warn().Str("method", method).Msg("Request blocked by rate limiter")
			requestsTotal.WithLabelValues(c.config.Name, method, "rate_limited").Inc()
			return nil, ErrRequestBlocked
		}
	}

	target := c.config.BaseURL + c.config.Endpoint
	if encoded := params.Encode(); encoded != "" {
		target += "?" + encoded
	}

	var header http.Header
	err := retryWithBackoff(ctx, c.config.Retry, c.logger, func() error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return &APIError{ErrorClass: ErrorClassClient, Message: "rate limiter wait", Err: err}
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, target, nil)
		if err != nil {
			return &APIError{ErrorClass: ErrorClassClient, Message: "create request", Err: err}
		}
		req.Header.Set("User-Agent", c.config.UserAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Debug().Err(err).Str("method", method).Msg("HTTP request failed")
			errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			requestsTotal.WithLabelValues(c.config.Name, method, "network_error").Inc()
			return err
		}
		defer resp.Body.Close()

		if c.rateLimiter != nil {
			if err := c.rateLimiter.UpdateFromHeaders(ctx, resp.Header); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
			}
		}

		requestsTotal.WithLabelValues(c.config.Name, method, strconv.Itoa(resp.StatusCode)).Inc()

		if class := classifyStatus(resp.StatusCode); class != "" {
			errorsTotal.WithLabelValues(string(class)).Inc()
			c.logger.Warn().
				Str("method", method).
				Int("status", resp.StatusCode).
				Str("error_class", string(class)).
				Msg("Remote source request error")
			return &APIError{
				StatusCode: resp.StatusCode,
				ErrorClass: class,
				Message:    resp.Status,
				RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			}
		}

		if read != nil {
			if err := read(resp); err != nil {
				if class := errorClassOf(err); class == ErrorClassDecode {
					errorsTotal.WithLabelValues(string(class)).Inc()
				}
				return err
			}
		}
		header = resp.Header
		return nil
	})
	if err != nil {
		return nil, err
	}
	return header, nil
}

// queryValues encodes the non-window parts of q. Conditions and extra
// params become plain query parameters; a condition wins over a param of
// the same name.
func queryValues(q pagination.Query) url.Values {
	params := url.Values{}
	if q.Order != "" {
		params.Set("order", q.Order)
	}
	if q.Finder != "" && q.Finder != pagination.DefaultFinder {
		params.Set("finder", q.Finder)
	}
	if q.IDs != nil {
		params.Set("ids", strings.Join(q.IDs, ","))
	}
	for _, m := range []map[string]any{q.Params, q.Conditions} {
		for k, v := range m {
			params.Set(k, fmt.Sprint(v))
		}
	}
	return params
}
