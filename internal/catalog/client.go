package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL  = "https://api2.isbndb.com"
	defaultPageSize = 20
	defaultTimeout  = 15 * time.Second
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL  string
	APIKey   string
	PageSize int
	Timeout  time.Duration

	// RequestsPerSecond <= 0 disables outbound limiting.
	RequestsPerSecond float64
	Burst             int

	HTTPClient *http.Client
}

// Client talks to the ISBNdb v2 API. Every call is a single request with
// no retry; failures are returned to the caller as *Error.
type Client struct {
	baseURL  string
	apiKey   string
	pageSize int
	http     *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
}

func NewClient(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	burst := opts.Burst
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
		if burst <= 0 {
			burst = 1
		}
	}

	return &Client{
		baseURL:  baseURL,
		apiKey:   opts.APIKey,
		pageSize: pageSize,
		http:     httpClient,
		limiter:  rate.NewLimiter(limit, burst),
		logger:   logger,
	}
}

// get performs one GET against the catalog and decodes a JSON body into out.
func (c *Client) get(ctx context.Context, op, query, endpoint string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return wrapError(op, query, fmt.Errorf("rate limit: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return wrapError(op, query, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return wrapError(op, query, fmt.Errorf("%w: %v", ErrUpstream, err))
	}
	defer resp.Body.Close()

	c.logger.Debug("catalog request",
		"op", op,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return wrapError(op, query, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return wrapError(op, query, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return wrapError(op, query, fmt.Errorf("%w: parse response: %v", ErrUpstream, err))
	}
	return nil
}
