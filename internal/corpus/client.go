package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aurorahq/aurora/internal/errors"
)

// Client fetch defaults.
const (
	// DefaultFetchLimit is high enough to retrieve the full corpus in one page.
	DefaultFetchLimit = 10000

	// DefaultFetchTimeout bounds a single upstream request.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultMaxRetries bounds transient-failure retries per fetch.
	DefaultMaxRetries = 3

	// retryBaseDelay is the initial backoff delay between retries.
	retryBaseDelay = 500 * time.Millisecond
)

// ClientConfig configures the upstream messages client.
type ClientConfig struct {
	URL        string
	FetchLimit int
	Timeout    time.Duration
	MaxRetries int
}

// Client fetches member messages from the upstream HTTP API.
type Client struct {
	config ClientConfig
	client *http.Client
}

// Verify interface implementation at compile time
var _ Source = (*Client)(nil)

// messagesResponse is the upstream API response envelope.
type messagesResponse struct {
	Total int       `json:"total"`
	Items []Message `json:"items"`
}

// NewClient creates an upstream messages client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = DefaultFetchLimit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultFetchTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	return &Client{
		config: cfg,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     30 * time.Second,
			},
		},
	}
}

// FetchAll retrieves the full message set with bounded retries.
// Each attempt carries its own timeout; backoff doubles between attempts.
func (c *Client) FetchAll(ctx context.Context) (int, []Message, error) {
	var lastErr error
	delay := retryBaseDelay

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return 0, nil, ctx.Err()
		default:
		}

		total, messages, err := c.fetchOnce(ctx)
		if err == nil {
			return total, messages, nil
		}
		lastErr = err

		if attempt < c.config.MaxRetries {
			slog.Warn("upstream fetch failed, retrying",
				slog.Int("attempt", attempt+1),
				slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return 0, nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return 0, nil, errors.UpstreamError(
		fmt.Sprintf("fetch failed after %d retries", c.config.MaxRetries), lastErr)
}

// fetchOnce performs a single fetch attempt.
func (c *Client) fetchOnce(ctx context.Context) (int, []Message, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	u, err := url.Parse(c.config.URL)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid upstream URL %q: %w", c.config.URL, err)
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(c.config.FetchLimit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to reach upstream: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return 0, nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, nil, fmt.Errorf("failed to decode response: %w", err)
	}

	slog.Info("messages fetched",
		slog.Int("total", parsed.Total),
		slog.Int("fetched", len(parsed.Items)))

	return parsed.Total, parsed.Items, nil
}
