// Package scryfall is a rate limited client for the Scryfall card API.
package scryfall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://api.scryfall.com"
	DefaultUserAgent = "Manaforge/1.0"

	defaultRateLimit = 100 * time.Millisecond // 10 req/sec, Scryfall's published limit
	requestTimeout   = 30 * time.Second
	maxRetries       = 3
	initialBackoff   = 1 * time.Second
	maxBackoff       = 16 * time.Second
)

// Options configures a Client. Zero values select the defaults.
type Options struct {
	BaseURL    string
	UserAgent  string
	RateLimit  time.Duration // Minimum spacing between requests
	HTTPClient *http.Client
}

// Client represents a Scryfall API client with rate limiting.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	baseURL     string
	userAgent   string
	backoff     time.Duration
}

// NewClient creates a new Scryfall API client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: requestTimeout}
	}

	return &Client{
		httpClient:  opts.HTTPClient,
		rateLimiter: rate.NewLimiter(rate.Every(opts.RateLimit), 1),
		baseURL:     opts.BaseURL,
		userAgent:   opts.UserAgent,
		backoff:     initialBackoff,
	}
}

// GetCard retrieves a card by its Scryfall ID.
func (c *Client) GetCard(ctx context.Context, id string) (*Card, error) {
	endpoint := fmt.Sprintf("%s/cards/%s", c.baseURL, url.PathEscape(id))

	var card Card
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &card); err != nil {
		return nil, fmt.Errorf("failed to get card %s: %w", id, err)
	}

	return &card, nil
}

// Search performs a full-text search using Scryfall query syntax. page
// starts at 1.
func (c *Client) Search(ctx context.Context, query string, page int) (*SearchResult, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("page", strconv.Itoa(page))
	endpoint := fmt.Sprintf("%s/cards/search?%s", c.baseURL, params.Encode())

	var result SearchResult
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		// Scryfall answers an empty search with 404
		if IsNotFound(err) {
			return &SearchResult{Object: "list"}, nil
		}
		return nil, fmt.Errorf("failed to search cards with query '%s': %w", query, err)
	}

	return &result, nil
}

// doRequest performs an HTTP request with rate limiting and retry logic.
// body, when non-nil, is sent as JSON.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	var lastErr error
	backoff := c.backoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			if attempt < maxRetries {
				if err := sleep(ctx, backoff); err != nil {
					return err
				}
				backoff = min(backoff*2, maxBackoff)
				continue
			}
			return lastErr
		}

		retry, err := c.handleResponse(resp, endpoint, result)
		if !retry {
			return err
		}
		lastErr = err

		if attempt < maxRetries {
			wait := backoff
			if s := resp.Header.Get("Retry-After"); s != "" {
				if secs, convErr := strconv.Atoi(s); convErr == nil {
					wait = time.Duration(secs) * time.Second
				}
			}
			if err := sleep(ctx, wait); err != nil {
				return err
			}
			backoff = min(backoff*2, maxBackoff)
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// handleResponse decodes resp into result. retry reports whether the request
// may succeed if repeated.
func (c *Client) handleResponse(resp *http.Response, endpoint string, result any) (retry bool, err error) {
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return false, fmt.Errorf("failed to parse JSON response: %w", err)
		}
		return false, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		return true, fmt.Errorf("rate limited (HTTP 429)")

	case resp.StatusCode == http.StatusNotFound:
		return false, &NotFoundError{URL: endpoint}

	case resp.StatusCode >= 500:
		body, _ := io.ReadAll(resp.Body)
		return true, fmt.Errorf("server error (HTTP %d): %s", resp.StatusCode, string(body))

	default:
		body, _ := io.ReadAll(resp.Body)
		var apiErr APIError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Details != "" {
			if apiErr.Status == 0 {
				apiErr.Status = resp.StatusCode
			}
			return false, &apiErr
		}
		return false, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
