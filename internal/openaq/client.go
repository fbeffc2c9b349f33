// Package openaq fetches latest measurements from the OpenAQ v3 API.
package openaq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lox/airguard/internal/httputil"
	"github.com/lox/airguard/internal/metrics"
)

const DefaultBaseURL = "https://api.openaq.org"

// ErrNoAPIKey is returned when the client was built without a key.
var ErrNoAPIKey = errors.New("openaq: api key not configured")

// Response is an upstream reply kept verbatim.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// StatusError reports a non-200 reply from the retrying fetch.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("openaq: status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string

	// MaxElapsedTime bounds FetchLatestWithRetry.
	MaxElapsedTime time.Duration
}

func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient:     httputil.NewClient(),
		baseURL:        baseURL,
		apiKey:         apiKey,
		MaxElapsedTime: 2 * time.Minute,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

func (c *Client) latestURL(lat, lon float64) string {
	q := url.Values{}
	q.Set("coordinates", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lon, 'f', -1, 64))
	return c.baseURL + "/v3/latest?" + q.Encode()
}

// FetchLatest makes a single request for the latest measurements near a
// coordinate. Any upstream status is returned as a Response; only transport
// failures produce an error.
func (c *Client) FetchLatest(ctx context.Context, lat, lon float64) (*Response, error) {
	return c.fetch(ctx, lat, lon, "proxy")
}

func (c *Client) fetch(ctx context.Context, lat, lon float64, caller string) (*Response, error) {
	if !c.Configured() {
		return nil, ErrNoAPIKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.latestURL(lat, lon), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.UpstreamLatency.WithLabelValues(caller).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("fetch latest: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// FetchLatestWithRetry retries 429 and 5xx replies with exponential backoff.
// Other non-200 replies fail immediately with a *StatusError.
func (c *Client) FetchLatestWithRetry(ctx context.Context, lat, lon float64) (*Response, error) {
	var result *Response
	operation := func() error {
		resp, err := c.fetch(ctx, lat, lon, "poller")
		if errors.Is(err, ErrNoAPIKey) {
			return backoff.Permanent(err)
		}
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return &StatusError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(&StatusError{StatusCode: resp.StatusCode, Body: string(resp.Body)})
		}
		result = resp
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.MaxElapsedTime
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return result, nil
}
