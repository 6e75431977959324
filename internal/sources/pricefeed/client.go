// Package pricefeed fetches daily close prices from the external price
// service. The service is treated as unreliable: calls are rate limited,
// retried with backoff on transient failures, and cut off by a circuit
// breaker when it is persistently down.
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/CryptoSharon/hive-stats/internal/domain"
)

// Config holds price feed client configuration.
type Config struct {
	BaseURL        string        `yaml:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryBackoff   time.Duration `yaml:"retry_backoff"`
	UserAgent      string        `yaml:"user_agent"`
}

// Client provides access to the daily price API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	maxRetries int
	backoff    time.Duration
}

// NewClient creates a price feed client, filling unset config with defaults.
func NewClient(config Config) *Client {
	if config.RequestTimeout == 0 {
		config.RequestTimeout = 10 * time.Second
	}
	if config.RateLimitRPS == 0 {
		config.RateLimitRPS = 2.0
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.RetryBackoff == 0 {
		config.RetryBackoff = time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "hive-stats/1.0"
	}

	settings := gobreaker.Settings{Name: "pricefeed"}
	settings.Interval = 60 * time.Second
	settings.Timeout = 60 * time.Second
	settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= 5
	}

	return &Client{
		httpClient: &http.Client{Timeout: config.RequestTimeout},
		baseURL:    config.BaseURL,
		userAgent:  config.UserAgent,
		limiter:    rate.NewLimiter(rate.Limit(config.RateLimitRPS), 1),
		breaker:    gobreaker.NewCircuitBreaker(settings),
		maxRetries: config.MaxRetries,
		backoff:    config.RetryBackoff,
	}
}

// dailyPricesResponse is the wire shape of the daily price endpoint.
type dailyPricesResponse struct {
	Symbol string `json:"symbol"`
	Prices []struct {
		Date  string  `json:"date"`
		Close float64 `json:"close"`
	} `json:"prices"`
}

// FetchDailyPrices returns up to limit daily closes for the coin, ending at
// the through date. Zero and negative closes are dropped before the points
// reach any store; dates are normalized to UTC midnight.
func (c *Client) FetchDailyPrices(ctx context.Context, coin domain.Coin, through time.Time, limit int) ([]domain.PricePoint, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait aborted: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/prices/daily", c.baseURL)
	params := url.Values{}
	params.Set("symbol", string(coin))
	params.Set("through", through.UTC().Format("2006-01-02"))
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.breaker.Execute(func() (interface{}, error) {
		return c.getWithRetry(ctx, endpoint+"?"+params.Encode())
	})
	if err != nil {
		return nil, fmt.Errorf("price feed unavailable for %s: %w", coin, err)
	}

	var resp dailyPricesResponse
	if err := json.Unmarshal(body.([]byte), &resp); err != nil {
		return nil, fmt.Errorf("failed to decode price response: %w", err)
	}

	points := make([]domain.PricePoint, 0, len(resp.Prices))
	for _, p := range resp.Prices {
		if p.Close <= 0 {
			continue
		}
		date, err := time.ParseInLocation("2006-01-02", p.Date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("failed to parse price date %q: %w", p.Date, err)
		}
		points = append(points, domain.PricePoint{Date: date, Coin: coin, PriceUSD: p.Close})
	}

	return points, nil
}

// getWithRetry performs the GET, retrying server-side and transport
// failures with linear backoff. Client-side errors fail immediately.
func (c *Client) getWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff * time.Duration(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server error %d", resp.StatusCode)
			continue
		default:
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
	}

	return nil, fmt.Errorf("all %d attempts failed: %w", c.maxRetries+1, lastErr)
}
