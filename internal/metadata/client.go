// Package metadata is the read-only content-metadata provider client. It is
// the sole source of episode-count ground truth; the engine never writes
// through it.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"serieer/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout     = 30 * time.Second
	maxRetries         = 3
	retryDelay         = 2 * time.Second
	userAgent          = "Serieer/1.0"
	maxResponseSize    = 5 * 1024 * 1024
	detailsCachePrefix = "series:details:"
	detailsCacheTTL    = 24 * time.Hour
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
	limiter    *rate.Limiter
	redis      *redis.Client
}

type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// RateLimit is the minimum spacing between provider requests.
	RateLimit time.Duration
	Logger    *logrus.Logger
	Redis     *redis.Client
}

func NewClient(config *ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	interval := config.RateLimit
	if interval == 0 {
		interval = time.Second
	}

	return &Client{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger:  config.Logger,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		redis:   config.Redis,
	}
}

// GetSeries fetches series details including per-season episode counts.
// Results are cached; a cache hit never touches the provider.
func (c *Client) GetSeries(ctx context.Context, id int) (*models.Series, error) {
	if id <= 0 {
		return nil, fmt.Errorf("invalid series id %d", id)
	}

	cacheKey := fmt.Sprintf("%s%d", detailsCachePrefix, id)
	if c.redis != nil {
		cached, err := c.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var series models.Series
			if err := json.Unmarshal([]byte(cached), &series); err != nil {
				c.logger.WithError(err).Warn("Failed to unmarshal cached series details")
			} else {
				return &series, nil
			}
		} else if err != redis.Nil {
			c.logger.WithError(err).Warn("Failed to read from Redis")
		}
	}

	url := fmt.Sprintf("%s/tv/%d?api_key=%s", c.baseURL, id, c.apiKey)
	body, err := c.makeRequest(ctx, url)
	if err != nil {
		return nil, err
	}

	var series models.Series
	if err := json.Unmarshal(body, &series); err != nil {
		return nil, fmt.Errorf("failed to decode series details: %w", err)
	}

	if c.redis != nil {
		payload, err := json.Marshal(&series)
		if err != nil {
			c.logger.WithError(err).Warn("Failed to marshal series details for caching")
		} else if err := c.redis.Set(ctx, cacheKey, payload, detailsCacheTTL).Err(); err != nil {
			c.logger.WithError(err).Warn("Failed to write series details to cache")
		}
	}

	return &series, nil
}

func (c *Client) makeRequest(ctx context.Context, url string) ([]byte, error) {
	var rErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter interrupted: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			rErr = fmt.Errorf("failed to make HTTP request: %w", err)
			c.retryLogger(attempt, url, err)
			c.waitForRetry(ctx, attempt)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			rErr = fmt.Errorf("provider returned status code %d", resp.StatusCode)
			c.retryLogger(attempt, url, rErr)
			c.waitForRetry(ctx, attempt)
			continue
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
		resp.Body.Close()
		if err != nil {
			rErr = fmt.Errorf("failed to read response body: %w", err)
			c.retryLogger(attempt, url, err)
			c.waitForRetry(ctx, attempt)
			continue
		}
		if len(body) > maxResponseSize {
			return nil, fmt.Errorf("response too large: exceeded %d bytes", maxResponseSize)
		}

		c.logger.WithFields(logrus.Fields{
			"url":           url,
			"attempt":       attempt,
			"response_size": len(body),
		}).Debug("Provider request successful")
		return body, nil
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", maxRetries, rErr)
}

func (c *Client) retryLogger(attempt int, url string, err error) {
	c.logger.WithFields(logrus.Fields{
		"attempt": attempt + 1,
		"url":     url,
		"error":   err.Error(),
	}).Warn("Provider request failed, retrying...")
}

func (c *Client) waitForRetry(ctx context.Context, attempt int) {
	if attempt >= maxRetries-1 {
		return
	}
	delay := time.Duration(attempt+1) * retryDelay
	select {
	case <-time.After(delay):
	case <-ctx.Done():
	}
}
