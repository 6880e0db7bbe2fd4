package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type clickupClient struct {
	cfg        Config
	httpClient *http.Client

	throttleMutex sync.Mutex
	lastRequest   time.Time

	// Session Cache
	cache      map[string]*cacheEntry
	cacheMutex sync.Mutex
}

type cacheEntry struct {
	Value       any
	Expiration  time.Time
	AccessCount int
	OriginalTTL time.Duration
}

// NewClickUpClient creates a client for the ClickUp v2 REST API.
func NewClickUpClient(cfg Config) Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.clickup.com/api/v2"
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = 100
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	return &clickupClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
		cache: make(map[string]*cacheEntry),
	}
}

func (c *clickupClient) getFromCache(key string) (any, bool) {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	entry, ok := c.cache[key]
	if !ok {
		log.Debug().Str("key", key).Msg("Cache miss")
		return nil, false
	}

	if time.Now().After(entry.Expiration) {
		delete(c.cache, key)
		return nil, false
	}
	log.Debug().Str("key", key).Msg("Cache hit")

	// Sliding window extension
	if entry.AccessCount < 6 {
		entry.Expiration = time.Now().Add(entry.OriginalTTL)
		entry.AccessCount++
		log.Trace().Str("key", key).Int("count", entry.AccessCount).Msg("Extended cache TTL")
	}

	return entry.Value, true
}

func (c *clickupClient) addToCache(key string, value any, ttl time.Duration) {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	c.cache[key] = &cacheEntry{
		Value:       value,
		Expiration:  time.Now().Add(ttl),
		OriginalTTL: ttl,
		AccessCount: 1,
	}
	log.Debug().Str("key", key).Dur("ttl", ttl).Msg("Added to cache")
}

// throttle keeps a fixed gap between consecutive requests, across goroutines.
func (c *clickupClient) throttle(ctx context.Context) error {
	c.throttleMutex.Lock()
	defer c.throttleMutex.Unlock()

	elapsed := time.Since(c.lastRequest)
	if elapsed < c.cfg.RequestDelay {
		wait := c.cfg.RequestDelay - elapsed
		log.Debug().Dur("wait", wait).Msg("Throttling tracker request")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	c.lastRequest = time.Now()
	return nil
}

func (c *clickupClient) ListTasks(ctx context.Context, listID string, page int) (*TaskPage, error) {
	cacheKey := fmt.Sprintf("tasks:%s:%d", listID, page)
	if val, ok := c.getFromCache(cacheKey); ok {
		return val.(*TaskPage), nil
	}

	params := url.Values{}
	params.Set("include_closed", "true")
	params.Set("subtasks", "false")
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(c.cfg.PageSize))

	listURL := fmt.Sprintf("%s/list/%s/task?%s", c.cfg.BaseURL, url.PathEscape(listID), params.Encode())
	log.Debug().Str("list", listID).Int("page", page).Msg("Requesting tasks from tracker")

	var result TaskPage
	if err := c.getJSON(ctx, listURL, fmt.Sprintf("list %s", listID), &result); err != nil {
		return nil, err
	}

	c.addToCache(cacheKey, &result, c.cfg.CacheTTL)
	return &result, nil
}

func (c *clickupClient) GetTimeInStatus(ctx context.Context, taskID string) (*TimeInStatusDTO, error) {
	cacheKey := "time_in_status:" + taskID
	if val, ok := c.getFromCache(cacheKey); ok {
		return val.(*TimeInStatusDTO), nil
	}

	statusURL := fmt.Sprintf("%s/task/%s/time_in_status", c.cfg.BaseURL, url.PathEscape(taskID))

	var result TimeInStatusDTO
	if err := c.getJSON(ctx, statusURL, fmt.Sprintf("task %s", taskID), &result); err != nil {
		return nil, err
	}

	c.addToCache(cacheKey, &result, c.cfg.CacheTTL)
	return &result, nil
}

func (c *clickupClient) getJSON(ctx context.Context, target, resource string, out any) error {
	if err := c.throttle(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	// ClickUp personal tokens are sent verbatim, without a scheme prefix.
	req.Header.Set("Authorization", c.cfg.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request for %s failed: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return ErrUnauthorized
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, resource)
		case http.StatusTooManyRequests:
			if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
				return fmt.Errorf("%w: retry after %s seconds", ErrRateLimited, retryAfter)
			}
			return ErrRateLimited
		default:
			return fmt.Errorf("tracker API returned status %d for %s", resp.StatusCode, resource)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response for %s: %w", resource, err)
	}
	return nil
}
