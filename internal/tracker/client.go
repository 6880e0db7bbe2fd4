package tracker

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnauthorized is returned when the tracker rejects the configured token.
	ErrUnauthorized = errors.New("tracker authentication failed (401/403), check CLICKUP_TOKEN")
	// ErrRateLimited is returned when the tracker answers 429.
	ErrRateLimited = errors.New("tracker rate limit exceeded (429)")
	// ErrNotFound is returned for unknown lists or tasks.
	ErrNotFound = errors.New("tracker resource not found")
)

// Client is the interface for interacting with the task tracker.
type Client interface {
	ListTasks(ctx context.Context, listID string, page int) (*TaskPage, error)
	GetTimeInStatus(ctx context.Context, taskID string) (*TimeInStatusDTO, error)
}

// Config holds the authentication and connection settings for the tracker API.
type Config struct {
	BaseURL string
	Token   string

	// Performance Settings
	RequestDelay time.Duration
	PageSize     int
	CacheTTL     time.Duration
}

// NewClient creates a new tracker client based on the provided configuration.
func NewClient(cfg Config) Client {
	return NewClickUpClient(cfg)
}
