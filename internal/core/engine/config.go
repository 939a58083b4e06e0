package engine

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
)

const (
	// DefaultBaseURL is the hosted openrouteservice API.
	DefaultBaseURL = "https://api.openrouteservice.org"

	// DefaultRetryTimeout bounds a whole retry chain.
	DefaultRetryTimeout = 60 * time.Second

	// DefaultQueriesPerMinute is the hosted API's free-tier quota.
	DefaultQueriesPerMinute = 40

	// DefaultUserAgent identifies the client to the API.
	DefaultUserAgent = "RouteLensClientGo.v0"
)

// Config configures a Client. Values are fixed once New returns.
type Config struct {
	// APIKey is appended as api_key to every request when set.
	// It may be empty only when BaseURL points at a self-hosted instance.
	APIKey string

	// BaseURL has no trailing slash. Empty means DefaultBaseURL.
	BaseURL string

	// Timeout is the combined connect and read timeout of a single HTTP
	// request. Zero means no timeout.
	Timeout time.Duration

	// RetryTimeout bounds the wall-clock time across retries. Zero means
	// DefaultRetryTimeout.
	RetryTimeout time.Duration

	// QueriesPerMinute is the client-side quota. Zero means
	// DefaultQueriesPerMinute.
	QueriesPerMinute int

	// RetryOverQueryLimit retries 429 responses instead of surfacing them.
	RetryOverQueryLimit bool

	// Headers are sent with every request. User-Agent and Content-Type are
	// always set by the client.
	Headers http.Header

	// ProxyURL routes requests through an HTTP proxy when set.
	ProxyURL string

	// UserAgent overrides DefaultUserAgent.
	UserAgent string

	// HTTPClient replaces the transport session. Its Timeout is left as is.
	HTTPClient *http.Client

	// Logger receives retry and quota diagnostics. Nil disables logging.
	Logger *logging.Logger

	// Store persists the send window across processes. Optional.
	Store WindowStore

	// DryRunOutput receives dry-run previews. Nil means os.Stdout.
	DryRunOutput io.Writer

	// Clock, Sleep and Random are test hooks.
	Clock  func() time.Time
	Sleep  func(ctx context.Context, d time.Duration) error
	Random func() float64
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.RetryTimeout <= 0 {
		c.RetryTimeout = DefaultRetryTimeout
	}
	if c.QueriesPerMinute <= 0 {
		c.QueriesPerMinute = DefaultQueriesPerMinute
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	return c
}
