package engine

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/routelens/routelens/internal/core"
	"github.com/routelens/routelens/internal/metrics"
)

// retriableStatuses are server errors worth another attempt.
var retriableStatuses = map[int]bool{
	http.StatusServiceUnavailable: true,
}

// Attempt is one iteration of a retry chain. It is never mutated; next
// returns the following attempt with the same first-attempt time.
type Attempt struct {
	CallID string
	Path   string
	Params core.Params
	Body   []byte
	First  time.Time
	Retry  int
}

func (a Attempt) next() Attempt {
	a.Retry++
	return a
}

// Method is POST when the attempt carries a JSON body.
func (a Attempt) Method() string {
	if a.Body != nil {
		return http.MethodPost
	}
	return http.MethodGet
}

// Client dispatches requests to the routing API. It is safe for concurrent
// use; all callers share one quota window.
type Client struct {
	cfg        Config
	httpClient *http.Client
	scope      string

	// sendMu serializes the quota check, dispatch and record of an attempt.
	sendMu sync.Mutex

	mu         sync.Mutex
	window     *SendWindow
	loadWindow sync.Once
}

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, &ConfigurationError{Message: fmt.Sprintf("invalid base URL %q: %v", cfg.BaseURL, err)}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.ProxyURL != "" {
			proxy, err := url.Parse(cfg.ProxyURL)
			if err != nil {
				return nil, &ConfigurationError{Message: fmt.Sprintf("invalid proxy URL %q: %v", cfg.ProxyURL, err)}
			}
			transport.Proxy = http.ProxyURL(proxy)
		}
		httpClient = &http.Client{Timeout: cfg.Timeout, Transport: transport}
	}

	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleep
	}
	if cfg.Random == nil {
		cfg.Random = rand.Float64
	}
	if cfg.DryRunOutput == nil {
		cfg.DryRunOutput = os.Stdout
	}
	cfg.Headers = cfg.Headers.Clone()

	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		scope:      QuotaScope(cfg.BaseURL, cfg.APIKey),
		window:     NewSendWindow(cfg.QueriesPerMinute),
	}, nil
}

// QuotaScope identifies the quota a base URL and key share. The key is hashed
// so stored scopes never reveal it.
func QuotaScope(baseURL, apiKey string) string {
	host := baseURL
	if parsed, err := url.Parse(baseURL); err == nil && parsed.Host != "" {
		host = parsed.Host
	}
	if apiKey == "" {
		return host
	}
	sum := sha256.Sum256([]byte(apiKey))
	return host + "/" + hex.EncodeToString(sum[:4])
}

// Scope returns the quota scope of this client.
func (c *Client) Scope() string {
	return c.scope
}

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// Window returns the recorded send times, oldest first.
func (c *Client) Window() []time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.window.Snapshot()
}

// QuotaState reports the in-memory send window of this client.
func (c *Client) QuotaState() core.QuotaState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return core.QuotaState{
		Scope:    c.scope,
		Sent:     c.window.Snapshot(),
		Capacity: c.window.Capacity(),
	}
}

// Send performs a request against path with params as the query string. A
// non-nil body is sent as JSON with POST; otherwise the request is a GET.
// Body may be a json.RawMessage, a []byte of JSON, or any value json.Marshal
// accepts.
//
// Send retries 503 responses (and 429 when RetryOverQueryLimit is set) with
// exponential backoff until RetryTimeout elapses. It returns the raw JSON body
// of a 200 response. With WithDryRun it returns (nil, nil).
func (c *Client) Send(ctx context.Context, path string, params core.Params, body any, opts ...SendOption) (json.RawMessage, error) {
	options := applySendOptions(opts)

	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	attempt := Attempt{
		CallID: uuid.NewString(),
		Path:   path,
		Params: params.Clone(),
		Body:   payload,
		First:  c.now(),
	}

	for {
		result, err := c.try(ctx, attempt, options)
		var retry *retriableError
		if errors.As(err, &retry) {
			reason := "server_error"
			if retry.statusCode == http.StatusTooManyRequests {
				reason = "quota"
			}
			metrics.RecordRetry(reason)
			c.logWarn("Retrying request",
				zap.String("call_id", attempt.CallID),
				zap.String("path", path),
				zap.Int("status", retry.statusCode),
				zap.Int("retry", attempt.Retry+1))
			attempt = attempt.next()
			continue
		}

		if !options.dryRun {
			metrics.RecordOutcome(outcomeLabel(err))
		}
		return result, err
	}
}

// try runs one iteration of the retry loop.
func (c *Client) try(ctx context.Context, attempt Attempt, options sendOptions) (json.RawMessage, error) {
	if elapsed := c.now().Sub(attempt.First); elapsed > c.cfg.RetryTimeout {
		return nil, fmt.Errorf("%w: retry budget of %s exhausted after %d retries", ErrTimeout, c.cfg.RetryTimeout, attempt.Retry)
	}

	if attempt.Retry > 0 {
		delay := backoffDelay(attempt.Retry, c.cfg.Random)
		c.logDebug("Backing off", zap.Duration("delay", delay), zap.Int("retry", attempt.Retry))
		if err := c.cfg.Sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	authed, err := BuildAuthURL(attempt.Path, attempt.Params, c.cfg.APIKey, c.cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	target := c.cfg.BaseURL + authed
	header := c.headers(options)

	if options.dryRun {
		return nil, writeDryRun(c.cfg.DryRunOutput, dryRunRequest{
			Method:  attempt.Method(),
			URL:     target,
			Headers: header,
			Timeout: c.cfg.Timeout,
			Proxy:   c.cfg.ProxyURL,
			Body:    attempt.Body,
		})
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	// The window outlives this call, so the seed ignores its cancellation.
	c.loadWindow.Do(func() { c.seedWindow(context.WithoutCancel(ctx)) })

	if err := c.waitForSlot(ctx); err != nil {
		return nil, err
	}

	return c.dispatch(ctx, attempt, target, header)
}

// waitForSlot sleeps while the window holds QueriesPerMinute sends younger
// than one minute.
func (c *Client) waitForSlot(ctx context.Context) error {
	c.mu.Lock()
	wait := c.window.Wait(c.now())
	c.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	c.logInfo("Request limit reached, waiting",
		zap.Int("queries_per_minute", c.cfg.QueriesPerMinute),
		zap.Duration("wait", wait))
	metrics.RecordQuotaWait(wait)
	return c.cfg.Sleep(ctx, wait)
}

func (c *Client) dispatch(ctx context.Context, attempt Attempt, target string, header http.Header) (json.RawMessage, error) {
	var reader io.Reader
	if attempt.Body != nil {
		reader = bytes.NewReader(attempt.Body)
	}

	req, err := http.NewRequestWithContext(ctx, attempt.Method(), target, reader)
	if err != nil {
		return nil, &TransportError{Cause: err}
	}
	req.Header = header

	start := time.Now()
	entry := TraceEntry{
		Timestamp:   start,
		CallID:      attempt.CallID,
		Method:      req.Method,
		URL:         target,
		Attempt:     attempt.Retry,
		RequestBody: json.RawMessage(attempt.Body),
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		entry.Error = err.Error()
		entry.DurationMs = time.Since(start).Milliseconds()
		Trace(entry)
		metrics.RecordDispatch(req.Method, 0, time.Since(start))
		return nil, classifyTransportError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	duration := time.Since(start)
	metrics.RecordDispatch(req.Method, resp.StatusCode, duration)

	entry.StatusCode = resp.StatusCode
	entry.DurationMs = duration.Milliseconds()
	entry.Response = raw
	if err != nil {
		entry.Error = err.Error()
	}
	Trace(entry)

	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}

	return c.classify(ctx, resp.StatusCode, raw)
}

// classify maps a response to a result, a terminal error or a retry.
func (c *Client) classify(ctx context.Context, status int, raw []byte) (json.RawMessage, error) {
	switch {
	case retriableStatuses[status]:
		return nil, &retriableError{statusCode: status}
	case status == http.StatusTooManyRequests:
		if c.cfg.RetryOverQueryLimit {
			return nil, &retriableError{statusCode: status}
		}
		return nil, &QuotaExceededError{APIError{StatusCode: status, Body: string(raw)}}
	case status != http.StatusOK:
		return nil, &APIError{StatusCode: status, Body: string(raw)}
	}

	var body json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	c.record(ctx, c.now())
	return body, nil
}

func (c *Client) record(ctx context.Context, at time.Time) {
	c.mu.Lock()
	c.window.Record(at)
	c.mu.Unlock()

	if c.cfg.Store == nil {
		return
	}
	if err := c.cfg.Store.RecordSend(context.WithoutCancel(ctx), c.scope, at, c.window.Capacity()); err != nil {
		c.logWarn("Failed to persist send time", zap.String("scope", c.scope), zap.Error(err))
	}
}

func (c *Client) seedWindow(ctx context.Context) {
	if c.cfg.Store == nil {
		return
	}
	times, err := c.cfg.Store.LoadSendTimes(ctx, c.scope, c.window.Capacity())
	if err != nil {
		c.logWarn("Failed to load send window", zap.String("scope", c.scope), zap.Error(err))
		return
	}

	c.mu.Lock()
	c.window.Seed(times)
	c.mu.Unlock()

	c.logDebug("Loaded send window", zap.String("scope", c.scope), zap.Int("sends", len(times)))
}

func (c *Client) headers(options sendOptions) http.Header {
	header := c.cfg.Headers.Clone()
	if header == nil {
		header = make(http.Header)
	}
	for key, values := range options.headers {
		header[key] = append([]string(nil), values...)
	}
	header.Set("User-Agent", c.cfg.UserAgent)
	header.Set("Content-Type", "application/json")
	return header
}

func (c *Client) now() time.Time {
	return c.cfg.Clock()
}

func (c *Client) logger() *logging.Logger {
	return c.cfg.Logger
}

func (c *Client) logInfo(msg string, fields ...zap.Field) {
	if l := c.logger(); l != nil {
		l.Info(msg, fields...)
	}
}

func (c *Client) logWarn(msg string, fields ...zap.Field) {
	if l := c.logger(); l != nil {
		l.Warn(msg, fields...)
	}
}

func (c *Client) logDebug(msg string, fields ...zap.Field) {
	if l := c.logger(); l != nil {
		l.Debug(msg, fields...)
	}
}

func encodeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		if v == nil {
			return nil, nil
		}
		return v, nil
	case []byte:
		if v == nil {
			return nil, nil
		}
		if !json.Valid(v) {
			return nil, fmt.Errorf("encode request body: invalid JSON")
		}
		return v, nil
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return payload, nil
}

func classifyTransportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return &TransportError{Cause: err}
}

func outcomeLabel(err error) string {
	var (
		cfgErr       *ConfigurationError
		transportErr *TransportError
		quotaErr     *QuotaExceededError
		apiErr       *APIError
	)
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.As(err, &cfgErr):
		return "configuration_error"
	case errors.As(err, &transportErr):
		return "transport_error"
	case errors.As(err, &quotaErr):
		return "quota_exceeded"
	case errors.As(err, &apiErr):
		return "api_error"
	default:
		return "decode_error"
	}
}
