// Package radar fetches the ranked most-called token list from the
// radar.fun analytics API.
package radar

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/radar-fun/most-called-bot/internal/model"
	"github.com/radar-fun/most-called-bot/internal/retry"
)

// FetchErrorKind distinguishes retry exhaustion from fatal validation
// failures.
type FetchErrorKind int

const (
	// Exhausted means every retryable attempt failed.
	Exhausted FetchErrorKind = iota
	// Invalid means the response was unusable and retrying is pointless:
	// a non-retryable status, a non-JSON body, or a body that is not the
	// expected token array.
	Invalid
)

func (k FetchErrorKind) String() string {
	if k == Invalid {
		return "invalid"
	}
	return "exhausted"
}

// FetchError is the only error type MostCalled returns.
type FetchError struct {
	Kind       FetchErrorKind
	StatusCode int // last HTTP status, 0 for transport failures
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("radar fetch %s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client calls the radar.fun REST API.
type Client struct {
	baseURL    string
	policy     retry.Policy
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-attempt HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithInsecureTLS disables certificate verification. The upstream has a
// broken certificate chain; the sample config ships with verification
// off, matching it.
func WithInsecureTLS(insecure bool) Option {
	return func(c *Client) {
		if !insecure {
			return
		}
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		c.httpClient.Transport = t
	}
}

// NewClient creates a radar API client.
func NewClient(baseURL string, policy retry.Policy, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		policy:  policy,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wireToken is one entry of the upstream JSON array. Pointer fields let
// validation distinguish absent from zero.
type wireToken struct {
	Symbol         *string  `json:"symbol"`
	Name           *string  `json:"name"`
	Address        *string  `json:"address"`
	UniqueChannels *int     `json:"unique_channels"`
	WinRate        *float64 `json:"win_rate"`
}

// MostCalled fetches the ranked token list for the given timeframe.
// Retryable statuses and transport-error kinds come from the client's
// policy; everything else fails fast with FetchError{Invalid}. Records
// failing field validation are dropped, not fatal. An empty list is a
// valid result.
func (c *Client) MostCalled(ctx context.Context, timeframe string) ([]model.TokenRecord, error) {
	var records []model.TokenRecord

	attempt := 0
	op := func() error {
		attempt++
		recs, err := c.fetchOnce(ctx, timeframe)
		if err != nil {
			return err
		}
		records = recs
		return nil
	}
	notify := func(err error, next time.Duration) {
		c.logger.Warn("radar fetch failed, will retry",
			"attempt", attempt,
			"backoff", next,
			"error", err,
		)
	}

	if err := backoff.RetryNotify(op, c.policy.NewBackOff(ctx), notify); err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			return nil, fe
		}
		return nil, &FetchError{Kind: Exhausted, StatusCode: statusOf(err), Err: err}
	}
	return records, nil
}

// fetchOnce performs a single GET attempt. Retryable failures come back
// as plain errors; fatal ones are wrapped in retry.Permanent so the
// backoff loop stops.
func (c *Client) fetchOnce(ctx context.Context, timeframe string) ([]model.TokenRecord, error) {
	q := url.Values{}
	q.Set("timeframe", timeframe)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, retry.Permanent(&FetchError{Kind: Invalid, Err: err})
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.policy.RetryableError(err) {
			return nil, &statusError{err: err}
		}
		return nil, retry.Permanent(&FetchError{Kind: Invalid, Err: err})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &statusError{err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("radar api status %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		if c.policy.RetryableStatus(resp.StatusCode) {
			return nil, &statusError{code: resp.StatusCode, err: err}
		}
		return nil, retry.Permanent(&FetchError{Kind: Invalid, StatusCode: resp.StatusCode, Err: err})
	}

	var wire []wireToken
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, retry.Permanent(&FetchError{Kind: Invalid, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode token list: %w", err)})
	}

	records := make([]model.TokenRecord, 0, len(wire))
	for i, w := range wire {
		rec, ok := validate(w)
		if !ok {
			c.logger.Debug("dropping invalid token record", "index", i)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// validate checks required fields and converts to the domain record.
func validate(w wireToken) (model.TokenRecord, bool) {
	if w.Symbol == nil || *w.Symbol == "" {
		return model.TokenRecord{}, false
	}
	if w.Address == nil || *w.Address == "" {
		return model.TokenRecord{}, false
	}
	if w.UniqueChannels == nil || *w.UniqueChannels < 0 {
		return model.TokenRecord{}, false
	}
	if w.WinRate == nil || *w.WinRate < 0 || *w.WinRate > 100 {
		return model.TokenRecord{}, false
	}
	rec := model.TokenRecord{
		Symbol:    *w.Symbol,
		Address:   *w.Address,
		CallCount: *w.UniqueChannels,
		WinRate:   *w.WinRate,
	}
	if w.Name != nil {
		rec.Name = *w.Name
	}
	return rec, true
}

// statusError carries the HTTP status of a retryable attempt so the
// exhaustion error can report it.
type statusError struct {
	code int
	err  error
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

func statusOf(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.code
	}
	return 0
}
