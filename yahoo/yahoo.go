// Package yahoo fetches quotes and FX rates from the public Yahoo Finance
// chart endpoint, and searches symbols. No API key is required.
package yahoo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/etnz/captrack"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the Yahoo Finance API host.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// ErrNoData is returned when Yahoo has no usable price for a symbol.
var ErrNoData = errors.New("no price data")

// Client is a Yahoo Finance client. It is safe for concurrent use.
type Client struct {
	baseURL     string
	http        *http.Client
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
	concurrency int
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the API host, mostly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRateLimit limits requests to r per second with bursts of burst.
func WithRateLimit(r float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(r), burst) }
}

// WithConcurrency sets the maximum number of requests in flight in Quotes.
func WithConcurrency(n int) Option {
	return func(c *Client) { c.concurrency = n }
}

// New returns a client for Yahoo Finance.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		http:        &http.Client{Timeout: 10 * time.Second},
		limiter:     rate.NewLimiter(rate.Limit(5), 5),
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "yahoo",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// an unknown symbol is not a sign of an unhealthy service.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoData)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	return c
}

// Quote returns the latest quote of asset.
func (c *Client) Quote(ctx context.Context, asset captrack.Asset) (captrack.Quote, error) {
	return c.chart(ctx, captrack.QuoteSymbol(asset), "1d", "1m")
}

// Quotes returns the quotes of assets that could be fetched. Failures are
// logged and skipped. Quotes are returned in the order of assets.
func (c *Client) Quotes(ctx context.Context, assets []captrack.Asset) []captrack.Quote {
	results := make([]*captrack.Quote, len(assets))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, asset := range assets {
		g.Go(func() error {
			q, err := c.Quote(ctx, asset)
			if err != nil {
				log.Warn().Err(err).Str("symbol", captrack.QuoteSymbol(asset)).Str("type", string(asset.Type)).Msg("quote failed")
				return nil
			}
			results[i] = &q
			return nil
		})
	}
	g.Wait()

	quotes := make([]captrack.Quote, 0, len(assets))
	for _, q := range results {
		if q != nil {
			quotes = append(quotes, *q)
		}
	}
	return quotes
}

// FXRate returns the price of one unit of from in to, using the pair
// FROMTO=X.
func (c *Client) FXRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	symbol := strings.ToUpper(from+to) + "=X"
	// intraday data of currency pairs is often empty.
	q, err := c.chart(ctx, symbol, "5d", "1d")
	if err != nil {
		return decimal.Zero, err
	}
	return q.Price, nil
}

func (c *Client) chart(ctx context.Context, symbol, rng, interval string) (captrack.Quote, error) {
	if symbol == "" {
		return captrack.Quote{}, fmt.Errorf("empty symbol: %w", ErrNoData)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return captrack.Quote{}, err
	}
	v, err := c.breaker.Execute(func() (any, error) {
		addr := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s", c.baseURL, url.PathEscape(symbol), rng, interval)
		return c.get(ctx, addr)
	})
	if err != nil {
		return captrack.Quote{}, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	q, err := parseChart(symbol, v)
	if err != nil {
		return captrack.Quote{}, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	return q, nil
}

// get returns the decoded JSON payload at addr.
func (c *Client) get(ctx context.Context, addr string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "CapTrack/1.0")
	req.Header.Set("Accept", "application/json,text/plain,*/*")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("path", req.URL.Path).Int("status", resp.StatusCode).Msg("yahoo")

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("not found: %w", ErrNoData)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("cannot http GET %v: %v", req.URL.Path, resp.Status)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var jobj any
	if err := dec.Decode(&jobj); err != nil {
		return nil, fmt.Errorf("invalid JSON payload: %w", err)
	}
	return jobj, nil
}
