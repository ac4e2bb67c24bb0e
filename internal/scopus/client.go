// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scopus is a client for the Elsevier Scopus Search API: single
// page requests, cursor pagination, quota tracking and entry parsing.
package scopus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pdiddy/citation-engine/internal/httputil"
	"github.com/pdiddy/citation-engine/internal/observability"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// searchBase is the Scopus Search endpoint. Tests override it.
var searchBase = "https://api.elsevier.com/content/search/scopus"

const (
	// StartCursor requests the first page of a cursor walk.
	StartCursor = "*"

	quotaHeader = "X-RateLimit-Remaining"
	view        = "COMPLETE"

	// defaultRate matches the 9 calls/second throttle the API tolerates
	// for COMPLETE view keys.
	defaultRate    = 9.0
	defaultTimeout = 60 * time.Second
)

// Page is one page of search results.
type Page struct {
	Records        []types.Record
	TotalResults   int
	NextCursor     string
	QuotaRemaining int
}

// Result is the full record set of a query after pagination.
type Result struct {
	Records []types.Record
	Total   int
	Quota   int
}

// Client issues Scopus search requests one at a time.
type Client struct {
	apiKey     string
	baseURL    string
	userAgent  string
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries int
	log        zerolog.Logger
	metrics    *observability.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithBaseURL overrides the search endpoint.
func WithBaseURL(u string) Option {
	return func(cl *Client) { cl.baseURL = u }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cl *Client) { cl.userAgent = ua }
}

// WithRateLimit sets the sustained request rate and burst.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(cl *Client) {
		if burst < 1 {
			burst = 1
		}
		cl.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithMaxRetries bounds retries on HTTP 429.
func WithMaxRetries(n int) Option {
	return func(cl *Client) { cl.maxRetries = n }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(cl *Client) { cl.log = l }
}

// WithMetrics records request outcomes and quota on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(cl *Client) { cl.metrics = m }
}

// NewClient creates a Scopus client for apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: searchBase,
		http:    &http.Client{Timeout: defaultTimeout},
		limiter: rate.NewLimiter(rate.Limit(defaultRate), 1),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchPage issues one search request at cursor. In-band failures come back
// as *QueryError carrying the remaining quota, and a 429 with no quota left
// is one of kind QuotaExhausted. Transport failures are returned wrapped and
// carry no quota.
func (c *Client) SearchPage(ctx context.Context, query, cursor string) (*Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	params := url.Values{
		"apikey":     {c.apiKey},
		"query":      {query},
		"cursor":     {cursor},
		"httpAccept": {"application/json"},
		"view":       {view},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := httputil.DoWithRetry(ctx, c.http, req, httputil.Policy{
		MaxRetries: c.maxRetries,
		Terminal:   quotaExhausted,
		Logger:     &c.log,
	})
	if err != nil {
		c.metrics.ObserveRequest(observability.OutcomeTransportError, time.Since(start), QuotaUnknown)
		return nil, fmt.Errorf("searching scopus: %w", err)
	}
	defer resp.Body.Close()

	quota := parseQuota(resp.Header)
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.ObserveRequest(observability.OutcomeTransportError, time.Since(start), quota)
		return nil, fmt.Errorf("reading search response: %w", err)
	}

	var page *Page
	var qerr *QueryError
	if resp.StatusCode == http.StatusTooManyRequests && quota == 0 {
		qerr = &QueryError{Kind: QuotaExhausted, Diagnostic: string(body)}
	} else {
		page, qerr = decodePage(body)
	}
	if qerr != nil {
		qerr.Query = query
		qerr.Quota = quota
		qerr.Status = resp.StatusCode
		outcome := observability.OutcomeQueryError
		switch qerr.Kind {
		case ParseFailure:
			outcome = observability.OutcomeParseFailure
		case QuotaExhausted:
			outcome = observability.OutcomeQuotaExhausted
		}
		c.metrics.ObserveRequest(outcome, time.Since(start), quota)
		c.log.Debug().Str("query", query).Int("status", resp.StatusCode).
			Str("kind", qerr.Kind.String()).Msg("query error")
		return nil, qerr
	}

	page.QuotaRemaining = quota
	c.metrics.ObserveRequest(observability.OutcomeOK, time.Since(start), quota)
	c.metrics.AddParsed(len(page.Records))
	return page, nil
}

// SearchAll walks the cursor from StartCursor, appending pages in arrival
// order until the accumulated count reaches the reported total. Every
// successful page holds at least one entry, so the walk always advances.
// An error on a later page discards the pages gathered so far.
func (c *Client) SearchAll(ctx context.Context, query string) (*Result, error) {
	page, err := c.SearchPage(ctx, query, StartCursor)
	if err != nil {
		return nil, err
	}

	records := page.Records
	total := page.TotalResults
	for len(records) < total {
		page, err = c.SearchPage(ctx, query, page.NextCursor)
		if err != nil {
			return nil, err
		}
		records = append(records, page.Records...)
		total = page.TotalResults
	}

	return &Result{Records: records, Total: total, Quota: page.QuotaRemaining}, nil
}

// searchResponse is the envelope of a search response. Entries stay untyped
// so that ParseEntry can treat every field independently.
type searchResponse struct {
	Results *struct {
		Total  any `json:"opensearch:totalResults"`
		Cursor *struct {
			Next *string `json:"@next"`
		} `json:"cursor"`
		Entries []map[string]any `json:"entry"`
	} `json:"search-results"`
}

func decodePage(body []byte) (*Page, *QueryError) {
	fail := &QueryError{Kind: ParseFailure, Diagnostic: string(body)}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fail
	}
	res := sr.Results
	if res == nil || res.Cursor == nil || res.Cursor.Next == nil || len(res.Entries) == 0 {
		return nil, fail
	}
	total, ok := intValue(res.Total)
	if !ok {
		return nil, fail
	}

	// The API reports query errors with HTTP 200 and a single placeholder
	// entry of exactly two keys, one of them "error".
	if first := res.Entries[0]; len(first) == 2 {
		diag, ok := first["error"]
		if !ok {
			return nil, fail
		}
		return nil, &QueryError{Kind: Rejected, Diagnostic: diagnostic(diag)}
	}

	records := make([]types.Record, 0, len(res.Entries))
	for _, e := range res.Entries {
		records = append(records, ParseEntry(e))
	}
	return &Page{Records: records, TotalResults: total, NextCursor: *res.Cursor.Next}, nil
}

func intValue(v any) (int, bool) {
	switch x := v.(type) {
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func diagnostic(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSpace(buf.String())
}

func parseQuota(h http.Header) int {
	n, err := strconv.Atoi(strings.TrimSpace(h.Get(quotaHeader)))
	if err != nil {
		return QuotaUnknown
	}
	return n
}

// quotaExhausted marks a 429 caused by the weekly quota rather than the
// per-second throttle; waiting will not help.
func quotaExhausted(resp *http.Response) bool {
	return parseQuota(resp.Header) == 0
}
