// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP retry helper used by the Scopus client.
package httputil

import (
	"context"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// HTTP 429 responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 10 * time.Second

// MaxRetryAfter caps a server supplied Retry-After so a weekly quota reset
// date cannot park the process for days.
var MaxRetryAfter = 5 * time.Minute

const defaultMaxRetries = 5

// Policy tunes DoWithRetry.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt (default 5).
	MaxRetries int

	// Terminal reports a 429 that must not be retried, such as an exhausted
	// weekly quota. The response is returned to the caller unchanged.
	Terminal func(*http.Response) bool

	// Logger receives one warning per backoff. Nil disables logging.
	Logger *zerolog.Logger
}

// DoWithRetry executes an HTTP request and retries on HTTP 429 (Too Many
// Requests). The wait honours a Retry-After header given in seconds or as an
// HTTP date; otherwise it starts at RetryBaseDelay and doubles each attempt.
//
// On each retried 429 the response body is drained and closed before
// sleeping. If the context is cancelled during a wait the function returns
// ctx.Err(). After exhausting retries the last 429 response is returned so
// the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, p Policy) (*http.Response, error) {
	maxRetries := p.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	log := zerolog.Nop()
	if p.Logger != nil {
		log = *p.Logger
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		if attempt >= maxRetries || (p.Terminal != nil && p.Terminal(resp)) {
			return resp, nil
		}

		wait := retryDelay(resp, attempt)
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		log.Warn().
			Dur("backoff", wait).
			Int("attempt", attempt+1).
			Int("max_retries", maxRetries).
			Msg("rate limited, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func retryDelay(resp *http.Response, attempt int) time.Duration {
	backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay

	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return backoff
	}
	var d time.Duration
	if secs, err := strconv.ParseInt(retryAfter, 10, 64); err == nil {
		d = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(retryAfter); err == nil {
		d = time.Until(at)
	}
	if d <= 0 {
		return backoff
	}
	return min(d, MaxRetryAfter)
}
