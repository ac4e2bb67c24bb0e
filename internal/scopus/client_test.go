// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scopus

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citation-engine/internal/httputil"
	"github.com/pdiddy/citation-engine/internal/observability"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

// pageJSON renders a search-results page with entries e<from>..e<to-1>.
func pageJSON(total, from, to int, next string) string {
	var entries []string
	for i := from; i < to; i++ {
		entries = append(entries, fmt.Sprintf(
			`{"@_fa":"true","eid":"2-s2.0-%d","dc:identifier":"SCOPUS_ID:%d","dc:title":"Paper %d"}`, i, i, i))
	}
	return fmt.Sprintf(`{"search-results":{"opensearch:totalResults":"%d","cursor":{"@current":"x","@next":%q},"entry":[%s]}}`,
		total, next, strings.Join(entries, ","))
}

const emptyResult = `{"search-results":{"opensearch:totalResults":"0","cursor":{"@current":"*","@next":"AoE"},"entry":[{"@_fa":"true","error":"Result set was empty"}]}}`

// newTestClient points searchBase at ts and returns a client with no throttle.
func newTestClient(t *testing.T, ts *httptest.Server, opts ...Option) *Client {
	t.Helper()
	old := searchBase
	searchBase = ts.URL
	t.Cleanup(func() { searchBase = old })

	opts = append([]Option{WithHTTPClient(ts.Client()), WithRateLimit(1000, 1000)}, opts...)
	return NewClient("test-key", opts...)
}

func TestSearchPage_RequestParameters(t *testing.T) {
	var got http.Header
	var params map[string][]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header
		params = r.URL.Query()
		w.Header().Set("X-RateLimit-Remaining", "19876")
		fmt.Fprint(w, pageJSON(1, 0, 1, "next-1"))
	}))
	defer ts.Close()

	c := newTestClient(t, ts, WithUserAgent("citation-engine/test"))
	page, err := c.SearchPage(context.Background(), "TITLE(deep learning)", StartCursor)
	require.NoError(t, err)

	assert.Equal(t, []string{"test-key"}, params["apikey"])
	assert.Equal(t, []string{"TITLE(deep learning)"}, params["query"])
	assert.Equal(t, []string{"*"}, params["cursor"])
	assert.Equal(t, []string{"application/json"}, params["httpAccept"])
	assert.Equal(t, []string{"COMPLETE"}, params["view"])
	assert.Equal(t, "citation-engine/test", got.Get("User-Agent"))

	assert.Equal(t, 19876, page.QuotaRemaining)
	assert.Equal(t, 1, page.TotalResults)
	assert.Equal(t, "next-1", page.NextCursor)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "2-s2.0-0", page.Records[0].EID)
	assert.Equal(t, "0", page.Records[0].ScopusID)
}

func TestSearchPage_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		quota     string
		body      string
		wantKind  ErrorKind
		wantDiag  string
		wantQuota int
	}{
		{
			name:      "empty result placeholder",
			status:    http.StatusOK,
			quota:     "500",
			body:      emptyResult,
			wantKind:  Rejected,
			wantDiag:  "Result set was empty",
			wantQuota: 500,
		},
		{
			name:      "two keys without error falls back to raw body",
			status:    http.StatusOK,
			quota:     "12",
			body:      `{"search-results":{"opensearch:totalResults":"1","cursor":{"@next":"n"},"entry":[{"eid":"e","dc:title":"t"}]}}`,
			wantKind:  ParseFailure,
			wantDiag:  `"dc:title":"t"`,
			wantQuota: 12,
		},
		{
			name:      "service error body",
			status:    http.StatusBadRequest,
			quota:     "7",
			body:      `{"service-error":{"status":{"statusCode":"INVALID_INPUT","statusText":"Error translating query"}}}`,
			wantKind:  ParseFailure,
			wantDiag:  "Error translating query",
			wantQuota: 7,
		},
		{
			name:      "not json",
			status:    http.StatusOK,
			quota:     "",
			body:      "<html>gateway timeout</html>",
			wantKind:  ParseFailure,
			wantDiag:  "gateway timeout",
			wantQuota: QuotaUnknown,
		},
		{
			name:      "missing cursor",
			status:    http.StatusOK,
			quota:     "3",
			body:      `{"search-results":{"opensearch:totalResults":"1","entry":[{"eid":"e","dc:title":"t","x":1}]}}`,
			wantKind:  ParseFailure,
			wantQuota: 3,
		},
		{
			name:      "structured error object",
			status:    http.StatusOK,
			quota:     "9",
			body:      `{"search-results":{"opensearch:totalResults":"0","cursor":{"@next":"n"},"entry":[{"@_fa":"true","error":{"code":"E1"}}]}}`,
			wantKind:  Rejected,
			wantDiag:  `{"code":"E1"}`,
			wantQuota: 9,
		},
		{
			name:      "weekly quota exhausted",
			status:    http.StatusTooManyRequests,
			quota:     "0",
			body:      `{"error-response":{"error-code":"TOO_MANY_REQUESTS","error-message":"Quota Exceeded"}}`,
			wantKind:  QuotaExhausted,
			wantDiag:  "Quota Exceeded",
			wantQuota: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if tt.quota != "" {
					w.Header().Set("X-RateLimit-Remaining", tt.quota)
				}
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer ts.Close()

			m := observability.NewMetrics(strings.ReplaceAll("scopus_err_"+tt.name, " ", "_"))
			c := newTestClient(t, ts, WithMetrics(m))
			page, err := c.SearchPage(context.Background(), "Q", StartCursor)
			assert.Nil(t, page)

			qe, ok := AsQueryError(err)
			require.True(t, ok, "want *QueryError, got %v", err)
			assert.Equal(t, tt.wantKind, qe.Kind)
			assert.Equal(t, tt.wantQuota, qe.Quota)
			assert.Equal(t, tt.wantQuota, QuotaOf(err))
			assert.Equal(t, tt.status, qe.Status)
			assert.Equal(t, "Q", qe.Query)
			assert.Contains(t, qe.Diagnostic, tt.wantDiag)

			outcome := observability.OutcomeQueryError
			switch tt.wantKind {
			case ParseFailure:
				outcome = observability.OutcomeParseFailure
			case QuotaExhausted:
				outcome = observability.OutcomeQuotaExhausted
			}
			assert.Equal(t, float64(1), testutil.ToFloat64(m.Requests.WithLabelValues(outcome)))
		})
	}
}

func TestSearchPage_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	c := newTestClient(t, ts)
	ts.Close()

	_, err := c.SearchPage(context.Background(), "Q", StartCursor)
	require.Error(t, err)
	_, isQuery := AsQueryError(err)
	assert.False(t, isQuery, "transport failures are not query errors")
	assert.Equal(t, QuotaUnknown, QuotaOf(err))
}

func TestSearchAll_Paginates(t *testing.T) {
	var cursors []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cursor := r.URL.Query().Get("cursor")
		cursors = append(cursors, cursor)
		switch cursor {
		case "*":
			w.Header().Set("X-RateLimit-Remaining", "100")
			fmt.Fprint(w, pageJSON(7, 0, 3, "c2"))
		case "c2":
			w.Header().Set("X-RateLimit-Remaining", "99")
			fmt.Fprint(w, pageJSON(7, 3, 6, "c3"))
		case "c3":
			w.Header().Set("X-RateLimit-Remaining", "98")
			fmt.Fprint(w, pageJSON(7, 6, 7, "c4"))
		default:
			t.Errorf("unexpected cursor %q", cursor)
		}
	}))
	defer ts.Close()

	c := newTestClient(t, ts)
	res, err := c.SearchAll(context.Background(), "REFEID(2-s2.0-1)")
	require.NoError(t, err)

	assert.Equal(t, []string{"*", "c2", "c3"}, cursors)
	assert.Equal(t, 7, res.Total)
	assert.Equal(t, 98, res.Quota)
	require.Len(t, res.Records, 7)
	for i, r := range res.Records {
		assert.Equal(t, fmt.Sprintf("2-s2.0-%d", i), r.EID, "records keep page order")
	}
}

func TestSearchAll_FirstPageErrorPropagates(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("X-RateLimit-Remaining", "41")
		fmt.Fprint(w, emptyResult)
	}))
	defer ts.Close()

	c := newTestClient(t, ts)
	res, err := c.SearchAll(context.Background(), "TITLE(nothing)")
	assert.Nil(t, res)
	qe, ok := AsQueryError(err)
	require.True(t, ok)
	assert.Equal(t, 41, qe.Quota)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "no pagination after a first-page error")
}

func TestSearchAll_LaterPageErrorPropagates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cursor") == "*" {
			w.Header().Set("X-RateLimit-Remaining", "5")
			fmt.Fprint(w, pageJSON(10, 0, 2, "c2"))
			return
		}
		w.Header().Set("X-RateLimit-Remaining", "4")
		fmt.Fprint(w, "upstream hiccup")
	}))
	defer ts.Close()

	c := newTestClient(t, ts)
	res, err := c.SearchAll(context.Background(), "Q")
	assert.Nil(t, res)
	qe, ok := AsQueryError(err)
	require.True(t, ok)
	assert.Equal(t, ParseFailure, qe.Kind)
	assert.Equal(t, 4, qe.Quota)
}

func TestSearchAll_QuotaExhausted429NotRetried(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error-response":{"error-code":"TOO_MANY_REQUESTS","error-message":"Quota Exceeded"}}`)
	}))
	defer ts.Close()

	c := newTestClient(t, ts)
	_, err := c.SearchAll(context.Background(), "Q")
	qe, ok := AsQueryError(err)
	require.True(t, ok)
	assert.Equal(t, QuotaExhausted, qe.Kind)
	assert.Equal(t, 0, qe.Quota)
	assert.Equal(t, http.StatusTooManyRequests, qe.Status)
	assert.ErrorIs(t, err, ErrQuotaExhausted)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSearchAll_QuotaExhaustedMidWalk(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("X-RateLimit-Remaining", "1")
			fmt.Fprint(w, pageJSON(30, 0, 25, "next-1"))
			return
		}
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error-response":{"error-code":"TOO_MANY_REQUESTS","error-message":"Quota Exceeded"}}`)
	}))
	defer ts.Close()

	m := observability.NewMetrics("test_quota_mid_walk")
	c := newTestClient(t, ts, WithMetrics(m))
	res, err := c.SearchAll(context.Background(), "REFEID(e1)")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrQuotaExhausted)
	assert.Equal(t, 0, QuotaOf(err))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Requests.WithLabelValues(observability.OutcomeQuotaExhausted)))
}

func TestQueryError_OnlyQuotaKindMatchesSentinel(t *testing.T) {
	for _, kind := range []ErrorKind{Rejected, ParseFailure} {
		assert.NotErrorIs(t, &QueryError{Kind: kind}, ErrQuotaExhausted, kind.String())
	}
	assert.ErrorIs(t, &QueryError{Kind: QuotaExhausted}, ErrQuotaExhausted)
}

func TestParseQuota(t *testing.T) {
	h := http.Header{}
	assert.Equal(t, QuotaUnknown, parseQuota(h))
	h.Set("X-RateLimit-Remaining", " 20000 ")
	assert.Equal(t, 20000, parseQuota(h))
	h.Set("X-RateLimit-Remaining", "lots")
	assert.Equal(t, QuotaUnknown, parseQuota(h))
}
