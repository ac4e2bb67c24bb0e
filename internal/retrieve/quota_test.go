// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citation-engine/internal/scopus"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// scopusResponse is one canned HTTP answer of the stub API.
type scopusResponse struct {
	status int
	quota  string
	body   string
}

func resultsPage(total int, eids ...string) scopusResponse {
	entries := make([]string, 0, len(eids))
	for _, eid := range eids {
		entries = append(entries, fmt.Sprintf(`{"@_fa":"true","eid":%q,"dc:title":"title of %s"}`, eid, eid))
	}
	return scopusResponse{
		status: http.StatusOK,
		body: fmt.Sprintf(`{"search-results":{"opensearch:totalResults":"%d","cursor":{"@current":"x","@next":"next"},"entry":[%s]}}`,
			total, strings.Join(entries, ",")),
	}
}

func emptyPage() scopusResponse {
	return scopusResponse{
		status: http.StatusOK,
		body:   `{"search-results":{"opensearch:totalResults":"0","cursor":{"@current":"*","@next":"AoE"},"entry":[{"@_fa":"true","error":"Result set was empty"}]}}`,
	}
}

func quotaExceeded() scopusResponse {
	return scopusResponse{
		status: http.StatusTooManyRequests,
		quota:  "0",
		body:   `{"error-response":{"error-code":"TOO_MANY_REQUESTS","error-message":"Quota Exceeded"}}`,
	}
}

func withQuota(r scopusResponse, quota int) scopusResponse {
	r.quota = fmt.Sprint(quota)
	return r
}

// scopusStub serves responses in call order and records each query.
type scopusStub struct {
	mu        sync.Mutex
	responses []scopusResponse
	queries   []string
}

func (s *scopusStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	n := len(s.queries)
	s.queries = append(s.queries, r.URL.Query().Get("query"))
	s.mu.Unlock()

	resp := quotaExceeded()
	if n < len(s.responses) {
		resp = s.responses[n]
	}
	if resp.quota != "" {
		w.Header().Set("X-RateLimit-Remaining", resp.quota)
	}
	w.WriteHeader(resp.status)
	fmt.Fprint(w, resp.body)
}

func newStubStrategy(t *testing.T, responses ...scopusResponse) (*Strategy, *scopusStub) {
	t.Helper()
	stub := &scopusStub{responses: responses}
	ts := httptest.NewServer(stub)
	t.Cleanup(ts.Close)

	client := scopus.NewClient("test-key",
		scopus.WithBaseURL(ts.URL),
		scopus.WithHTTPClient(ts.Client()),
		scopus.WithRateLimit(1000, 1000),
	)
	return New(client), stub
}

func TestPullCitedBy_QuotaRefusalMidWalkIsUnprocessed(t *testing.T) {
	strat, stub := newStubStrategy(t,
		withQuota(resultsPage(30, "c1", "c2", "c3"), 1),
		quotaExceeded(),
	)

	rep, err := strat.PullCitedBy(context.Background(), []CitedTarget{{EID: "e1"}, {EID: "e2"}})
	require.NoError(t, err)
	assert.Empty(t, rep.Processed)
	assert.Empty(t, rep.Misses)
	assert.Empty(t, rep.Records)
	assert.Equal(t, []string{"e1", "e2"}, rep.Unprocessed)
	assert.Equal(t, 0, rep.Quota)
	assert.Equal(t, []string{"REFEID(e1)", "REFEID(e1)"}, stub.queries)
}

func TestPullCitedBy_QuotaRefusalAfterHits(t *testing.T) {
	strat, _ := newStubStrategy(t,
		withQuota(resultsPage(1, "c1"), 7),
		withQuota(emptyPage(), 6),
		quotaExceeded(),
	)

	rep, err := strat.PullCitedBy(context.Background(), []CitedTarget{{EID: "e1"}, {EID: "e2"}, {EID: "e3"}, {EID: "e4"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e2"}, rep.Processed)
	assert.Equal(t, []string{"e2"}, rep.Misses)
	assert.Equal(t, []string{"e3", "e4"}, rep.Unprocessed)
	require.Len(t, rep.Records, 1)
	assert.Equal(t, "e1", rep.Records[0].CitedEID)
}

func TestPullOne_QuotaRefusalIsNotNotFound(t *testing.T) {
	strat, stub := newStubStrategy(t,
		withQuota(emptyPage(), 5),
		quotaExceeded(),
	)

	_, err := strat.PullOne(context.Background(), "Coupled systems", "Science", "Liu 'Coupled systems,' Science")
	assert.ErrorIs(t, err, scopus.ErrQuotaExhausted)
	var nf *NotFoundError
	assert.NotErrorAs(t, err, &nf)
	assert.Len(t, stub.queries, 2)
}

func TestPullOne_StopsAfterStageThatSpentLastQuery(t *testing.T) {
	fs := &fakeSearcher{seq: []reply{{diag: "Result set was empty", quota: 0}}}

	_, err := New(fs).PullOne(context.Background(), "Coupled systems", "Science", "Liu 'Coupled systems,' Science")
	assert.ErrorIs(t, err, scopus.ErrQuotaExhausted)
	assert.Len(t, fs.queries, 1)
}

func TestPullOne_LastStageAtZeroQuotaIsNotFound(t *testing.T) {
	fs := &fakeSearcher{seq: []reply{{diag: "Result set was empty", quota: 0}}}

	_, err := New(fs).PullOne(context.Background(), "", "", "Liu 'Coupled systems,' Science")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, 0, nf.Quota)
}

func TestPullManual_QuotaRefusalIsUnprocessed(t *testing.T) {
	strat, stub := newStubStrategy(t,
		withQuota(resultsPage(1, "x"), 4),
		withQuota(emptyPage(), 3),
		quotaExceeded(),
	)
	citations := []types.Citation{
		{UniqueID: "A", Title: "one"},
		{UniqueID: "B", Title: "two", Citation: "Roe, B. 'two,' Oikos, 2011."},
		{UniqueID: "C", Title: "three"},
	}

	rep, err := strat.PullManual(context.Background(), citations)
	require.NoError(t, err)
	require.Len(t, rep.Records, 1)
	assert.Equal(t, "A", rep.Records[0].UniqueID)
	assert.Empty(t, rep.Failures)
	assert.Equal(t, []string{"B", "C"}, rep.Unprocessed)
	assert.Equal(t, 0, rep.Quota)
	assert.Len(t, stub.queries, 3)
}

func TestPullComparators_QuotaRefusalIsUnprocessed(t *testing.T) {
	strat, _ := newStubStrategy(t,
		withQuota(resultsPage(2, "e1", "e2"), 3),
		quotaExceeded(),
	)

	rep, err := strat.PullComparators(context.Background(), []string{"q1", "q2", "q3"})
	require.NoError(t, err)
	assert.Len(t, rep.Records, 2)
	assert.Empty(t, rep.Failures)
	assert.Equal(t, []string{"q2", "q3"}, rep.Unprocessed)
	assert.Equal(t, 0, rep.Quota)
}
