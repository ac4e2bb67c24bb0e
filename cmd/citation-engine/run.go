// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/citation-engine/internal/classify"
	"github.com/pdiddy/citation-engine/internal/observability"
	"github.com/pdiddy/citation-engine/internal/report"
	"github.com/pdiddy/citation-engine/internal/retrieve"
	"github.com/pdiddy/citation-engine/internal/scopus"
	"github.com/pdiddy/citation-engine/internal/secrets"
	"github.com/pdiddy/citation-engine/internal/store"
)

// tracker ties one command invocation to its ledger row and run report.
type tracker struct {
	store  *store.Store
	id     string
	log    zerolog.Logger
	report *report.Report
}

// beginRun opens the ledger and records command as running.
func beginRun(ctx context.Context, command, input, output string) (*tracker, error) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	id, err := st.StartRun(ctx, command, input, output)
	if err != nil {
		st.Close()
		return nil, err
	}

	log := observability.WithRunContext(logger, id, command)
	log.Info().Str("input", input).Str("output", output).Msg("run started")

	return &tracker{
		store: st,
		id:    id,
		log:   log,
		report: &report.Report{
			RunID:   id,
			Command: command,
			Input:   input,
			Output:  output,
			Started: time.Now().UTC(),
		},
	}, nil
}

// setQuota records the last known remaining quota.
func (t *tracker) setQuota(q int) {
	if q == scopus.QuotaUnknown {
		return
	}
	t.report.Quota = &q
}

// setDropped copies classifier drop counts into the report and metrics.
func (t *tracker) setDropped(sum classify.Summary) {
	for _, reason := range slices.Sorted(maps.Keys(sum.Dropped)) {
		n := sum.Dropped[reason]
		t.report.Dropped = append(t.report.Dropped, report.Reason{Reason: reason, Rows: n})
		metrics.AddFiltered(reason, n)
	}
}

// finish closes the ledger row, writes the run report beside the output
// and releases the database. runErr is the command's own outcome and is
// returned joined with any bookkeeping failure.
func (t *tracker) finish(ctx context.Context, runErr error) error {
	defer t.store.Close()

	r := t.report
	r.Finished = time.Now().UTC()
	r.Counts.Unprocessed = len(r.Unprocessed)

	status := store.StatusDone
	switch {
	case runErr != nil:
		status = store.StatusFailed
	case r.Quota != nil && *r.Quota == 0 && len(r.Unprocessed) > 0:
		status = store.StatusStopped
	}

	quota := scopus.QuotaUnknown
	if r.Quota != nil {
		quota = *r.Quota
	}
	errs := []error{runErr}
	errs = append(errs, t.store.FinishRun(context.WithoutCancel(ctx), t.id, store.Outcome{
		Status:      status,
		Records:     r.Counts.Records,
		Failures:    r.Counts.Failures,
		Unprocessed: r.Counts.Unprocessed,
		Quota:       quota,
	}))
	if r.Output != "" {
		errs = append(errs, report.Write(report.Path(r.Output), r))
	}

	ev := t.log.Info()
	if runErr != nil {
		ev = t.log.Error().Err(runErr)
	}
	ev.Str("status", status).
		Int("records", r.Counts.Records).
		Int("failures", r.Counts.Failures).
		Int("unprocessed", r.Counts.Unprocessed).
		Dur("took", r.Finished.Sub(r.Started)).
		Msg("run finished")

	return errors.Join(errs...)
}

// newClient builds the Scopus client from config and the resolved API key.
func newClient(log zerolog.Logger) (*scopus.Client, error) {
	key, err := secrets.ResolveScopusKey(cfg.Scopus.APIKey, loadedSecrets, secrets.LegacyKeyFile)
	if err != nil {
		return nil, err
	}
	return scopus.NewClient(key,
		scopus.WithBaseURL(cfg.Scopus.BaseURL),
		scopus.WithUserAgent(cfg.Scopus.UserAgent),
		scopus.WithHTTPClient(&http.Client{Timeout: cfg.Scopus.Timeout}),
		scopus.WithRateLimit(cfg.Scopus.RateLimit, cfg.Scopus.Burst),
		scopus.WithMaxRetries(cfg.Scopus.MaxRetries),
		scopus.WithLogger(log),
		scopus.WithMetrics(metrics),
	), nil
}

// newStrategy wraps a fresh client in a retrieval strategy.
func newStrategy(log zerolog.Logger) (*retrieve.Strategy, error) {
	client, err := newClient(log)
	if err != nil {
		return nil, err
	}
	return retrieve.New(client,
		retrieve.WithProgressEvery(cfg.Scopus.ProgressEvery),
		retrieve.WithLogger(log),
		retrieve.WithMetrics(metrics),
	), nil
}
