// Package pipeline drives the per-airport fetch, normalize, and retry loop.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/flightops/arrivals/internal/flight"
	"github.com/flightops/arrivals/internal/timetable"
)

// Fetcher retrieves the raw arrival timetable for one airport.
// Implemented by timetable.Client.
type Fetcher interface {
	Arrivals(ctx context.Context, iataCode string) ([]timetable.Entry, error)
}

// Summary is the outcome of one full run, reported for observability only —
// orchestration never branches on it.
type Summary struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Rounds     int       `json:"rounds"`
	Kept       int       `json:"kept"`

	// Skipped lists airports the API explicitly rejected: excluded from
	// both output and retries, but no longer silent.
	Skipped []string `json:"skipped,omitempty"`

	// Dropped lists airports still failing after the round ceiling.
	Dropped []string `json:"dropped,omitempty"`
}

// Orchestrator runs bounded retry rounds of sequential per-airport fetches.
// One request is outstanding at a time, with a fixed pause between calls.
type Orchestrator struct {
	fetcher    Fetcher
	normalizer *flight.Normalizer
	pause      time.Duration
	maxRounds  int
	log        *slog.Logger
}

// New constructs an Orchestrator. maxRounds values below 1 fall back to 1.
func New(fetcher Fetcher, normalizer *flight.Normalizer, pause time.Duration, maxRounds int, log *slog.Logger) *Orchestrator {
	if maxRounds < 1 {
		maxRounds = 1
	}
	return &Orchestrator{
		fetcher:    fetcher,
		normalizer: normalizer,
		pause:      pause,
		maxRounds:  maxRounds,
		log:        log,
	}
}

// roundResult is the outcome of one fetch round over a pending set.
type roundResult struct {
	records []flight.Record
	failed  []string
	skipped []string
}

// Run fetches and normalizes timetables for codes. Round n processes exactly
// the airports that failed in round n−1; an empty failed set stops early.
// Airports still failing after the round ceiling are dropped from the output
// and reported in the summary.
func (o *Orchestrator) Run(ctx context.Context, codes []string) ([]flight.Record, Summary, error) {
	summary := Summary{StartedAt: time.Now().UTC()}

	var records []flight.Record
	pending := codes

	for round := 1; round <= o.maxRounds; round++ {
		summary.Rounds = round
		o.log.Info("starting fetch round", "round", round, "airports", len(pending))

		result, err := o.runRound(ctx, pending)
		records = append(records, result.records...)
		summary.Skipped = append(summary.Skipped, result.skipped...)
		if err != nil {
			summary.FinishedAt = time.Now().UTC()
			summary.Kept = len(records)
			return records, summary, err
		}

		o.log.Info("finished fetch round",
			"round", round,
			"kept", len(result.records),
			"failed", len(result.failed),
			"skipped", len(result.skipped),
		)

		if len(result.failed) == 0 {
			pending = nil
			break
		}
		pending = result.failed
	}

	// Anything still pending hit the ceiling.
	summary.Dropped = pending
	for _, code := range pending {
		o.log.Warn("airport dropped after retry ceiling", "iata", code, "rounds", o.maxRounds)
	}

	summary.FinishedAt = time.Now().UTC()
	summary.Kept = len(records)
	return records, summary, nil
}

// runRound performs one pass over the pending airports. Transport errors and
// malformed payloads mark the airport failed (retried next round); explicit
// upstream rejections mark it skipped for the whole run.
func (o *Orchestrator) runRound(ctx context.Context, pending []string) (roundResult, error) {
	var result roundResult

	for i, code := range pending {
		if i > 0 {
			if err := o.sleep(ctx); err != nil {
				return result, err
			}
		}

		entries, err := o.fetcher.Arrivals(ctx, code)
		switch {
		case err == nil:
		case errors.Is(err, timetable.ErrRejected):
			o.log.Warn("airport skipped: upstream rejected request", "iata", code, "err", err)
			result.skipped = append(result.skipped, code)
			continue
		default:
			// Run-level cancellation aborts; a per-call timeout is only a
			// transient failure for that airport.
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			o.log.Warn("airport fetch failed, will retry", "iata", code, "err", err)
			result.failed = append(result.failed, code)
			continue
		}

		kept := 0
		for _, entry := range entries {
			rec, ok := o.normalizer.Normalize(ctx, entry)
			if !ok {
				continue
			}
			result.records = append(result.records, rec)
			kept++
		}
		o.log.Info("airport fetched", "iata", code, "entries", len(entries), "kept", kept)
	}

	return result, nil
}

// sleep observes the fixed inter-call pause, honoring cancellation.
func (o *Orchestrator) sleep(ctx context.Context) error {
	if o.pause <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(o.pause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
