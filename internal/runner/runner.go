// Package runner drives the compute-and-save flow: fetch every CSV file from
// the configured source, compute a fresh report, store it, and notify the rest
// of the server.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rallypc/pccalc/internal/source"
	"github.com/rallypc/pccalc/internal/store"
	"github.com/rallypc/pccalc/pkg/timing"
)

// Observer receives every report together with the time the run took.
// *metrics.Recorder satisfies it.
type Observer interface {
	Observe(r *timing.Report, elapsed time.Duration)
}

// Listener is called after a report has been stored.
type Listener func(r *timing.Report)

// Options configures a Runner.
type Options struct {
	// Interval between automatic runs. Zero disables the ticker; Trigger
	// still works.
	Interval time.Duration

	Targets timing.Targets
	Order   timing.BibOrder

	// Observer is optional.
	Observer Observer
}

// Runner computes reports on demand and on a schedule. Runs never overlap.
type Runner struct {
	store    *store.Store
	interval time.Duration
	observer Observer
	now      func() time.Time
	trigger  chan struct{}

	runMu sync.Mutex // serialises RunOnce

	mu        sync.RWMutex
	src       source.Source
	targets   timing.Targets
	order     timing.BibOrder
	listeners []Listener
}

// New creates a Runner reading from src and writing to st.
func New(src source.Source, st *store.Store, opts Options) *Runner {
	return &Runner{
		store:    st,
		interval: opts.Interval,
		observer: opts.Observer,
		now:      time.Now,
		trigger:  make(chan struct{}, 1),
		src:      src,
		targets:  opts.Targets,
		order:    opts.Order,
	}
}

// OnReport registers fn to be called after every run, in registration order.
func (r *Runner) OnReport(fn Listener) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

// SetTargets replaces the target table used by subsequent runs.
func (r *Runner) SetTargets(t timing.Targets) {
	r.mu.Lock()
	r.targets = t
	r.mu.Unlock()
}

// SetOrder replaces the bib ordering used by subsequent runs.
func (r *Runner) SetOrder(o timing.BibOrder) {
	r.mu.Lock()
	r.order = o
	r.mu.Unlock()
}

// SetSource swaps the file source used by subsequent runs.
func (r *Runner) SetSource(src source.Source) {
	r.mu.Lock()
	r.src = src
	r.mu.Unlock()
}

// Trigger requests a run as soon as possible. Requests made while one is
// already pending are merged.
func (r *Runner) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// RunOnce performs one complete run and returns the resulting report, which is
// also the store's latest report afterwards. A failed upstream fetch produces
// an unsuccessful report; it is stored as latest but never persisted, so the
// last good report on disk survives.
//
// The error is non-nil only when a successful report could not be persisted.
// The report is still returned and published in that case.
func (r *Runner) RunOnce(ctx context.Context) (*timing.Report, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	r.mu.RLock()
	src, targets, order := r.src, r.targets, r.order
	listeners := append([]Listener(nil), r.listeners...)
	r.mu.RUnlock()

	start := r.now()
	report := r.compute(ctx, src, targets, order)
	report.CalculatedAt = start.UTC()
	elapsed := r.now().Sub(start)

	r.store.Put(report)
	var saveErr error
	if report.Success {
		if err := r.store.Save(report); err != nil {
			saveErr = fmt.Errorf("runner: persist report: %w", err)
		}
	}
	if r.observer != nil {
		r.observer.Observe(report, elapsed)
	}

	level := slog.LevelInfo
	if !report.Success {
		level = slog.LevelWarn
	}
	slog.Log(ctx, level, "runner: report computed",
		"success", report.Success,
		"error", report.Error,
		"files", report.FileCount,
		"bibs", len(report.BibRecords),
		"overlaps", len(report.Overlaps),
		"duplicates", len(report.Duplicates),
		"elapsed", elapsed,
	)

	for _, fn := range listeners {
		fn(report)
	}
	return report, saveErr
}

// runLogged is RunOnce for the background loop, where a persistence failure
// is logged and the next run retries it.
func (r *Runner) runLogged(ctx context.Context) {
	if _, err := r.RunOnce(ctx); err != nil {
		slog.Error("runner: report not persisted", "err", err)
	}
}

func (r *Runner) compute(ctx context.Context, src source.Source, targets timing.Targets, order timing.BibOrder) *timing.Report {
	files, diags, err := source.FetchAll(ctx, src)
	if err != nil {
		return timing.FailedReport(err.Error())
	}

	report := timing.Compute(timing.Input{Files: files, Targets: targets, Order: order})
	if len(files) == 0 && len(diags) > 0 {
		report.Error = "no readable CSV files"
	}
	if len(diags) > 0 {
		report.Diagnostics = append(diags, report.Diagnostics...)
		report.FileCount += len(diags)
	}
	return report
}

// Run performs an initial run, then runs again on every tick and every
// Trigger until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	r.runLogged(ctx)

	var tick <-chan time.Time
	if r.interval > 0 {
		t := time.NewTicker(r.interval)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			r.runLogged(ctx)
		case <-r.trigger:
			r.runLogged(ctx)
		}
	}
}
