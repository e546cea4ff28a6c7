package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/gauntlet/internal/results"
	"github.com/roach88/gauntlet/internal/store"
)

// RunParallel executes the planned pairs on a pool of opts.Workers
// goroutines. A single writer streams each finished row to the store, so
// rows from jobs that completed before a failure stay persisted. On success
// the stored results are compacted (deduplicated and sorted) and returned.
//
// The first job error cancels jobs that have not started yet.
func (e *Engine[M]) RunParallel(ctx context.Context, opts RunOptions) (*results.Table, error) {
	ctx, span, logger := e.startRun(ctx, "parallel")
	defer span.End()

	prior, err := e.store.Load(ctx)
	if err != nil {
		return nil, failSpan(span, fmt.Errorf("load prior results: %w", err))
	}
	jobs := e.plan(prior, opts.policy(), logger)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger.Info("starting worker pool", "workers", workers, "jobs", len(jobs))

	app, err := e.store.Appender(ctx, e.leadingColumns())
	if err != nil {
		return nil, failSpan(span, fmt.Errorf("open results appender: %w", err))
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	q := newRowQueue()
	done := make(chan error, 1)
	go func() {
		err := drain(q, app, logger)
		if err != nil {
			cancel()
		}
		done <- err
	}()

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(workers)
	for _, pair := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row, err := e.execute(gctx, pair, opts, logger)
			if err != nil {
				return err
			}
			q.Enqueue(row)
			return nil
		})
	}

	jobErr := g.Wait()
	q.Close()
	writeErr := <-done
	if cerr := app.Close(); cerr != nil && writeErr == nil {
		writeErr = cerr
	}

	switch {
	case writeErr != nil:
		return nil, failSpan(span, fmt.Errorf("write results: %w", writeErr))
	case jobErr != nil:
		return nil, failSpan(span, jobErr)
	}

	merged, err := e.compact(ctx)
	if err != nil {
		return nil, failSpan(span, err)
	}
	span.SetAttributes(attribute.Int("run.jobs", len(jobs)), attribute.Int("run.rows", merged.Len()))
	logger.Info("run complete", "ran", len(jobs), "rows", merged.Len(), "results", e.store.Path())
	return merged, nil
}

// drain writes rows until the queue is closed and empty. It stops at the
// first append error.
func drain(q *rowQueue, app store.Appender, logger *slog.Logger) error {
	for {
		row, ok := q.Dequeue()
		if !ok {
			return nil
		}
		if err := app.Append(row); err != nil {
			return err
		}
		p, _ := row.Pair()
		logger.Debug("appended result row", "pair", p.String())
	}
}

// compact rewrites the stored results with one row per pair, sorted.
func (e *Engine[M]) compact(ctx context.Context) (*results.Table, error) {
	persisted, err := e.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("reload results: %w", err)
	}
	merged := results.Merge(persisted, nil, e.leadingColumns())
	if err := e.store.Write(ctx, merged, results.ReservedColumns); err != nil {
		return nil, fmt.Errorf("write results: %w", err)
	}
	return merged, nil
}
