package worker

import (
	"context"
	"log/slog"
	"time"
)

// runSweeper repairs stranded assignments once at start and then on every
// tick. Jobs assigned within the grace period are left to the request
// that is still writing their policy.
func (w *Worker) runSweeper(ctx context.Context) {
	if w.sweepInterval <= 0 {
		return
	}

	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	for {
		w.sweep(ctx)

		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-ticker.C:
		}
	}
}

// sweep runs one reconciliation pass and reports how many policies it wrote
func (w *Worker) sweep(ctx context.Context) int {
	cutoff := w.now().Add(-w.gracePeriod)

	jobs, err := w.pending.ListJobsMissingPolicy(ctx, cutoff, w.batchSize)
	if err != nil {
		w.logger.Error("Failed to list jobs missing a policy", slog.Any("error", err))
		return 0
	}

	if len(jobs) == 0 {
		return 0
	}

	repaired := 0
	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}

		if err := w.processRepair(ctx, job.JobID); err != nil {
			w.logger.Warn("Sweep could not repair policy",
				slog.String("job_id", job.JobID),
				slog.Any("error", err),
			)
			continue
		}
		repaired++
	}

	w.logger.Info("Reconciliation sweep finished",
		slog.Int("found", len(jobs)),
		slog.Int("repaired", repaired),
	)
	return repaired
}
