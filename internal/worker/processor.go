package worker

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/swayam-be/internal/domain"
)

// processRepair writes the policy for jobID within the job timeout. Store
// outages come back as RetryableError.
func (w *Worker) processRepair(ctx context.Context, jobID string) error {
	repairCtx := ctx
	if w.jobTimeout > 0 {
		var cancel context.CancelFunc
		repairCtx, cancel = context.WithTimeout(ctx, w.jobTimeout)
		defer cancel()
	}

	policy, err := w.repairer.RepairPolicy(repairCtx, jobID)
	if err != nil {
		if domain.IsKind(err, domain.KindUnavailable) {
			return domain.NewRetryableError(err)
		}
		return err
	}

	w.logger.Info("Policy reconciled",
		slog.String("job_id", jobID),
		slog.String("policy_id", policy.PolicyID),
	)
	return nil
}
