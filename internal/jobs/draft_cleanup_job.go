package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DraftCleanupJobName is the name of the idle draft cleanup job
const DraftCleanupJobName = "draft_cleanup"

// DraftCleanupService defines the interface for purging idle wizard drafts.
// This interface allows the job to call the service without importing the service package directly.
type DraftCleanupService interface {
	// DeleteIdleDrafts deletes drafts that have not been touched since the cutoff.
	// Returns the number of drafts removed.
	DeleteIdleDrafts(ctx context.Context, idleFor time.Duration) (int64, error)
}

// DraftCleanupJob purges wizard drafts that were abandoned mid-flow.
// Cancelling a wizard never persists anything, so the only leftovers are
// drafts whose owner simply stopped coming back.
type DraftCleanupJob struct {
	drafts  DraftCleanupService
	logger  *zap.Logger
	idleTTL time.Duration
	timeout time.Duration
}

// NewDraftCleanupJob creates a new draft cleanup job.
// idleTTL is how long a draft may sit untouched before being purged.
func NewDraftCleanupJob(drafts DraftCleanupService, logger *zap.Logger, idleTTL, timeout time.Duration) *DraftCleanupJob {
	return &DraftCleanupJob{
		drafts:  drafts,
		logger:  logger,
		idleTTL: idleTTL,
		timeout: timeout,
	}
}

// Run executes the draft cleanup job.
// This is called by the scheduler according to the cron expression.
func (j *DraftCleanupJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()

	removed, err := j.drafts.DeleteIdleDrafts(ctx, j.idleTTL)
	if err != nil {
		j.logger.Error("draft cleanup failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	if removed > 0 {
		j.logger.Info("idle drafts purged",
			zap.Int64("removed", removed),
			zap.Duration("idle_ttl", j.idleTTL),
			zap.Duration("duration", time.Since(start)))
	}
}

// RegisterDraftCleanupJob registers the cleanup job with the scheduler.
func RegisterDraftCleanupJob(scheduler *Scheduler, drafts DraftCleanupService, logger *zap.Logger, cronExpr string, idleTTL time.Duration) error {
	job := NewDraftCleanupJob(drafts, logger, idleTTL, 5*time.Minute)
	return scheduler.AddJob(DraftCleanupJobName, cronExpr, job.Run)
}
