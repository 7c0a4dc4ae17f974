package poller

import (
	"context"
	"time"

	"flydealsbot/internal/storage"
	"flydealsbot/pkg/logx"
)

// RetentionJob prunes seen-deal dedup records past the horizon. Alert-match
// records are never pruned: their at-most-once guarantee is unbounded.
type RetentionJob struct {
	store   storage.Store
	log     logx.Logger
	horizon time.Duration
}

func NewRetentionJob(store storage.Store, horizon time.Duration, log logx.Logger) *RetentionJob {
	if horizon <= 0 {
		horizon = 30 * 24 * time.Hour
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &RetentionJob{store: store, log: log, horizon: horizon}
}

func (j *RetentionJob) Run(ctx context.Context) error {
	n, err := j.store.PruneSeenDeals(ctx, j.horizon)
	if err != nil {
		return err
	}
	j.log.Info("retention sweep done", logx.Int64("removed", n), logx.Duration("horizon", j.horizon))
	return nil
}
