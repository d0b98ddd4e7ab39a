package app

import (
	"context"
	"time"

	"github.com/nagisa-works/inkstone/internal/modules/media"
	pkgcron "github.com/nagisa-works/inkstone/internal/pkg/cron"
	"go.uber.org/zap"
)

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, mediaSvc *media.Service, logger *zap.Logger) {
	cronLogger := logger.Named("cron")

	sched.Register(pkgcron.Job{
		Name:        "cleanup_orphan_media",
		Description: "remove uploads that never got attached to a post",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			if err := mediaSvc.CleanupOrphans(ctx); err != nil {
				cronLogger.Warn("orphan media cleanup failed", zap.Error(err))
				return err
			}
			return nil
		},
	})
}
