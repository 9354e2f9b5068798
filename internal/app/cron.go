package app

import (
	"context"
	"fmt"
	"time"

	"github.com/cryptonic-cms/core/internal/config"
	"github.com/cryptonic-cms/core/internal/modules/media"
	pkgcron "github.com/cryptonic-cms/core/internal/pkg/cron"
	sessionpkg "github.com/cryptonic-cms/core/internal/pkg/session"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, db *gorm.DB, cfg *config.AppConfig, mediaSvc *media.Service, logger *zap.Logger) {
	cronLogger := logger.Named("cron")

	sweepInterval := time.Duration(cfg.Images.SweepIntervalMinutes) * time.Minute
	if sweepInterval < time.Minute {
		sweepInterval = 30 * time.Minute
	}

	sched.Register(pkgcron.Job{
		Name:        "verify_images",
		Description: "re-ensure pending and broken image slots",
		Interval:    sweepInterval,
		Fn: func(ctx context.Context) error {
			report, err := mediaSvc.VerifyIntegrity(ctx)
			if err != nil {
				cronLogger.Warn("image sweep failed", zap.Error(err))
				return err
			}
			cronLogger.Info(fmt.Sprintf("image sweep done: %d checked, %d healed, %d failed",
				report.Checked, report.Healed, report.Failed))
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "process_image_queue",
		Description: "drain deferred image downloads",
		Interval:    time.Minute,
		Fn: func(ctx context.Context) error {
			fetched, failed, err := mediaSvc.ProcessPending(ctx)
			if err != nil {
				cronLogger.Warn("image queue drain failed", zap.Error(err))
				return err
			}
			if fetched > 0 || failed > 0 {
				cronLogger.Info(fmt.Sprintf("image queue drained: %d fetched, %d failed", fetched, failed))
			}
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "prune_sessions",
		Description: "delete long-expired login sessions",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			pruned, err := sessionpkg.PruneExpired(db, 7*24*time.Hour)
			if err != nil {
				cronLogger.Warn("session prune failed", zap.Error(err))
				return err
			}
			if pruned > 0 {
				cronLogger.Info(fmt.Sprintf("pruned %d expired sessions", pruned))
			}
			return nil
		},
	})
}
