package jobs

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/geoinsight/backend/internal/config"
	"github.com/geoinsight/backend/internal/metrics"
	"github.com/geoinsight/backend/internal/repository"
	"github.com/geoinsight/backend/internal/service"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Tracker drives the periodic bulk sync of every tracked player. The
// interval is chosen to exceed the worst-case batch duration, but an
// in-flight guard skips a firing if the previous run is still going.
type Tracker struct {
	playerRepo repository.PlayerRepository
	sync       *service.SyncService
	cron       *cron.Cron
	syncDelay  time.Duration
	interval   time.Duration
	running    atomic.Bool
	logger     *zap.Logger
}

func NewTracker(playerRepo repository.PlayerRepository, syncService *service.SyncService, cfg *config.Config, logger *zap.Logger) *Tracker {
	return &Tracker{
		playerRepo: playerRepo,
		sync:       syncService,
		cron:       cron.New(),
		syncDelay:  cfg.SyncDelay,
		interval:   cfg.TrackInterval,
		logger:     logger,
	}
}

func (t *Tracker) Start() error {
	spec := fmt.Sprintf("@every %s", t.interval)
	if _, err := t.cron.AddFunc(spec, func() {
		t.RunOnce(context.Background())
	}); err != nil {
		return err
	}
	t.cron.Start()
	t.logger.Info("tracker job scheduled", zap.Duration("interval", t.interval))
	return nil
}

// Stop halts the schedule and waits for an in-flight run to finish.
func (t *Tracker) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
}

// RunOnce syncs all tracked players. Returns false when skipped because
// a previous run was still in flight.
func (t *Tracker) RunOnce(ctx context.Context) bool {
	if !t.running.CompareAndSwap(false, true) {
		metrics.TrackerRunsSkippedTotal.Inc()
		t.logger.Warn("tracker run skipped, previous run still in flight")
		return false
	}
	defer t.running.Store(false)

	start := time.Now()
	t.logger.Info("tracking job starting")

	players, err := t.playerRepo.GetTracked(ctx)
	if err != nil {
		t.logger.Error("failed to load tracked players", zap.Error(err))
		return true
	}
	if len(players) == 0 {
		t.logger.Info("no players to track")
		return true
	}

	result := t.sync.SyncBatch(ctx, players, t.syncDelay)

	elapsed := time.Since(start)
	metrics.TrackerRunsTotal.Inc()
	metrics.TrackerBatchDuration.Observe(elapsed.Seconds())
	t.logger.Info("tracking job completed",
		zap.Int("players", len(players)),
		zap.Int("updated", result.Updated),
		zap.Int("unchanged", result.Unchanged),
		zap.Int("errored", result.Errored),
		zap.Duration("elapsed", elapsed))
	return true
}
