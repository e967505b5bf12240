package worker

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper is the part of the cache store the janitor drives.
type Sweeper interface {
	Now() time.Time
	GCSweep(now time.Time) int
}

// CacheJanitor evicts idle cache entries on a cron schedule.
type CacheJanitor struct {
	cron   *cron.Cron
	store  Sweeper
	logger *zap.Logger
}

// StartCacheJanitor schedules Sweep on schedule (a cron spec with seconds,
// or a descriptor such as "@every 1m") and starts the scheduler.
func StartCacheJanitor(schedule string, store Sweeper, logger *zap.Logger) (*CacheJanitor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	j := &CacheJanitor{
		cron:   cron.New(cron.WithSeconds()),
		store:  store,
		logger: logger.Named("janitor"),
	}
	if _, err := j.cron.AddFunc(schedule, func() { j.Sweep() }); err != nil {
		return nil, fmt.Errorf("invalid cache gc schedule %q: %w", schedule, err)
	}
	j.cron.Start()
	j.logger.Info("cache janitor started", zap.String("schedule", schedule))
	return j, nil
}

// Sweep runs one eviction pass and returns how many entries it removed.
func (j *CacheJanitor) Sweep() int {
	evicted := j.store.GCSweep(j.store.Now())
	if evicted > 0 {
		j.logger.Info("cache entries evicted", zap.Int("count", evicted))
	}
	return evicted
}

// Stop halts the schedule and waits for a running sweep to finish.
func (j *CacheJanitor) Stop() {
	<-j.cron.Stop().Done()
}
