package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/food-waste-optimizer/internal/waste"
)

// Refresher is the part of waste.Service the scheduler drives.
type Refresher interface {
	RefreshRoutes(ctx context.Context) (waste.RoutePlan, error)
	WarmModels(ctx context.Context)
}

// Scheduler periodically recomputes and stores the route plan, and keeps the
// demand model cache warm for the configured products.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Refresher
	interval  time.Duration
	timeout   time.Duration
	log       *zap.Logger
}

// New creates a new Scheduler.
func New(interval time.Duration, service Refresher, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		interval:  interval,
		timeout:   2 * time.Minute,
		log:       log,
	}
}

// Start schedules the periodic job and starts the underlying scheduler. The
// first run happens immediately.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().SingletonMode().Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	s.log.Debug("scheduler: refreshing route plan")

	s.service.WarmModels(ctx)
	if _, err := s.service.RefreshRoutes(ctx); err != nil {
		s.log.Error("scheduler: route refresh failed", zap.Error(err))
		return
	}
	s.log.Debug("scheduler: route plan refreshed", zap.Duration("took", time.Since(start)))
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
