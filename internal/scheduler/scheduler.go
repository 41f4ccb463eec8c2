package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-records/internal/weather"
)

// Looker stores one upstream lookup. *weather.Service implements it.
type Looker interface {
	LookupAndStore(ctx context.Context, q weather.Query) (weather.Record, error)
}

// Scheduler periodically looks up the tracked locations and stores a record
// for each.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Looker
	locations []weather.Query
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler.
func New(locations []weather.Query, interval time.Duration, service Looker, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		locations: locations,
		interval:  interval,
		timeout:   30 * time.Second,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		s.logger.Info("no locations configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	if _, err := s.scheduler.Every(interval).Do(s.RunOnce); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "interval", interval.String(), "locations", len(s.locations))
	return nil
}

// RunOnce looks up every tracked location concurrently and waits for all
// of them.
func (s *Scheduler) RunOnce() {
	s.logger.Debug("running lookup job")

	var wg sync.WaitGroup
	for _, loc := range s.locations {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()

			rec, err := s.service.LookupAndStore(ctx, loc)
			if err != nil {
				s.logger.Warn("lookup failed", "query", loc.String(), "error", err)
				return
			}
			s.logger.Debug("lookup stored", "query", loc.String(), "id", rec.ID)
		}()
	}
	wg.Wait()
	s.logger.Debug("lookup job completed")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
