package daemon

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler wraps gocron for the periodic rescan job.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// ScheduleRescan runs task every interval.
func (s *Scheduler) ScheduleRescan(interval time.Duration, task func()) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithName("rescan"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rescan job: %w", err)
	}
	return nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() { s.scheduler.Start() }

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error { return s.scheduler.Shutdown() }
