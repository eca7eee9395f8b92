package preview

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/doctools/internal/logfields"
)

// pollScheduler wraps a gocron scheduler running the periodic author-mode
// jobs.
type pollScheduler struct {
	scheduler gocron.Scheduler
}

func newPollScheduler() (*pollScheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &pollScheduler{scheduler: s}, nil
}

// Every schedules fn at a fixed interval. A run that is still in progress
// when the next one is due delays it instead of overlapping.
func (s *pollScheduler) Every(interval time.Duration, name string, fn func()) error {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(fn),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s job: %w", name, err)
	}
	slog.Debug("Scheduled job", "name", name, "id", job.ID().String(), logfields.Duration(interval))
	return nil
}

func (s *pollScheduler) Start() { s.scheduler.Start() }

func (s *pollScheduler) Stop() error { return s.scheduler.Shutdown() }
