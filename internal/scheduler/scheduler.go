package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is one recurring unit of background work. NextRun decides when it
// fires relative to now; the scheduler calls it again after each run.
type Job interface {
	Name() string
	NextRun(now time.Time) time.Time
	Run(ctx context.Context) error
}

// Scheduler runs each job in its own goroutine on a timer loop.
type Scheduler struct {
	jobs   []Job
	logger *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{logger: logger}
}

func (s *Scheduler) Register(job Job) {
	s.jobs = append(s.jobs, job)
}

func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.runLoop(ctx, job)
	}

	s.logger.Info("scheduler started", "jobs", len(s.jobs))
}

func (s *Scheduler) runLoop(ctx context.Context, job Job) {
	defer s.wg.Done()

	for {
		next := job.NextRun(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		start := time.Now()
		if err := job.Run(ctx); err != nil {
			s.logger.Error("scheduled job failed",
				"job", job.Name(),
				"duration_ms", time.Since(start).Milliseconds(),
				"error", err)
			continue
		}
		s.logger.Info("scheduled job completed",
			"job", job.Name(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}

func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}
