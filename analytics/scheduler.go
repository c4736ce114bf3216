// api/analytics/scheduler.go
package analytics

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers the aggregation job on a cron schedule. The job itself
// is idempotent per vendor, so an overlapping manual trigger is harmless.
type Scheduler struct {
	cron       *cron.Cron
	job        *Job
	schedule   string
	runTimeout time.Duration
}

func NewScheduler(job *Job, schedule string) *Scheduler {
	if schedule == "" {
		schedule = "0 * * * *"
	}
	return &Scheduler{
		cron:       cron.New(),
		job:        job,
		schedule:   schedule,
		runTimeout: 15 * time.Minute,
	}
}

func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		log.Println("Running scheduled analytics aggregation...")
		ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
		defer cancel()
		if _, err := s.job.Run(ctx); err != nil {
			log.Printf("Scheduled aggregation failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("Analytics aggregation scheduler started (schedule %q)", s.schedule)
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("Analytics aggregation scheduler stopped")
}
