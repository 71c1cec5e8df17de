package intake

import (
	"context"
	"fmt"
	"time"

	"github.com/medisync/frontdesk/pkg/scheduler"
)

// startJobs schedules the background maintenance jobs: retrying
// assignment for queued patients and parking inactive doctors.
func (s *Service) startJobs() error {
	if !s.config.Jobs.Enabled {
		s.logger.Info("Background jobs disabled")
		return nil
	}

	s.cron = scheduler.NewCron(context.Background(), time.UTC)

	if _, err := s.cron.Add(s.config.Jobs.RetrySchedule, scheduler.FuncJob(s.retryUnassignedJob)); err != nil {
		return fmt.Errorf("failed to schedule assignment retry job: %w", err)
	}

	if _, err := s.cron.Add(s.config.Jobs.InactivitySchedule, scheduler.FuncJob(s.inactivitySweepJob)); err != nil {
		return fmt.Errorf("failed to schedule inactivity sweep job: %w", err)
	}

	s.cron.Start()
	s.logger.WithFields(map[string]interface{}{
		"retry_schedule":      s.config.Jobs.RetrySchedule,
		"inactivity_schedule": s.config.Jobs.InactivitySchedule,
	}).Info("Background jobs scheduled")
	return nil
}

// retryUnassignedJob re-runs doctor assignment for queued patients
func (s *Service) retryUnassignedJob(ctx context.Context) {
	assigned, err := s.RetryUnassigned(ctx, s.config.Jobs.RetryBatchSize)
	if err != nil {
		s.logger.WithError(err).Warn("Assignment retry job failed")
		return
	}
	if assigned > 0 {
		s.logger.Infof("Assignment retry job assigned %d patients", assigned)
	}
}

// inactivitySweepJob marks doctors without recent activity unavailable
func (s *Service) inactivitySweepJob(ctx context.Context) {
	count, err := s.repository.MarkInactiveDoctorsUnavailable(ctx, s.config.Jobs.InactivityMinutes)
	if err != nil {
		s.logger.WithError(err).Warn("Inactivity sweep job failed")
		return
	}
	if count > 0 {
		s.logger.Infof("Inactivity sweep parked %d doctors", count)
	}
}
