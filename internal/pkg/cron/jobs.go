package cron

import (
	"context"
	"time"

	"github.com/workforcehq/workforce-backend-go/internal/config"
	"github.com/workforcehq/workforce-backend-go/internal/domain/fine"
	"github.com/workforcehq/workforce-backend-go/internal/domain/task"
)

// Job names, also used by the manual admin triggers.
const (
	JobDeadlineSweep  = "deadline_sweep"
	JobDailyArchive   = "daily_archive"
	JobWeeklyArchive  = "weekly_archive"
	JobMonthlyArchive = "monthly_archive"
	JobFineScheduler  = "fine_scheduler"
)

// RegisterEngineJobs wires the periodic engine passes onto the scheduler.
// The wall clock is read once at the job boundary; everything below takes
// the instant as a parameter.
func RegisterEngineJobs(s *Scheduler, cfg config.CronConfig, taskService task.TaskService, fineService fine.FineService) error {
	jobs := []struct {
		name string
		spec string
		fn   func(ctx context.Context) error
	}{
		{JobDeadlineSweep, cfg.DeadlineSweepSpec, func(ctx context.Context) error {
			_, err := taskService.SweepDeadlines(ctx, time.Now())
			return err
		}},
		{JobDailyArchive, cfg.DailyArchiveSpec, func(ctx context.Context) error {
			now := time.Now()
			if _, err := taskService.ArchiveClosedCycles(ctx, task.KindDaily, now); err != nil {
				return err
			}
			// Custom-recurrence tasks close on their own day boundary, so
			// they ride the daily pass.
			_, err := taskService.ArchiveClosedCycles(ctx, task.KindCustom, now)
			return err
		}},
		{JobWeeklyArchive, cfg.WeeklyArchiveSpec, func(ctx context.Context) error {
			_, err := taskService.ArchiveClosedCycles(ctx, task.KindWeekly, time.Now())
			return err
		}},
		{JobMonthlyArchive, cfg.MonthlyArchiveSpec, func(ctx context.Context) error {
			_, err := taskService.ArchiveClosedCycles(ctx, task.KindMonthly, time.Now())
			return err
		}},
		{JobFineScheduler, cfg.FineSchedulerSpec, func(ctx context.Context) error {
			_, err := fineService.ApplyCustomFines(ctx, time.Now())
			return err
		}},
	}

	for _, j := range jobs {
		if err := s.AddJob(j.name, j.spec, j.fn); err != nil {
			return err
		}
	}
	return nil
}
