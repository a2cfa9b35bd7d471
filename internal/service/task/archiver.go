package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/workforcehq/workforce-backend-go/internal/domain/task"
)

// ArchiveClosedCycles snapshots the just-closed cycle of every live recurring
// task of the given kind into an immutable completion row, then resets the
// live task for the next cycle. The snapshot insert is idempotent on
// (task_id, cycle_date) and the reset only runs once the archive row is
// confirmed, so a retried or racing sweep converges on the same state.
func (s *TaskServiceImpl) ArchiveClosedCycles(ctx context.Context, kind task.TaskKind, now time.Time) (int, error) {
	tasks, err := s.taskRepo.ListRecurring(ctx, kind)
	if err != nil {
		return 0, fmt.Errorf("failed to list recurring tasks: %w", err)
	}

	archived := 0
	for _, t := range tasks {
		cycleDate, ok := cycleDateFor(t, kind, now)
		if !ok {
			continue
		}

		snapshot := s.snapshotCycle(t, cycleDate, now)
		confirmed, err := s.complRepo.InsertIfAbsent(ctx, snapshot)
		if err != nil {
			slog.Error("Archiver: failed to write completion snapshot",
				"task_id", t.ID, "cycle_date", cycleDate.Format("2006-01-02"), "error", err)
			continue
		}
		if !confirmed {
			// No confirmed archive row, never reset.
			continue
		}

		if err := s.resetForNextCycle(ctx, t.ID, now); err != nil {
			slog.Error("Archiver: failed to reset task after archive",
				"task_id", t.ID, "error", err)
			continue
		}
		archived++
	}

	return archived, nil
}

func (s *TaskServiceImpl) snapshotCycle(t task.Task, cycleDate time.Time, now time.Time) task.TaskCompletion {
	outcome := DetermineOutcome(t, s.evaluator.Evaluate(t, now), now)

	return task.TaskCompletion{
		TaskID:          t.ID,
		CycleDate:       cycleDate,
		Title:           t.Title,
		AssigneeID:      t.AssigneeID,
		Status:          t.Status,
		ApprovalStatus:  t.ApprovalStatus,
		CompletedAt:     t.CompletedAt,
		CompletedBy:     t.CompletedBy,
		TickedAt:        t.TickedAt,
		ApprovedBy:      t.ApprovedBy,
		ApprovedAt:      t.ApprovedAt,
		BonusPoints:     t.BonusPoints,
		BonusCurrency:   t.BonusCurrency,
		PenaltyPoints:   t.PenaltyPoints,
		PenaltyCurrency: t.PenaltyCurrency,
		OutcomeKind:     outcome.Kind,
		OutcomePoints:   outcome.Points,
		OutcomeCurrency: outcome.Currency,
		ArchivedAt:      now,
	}
}

func (s *TaskServiceImpl) resetForNextCycle(ctx context.Context, taskID string, now time.Time) error {
	today := startOfDay(now)
	_, err := s.saveWithRetry(ctx, taskID, func(t *task.Task) error {
		t.Status = task.StatusPending
		t.CompletedAt = nil
		t.CompletedBy = nil
		t.TickedAt = nil
		t.ApprovalStatus = task.ApprovalPending
		t.ApprovedBy = nil
		t.ApprovedAt = nil
		t.AssignedDate = &today
		return nil
	})
	return err
}

// cycleDateFor identifies the closed cycle the sweep is archiving, assuming
// the sweep runs just after the cycle boundary: yesterday for daily tasks,
// the previous Monday-anchored week for weekly, the previous month for
// monthly. Custom tasks cycle on their recurrence spec anchored to the
// assigned date: the cycle stays open until the first occurrence after the
// assigned date has passed.
func cycleDateFor(t task.Task, kind task.TaskKind, now time.Time) (time.Time, bool) {
	switch kind {
	case task.KindDaily:
		return startOfDay(now.AddDate(0, 0, -1)), true
	case task.KindWeekly:
		return startOfWeek(now.AddDate(0, 0, -7)), true
	case task.KindMonthly:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		prev := first.AddDate(0, 0, -1)
		return time.Date(prev.Year(), prev.Month(), 1, 0, 0, 0, 0, now.Location()), true
	case task.KindCustom:
		if t.AssignedDate == nil || t.RecurrenceSpec == nil {
			return time.Time{}, false
		}
		sched, err := cron.ParseStandard(*t.RecurrenceSpec)
		if err != nil {
			slog.Error("Archiver: invalid recurrence spec",
				"task_id", t.ID, "recurrence_spec", *t.RecurrenceSpec, "error", err)
			return time.Time{}, false
		}
		anchor := startOfDay(*t.AssignedDate)
		if sched.Next(anchor).After(now) {
			return time.Time{}, false
		}
		return anchor, true
	default:
		return time.Time{}, false
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek returns the Monday of t's week.
func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	weekday := int(day.Weekday())
	if weekday == 0 { // Sunday
		weekday = 7
	}
	return day.AddDate(0, 0, -(weekday - 1))
}
