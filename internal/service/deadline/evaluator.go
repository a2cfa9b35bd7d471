package deadline

import (
	"time"

	"github.com/workforcehq/workforce-backend-go/internal/domain/task"
)

// Result of a deadline evaluation. EffectiveDeadline is nil when the task
// carries no usable deadline fields, in which case it is never past due.
type Result struct {
	EffectiveDeadline *time.Time
	Past              bool
}

// Evaluator resolves a task's effective deadline and decides whether a given
// instant is past it. Pure: `now` is always injected, the system clock is
// never read here.
type Evaluator struct {
}

func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate resolves the effective deadline from the deadline(date,time) pair,
// falling back to the due(date,time) pair. A time of day with no date anchors
// to the assigned date (or today) only for recurring kinds; a date with no
// time means end of that day. Lateness is strict: an instant equal to the
// deadline is still on time.
func (e *Evaluator) Evaluate(t task.Task, now time.Time) Result {
	effective := e.resolvePair(t.DeadlineDate, t.DeadlineTime, t, now)
	if effective == nil {
		effective = e.resolvePair(t.DueDate, t.DueTime, t, now)
	}
	if effective == nil {
		return Result{}
	}
	return Result{
		EffectiveDeadline: effective,
		Past:              now.After(*effective),
	}
}

// IsPast is a convenience wrapper over Evaluate.
func (e *Evaluator) IsPast(t task.Task, at time.Time) bool {
	return e.Evaluate(t, at).Past
}

func (e *Evaluator) resolvePair(date *time.Time, timeOfDay *string, t task.Task, now time.Time) *time.Time {
	hour, minute, ok := parseTimeOfDay(timeOfDay)
	if ok {
		anchor := date
		if anchor == nil {
			if !t.IsRecurring() {
				return nil
			}
			// Recurring tasks with only a wall-clock deadline recur against
			// the assigned date when present, otherwise against today.
			if t.AssignedDate != nil {
				anchor = t.AssignedDate
			} else {
				today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
				anchor = &today
			}
		}
		d := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), hour, minute, 0, 0, location(*anchor, now))
		return &d
	}

	if date != nil {
		d := time.Date(date.Year(), date.Month(), date.Day(), 23, 59, 59, 0, location(*date, now))
		return &d
	}

	return nil
}

func parseTimeOfDay(s *string) (hour, minute int, ok bool) {
	if s == nil {
		return 0, 0, false
	}
	parsed, err := time.Parse("15:04", *s)
	if err != nil {
		return 0, 0, false
	}
	return parsed.Hour(), parsed.Minute(), true
}

// location keeps evaluation in the date's own zone when the date carries one,
// falling back to now's zone for dates stored as bare days.
func location(date time.Time, now time.Time) *time.Location {
	if date.Location() != time.UTC {
		return date.Location()
	}
	return now.Location()
}
