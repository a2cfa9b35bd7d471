package task

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/workforcehq/workforce-backend-go/internal/domain/task"
	"github.com/workforcehq/workforce-backend-go/internal/service/deadline"
)

// DetermineOutcome decides the reward/penalty for a task at resolution time.
// The completion instant is tickedAt, falling back to completedAt, falling
// back to now. Rejected and deadline_passed tasks never earn a reward.
func DetermineOutcome(t task.Task, res deadline.Result, now time.Time) task.Outcome {
	if t.ApprovalStatus == task.ApprovalRejected || t.ApprovalStatus == task.ApprovalDeadlinePassed {
		return penaltyOrNeutral(t)
	}

	if t.IsCompleted() {
		instant := now
		if t.TickedAt != nil {
			instant = *t.TickedAt
		} else if t.CompletedAt != nil {
			instant = *t.CompletedAt
		}

		// Strict after: completing exactly at the deadline is on time.
		if res.EffectiveDeadline != nil && instant.After(*res.EffectiveDeadline) {
			return penaltyOrNeutral(t)
		}

		if t.HasBonus() {
			return task.Outcome{
				Kind:     task.OutcomeReward,
				Points:   t.BonusPoints,
				Currency: t.BonusCurrency,
			}
		}
		return task.Outcome{Kind: task.OutcomeNeutral}
	}

	if res.Past {
		return penaltyOrNeutral(t)
	}

	return task.Outcome{Kind: task.OutcomeNeutral}
}

func penaltyOrNeutral(t task.Task) task.Outcome {
	if !t.HasPenalty() {
		return task.Outcome{Kind: task.OutcomeNeutral}
	}

	currency := t.PenaltyCurrency
	// Points-only penalties convert 1:1 into currency.
	if currency.IsZero() && t.PenaltyPoints > 0 {
		currency = decimal.NewFromInt(int64(t.PenaltyPoints))
	}

	return task.Outcome{
		Kind:     task.OutcomePenalty,
		Points:   t.PenaltyPoints,
		Currency: currency,
	}
}
