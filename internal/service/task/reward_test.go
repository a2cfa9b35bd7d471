package task

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/workforcehq/workforce-backend-go/internal/domain/task"
	"github.com/workforcehq/workforce-backend-go/internal/service/deadline"
)

var rewardDeadline = time.Date(2025, time.March, 5, 17, 0, 0, 0, time.UTC)

func completedTask(instant time.Time, mutate func(*task.Task)) task.Task {
	t := task.Task{
		Status:         task.StatusCompleted,
		ApprovalStatus: task.ApprovalApproved,
		TickedAt:       &instant,
		CompletedAt:    &instant,
	}
	if mutate != nil {
		mutate(&t)
	}
	return t
}

func atDeadline() deadline.Result {
	d := rewardDeadline
	return deadline.Result{EffectiveDeadline: &d, Past: true}
}

func TestDetermineOutcome_RewardAtExactBoundary(t *testing.T) {
	tk := completedTask(rewardDeadline, func(tk *task.Task) {
		tk.BonusPoints = 50
		tk.BonusCurrency = decimal.NewFromInt(500)
	})

	outcome := DetermineOutcome(tk, atDeadline(), rewardDeadline.Add(time.Hour))

	assert.Equal(t, task.OutcomeReward, outcome.Kind, "completing exactly at the deadline is on time")
	assert.Equal(t, 50, outcome.Points)
	assert.True(t, outcome.Currency.Equal(decimal.NewFromInt(500)))
}

func TestDetermineOutcome_PenaltyOneSecondLate(t *testing.T) {
	tk := completedTask(rewardDeadline.Add(time.Second), func(tk *task.Task) {
		tk.BonusPoints = 50
		tk.PenaltyPoints = 20
		tk.PenaltyCurrency = decimal.NewFromInt(200)
	})

	outcome := DetermineOutcome(tk, atDeadline(), rewardDeadline.Add(time.Hour))

	assert.Equal(t, task.OutcomePenalty, outcome.Kind)
	assert.Equal(t, 20, outcome.Points)
	assert.True(t, outcome.Currency.Equal(decimal.NewFromInt(200)))
}

func TestDetermineOutcome_PenaltyPointsFallBackToCurrency(t *testing.T) {
	tk := completedTask(rewardDeadline.Add(time.Minute), func(tk *task.Task) {
		tk.PenaltyPoints = 70
	})

	outcome := DetermineOutcome(tk, atDeadline(), rewardDeadline.Add(time.Hour))

	assert.Equal(t, task.OutcomePenalty, outcome.Kind)
	assert.Equal(t, 70, outcome.Points)
	assert.True(t, outcome.Currency.Equal(decimal.NewFromInt(70)),
		"points-only penalties convert 1:1 into currency")
}

func TestDetermineOutcome_ExplicitPenaltyCurrencyKept(t *testing.T) {
	tk := completedTask(rewardDeadline.Add(time.Minute), func(tk *task.Task) {
		tk.PenaltyPoints = 70
		tk.PenaltyCurrency = decimal.NewFromInt(150)
	})

	outcome := DetermineOutcome(tk, atDeadline(), rewardDeadline.Add(time.Hour))

	assert.True(t, outcome.Currency.Equal(decimal.NewFromInt(150)))
}

func TestDetermineOutcome_CompletedWithoutBonusIsNeutral(t *testing.T) {
	tk := completedTask(rewardDeadline.Add(-time.Hour), nil)

	outcome := DetermineOutcome(tk, atDeadline(), rewardDeadline.Add(time.Hour))

	assert.Equal(t, task.OutcomeNeutral, outcome.Kind)
	assert.Zero(t, outcome.Points)
}

func TestDetermineOutcome_RejectedNeverRewards(t *testing.T) {
	tk := completedTask(rewardDeadline.Add(-time.Hour), func(tk *task.Task) {
		tk.ApprovalStatus = task.ApprovalRejected
		tk.BonusPoints = 50
		tk.PenaltyPoints = 20
	})

	outcome := DetermineOutcome(tk, atDeadline(), rewardDeadline.Add(time.Hour))

	assert.Equal(t, task.OutcomePenalty, outcome.Kind, "an on-time completion still pays the penalty once rejected")
	assert.Equal(t, 20, outcome.Points)
}

func TestDetermineOutcome_DeadlinePassedNeverRewards(t *testing.T) {
	tk := completedTask(rewardDeadline.Add(-time.Hour), func(tk *task.Task) {
		tk.ApprovalStatus = task.ApprovalDeadlinePassed
		tk.BonusPoints = 50
	})

	outcome := DetermineOutcome(tk, atDeadline(), rewardDeadline.Add(time.Hour))

	assert.Equal(t, task.OutcomeNeutral, outcome.Kind, "no penalty configured leaves it neutral, never a reward")
}

func TestDetermineOutcome_NotCompletedPastDeadline(t *testing.T) {
	tk := task.Task{
		Status:         task.StatusPending,
		ApprovalStatus: task.ApprovalPending,
		PenaltyPoints:  30,
	}

	outcome := DetermineOutcome(tk, atDeadline(), rewardDeadline.Add(time.Hour))
	assert.Equal(t, task.OutcomePenalty, outcome.Kind)

	tk.PenaltyPoints = 0
	outcome = DetermineOutcome(tk, atDeadline(), rewardDeadline.Add(time.Hour))
	assert.Equal(t, task.OutcomeNeutral, outcome.Kind)
}

func TestDetermineOutcome_NotCompletedBeforeDeadline(t *testing.T) {
	tk := task.Task{
		Status:         task.StatusPending,
		ApprovalStatus: task.ApprovalPending,
		PenaltyPoints:  30,
	}
	d := rewardDeadline
	res := deadline.Result{EffectiveDeadline: &d, Past: false}

	outcome := DetermineOutcome(tk, res, rewardDeadline.Add(-time.Hour))
	assert.Equal(t, task.OutcomeNeutral, outcome.Kind)
}

func TestDetermineOutcome_NoDeadlineCompletionRewards(t *testing.T) {
	tk := completedTask(rewardDeadline, func(tk *task.Task) {
		tk.BonusPoints = 10
	})

	outcome := DetermineOutcome(tk, deadline.Result{}, rewardDeadline.Add(time.Hour))
	assert.Equal(t, task.OutcomeReward, outcome.Kind)
}

func TestDetermineOutcome_FallsBackToCompletedAtInstant(t *testing.T) {
	late := rewardDeadline.Add(time.Minute)
	tk := completedTask(late, func(tk *task.Task) {
		tk.TickedAt = nil
		tk.CompletedAt = &late
		tk.BonusPoints = 10
		tk.PenaltyPoints = 5
	})

	outcome := DetermineOutcome(tk, atDeadline(), rewardDeadline.Add(time.Hour))
	assert.Equal(t, task.OutcomePenalty, outcome.Kind)
}
