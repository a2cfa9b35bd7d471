package deadline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workforcehq/workforce-backend-go/internal/domain/task"
)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func strPtr(s string) *string {
	return &s
}

func TestEvaluate_DeadlinePairPreferred(t *testing.T) {
	e := NewEvaluator()

	tk := task.Task{
		Kind:         task.KindOneTime,
		DueDate:      datePtr(2025, time.March, 1),
		DueTime:      strPtr("09:00"),
		DeadlineDate: datePtr(2025, time.March, 5),
		DeadlineTime: strPtr("17:30"),
	}

	now := time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC)
	res := e.Evaluate(tk, now)

	require.NotNil(t, res.EffectiveDeadline)
	assert.Equal(t, time.Date(2025, time.March, 5, 17, 30, 0, 0, time.UTC), *res.EffectiveDeadline)
	assert.False(t, res.Past)
}

func TestEvaluate_FallsBackToDuePair(t *testing.T) {
	e := NewEvaluator()

	tk := task.Task{
		Kind:    task.KindOneTime,
		DueDate: datePtr(2025, time.March, 1),
		DueTime: strPtr("09:00"),
	}

	now := time.Date(2025, time.March, 1, 9, 1, 0, 0, time.UTC)
	res := e.Evaluate(tk, now)

	require.NotNil(t, res.EffectiveDeadline)
	assert.Equal(t, time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC), *res.EffectiveDeadline)
	assert.True(t, res.Past)
}

func TestEvaluate_DateOnlyMeansEndOfDay(t *testing.T) {
	e := NewEvaluator()

	tk := task.Task{
		Kind:         task.KindOneTime,
		DeadlineDate: datePtr(2025, time.March, 5),
	}

	res := e.Evaluate(tk, time.Date(2025, time.March, 5, 23, 59, 59, 0, time.UTC))
	require.NotNil(t, res.EffectiveDeadline)
	assert.Equal(t, time.Date(2025, time.March, 5, 23, 59, 59, 0, time.UTC), *res.EffectiveDeadline)
	assert.False(t, res.Past, "equality is on time")

	res = e.Evaluate(tk, time.Date(2025, time.March, 6, 0, 0, 0, 0, time.UTC))
	assert.True(t, res.Past)
}

func TestEvaluate_ExactBoundaryIsNotPast(t *testing.T) {
	e := NewEvaluator()

	tk := task.Task{
		Kind:         task.KindOneTime,
		DeadlineDate: datePtr(2025, time.June, 10),
		DeadlineTime: strPtr("12:00"),
	}

	boundary := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)

	assert.False(t, e.IsPast(tk, boundary))
	assert.True(t, e.IsPast(tk, boundary.Add(time.Second)))
}

func TestEvaluate_TimeOnlyAnchorsForRecurringOnly(t *testing.T) {
	e := NewEvaluator()
	now := time.Date(2025, time.March, 3, 18, 0, 0, 0, time.UTC)

	oneTime := task.Task{
		Kind:         task.KindOneTime,
		DeadlineTime: strPtr("17:00"),
	}
	res := e.Evaluate(oneTime, now)
	assert.Nil(t, res.EffectiveDeadline, "one-time task with a bare time has no deadline")
	assert.False(t, res.Past)

	daily := task.Task{
		Kind:         task.KindDaily,
		DeadlineTime: strPtr("17:00"),
	}
	res = e.Evaluate(daily, now)
	require.NotNil(t, res.EffectiveDeadline)
	assert.Equal(t, time.Date(2025, time.March, 3, 17, 0, 0, 0, time.UTC), *res.EffectiveDeadline)
	assert.True(t, res.Past)
}

func TestEvaluate_TimeOnlyPrefersAssignedDate(t *testing.T) {
	e := NewEvaluator()

	tk := task.Task{
		Kind:         task.KindDaily,
		AssignedDate: datePtr(2025, time.March, 2),
		DeadlineTime: strPtr("10:00"),
	}

	now := time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC)
	res := e.Evaluate(tk, now)

	require.NotNil(t, res.EffectiveDeadline)
	assert.Equal(t, time.Date(2025, time.March, 2, 10, 0, 0, 0, time.UTC), *res.EffectiveDeadline)
	assert.True(t, res.Past)
}

func TestEvaluate_NoDeadlineFieldsNeverPast(t *testing.T) {
	e := NewEvaluator()

	tk := task.Task{Kind: task.KindWeekly}
	res := e.Evaluate(tk, time.Date(2099, time.January, 1, 0, 0, 0, 0, time.UTC))

	assert.Nil(t, res.EffectiveDeadline)
	assert.False(t, res.Past)
}

func TestEvaluate_InvalidTimeStringIgnored(t *testing.T) {
	e := NewEvaluator()

	tk := task.Task{
		Kind:         task.KindOneTime,
		DeadlineDate: datePtr(2025, time.March, 5),
		DeadlineTime: strPtr("25:99"),
	}

	now := time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC)
	res := e.Evaluate(tk, now)

	require.NotNil(t, res.EffectiveDeadline)
	assert.Equal(t, time.Date(2025, time.March, 5, 23, 59, 59, 0, time.UTC), *res.EffectiveDeadline)
}
