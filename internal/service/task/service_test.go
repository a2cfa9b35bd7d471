package task

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workforcehq/workforce-backend-go/internal/domain/project"
	"github.com/workforcehq/workforce-backend-go/internal/domain/task"
	"github.com/workforcehq/workforce-backend-go/internal/domain/user"
	"github.com/workforcehq/workforce-backend-go/internal/service/deadline"
)

// ========== In-memory fakes ==========

type fakeTaskRepo struct {
	tasks  map[string]task.Task
	nextID int

	// conflicts injects N version bumps before saves succeed, simulating a
	// concurrent writer.
	conflicts int
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: map[string]task.Task{}}
}

func (f *fakeTaskRepo) Create(_ context.Context, t task.Task) (task.Task, error) {
	f.nextID++
	t.ID = string(rune('a' + f.nextID - 1))
	t.Version = 1
	f.tasks[t.ID] = t
	return t, nil
}

func (f *fakeTaskRepo) GetByID(_ context.Context, id string) (task.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return task.Task{}, task.ErrTaskNotFound
	}
	return t, nil
}

func (f *fakeTaskRepo) List(_ context.Context, _ task.TaskFilter) ([]task.Task, int64, error) {
	var out []task.Task
	for _, t := range f.tasks {
		out = append(out, t)
	}
	return out, int64(len(out)), nil
}

func (f *fakeTaskRepo) UpdateVersioned(_ context.Context, t task.Task) (task.Task, error) {
	stored, ok := f.tasks[t.ID]
	if !ok {
		return task.Task{}, task.ErrTaskNotFound
	}
	if f.conflicts > 0 {
		f.conflicts--
		stored.Version++
		f.tasks[t.ID] = stored
	}
	if f.tasks[t.ID].Version != t.Version {
		return task.Task{}, task.ErrVersionConflict
	}
	t.Version++
	f.tasks[t.ID] = t
	return t, nil
}

func (f *fakeTaskRepo) ListRecurring(_ context.Context, kind task.TaskKind) ([]task.Task, error) {
	var out []task.Task
	for _, t := range f.tasks {
		if t.Kind == kind && t.Status != task.StatusCancelled {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTaskRepo) ListPendingApproval(_ context.Context) ([]task.Task, error) {
	var out []task.Task
	for _, t := range f.tasks {
		if t.ApprovalStatus == task.ApprovalPending && t.Status != task.StatusCancelled {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeCompletionRepo struct {
	rows map[string]task.TaskCompletion // keyed task_id + cycle date
}

func newFakeCompletionRepo() *fakeCompletionRepo {
	return &fakeCompletionRepo{rows: map[string]task.TaskCompletion{}}
}

func completionKey(taskID string, cycleDate time.Time) string {
	return taskID + "|" + cycleDate.Format("2006-01-02")
}

func (f *fakeCompletionRepo) InsertIfAbsent(_ context.Context, c task.TaskCompletion) (bool, error) {
	key := completionKey(c.TaskID, c.CycleDate)
	if _, ok := f.rows[key]; !ok {
		f.rows[key] = c
	}
	return true, nil
}

func (f *fakeCompletionRepo) ListByTask(_ context.Context, taskID string) ([]task.TaskCompletion, error) {
	var out []task.TaskCompletion
	for _, c := range f.rows {
		if c.TaskID == taskID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeSubtaskRepo struct {
	subtasks map[string][]task.Subtask
}

func newFakeSubtaskRepo() *fakeSubtaskRepo {
	return &fakeSubtaskRepo{subtasks: map[string][]task.Subtask{}}
}

func (f *fakeSubtaskRepo) ListByTask(_ context.Context, taskID string) ([]task.Subtask, error) {
	return f.subtasks[taskID], nil
}

func (f *fakeSubtaskRepo) AllCompleted(_ context.Context, taskID string) (bool, error) {
	for _, s := range f.subtasks[taskID] {
		if !s.IsCompleted {
			return false, nil
		}
	}
	return true, nil
}

type fakeProjectRepo struct {
	leads map[string][]string // project id -> lead employee ids
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{leads: map[string][]string{}}
}

func (f *fakeProjectRepo) GetByID(_ context.Context, id string) (project.Project, error) {
	return project.Project{ID: id}, nil
}

func (f *fakeProjectRepo) GetByIDs(_ context.Context, _ []string) ([]project.Project, error) {
	return nil, nil
}

func (f *fakeProjectRepo) ListLedBy(_ context.Context, employeeID string) ([]project.Project, error) {
	var out []project.Project
	for pid, leads := range f.leads {
		for _, lead := range leads {
			if lead == employeeID {
				out = append(out, project.Project{ID: pid, Status: project.ProjectStatusInProgress})
			}
		}
	}
	return out, nil
}

func (f *fakeProjectRepo) IsLeadAssignee(_ context.Context, employeeID string, projectID string) (bool, error) {
	for _, lead := range f.leads[projectID] {
		if lead == employeeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeProjectRepo) CountCompletedMemberships(_ context.Context, _ string, _, _ time.Time) (int, int, error) {
	return 0, 0, nil
}

func (f *fakeProjectRepo) CountClientApproved(_ context.Context, _ string, _, _ time.Time) (int, error) {
	return 0, nil
}

func (f *fakeProjectRepo) CountTasksCreatedFor(_ context.Context, _ string, _ string, _, _ time.Time) (int, error) {
	return 0, nil
}

// ========== Fixture ==========

type fixture struct {
	svc      task.TaskService
	tasks    *fakeTaskRepo
	compl    *fakeCompletionRepo
	subtasks *fakeSubtaskRepo
	projects *fakeProjectRepo
}

func newFixture() *fixture {
	tasks := newFakeTaskRepo()
	compl := newFakeCompletionRepo()
	subtasks := newFakeSubtaskRepo()
	projects := newFakeProjectRepo()
	svc := NewTaskService(tasks, compl, subtasks, projects, deadline.NewEvaluator())
	return &fixture{svc: svc, tasks: tasks, compl: compl, subtasks: subtasks, projects: projects}
}

var (
	admin    = user.Actor{UserID: "u-admin", EmployeeID: "emp-admin", Role: user.RoleAdmin}
	assignee = user.Actor{UserID: "u-1", EmployeeID: "emp-1", Role: user.RoleEmployee}
	outsider = user.Actor{UserID: "u-2", EmployeeID: "emp-2", Role: user.RoleEmployee}
)

func seedTask(f *fixture, mutate func(*task.Task)) task.Task {
	t := task.Task{
		Title:          "Write weekly report",
		Kind:           task.KindOneTime,
		Status:         task.StatusPending,
		AssigneeID:     assignee.EmployeeID,
		CreatedBy:      admin.EmployeeID,
		ApprovalStatus: task.ApprovalPending,
	}
	if mutate != nil {
		mutate(&t)
	}
	created, _ := f.tasks.Create(context.Background(), t)
	return created
}

// ========== Transition: tick ==========

func TestTick_CompletesAndReopensApproval(t *testing.T) {
	f := newFixture()
	seeded := seedTask(f, func(tk *task.Task) {
		tk.ApprovalStatus = task.ApprovalRejected
	})

	now := time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)
	resp, err := f.svc.Transition(context.Background(), assignee, seeded.ID, task.ActionTick, now)
	require.NoError(t, err)

	assert.Equal(t, string(task.StatusCompleted), resp.Status)
	assert.Equal(t, string(task.ApprovalPending), resp.ApprovalStatus, "a fresh tick reopens the approval cycle")
	require.NotNil(t, resp.CompletedBy)
	assert.Equal(t, assignee.EmployeeID, *resp.CompletedBy)
	assert.NotNil(t, resp.TickedAt)
	assert.Nil(t, resp.ApprovedBy)
}

func TestTick_BlockedBySubtasks(t *testing.T) {
	f := newFixture()
	seeded := seedTask(f, nil)
	f.subtasks.subtasks[seeded.ID] = []task.Subtask{
		{ID: "s1", TaskID: seeded.ID, Title: "draft", IsCompleted: true},
		{ID: "s2", TaskID: seeded.ID, Title: "review", IsCompleted: false},
	}

	_, err := f.svc.Transition(context.Background(), assignee, seeded.ID, task.ActionTick, time.Now())
	assert.ErrorIs(t, err, task.ErrSubtasksIncomplete)
}

func TestTick_AuthorizedForLeadAssignee(t *testing.T) {
	f := newFixture()
	pid := "proj-1"
	seeded := seedTask(f, func(tk *task.Task) { tk.ProjectID = &pid })
	f.projects.leads[pid] = []string{outsider.EmployeeID}

	_, err := f.svc.Transition(context.Background(), outsider, seeded.ID, task.ActionTick, time.Now())
	assert.NoError(t, err)
}

func TestTick_UnauthorizedActorRejected(t *testing.T) {
	f := newFixture()
	seeded := seedTask(f, nil)

	_, err := f.svc.Transition(context.Background(), outsider, seeded.ID, task.ActionTick, time.Now())
	assert.ErrorIs(t, err, task.ErrEditNotAllowed)
}

// ========== Transition: untick / approve / reject ==========

func TestUntick_AdminOnly(t *testing.T) {
	f := newFixture()
	seeded := seedTask(f, nil)

	_, err := f.svc.Transition(context.Background(), assignee, seeded.ID, task.ActionUntick, time.Now())
	assert.ErrorIs(t, err, user.ErrAdminPrivilegeRequired)
}

func TestUntick_ClearsCompletion(t *testing.T) {
	f := newFixture()
	seeded := seedTask(f, nil)

	now := time.Now()
	_, err := f.svc.Transition(context.Background(), assignee, seeded.ID, task.ActionTick, now)
	require.NoError(t, err)

	resp, err := f.svc.Transition(context.Background(), admin, seeded.ID, task.ActionUntick, now)
	require.NoError(t, err)

	assert.Equal(t, string(task.StatusPending), resp.Status)
	assert.Nil(t, resp.CompletedAt)
	assert.Nil(t, resp.TickedAt)
	assert.Equal(t, string(task.ApprovalPending), resp.ApprovalStatus)
}

func TestApprove_AdminOnly(t *testing.T) {
	f := newFixture()
	seeded := seedTask(f, nil)

	_, err := f.svc.Transition(context.Background(), assignee, seeded.ID, task.ActionApprove, time.Now())
	assert.ErrorIs(t, err, user.ErrAdminPrivilegeRequired)
}

func TestApprove_PendingOnly(t *testing.T) {
	f := newFixture()
	seeded := seedTask(f, func(tk *task.Task) {
		tk.ApprovalStatus = task.ApprovalApproved
	})

	_, err := f.svc.Transition(context.Background(), admin, seeded.ID, task.ActionApprove, time.Now())
	assert.ErrorIs(t, err, task.ErrApprovalNotPending)
}

func TestApprove_DeadlinePassedIsFinal(t *testing.T) {
	f := newFixture()
	seeded := seedTask(f, func(tk *task.Task) {
		tk.ApprovalStatus = task.ApprovalDeadlinePassed
	})

	_, err := f.svc.Transition(context.Background(), admin, seeded.ID, task.ActionApprove, time.Now())
	assert.ErrorIs(t, err, task.ErrApprovalAlreadyResolved)
}

func TestReject_SetsRejected(t *testing.T) {
	f := newFixture()
	seeded := seedTask(f, nil)

	now := time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)
	resp, err := f.svc.Transition(context.Background(), admin, seeded.ID, task.ActionReject, now)
	require.NoError(t, err)

	assert.Equal(t, string(task.ApprovalRejected), resp.ApprovalStatus)
	require.NotNil(t, resp.ApprovedBy)
	assert.Equal(t, admin.EmployeeID, *resp.ApprovedBy)
}

func TestTransition_UnknownAction(t *testing.T) {
	f := newFixture()
	seeded := seedTask(f, nil)

	_, err := f.svc.Transition(context.Background(), admin, seeded.ID, task.TransitionAction("explode"), time.Now())
	assert.ErrorIs(t, err, task.ErrUnknownAction)
}

// ========== Update authorization ==========

func TestUpdate_RewardFieldsBlockedForNonAdmin(t *testing.T) {
	f := newFixture()
	pid := "proj-1"
	seeded := seedTask(f, func(tk *task.Task) { tk.ProjectID = &pid })
	f.projects.leads[pid] = []string{assignee.EmployeeID}

	points := 500
	_, err := f.svc.Update(context.Background(), assignee, task.UpdateTaskRequest{
		ID:          seeded.ID,
		BonusPoints: &points,
	})

	var fieldErr task.FieldAuthorizationError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "bonus_points", fieldErr.Field)
}

func TestUpdate_LeadAssigneeEditsOtherFields(t *testing.T) {
	f := newFixture()
	pid := "proj-1"
	seeded := seedTask(f, func(tk *task.Task) { tk.ProjectID = &pid })
	f.projects.leads[pid] = []string{outsider.EmployeeID}

	title := "Write monthly report"
	resp, err := f.svc.Update(context.Background(), outsider, task.UpdateTaskRequest{
		ID:    seeded.ID,
		Title: &title,
	})
	require.NoError(t, err)
	assert.Equal(t, title, resp.Title)
}

func TestUpdate_AdminEditsRewardFields(t *testing.T) {
	f := newFixture()
	seeded := seedTask(f, nil)

	points := 750
	resp, err := f.svc.Update(context.Background(), admin, task.UpdateTaskRequest{
		ID:          seeded.ID,
		BonusPoints: &points,
	})
	require.NoError(t, err)
	assert.Equal(t, 750, resp.BonusPoints)
}

func TestUpdate_OutsiderRejected(t *testing.T) {
	f := newFixture()
	seeded := seedTask(f, nil)

	title := "hijacked"
	_, err := f.svc.Update(context.Background(), outsider, task.UpdateTaskRequest{
		ID:    seeded.ID,
		Title: &title,
	})
	assert.ErrorIs(t, err, task.ErrEditNotAllowed)
}

// ========== Optimistic versioning ==========

func TestUpdate_RetriesOnVersionConflict(t *testing.T) {
	f := newFixture()
	seeded := seedTask(f, nil)
	f.tasks.conflicts = 2

	title := "retried"
	resp, err := f.svc.Update(context.Background(), admin, task.UpdateTaskRequest{
		ID:    seeded.ID,
		Title: &title,
	})
	require.NoError(t, err)
	assert.Equal(t, title, resp.Title)
}

func TestUpdate_ConflictRetriesExhausted(t *testing.T) {
	f := newFixture()
	seeded := seedTask(f, nil)
	f.tasks.conflicts = saveRetries

	title := "never lands"
	_, err := f.svc.Update(context.Background(), admin, task.UpdateTaskRequest{
		ID:    seeded.ID,
		Title: &title,
	})
	assert.ErrorIs(t, err, task.ErrVersionConflict)
}

// ========== Deadline sweep ==========

func TestSweepDeadlines_MarksOverdue(t *testing.T) {
	f := newFixture()
	past := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	seeded := seedTask(f, func(tk *task.Task) {
		tk.DeadlineDate = &past
	})

	now := time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)
	swept, err := f.svc.SweepDeadlines(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	stored, _ := f.tasks.GetByID(context.Background(), seeded.ID)
	assert.Equal(t, task.ApprovalDeadlinePassed, stored.ApprovalStatus)
	assert.Equal(t, task.StatusOverdue, stored.Status)
}

func TestSweepDeadlines_Idempotent(t *testing.T) {
	f := newFixture()
	past := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	seedTask(f, func(tk *task.Task) { tk.DeadlineDate = &past })

	now := time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)
	swept, err := f.svc.SweepDeadlines(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	swept, err = f.svc.SweepDeadlines(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 0, swept, "a second sweep with no state change does nothing")
}

func TestSweepDeadlines_SkipsOnTimeCompletion(t *testing.T) {
	f := newFixture()
	deadlineDay := time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC)
	ticked := time.Date(2025, time.March, 2, 15, 0, 0, 0, time.UTC)
	seeded := seedTask(f, func(tk *task.Task) {
		tk.DeadlineDate = &deadlineDay
		tk.Status = task.StatusCompleted
		tk.TickedAt = &ticked
		tk.CompletedAt = &ticked
	})

	now := time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)
	swept, err := f.svc.SweepDeadlines(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 0, swept)

	stored, _ := f.tasks.GetByID(context.Background(), seeded.ID)
	assert.Equal(t, task.ApprovalPending, stored.ApprovalStatus, "on-time completion awaits normal approval")
}

func TestSweepDeadlines_MarksLateCompletion(t *testing.T) {
	f := newFixture()
	deadlineDay := time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC)
	ticked := time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC)
	seeded := seedTask(f, func(tk *task.Task) {
		tk.DeadlineDate = &deadlineDay
		tk.Status = task.StatusCompleted
		tk.TickedAt = &ticked
		tk.CompletedAt = &ticked
	})

	now := time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)
	swept, err := f.svc.SweepDeadlines(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	stored, _ := f.tasks.GetByID(context.Background(), seeded.ID)
	assert.Equal(t, task.ApprovalDeadlinePassed, stored.ApprovalStatus)
	assert.Equal(t, task.StatusCompleted, stored.Status, "a completed task keeps its status")
}

func TestSweepDeadlines_NoDeadlineNeverSwept(t *testing.T) {
	f := newFixture()
	seedTask(f, nil)

	swept, err := f.svc.SweepDeadlines(context.Background(), time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, swept)
}

// ========== Create validation ==========

func TestCreate_CustomKindRequiresRecurrenceSpec(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), admin, task.CreateTaskRequest{
		Title:      "custom loop",
		Kind:       string(task.KindCustom),
		AssigneeID: assignee.EmployeeID,
	})
	assert.Error(t, err)

	bad := "every other tuesday"
	_, err = f.svc.Create(context.Background(), admin, task.CreateTaskRequest{
		Title:          "custom loop",
		Kind:           string(task.KindCustom),
		AssigneeID:     assignee.EmployeeID,
		RecurrenceSpec: &bad,
	})
	assert.Error(t, err, "a recurrence spec must parse as a cron expression")

	good := "0 9 * * 1"
	_, err = f.svc.Create(context.Background(), admin, task.CreateTaskRequest{
		Title:          "custom loop",
		Kind:           string(task.KindCustom),
		AssigneeID:     assignee.EmployeeID,
		RecurrenceSpec: &good,
	})
	assert.NoError(t, err)
}

func TestCreate_SetsInitialState(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.Create(context.Background(), admin, task.CreateTaskRequest{
		Title:      "one off",
		Kind:       string(task.KindOneTime),
		AssigneeID: assignee.EmployeeID,
	})
	require.NoError(t, err)

	assert.Equal(t, string(task.StatusPending), resp.Status)
	assert.Equal(t, string(task.ApprovalPending), resp.ApprovalStatus)
	assert.Equal(t, 1, resp.Version)
}

// sanity check that fake conflict injection actually conflicts
func TestFakeRepo_ConflictInjection(t *testing.T) {
	f := newFixture()
	seeded := seedTask(f, nil)
	f.tasks.conflicts = 1

	_, err := f.tasks.UpdateVersioned(context.Background(), seeded)
	assert.True(t, errors.Is(err, task.ErrVersionConflict))
}
