package fine

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workforcehq/workforce-backend-go/internal/domain/compensation"
	"github.com/workforcehq/workforce-backend-go/internal/domain/employee"
	"github.com/workforcehq/workforce-backend-go/internal/domain/fine"
	"github.com/workforcehq/workforce-backend-go/internal/domain/project"
)

// ========== In-memory fakes ==========

type fakeFineRepo struct {
	fines  map[string]fine.CustomFine
	nextID int
}

func newFakeFineRepo() *fakeFineRepo {
	return &fakeFineRepo{fines: map[string]fine.CustomFine{}}
}

func (r *fakeFineRepo) Create(_ context.Context, f fine.CustomFine) (fine.CustomFine, error) {
	r.nextID++
	f.ID = fmt.Sprintf("fine-%d", r.nextID)
	r.fines[f.ID] = f
	return f, nil
}

func (r *fakeFineRepo) GetByID(_ context.Context, id string) (fine.CustomFine, error) {
	f, ok := r.fines[id]
	if !ok {
		return fine.CustomFine{}, fine.ErrFineNotFound
	}
	return f, nil
}

func (r *fakeFineRepo) List(_ context.Context, activeOnly bool) ([]fine.CustomFine, error) {
	var out []fine.CustomFine
	for _, f := range r.fines {
		if activeOnly && !f.IsActive {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeFineRepo) Update(_ context.Context, f fine.CustomFine) (fine.CustomFine, error) {
	r.fines[f.ID] = f
	return f, nil
}

func (r *fakeFineRepo) Deactivate(_ context.Context, id string) error {
	f, ok := r.fines[id]
	if !ok {
		return fine.ErrFineNotFound
	}
	f.IsActive = false
	r.fines[id] = f
	return nil
}

type fakeRecordRepo struct {
	records []fine.CustomFineRecord
	naMarks map[string]bool
	nextID  int
	fines   *fakeFineRepo
}

func newFakeRecordRepo(fines *fakeFineRepo) *fakeRecordRepo {
	return &fakeRecordRepo{naMarks: map[string]bool{}, fines: fines}
}

func naKey(fineID, employeeID, projectID string, day time.Time) string {
	return fineID + "|" + employeeID + "|" + projectID + "|" + day.Format("2006-01-02")
}

func (r *fakeRecordRepo) ActiveExists(_ context.Context, fineID, employeeID string, projectID *string, day *time.Time) (bool, error) {
	for _, rec := range r.records {
		if rec.ManuallyDeleted || rec.FineID != fineID || rec.EmployeeID != employeeID {
			continue
		}
		if projectID != nil && (rec.ProjectID == nil || *rec.ProjectID != *projectID) {
			continue
		}
		if day != nil && !rec.Date.Equal(*day) {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (r *fakeRecordRepo) Create(_ context.Context, rec fine.CustomFineRecord) (fine.CustomFineRecord, error) {
	r.nextID++
	rec.ID = fmt.Sprintf("rec-%d", r.nextID)
	r.records = append(r.records, rec)
	return rec, nil
}

func (r *fakeRecordRepo) GetByID(_ context.Context, id string) (fine.CustomFineRecord, error) {
	for _, rec := range r.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return fine.CustomFineRecord{}, fine.ErrFineRecordNotFound
}

func (r *fakeRecordRepo) ListByFine(_ context.Context, fineID string) ([]fine.CustomFineRecord, error) {
	var out []fine.CustomFineRecord
	for _, rec := range r.records {
		if rec.FineID == fineID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeRecordRepo) ListForEmployeeWindow(_ context.Context, employeeID string, from, to time.Time) ([]fine.CustomFineRecord, error) {
	var out []fine.CustomFineRecord
	for _, rec := range r.records {
		if rec.EmployeeID == employeeID && !rec.ManuallyDeleted && !rec.Date.Before(from) && !rec.Date.After(to) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeRecordRepo) SumForWindow(_ context.Context, employeeID string, criteria fine.Criteria, from, to time.Time) (int, decimal.Decimal, error) {
	points := 0
	currency := decimal.Zero
	for _, rec := range r.records {
		if rec.EmployeeID != employeeID || rec.ManuallyDeleted || rec.Date.Before(from) || rec.Date.After(to) {
			continue
		}
		if r.fines.fines[rec.FineID].Criteria != criteria {
			continue
		}
		points += rec.Points
		currency = currency.Add(rec.Currency)
	}
	return points, currency, nil
}

func (r *fakeRecordRepo) MarkManuallyDeleted(_ context.Context, id string) error {
	for i, rec := range r.records {
		if rec.ID == id {
			r.records[i].ManuallyDeleted = true
			return nil
		}
	}
	return fine.ErrFineRecordNotFound
}

func (r *fakeRecordRepo) HasNAMark(_ context.Context, fineID, employeeID, projectID string, day time.Time) (bool, error) {
	return r.naMarks[naKey(fineID, employeeID, projectID, day)], nil
}

type fakeEmployeeRepo struct {
	employees map[string]employee.Employee
}

func newFakeEmployeeRepo() *fakeEmployeeRepo {
	return &fakeEmployeeRepo{employees: map[string]employee.Employee{}}
}

func (r *fakeEmployeeRepo) GetByID(_ context.Context, id string) (employee.Employee, error) {
	e, ok := r.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (r *fakeEmployeeRepo) GetByIDs(_ context.Context, ids []string) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, id := range ids {
		if e, ok := r.employees[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEmployeeRepo) GetActive(_ context.Context) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range r.employees {
		if e.IsActive {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeProjectRepo struct {
	ledBy        map[string][]project.Project
	tasksCreated map[string]int // employeeID|projectID
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{ledBy: map[string][]project.Project{}, tasksCreated: map[string]int{}}
}

func (r *fakeProjectRepo) GetByID(_ context.Context, id string) (project.Project, error) {
	return project.Project{ID: id}, nil
}

func (r *fakeProjectRepo) GetByIDs(_ context.Context, _ []string) ([]project.Project, error) {
	return nil, nil
}

func (r *fakeProjectRepo) ListLedBy(_ context.Context, employeeID string) ([]project.Project, error) {
	return r.ledBy[employeeID], nil
}

func (r *fakeProjectRepo) IsLeadAssignee(_ context.Context, employeeID string, projectID string) (bool, error) {
	for _, p := range r.ledBy[employeeID] {
		if p.ID == projectID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeProjectRepo) CountCompletedMemberships(_ context.Context, _ string, _, _ time.Time) (int, int, error) {
	return 0, 0, nil
}

func (r *fakeProjectRepo) CountClientApproved(_ context.Context, _ string, _, _ time.Time) (int, error) {
	return 0, nil
}

func (r *fakeProjectRepo) CountTasksCreatedFor(_ context.Context, employeeID string, projectID string, _, _ time.Time) (int, error) {
	return r.tasksCreated[employeeID+"|"+projectID], nil
}

type fakeLedgerRepo struct {
	entries []compensation.LedgerEntry
	nextID  int
}

func (r *fakeLedgerRepo) Insert(_ context.Context, entry compensation.LedgerEntry) (compensation.LedgerEntry, error) {
	r.nextID++
	entry.ID = fmt.Sprintf("ledger-%d", r.nextID)
	r.entries = append(r.entries, entry)
	return entry, nil
}

func (r *fakeLedgerRepo) ListForWindow(_ context.Context, employeeID string, from, to time.Time) ([]compensation.LedgerEntry, error) {
	var out []compensation.LedgerEntry
	for _, e := range r.entries {
		if e.EmployeeID == employeeID && !e.Date.Before(from) && !e.Date.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) SumManualFines(_ context.Context, employeeID string, from, to time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, e := range r.entries {
		if e.EmployeeID == employeeID && e.Kind == compensation.LedgerFine &&
			e.ValueType == compensation.ValueCurrency && e.Source == compensation.SourceManual &&
			!e.Date.Before(from) && !e.Date.After(to) {
			total = total.Add(e.Value)
		}
	}
	return total, nil
}

type periodIncrement struct {
	employeeID string
	day        time.Time
	amount     decimal.Decimal
}

type fakePeriodRepo struct {
	increments []periodIncrement
}

func (r *fakePeriodRepo) GetForPeriod(_ context.Context, _ string, _ compensation.Period, _ time.Time) (compensation.BonusFineRecord, error) {
	return compensation.BonusFineRecord{}, compensation.ErrRecordNotFound
}

func (r *fakePeriodRepo) Upsert(_ context.Context, rec compensation.BonusFineRecord) (compensation.BonusFineRecord, error) {
	return rec, nil
}

func (r *fakePeriodRepo) SetOverrides(_ context.Context, _ string, _ compensation.Period, _ time.Time, _, _ *decimal.Decimal) error {
	return nil
}

func (r *fakePeriodRepo) SetNoPaymentApproved(_ context.Context, _ string, _ compensation.Period, _ time.Time, _ bool) error {
	return nil
}

func (r *fakePeriodRepo) ListForPeriod(_ context.Context, _ compensation.Period, _ time.Time) ([]compensation.BonusFineRecord, error) {
	return nil, nil
}

func (r *fakePeriodRepo) IncrementAppliedFines(_ context.Context, employeeID string, day time.Time, amount decimal.Decimal) error {
	r.increments = append(r.increments, periodIncrement{employeeID: employeeID, day: day, amount: amount})
	return nil
}

// ========== Fixture ==========

// fakeTxManager runs the function directly and counts invocations.
type fakeTxManager struct {
	calls int
}

func (m *fakeTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type fixture struct {
	svc       fine.FineService
	tx        *fakeTxManager
	fines     *fakeFineRepo
	records   *fakeRecordRepo
	employees *fakeEmployeeRepo
	projects  *fakeProjectRepo
	ledger    *fakeLedgerRepo
	period    *fakePeriodRepo
}

func newFixture() *fixture {
	fines := newFakeFineRepo()
	f := &fixture{
		tx:        &fakeTxManager{},
		fines:     fines,
		records:   newFakeRecordRepo(fines),
		employees: newFakeEmployeeRepo(),
		projects:  newFakeProjectRepo(),
		ledger:    &fakeLedgerRepo{},
		period:    &fakePeriodRepo{},
	}
	f.svc = NewFineService(f.tx, f.fines, f.records, f.employees, f.projects, f.ledger, f.period)
	return f
}

func (f *fixture) addEmployee(id string) {
	f.employees.employees[id] = employee.Employee{ID: id, IsActive: true, JoinDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fixture) addLeadProject(employeeID, projectID string, status project.ProjectStatus) {
	f.projects.ledBy[employeeID] = append(f.projects.ledBy[employeeID], project.Project{ID: projectID, Status: status})
}

func (f *fixture) addFine(cf fine.CustomFine) fine.CustomFine {
	created, _ := f.fines.Create(context.Background(), cf)
	return created
}

func leadNoTaskFine(hour, minute int, currency int64) fine.CustomFine {
	return fine.CustomFine{
		Name:          "no task created",
		Criteria:      fine.CriteriaLeadNoTask,
		FineType:      fine.TypeDaily,
		Currency:      decimal.NewFromInt(currency),
		TriggerHour:   hour,
		TriggerMinute: minute,
		IsActive:      true,
	}
}

var noon = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

// ========== Default fine ==========

func TestApply_DefaultFineOnce(t *testing.T) {
	f := newFixture()
	f.addEmployee("emp-1")
	f.addFine(fine.CustomFine{
		Name:        "onboarding violation",
		Criteria:    fine.CriteriaDefault,
		FineType:    fine.TypeOneTime,
		Currency:    decimal.NewFromInt(500),
		EmployeeIDs: []string{"emp-1"},
		IsActive:    true,
	})

	report, err := f.svc.ApplyCustomFines(context.Background(), noon)
	require.NoError(t, err)
	require.Len(t, report.Applied, 1)
	assert.Equal(t, "emp-1", report.Applied[0].EmployeeID)
	assert.Empty(t, report.Skipped)

	report, err = f.svc.ApplyCustomFines(context.Background(), noon)
	require.NoError(t, err)
	assert.Empty(t, report.Applied)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "already applied", report.Skipped[0].Reason)
}

func TestApply_DefaultFineTargetsAllActiveWhenUnscoped(t *testing.T) {
	f := newFixture()
	f.addEmployee("emp-1")
	f.addEmployee("emp-2")
	f.employees.employees["emp-3"] = employee.Employee{ID: "emp-3", IsActive: false}
	f.addFine(fine.CustomFine{
		Name:     "blanket",
		Criteria: fine.CriteriaDefault,
		FineType: fine.TypeOneTime,
		Currency: decimal.NewFromInt(100),
		IsActive: true,
	})

	report, err := f.svc.ApplyCustomFines(context.Background(), noon)
	require.NoError(t, err)
	assert.Len(t, report.Applied, 2, "inactive employees are not targeted")
}

func TestApply_DefaultFineReappliesAfterManualDelete(t *testing.T) {
	f := newFixture()
	f.addEmployee("emp-1")
	f.addFine(fine.CustomFine{
		Name:        "strike",
		Criteria:    fine.CriteriaDefault,
		FineType:    fine.TypeOneTime,
		Currency:    decimal.NewFromInt(500),
		EmployeeIDs: []string{"emp-1"},
		IsActive:    true,
	})

	report, err := f.svc.ApplyCustomFines(context.Background(), noon)
	require.NoError(t, err)
	require.Len(t, report.Applied, 1)

	require.NoError(t, f.svc.DeleteRecord(context.Background(), report.Applied[0].RecordID))

	report, err = f.svc.ApplyCustomFines(context.Background(), noon)
	require.NoError(t, err)
	assert.Len(t, report.Applied, 1, "a deleted record does not block re-application")
}

// ========== Lead-no-task fine ==========

func TestApply_LeadNoTask_TriggerBoundary(t *testing.T) {
	f := newFixture()
	f.addEmployee("emp-1")
	f.addLeadProject("emp-1", "proj-1", project.ProjectStatusInProgress)
	f.addFine(leadNoTaskFine(10, 0, 300))

	before := time.Date(2025, time.March, 10, 9, 59, 0, 0, time.UTC)
	report, err := f.svc.ApplyCustomFines(context.Background(), before)
	require.NoError(t, err)
	assert.Empty(t, report.Applied)
	require.Len(t, report.Skipped, 1)
	assert.Contains(t, report.Skipped[0].Reason, "trigger time")

	at := time.Date(2025, time.March, 10, 10, 0, 0, 0, time.UTC)
	report, err = f.svc.ApplyCustomFines(context.Background(), at)
	require.NoError(t, err)
	require.Len(t, report.Applied, 1, "the trigger time itself is actionable")
	require.NotNil(t, report.Applied[0].ProjectID)
	assert.Equal(t, "proj-1", *report.Applied[0].ProjectID)
}

func TestApply_LeadNoTask_SkipsWhenTaskCreated(t *testing.T) {
	f := newFixture()
	f.addEmployee("emp-1")
	f.addLeadProject("emp-1", "proj-1", project.ProjectStatusInProgress)
	f.projects.tasksCreated["emp-1|proj-1"] = 1
	f.addFine(leadNoTaskFine(10, 0, 300))

	report, err := f.svc.ApplyCustomFines(context.Background(), noon)
	require.NoError(t, err)
	assert.Empty(t, report.Applied)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "task created today", report.Skipped[0].Reason)
}

func TestApply_LeadNoTask_SkipsOnNAMark(t *testing.T) {
	f := newFixture()
	f.addEmployee("emp-1")
	f.addLeadProject("emp-1", "proj-1", project.ProjectStatusInProgress)
	created := f.addFine(leadNoTaskFine(10, 0, 300))
	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	f.records.naMarks[naKey(created.ID, "emp-1", "proj-1", day)] = true

	report, err := f.svc.ApplyCustomFines(context.Background(), noon)
	require.NoError(t, err)
	assert.Empty(t, report.Applied)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "marked not applicable today", report.Skipped[0].Reason)
}

func TestApply_LeadNoTask_DailyKeyRollsOver(t *testing.T) {
	f := newFixture()
	f.addEmployee("emp-1")
	f.addLeadProject("emp-1", "proj-1", project.ProjectStatusInProgress)
	f.addFine(leadNoTaskFine(10, 0, 300))

	report, err := f.svc.ApplyCustomFines(context.Background(), noon)
	require.NoError(t, err)
	require.Len(t, report.Applied, 1)

	report, err = f.svc.ApplyCustomFines(context.Background(), noon.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, report.Applied, "one application per project per day")

	report, err = f.svc.ApplyCustomFines(context.Background(), noon.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, report.Applied, 1, "a new day starts a fresh key")
}

func TestApply_LeadNoTask_ClosedProjectNeedsExplicitScope(t *testing.T) {
	f := newFixture()
	f.addEmployee("emp-1")
	f.addLeadProject("emp-1", "proj-1", project.ProjectStatusCompleted)
	f.addFine(leadNoTaskFine(10, 0, 300))

	report, err := f.svc.ApplyCustomFines(context.Background(), noon)
	require.NoError(t, err)
	assert.Empty(t, report.Applied)
	assert.Empty(t, report.Skipped, "out-of-scope projects are passed over silently")

	scoped := leadNoTaskFine(10, 0, 300)
	scoped.ProjectIDs = []string{"proj-1"}
	f.addFine(scoped)

	report, err = f.svc.ApplyCustomFines(context.Background(), noon)
	require.NoError(t, err)
	assert.Len(t, report.Applied, 1, "naming the project fines it even when closed")
}

func TestApply_RecordsLedgerAndPeriodSideEffects(t *testing.T) {
	f := newFixture()
	f.addEmployee("emp-1")
	f.addLeadProject("emp-1", "proj-1", project.ProjectStatusInProgress)
	// No currency configured: the point value stands in.
	cf := leadNoTaskFine(10, 0, 0)
	cf.Currency = decimal.Zero
	cf.Points = 250
	created := f.addFine(cf)

	report, err := f.svc.ApplyCustomFines(context.Background(), noon)
	require.NoError(t, err)
	require.Len(t, report.Applied, 1)

	assert.Equal(t, 1, f.tx.calls, "record, ledger and period writes share one transaction")

	require.Len(t, f.ledger.entries, 1)
	entry := f.ledger.entries[0]
	assert.Equal(t, compensation.LedgerFine, entry.Kind)
	assert.Equal(t, compensation.ValueCurrency, entry.ValueType)
	assert.Equal(t, compensation.SourceFineScheduler, entry.Source)
	assert.True(t, entry.Value.Equal(decimal.NewFromInt(250)))
	require.NotNil(t, entry.ReferenceID)
	assert.Equal(t, report.Applied[0].RecordID, *entry.ReferenceID)
	assert.Contains(t, entry.Description, created.Name)

	require.Len(t, f.period.increments, 1)
	inc := f.period.increments[0]
	assert.Equal(t, "emp-1", inc.employeeID)
	assert.Equal(t, time.March, inc.day.Month())
	assert.Equal(t, 2025, inc.day.Year())
	assert.Equal(t, noon.Location(), inc.day.Location(), "period anchor keeps the scheduling day's zone")
	assert.True(t, inc.amount.Equal(decimal.NewFromInt(250)))
}

// ========== Provisional fine ==========

func TestProvisionalDailyFine(t *testing.T) {
	f := newFixture()
	f.addEmployee("emp-1")
	f.addLeadProject("emp-1", "proj-1", project.ProjectStatusInProgress)
	f.addFine(leadNoTaskFine(10, 0, 300))

	before := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	total, err := f.svc.ProvisionalDailyFine(context.Background(), "emp-1", before)
	require.NoError(t, err)
	assert.True(t, total.IsZero(), "nothing accrues before the trigger")

	total, err = f.svc.ProvisionalDailyFine(context.Background(), "emp-1", noon)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(300)))

	// Once a record materializes the provisional amount drops out.
	_, err = f.svc.ApplyCustomFines(context.Background(), noon)
	require.NoError(t, err)
	total, err = f.svc.ProvisionalDailyFine(context.Background(), "emp-1", noon)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

// ========== Rule CRUD ==========

func TestCreateFine_ParsesTriggerTime(t *testing.T) {
	f := newFixture()
	trigger := "10:30"
	resp, err := f.svc.CreateFine(context.Background(), fine.CreateCustomFineRequest{
		Name:        "late start",
		Criteria:    string(fine.CriteriaLeadNoTask),
		FineType:    string(fine.TypeDaily),
		Points:      100,
		TriggerTime: &trigger,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.TriggerTime)
	assert.Equal(t, "10:30", *resp.TriggerTime)
	assert.True(t, resp.IsActive)
}

func TestCreateFine_RequiresTriggerForLeadNoTask(t *testing.T) {
	f := newFixture()
	_, err := f.svc.CreateFine(context.Background(), fine.CreateCustomFineRequest{
		Name:     "late start",
		Criteria: string(fine.CriteriaLeadNoTask),
		FineType: string(fine.TypeDaily),
	})
	assert.Error(t, err)
}

func TestDeactivateFine_DropsFromSchedulerPass(t *testing.T) {
	f := newFixture()
	f.addEmployee("emp-1")
	created := f.addFine(fine.CustomFine{
		Name:        "strike",
		Criteria:    fine.CriteriaDefault,
		FineType:    fine.TypeOneTime,
		Currency:    decimal.NewFromInt(500),
		EmployeeIDs: []string{"emp-1"},
		IsActive:    true,
	})

	require.NoError(t, f.svc.DeactivateFine(context.Background(), created.ID))

	report, err := f.svc.ApplyCustomFines(context.Background(), noon)
	require.NoError(t, err)
	assert.Empty(t, report.Applied)
}
