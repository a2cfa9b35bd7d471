package compensation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/workforcehq/workforce-backend-go/internal/domain/attendance"
	"github.com/workforcehq/workforce-backend-go/internal/domain/compensation"
	"github.com/workforcehq/workforce-backend-go/internal/domain/employee"
	"github.com/workforcehq/workforce-backend-go/internal/domain/fine"
	"github.com/workforcehq/workforce-backend-go/internal/domain/project"
	"github.com/workforcehq/workforce-backend-go/internal/pkg/validator"
)

// Compensation constants. All currency amounts are in the payroll unit.
const (
	baseAmount = 5000

	productsBonusAmount   = 1000
	productsBonusMinCount = 3

	attendanceTierHighHours = 200.0
	attendanceTierMidHours  = 160.0
	attendanceTierLowHours  = 140.0
	attendanceTierHigh      = 2000
	attendanceTierMid       = 1000
	attendanceTierLow       = 500

	loomGFormBonusAmount = 1000
	loomGFormBonusRatio  = 0.8

	loyaltyBonusAmount    = 2000
	loyaltyBonusMinMonths = 6

	completedProjectsBonusAmount = 2000

	dailyUpdateGrace     = 3
	dailyUpdateFineRate  = 200
	teamMeetingGrace     = 3
	teamMeetingFineRate  = 300
	internalMeetingGrace = 3
	internalMeetingRate  = 200
	clientMeetingGrace   = 1
	clientMeetingRate    = 300

	trainingMonths = 3

	noPaymentMinHours    = 100.0
	noPaymentMaxAbsences = 4
)

// No-payment flag names surfaced in the breakdown.
const (
	FlagLowAttendance    = "low_attendance"
	FlagExcessiveAbsence = "excessive_absence"
	FlagNoProducts       = "no_products"
)

type CompensationServiceImpl struct {
	employeeRepo   employee.EmployeeRepository
	projectRepo    project.ProjectRepository
	attendanceRepo attendance.AttendanceRepository
	engagementRepo compensation.EngagementRepository
	fineRecordRepo fine.CustomFineRecordRepository
	ledgerRepo     compensation.LedgerRepository
	periodRepo     compensation.BonusFineRecordRepository
	fineService    fine.FineService
}

func NewCompensationService(
	employeeRepo employee.EmployeeRepository,
	projectRepo project.ProjectRepository,
	attendanceRepo attendance.AttendanceRepository,
	engagementRepo compensation.EngagementRepository,
	fineRecordRepo fine.CustomFineRecordRepository,
	ledgerRepo compensation.LedgerRepository,
	periodRepo compensation.BonusFineRecordRepository,
	fineService fine.FineService,
) compensation.CompensationService {
	return &CompensationServiceImpl{
		employeeRepo:   employeeRepo,
		projectRepo:    projectRepo,
		attendanceRepo: attendanceRepo,
		engagementRepo: engagementRepo,
		fineRecordRepo: fineRecordRepo,
		ledgerRepo:     ledgerRepo,
		periodRepo:     periodRepo,
		fineService:    fineService,
	}
}

func (s *CompensationServiceImpl) Compute(ctx context.Context, req compensation.ComputeRequest, now time.Time) (compensation.Breakdown, error) {
	if err := req.Validate(); err != nil {
		return compensation.Breakdown{}, err
	}
	return s.computeAndStore(ctx, req.EmployeeID, compensation.Period(req.Period), now)
}

func (s *CompensationServiceImpl) ComputeAll(ctx context.Context, period compensation.Period, now time.Time) ([]compensation.Breakdown, error) {
	employees, err := s.employeeRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active employees: %w", err)
	}

	breakdowns := make([]compensation.Breakdown, 0, len(employees))
	for _, emp := range employees {
		b, err := s.computeAndStore(ctx, emp.ID, period, now)
		if err != nil {
			slog.Error("Compensation: failed to compute employee",
				"employee_id", emp.ID,
				"period", string(period),
				"error", err)
			continue
		}
		breakdowns = append(breakdowns, b)
	}
	return breakdowns, nil
}

// computeAndStore evaluates the breakdown, merges it with the stored record's
// overrides and approval flag, and upserts the result.
func (s *CompensationServiceImpl) computeAndStore(ctx context.Context, employeeID string, period compensation.Period, now time.Time) (compensation.Breakdown, error) {
	emp, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return compensation.Breakdown{}, err
	}

	b, err := s.evaluate(ctx, emp, period, now)
	if err != nil {
		return compensation.Breakdown{}, err
	}

	// Manual overrides and the approval flag on the stored row survive every
	// recompute.
	if existing, err := s.periodRepo.GetForPeriod(ctx, employeeID, period, b.PeriodStart); err == nil {
		b.ManualBonus = existing.ManualBonus
		b.ManualFine = existing.ManualFine
		b.NoPaymentApproved = existing.NoPaymentApproved
	} else if !errors.Is(err, compensation.ErrRecordNotFound) {
		return compensation.Breakdown{}, fmt.Errorf("load stored record: %w", err)
	}
	applyOverridesAndGate(&b)

	rec := compensation.BonusFineRecord{
		EmployeeID:        employeeID,
		Period:            period,
		PeriodStart:       b.PeriodStart,
		Month:             int(b.PeriodStart.Month()),
		Year:              b.PeriodStart.Year(),
		Base:              b.Base,
		TotalBonus:        b.TotalBonus,
		TotalFine:         b.TotalFine,
		NetAmount:         b.NetAmount,
		ManualBonus:       b.ManualBonus,
		ManualFine:        b.ManualFine,
		NoPaymentApproved: b.NoPaymentApproved,
		ComputedAt:        now,
	}
	if _, err := s.periodRepo.Upsert(ctx, rec); err != nil {
		return compensation.Breakdown{}, fmt.Errorf("store compensation record: %w", err)
	}

	return b, nil
}

// evaluate runs the pure computation: same inputs and same now always produce
// the same breakdown. Overrides and the no-payment gate are applied by the
// caller after merging the stored record.
func (s *CompensationServiceImpl) evaluate(ctx context.Context, emp employee.Employee, period compensation.Period, now time.Time) (compensation.Breakdown, error) {
	start := periodStart(period, now)

	b := compensation.Breakdown{
		EmployeeID:  emp.ID,
		Period:      period,
		PeriodStart: start,
		PeriodEnd:   now,
		Base:        decimal.NewFromInt(baseAmount),
	}

	// Derived counts.
	productsCount, asLead, err := s.projectRepo.CountCompletedMemberships(ctx, emp.ID, start, now)
	if err != nil {
		return b, fmt.Errorf("count completed memberships: %w", err)
	}
	approvedClient, err := s.projectRepo.CountClientApproved(ctx, emp.ID, start, now)
	if err != nil {
		return b, fmt.Errorf("count client-approved projects: %w", err)
	}
	ledProjects, err := s.projectRepo.ListLedBy(ctx, emp.ID)
	if err != nil {
		return b, fmt.Errorf("list led projects: %w", err)
	}
	attendanceDays, err := s.attendanceRepo.ListForWindow(ctx, emp.ID, start, now)
	if err != nil {
		return b, fmt.Errorf("list attendance: %w", err)
	}
	updates, err := s.engagementRepo.DailyUpdates(ctx, emp.ID, start, now)
	if err != nil {
		return b, fmt.Errorf("list daily updates: %w", err)
	}
	counts, err := s.engagementRepo.Counts(ctx, emp.ID, start, now)
	if err != nil {
		return b, fmt.Errorf("load engagement counts: %w", err)
	}

	var hours float64
	for _, a := range attendanceDays {
		hours += a.Hours()
	}
	days := daysInWindow(start, now)
	absent := days - len(attendanceDays)
	if absent < 0 {
		absent = 0
	}

	b.ProductsCount = productsCount
	b.ApprovedClientProjects = approvedClient
	b.AttendanceHours = hours
	b.AbsentDays = absent
	b.DailyUpdatesCount = len(updates)
	b.MissingDailyUpdates = counts.MissedDailyUpdates
	b.MonthsWorked = emp.MonthsSinceJoin(now)
	b.IsProjectLead = len(ledProjects) > 0
	b.HasCompletedAsLead = asLead > 0
	b.IsInTraining = emp.IsInTraining(now)

	b.Bonus = computeBonus(b, updates)
	b.TotalBonus = b.Bonus.Total

	fineBreakdown, err := s.computeFine(ctx, b, counts, now)
	if err != nil {
		return b, err
	}
	b.Fine = fineBreakdown
	b.TotalFine = fineBreakdown.Total

	manualFines, err := s.ledgerRepo.SumManualFines(ctx, emp.ID, start, now)
	if err != nil {
		return b, fmt.Errorf("sum manual ledger fines: %w", err)
	}
	b.CustomFinesCurrency = manualFines

	b.NoPaymentFlags = noPaymentFlags(b)
	return b, nil
}

func computeBonus(b compensation.Breakdown, updates []compensation.DailyUpdate) compensation.BonusBreakdown {
	var bonus compensation.BonusBreakdown

	if b.ProductsCount > productsBonusMinCount {
		bonus.Products = decimal.NewFromInt(productsBonusAmount)
	}

	switch {
	case b.AttendanceHours > attendanceTierHighHours:
		bonus.Attendance = decimal.NewFromInt(attendanceTierHigh)
	case b.AttendanceHours > attendanceTierMidHours:
		bonus.Attendance = decimal.NewFromInt(attendanceTierMid)
	case b.AttendanceHours > attendanceTierLowHours:
		bonus.Attendance = decimal.NewFromInt(attendanceTierLow)
	}

	if len(updates) > 0 {
		complete := 0
		for _, u := range updates {
			if u.HasLoom && u.HasGForm {
				complete++
			}
		}
		if float64(complete) >= loomGFormBonusRatio*float64(len(updates)) {
			bonus.DailyLoomGForm = decimal.NewFromInt(loomGFormBonusAmount)
		}
	}

	if b.MonthsWorked >= loyaltyBonusMinMonths {
		bonus.Loyalty = decimal.NewFromInt(loyaltyBonusAmount)
	}

	if b.ProductsCount > 0 {
		amount := decimal.NewFromInt(completedProjectsBonusAmount)
		// Completing a project as lead doubles only this component.
		if b.HasCompletedAsLead {
			amount = amount.Mul(decimal.NewFromInt(2))
		}
		bonus.CompletedProjects = amount
	}

	bonus.Total = bonus.Products.
		Add(bonus.Attendance).
		Add(bonus.DailyLoomGForm).
		Add(bonus.Loyalty).
		Add(bonus.CompletedProjects)
	if bonus.Total.IsNegative() {
		bonus.Total = decimal.Zero
	}
	return bonus
}

func (s *CompensationServiceImpl) computeFine(ctx context.Context, b compensation.Breakdown, counts compensation.EngagementCounts, now time.Time) (compensation.FineBreakdown, error) {
	var f compensation.FineBreakdown

	f.MissingDailyUpdates = graceFine(counts.MissedDailyUpdates, dailyUpdateGrace, dailyUpdateFineRate)
	f.MissingTeamMeetings = graceFine(counts.MissedTeamMeetings, teamMeetingGrace, teamMeetingFineRate)
	f.MissingInternalMeetings = graceFine(counts.MissedInternalMeetings, internalMeetingGrace, internalMeetingRate)
	f.MissingClientMeetings = graceFine(counts.MissedClientMeetings, clientMeetingGrace, clientMeetingRate)
	f.Absence = absenceFine(b.AbsentDays)

	_, leadNoTask, err := s.fineRecordRepo.SumForWindow(ctx, b.EmployeeID, fine.CriteriaLeadNoTask, b.PeriodStart, now)
	if err != nil {
		return f, fmt.Errorf("sum lead-no-task fine records: %w", err)
	}
	provisional, err := s.fineService.ProvisionalDailyFine(ctx, b.EmployeeID, now)
	if err != nil {
		return f, fmt.Errorf("evaluate provisional fines: %w", err)
	}
	f.MissingDailyTasks = leadNoTask.Add(provisional)

	_, defaults, err := s.fineRecordRepo.SumForWindow(ctx, b.EmployeeID, fine.CriteriaDefault, b.PeriodStart, now)
	if err != nil {
		return f, fmt.Errorf("sum default fine records: %w", err)
	}
	f.DefaultFines = defaults

	f.Sum = f.MissingDailyUpdates.
		Add(f.MissingTeamMeetings).
		Add(f.MissingInternalMeetings).
		Add(f.MissingClientMeetings).
		Add(f.Absence).
		Add(f.MissingDailyTasks).
		Add(f.DefaultFines)

	switch {
	case b.ProductsCount > productsBonusMinCount || b.ApprovedClientProjects > productsBonusMinCount:
		// No-fine condition: productive employees pay nothing.
		f.Total = decimal.Zero
	case b.IsInTraining:
		f.Total = decimal.Zero
	default:
		f.Total = f.Sum
		if b.IsProjectLead && f.Total.IsPositive() {
			f.Total = f.Total.Mul(decimal.NewFromInt(2))
		}
	}
	if f.Total.IsNegative() {
		f.Total = decimal.Zero
	}
	return f, nil
}

func graceFine(count, grace, rate int) decimal.Decimal {
	over := count - grace
	if over <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(over * rate))
}

// absenceFine is tiered and exclusive: exactly one band applies. The top band
// is a discount rewarding long pre-approved leave handling.
func absenceFine(days int) decimal.Decimal {
	switch {
	case days >= 14:
		return decimal.NewFromInt(-500)
	case days >= 7:
		return decimal.NewFromInt(1000)
	case days >= 5:
		return decimal.NewFromInt(1500)
	case days >= 3:
		return decimal.NewFromInt(2000)
	case days == 2:
		return decimal.NewFromInt(2500)
	case days == 1:
		return decimal.NewFromInt(3000)
	default:
		return decimal.Zero
	}
}

func noPaymentFlags(b compensation.Breakdown) []string {
	var flags []string
	if b.AttendanceHours < noPaymentMinHours {
		flags = append(flags, FlagLowAttendance)
	}
	if b.AbsentDays > noPaymentMaxAbsences {
		flags = append(flags, FlagExcessiveAbsence)
	}
	if b.ProductsCount == 0 {
		flags = append(flags, FlagNoProducts)
	}
	return flags
}

// applyOverridesAndGate finishes the breakdown: manual overrides replace the
// computed totals, then the net is derived and the no-payment gate applied.
func applyOverridesAndGate(b *compensation.Breakdown) {
	if b.ManualBonus != nil {
		b.TotalBonus = *b.ManualBonus
	}
	if b.ManualFine != nil {
		b.TotalFine = *b.ManualFine
	}
	if b.TotalBonus.IsNegative() {
		b.TotalBonus = decimal.Zero
	}
	if b.TotalFine.IsNegative() {
		b.TotalFine = decimal.Zero
	}

	b.NetAmount = b.Base.
		Add(b.TotalBonus).
		Sub(b.TotalFine).
		Sub(b.CustomFinesCurrency)

	if len(b.NoPaymentFlags) > 0 && !b.NoPaymentApproved {
		b.NetAmount = decimal.Zero
	}
}

// ========== Overrides and ledger ==========

func (s *CompensationServiceImpl) SetOverrides(ctx context.Context, req compensation.SetOverridesRequest, now time.Time) (compensation.Breakdown, error) {
	if err := req.Validate(); err != nil {
		return compensation.Breakdown{}, err
	}
	period := compensation.Period(req.Period)

	// Materialize the period row first so the override always lands.
	if _, err := s.computeAndStore(ctx, req.EmployeeID, period, now); err != nil {
		return compensation.Breakdown{}, err
	}

	start := periodStart(period, now)
	if err := s.periodRepo.SetOverrides(ctx, req.EmployeeID, period, start, req.ManualBonus, req.ManualFine); err != nil {
		return compensation.Breakdown{}, fmt.Errorf("set overrides: %w", err)
	}

	return s.computeAndStore(ctx, req.EmployeeID, period, now)
}

func (s *CompensationServiceImpl) SetNoPaymentApproved(ctx context.Context, employeeID string, period compensation.Period, approved bool, now time.Time) error {
	if period != compensation.PeriodMonthly && period != compensation.PeriodWeekly {
		return compensation.ErrInvalidPeriod
	}
	if _, err := s.computeAndStore(ctx, employeeID, period, now); err != nil {
		return err
	}
	return s.periodRepo.SetNoPaymentApproved(ctx, employeeID, period, periodStart(period, now), approved)
}

func (s *CompensationServiceImpl) AddLedgerEntry(ctx context.Context, req compensation.CreateLedgerEntryRequest) (compensation.LedgerEntry, error) {
	if err := req.Validate(); err != nil {
		return compensation.LedgerEntry{}, err
	}
	if _, err := s.employeeRepo.GetByID(ctx, req.EmployeeID); err != nil {
		return compensation.LedgerEntry{}, err
	}

	date, _ := validator.IsValidDate(req.Date)
	entry, err := s.ledgerRepo.Insert(ctx, compensation.LedgerEntry{
		EmployeeID:  req.EmployeeID,
		Date:        date,
		Kind:        compensation.LedgerKind(req.Kind),
		ValueType:   compensation.LedgerValueType(req.ValueType),
		Value:       req.Value,
		Description: req.Description,
		Source:      compensation.SourceManual,
	})
	if err != nil {
		return compensation.LedgerEntry{}, fmt.Errorf("insert ledger entry: %w", err)
	}
	return entry, nil
}

func (s *CompensationServiceImpl) ListLedger(ctx context.Context, employeeID string, from, to time.Time) ([]compensation.LedgerEntry, error) {
	if _, err := s.employeeRepo.GetByID(ctx, employeeID); err != nil {
		return nil, err
	}
	entries, err := s.ledgerRepo.ListForWindow(ctx, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	return entries, nil
}

// ========== Period windows ==========

// periodStart anchors the window: first of the month, or Monday of the
// current week, at midnight in now's location.
func periodStart(period compensation.Period, now time.Time) time.Time {
	if period == compensation.PeriodWeekly {
		return startOfWeek(now)
	}
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

func startOfWeek(t time.Time) time.Time {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	day := t.AddDate(0, 0, -(wd - 1))
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, t.Location())
}

// daysInWindow counts calendar days in [start, now], inclusive of both ends.
func daysInWindow(start, now time.Time) int {
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	nowDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return int(nowDay.Sub(startDay).Hours()/24) + 1
}
