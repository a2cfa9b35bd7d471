package fine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/workforcehq/workforce-backend-go/internal/domain/compensation"
	"github.com/workforcehq/workforce-backend-go/internal/domain/employee"
	"github.com/workforcehq/workforce-backend-go/internal/domain/fine"
	"github.com/workforcehq/workforce-backend-go/internal/domain/project"
	"github.com/workforcehq/workforce-backend-go/internal/pkg/database"
	"github.com/workforcehq/workforce-backend-go/internal/pkg/validator"
)

type FineServiceImpl struct {
	txMgr        database.TxManager
	fineRepo     fine.CustomFineRepository
	recordRepo   fine.CustomFineRecordRepository
	employeeRepo employee.EmployeeRepository
	projectRepo  project.ProjectRepository
	ledgerRepo   compensation.LedgerRepository
	periodRepo   compensation.BonusFineRecordRepository
}

func NewFineService(
	txMgr database.TxManager,
	fineRepo fine.CustomFineRepository,
	recordRepo fine.CustomFineRecordRepository,
	employeeRepo employee.EmployeeRepository,
	projectRepo project.ProjectRepository,
	ledgerRepo compensation.LedgerRepository,
	periodRepo compensation.BonusFineRecordRepository,
) fine.FineService {
	return &FineServiceImpl{
		txMgr:        txMgr,
		fineRepo:     fineRepo,
		recordRepo:   recordRepo,
		employeeRepo: employeeRepo,
		projectRepo:  projectRepo,
		ledgerRepo:   ledgerRepo,
		periodRepo:   periodRepo,
	}
}

// ========== Rule CRUD ==========

func (s *FineServiceImpl) CreateFine(ctx context.Context, req fine.CreateCustomFineRequest) (fine.CustomFineResponse, error) {
	if err := req.Validate(); err != nil {
		return fine.CustomFineResponse{}, err
	}

	f := fine.CustomFine{
		Name:        req.Name,
		Criteria:    fine.Criteria(req.Criteria),
		FineType:    fine.FineType(req.FineType),
		Points:      req.Points,
		EmployeeIDs: req.EmployeeIDs,
		ProjectIDs:  req.ProjectIDs,
		IsActive:    true,
	}
	if req.Currency != nil {
		f.Currency = *req.Currency
	}
	if req.TriggerTime != nil {
		t, _ := validator.IsValidTimeOfDay(*req.TriggerTime)
		f.TriggerHour = t.Hour()
		f.TriggerMinute = t.Minute()
	}

	created, err := s.fineRepo.Create(ctx, f)
	if err != nil {
		return fine.CustomFineResponse{}, fmt.Errorf("create custom fine: %w", err)
	}
	return fine.ToResponse(created), nil
}

func (s *FineServiceImpl) GetFine(ctx context.Context, id string) (fine.CustomFineResponse, error) {
	f, err := s.fineRepo.GetByID(ctx, id)
	if err != nil {
		return fine.CustomFineResponse{}, err
	}
	return fine.ToResponse(f), nil
}

func (s *FineServiceImpl) ListFines(ctx context.Context, activeOnly bool) ([]fine.CustomFineResponse, error) {
	fines, err := s.fineRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list custom fines: %w", err)
	}

	responses := make([]fine.CustomFineResponse, 0, len(fines))
	for _, f := range fines {
		responses = append(responses, fine.ToResponse(f))
	}
	return responses, nil
}

func (s *FineServiceImpl) UpdateFine(ctx context.Context, req fine.UpdateCustomFineRequest) (fine.CustomFineResponse, error) {
	if err := req.Validate(); err != nil {
		return fine.CustomFineResponse{}, err
	}

	f, err := s.fineRepo.GetByID(ctx, req.ID)
	if err != nil {
		return fine.CustomFineResponse{}, err
	}

	if req.Name != nil {
		f.Name = *req.Name
	}
	if req.Points != nil {
		f.Points = *req.Points
	}
	if req.Currency != nil {
		f.Currency = *req.Currency
	}
	if req.TriggerTime != nil {
		t, _ := validator.IsValidTimeOfDay(*req.TriggerTime)
		f.TriggerHour = t.Hour()
		f.TriggerMinute = t.Minute()
	}
	if req.EmployeeIDs != nil {
		f.EmployeeIDs = req.EmployeeIDs
	}
	if req.ProjectIDs != nil {
		f.ProjectIDs = req.ProjectIDs
	}
	if req.IsActive != nil {
		f.IsActive = *req.IsActive
	}

	updated, err := s.fineRepo.Update(ctx, f)
	if err != nil {
		return fine.CustomFineResponse{}, fmt.Errorf("update custom fine: %w", err)
	}
	return fine.ToResponse(updated), nil
}

func (s *FineServiceImpl) DeactivateFine(ctx context.Context, id string) error {
	if _, err := s.fineRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.fineRepo.Deactivate(ctx, id)
}

// ========== Records ==========

func (s *FineServiceImpl) ListRecords(ctx context.Context, fineID string) ([]fine.CustomFineRecordResponse, error) {
	if _, err := s.fineRepo.GetByID(ctx, fineID); err != nil {
		return nil, err
	}

	records, err := s.recordRepo.ListByFine(ctx, fineID)
	if err != nil {
		return nil, fmt.Errorf("list fine records: %w", err)
	}

	responses := make([]fine.CustomFineRecordResponse, 0, len(records))
	for _, rec := range records {
		responses = append(responses, fine.ToRecordResponse(rec))
	}
	return responses, nil
}

func (s *FineServiceImpl) DeleteRecord(ctx context.Context, recordID string) error {
	if _, err := s.recordRepo.GetByID(ctx, recordID); err != nil {
		return err
	}
	return s.recordRepo.MarkManuallyDeleted(ctx, recordID)
}

// ========== Scheduler pass ==========

func (s *FineServiceImpl) ApplyCustomFines(ctx context.Context, now time.Time) (fine.ApplyReport, error) {
	report := fine.ApplyReport{
		Applied: []fine.AppliedFine{},
		Skipped: []fine.SkippedFine{},
	}

	fines, err := s.fineRepo.List(ctx, true)
	if err != nil {
		return report, fmt.Errorf("list active fines: %w", err)
	}

	for _, f := range fines {
		switch f.Criteria {
		case fine.CriteriaDefault:
			s.applyDefaultFine(ctx, f, now, &report)
		case fine.CriteriaLeadNoTask:
			s.applyLeadNoTaskFine(ctx, f, now, &report)
		default:
			report.Skipped = append(report.Skipped, fine.SkippedFine{
				FineID: f.ID,
				Reason: fmt.Sprintf("unknown criteria '%s'", f.Criteria),
			})
		}
	}

	slog.Info("Fine scheduler pass finished",
		"applied", len(report.Applied),
		"skipped", len(report.Skipped))
	return report, nil
}

// applyDefaultFine fines every targeted employee once, regardless of trigger
// time or project state.
func (s *FineServiceImpl) applyDefaultFine(ctx context.Context, f fine.CustomFine, now time.Time, report *fine.ApplyReport) {
	targets, err := s.resolveTargets(ctx, f)
	if err != nil {
		report.Skipped = append(report.Skipped, fine.SkippedFine{FineID: f.ID, Reason: err.Error()})
		return
	}

	day := startOfDay(now)
	for _, emp := range targets {
		var dayKey *time.Time
		if f.FineType == fine.TypeDaily {
			dayKey = &day
		}

		exists, err := s.recordRepo.ActiveExists(ctx, f.ID, emp.ID, nil, dayKey)
		if err != nil {
			report.Skipped = append(report.Skipped, fine.SkippedFine{FineID: f.ID, EmployeeID: emp.ID, Reason: err.Error()})
			continue
		}
		if exists {
			report.Skipped = append(report.Skipped, fine.SkippedFine{FineID: f.ID, EmployeeID: emp.ID, Reason: "already applied"})
			continue
		}

		if err := s.applyTo(ctx, f, emp.ID, nil, day, report); err != nil {
			report.Skipped = append(report.Skipped, fine.SkippedFine{FineID: f.ID, EmployeeID: emp.ID, Reason: err.Error()})
		}
	}
}

// applyLeadNoTaskFine fines lead assignees who created no task today for an
// in-scope led project, once the trigger time has been reached.
func (s *FineServiceImpl) applyLeadNoTaskFine(ctx context.Context, f fine.CustomFine, now time.Time, report *fine.ApplyReport) {
	if !triggerReached(f, now) {
		report.Skipped = append(report.Skipped, fine.SkippedFine{
			FineID: f.ID,
			Reason: fmt.Sprintf("trigger time %02d:%02d not reached", f.TriggerHour, f.TriggerMinute),
		})
		return
	}

	targets, err := s.resolveTargets(ctx, f)
	if err != nil {
		report.Skipped = append(report.Skipped, fine.SkippedFine{FineID: f.ID, Reason: err.Error()})
		return
	}

	day := startOfDay(now)
	dayEnd := day.Add(24*time.Hour - time.Second)

	for _, emp := range targets {
		projects, err := s.projectRepo.ListLedBy(ctx, emp.ID)
		if err != nil {
			report.Skipped = append(report.Skipped, fine.SkippedFine{FineID: f.ID, EmployeeID: emp.ID, Reason: err.Error()})
			continue
		}

		for _, p := range projects {
			if !f.TargetsProject(p.ID) {
				continue
			}
			// Closed projects are only fined when the rule names them
			// explicitly.
			if !p.Eligible() && len(f.ProjectIDs) == 0 {
				continue
			}

			pid := p.ID
			skip, reason, err := s.shouldSkipProject(ctx, f, emp.ID, pid, day, dayEnd)
			if err != nil {
				report.Skipped = append(report.Skipped, fine.SkippedFine{FineID: f.ID, EmployeeID: emp.ID, ProjectID: &pid, Reason: err.Error()})
				continue
			}
			if skip {
				report.Skipped = append(report.Skipped, fine.SkippedFine{FineID: f.ID, EmployeeID: emp.ID, ProjectID: &pid, Reason: reason})
				continue
			}

			if err := s.applyTo(ctx, f, emp.ID, &pid, day, report); err != nil {
				report.Skipped = append(report.Skipped, fine.SkippedFine{FineID: f.ID, EmployeeID: emp.ID, ProjectID: &pid, Reason: err.Error()})
			}
		}
	}
}

// shouldSkipProject runs the per-project guards in order: admin NA mark,
// task created today, record already on the natural key.
func (s *FineServiceImpl) shouldSkipProject(ctx context.Context, f fine.CustomFine, employeeID, projectID string, day, dayEnd time.Time) (bool, string, error) {
	na, err := s.recordRepo.HasNAMark(ctx, f.ID, employeeID, projectID, day)
	if err != nil {
		return false, "", err
	}
	if na {
		return true, "marked not applicable today", nil
	}

	created, err := s.projectRepo.CountTasksCreatedFor(ctx, employeeID, projectID, day, dayEnd)
	if err != nil {
		return false, "", err
	}
	if created > 0 {
		return true, "task created today", nil
	}

	var dayKey *time.Time
	if f.FineType == fine.TypeDaily {
		dayKey = &day
	}
	exists, err := s.recordRepo.ActiveExists(ctx, f.ID, employeeID, &projectID, dayKey)
	if err != nil {
		return false, "", err
	}
	if exists {
		return true, "already applied", nil
	}

	return false, "", nil
}

// applyTo persists the record, mirrors it into the ledger and nudges the
// stored monthly total, all inside one transaction so a failure leaves no
// half-applied fine behind.
func (s *FineServiceImpl) applyTo(ctx context.Context, f fine.CustomFine, employeeID string, projectID *string, day time.Time, report *fine.ApplyReport) error {
	var rec fine.CustomFineRecord

	err := s.txMgr.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		rec, err = s.recordRepo.Create(txCtx, fine.CustomFineRecord{
			FineID:     f.ID,
			EmployeeID: employeeID,
			ProjectID:  projectID,
			Date:       day,
			Points:     f.Points,
			Currency:   f.Currency,
		})
		if err != nil {
			return fmt.Errorf("create fine record: %w", err)
		}

		amount := effectiveCurrency(f)
		if _, err := s.ledgerRepo.Insert(txCtx, compensation.LedgerEntry{
			EmployeeID:  employeeID,
			Date:        day,
			Kind:        compensation.LedgerFine,
			ValueType:   compensation.ValueCurrency,
			Value:       amount,
			Description: fmt.Sprintf("custom fine: %s", f.Name),
			Source:      compensation.SourceFineScheduler,
			ReferenceID: &rec.ID,
		}); err != nil {
			return fmt.Errorf("append ledger entry: %w", err)
		}

		if err := s.periodRepo.IncrementAppliedFines(txCtx, employeeID, day, amount); err != nil {
			return fmt.Errorf("increment period fines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	report.Applied = append(report.Applied, fine.AppliedFine{
		RecordID:   rec.ID,
		FineID:     f.ID,
		EmployeeID: employeeID,
		ProjectID:  projectID,
		Date:       day.Format("2006-01-02"),
	})
	return nil
}

// ProvisionalDailyFine returns the currency the employee is already eligible
// for today under active lead-no-task rules whose trigger has passed, where
// no record has materialized yet. The compensation aggregator adds this on
// top of persisted records so a same-day computation does not lag the next
// scheduler pass.
func (s *FineServiceImpl) ProvisionalDailyFine(ctx context.Context, employeeID string, now time.Time) (decimal.Decimal, error) {
	total := decimal.Zero

	fines, err := s.fineRepo.List(ctx, true)
	if err != nil {
		return total, fmt.Errorf("list active fines: %w", err)
	}

	day := startOfDay(now)
	dayEnd := day.Add(24*time.Hour - time.Second)

	for _, f := range fines {
		if f.Criteria != fine.CriteriaLeadNoTask || f.FineType != fine.TypeDaily {
			continue
		}
		if !triggerReached(f, now) {
			continue
		}
		if len(f.EmployeeIDs) > 0 && !validator.IsInSlice(employeeID, f.EmployeeIDs) {
			continue
		}

		projects, err := s.projectRepo.ListLedBy(ctx, employeeID)
		if err != nil {
			return total, fmt.Errorf("list led projects: %w", err)
		}

		for _, p := range projects {
			if !f.TargetsProject(p.ID) {
				continue
			}
			if !p.Eligible() && len(f.ProjectIDs) == 0 {
				continue
			}

			skip, _, err := s.shouldSkipProject(ctx, f, employeeID, p.ID, day, dayEnd)
			if err != nil {
				return total, err
			}
			if skip {
				continue
			}
			total = total.Add(effectiveCurrency(f))
		}
	}

	return total, nil
}

// resolveTargets expands the rule's employee scope: explicit ids when set,
// otherwise every active employee.
func (s *FineServiceImpl) resolveTargets(ctx context.Context, f fine.CustomFine) ([]employee.Employee, error) {
	if len(f.EmployeeIDs) > 0 {
		targets, err := s.employeeRepo.GetByIDs(ctx, f.EmployeeIDs)
		if err != nil {
			return nil, fmt.Errorf("resolve fine targets: %w", err)
		}
		return targets, nil
	}

	targets, err := s.employeeRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve fine targets: %w", err)
	}
	return targets, nil
}

// triggerReached is inclusive: at exactly HH:MM the rule is actionable.
func triggerReached(f fine.CustomFine, now time.Time) bool {
	if now.Hour() != f.TriggerHour {
		return now.Hour() > f.TriggerHour
	}
	return now.Minute() >= f.TriggerMinute
}

// effectiveCurrency falls back to the point value when no currency amount is
// configured, mirroring task penalties.
func effectiveCurrency(f fine.CustomFine) decimal.Decimal {
	if f.Currency.IsZero() && f.Points > 0 {
		return decimal.NewFromInt(int64(f.Points))
	}
	return f.Currency
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
