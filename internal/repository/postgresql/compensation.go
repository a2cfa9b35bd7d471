package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/workforcehq/workforce-backend-go/internal/domain/compensation"
	"github.com/workforcehq/workforce-backend-go/internal/pkg/database"
)

type bonusFineRecordRepository struct {
	db *database.DB
}

func NewBonusFineRecordRepository(db *database.DB) compensation.BonusFineRecordRepository {
	return &bonusFineRecordRepository{db: db}
}

const bonusFineColumns = `
	id, employee_id, period, period_start, month, year,
	base, total_bonus, total_fine, net_amount,
	manual_bonus, manual_fine, no_payment_approved,
	computed_at, created_at, updated_at
`

func scanBonusFineRecord(row pgx.Row) (compensation.BonusFineRecord, error) {
	var rec compensation.BonusFineRecord
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.Period, &rec.PeriodStart, &rec.Month, &rec.Year,
		&rec.Base, &rec.TotalBonus, &rec.TotalFine, &rec.NetAmount,
		&rec.ManualBonus, &rec.ManualFine, &rec.NoPaymentApproved,
		&rec.ComputedAt, &rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}

// GetForPeriod implements compensation.BonusFineRecordRepository.
func (r *bonusFineRecordRepository) GetForPeriod(ctx context.Context, employeeID string, period compensation.Period, periodStart time.Time) (compensation.BonusFineRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + bonusFineColumns + `
		FROM bonus_fine_records
		WHERE employee_id = $1 AND period = $2 AND period_start = $3
	`

	rec, err := scanBonusFineRecord(q.QueryRow(ctx, query, employeeID, period, periodStart))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return compensation.BonusFineRecord{}, compensation.ErrRecordNotFound
		}
		return compensation.BonusFineRecord{}, fmt.Errorf("failed to get compensation record: %w", err)
	}

	return rec, nil
}

// Upsert implements compensation.BonusFineRecordRepository. Computed totals
// overwrite the stored ones; manual overrides and the approval flag on an
// existing row are left untouched.
func (r *bonusFineRecordRepository) Upsert(ctx context.Context, rec compensation.BonusFineRecord) (compensation.BonusFineRecord, error) {
	q := GetQuerier(ctx, r.db)

	rec.ID = uuid.New().String()

	query := `
		INSERT INTO bonus_fine_records (
			id, employee_id, period, period_start, month, year,
			base, total_bonus, total_fine, net_amount,
			manual_bonus, manual_fine, no_payment_approved, computed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		) ON CONFLICT (employee_id, period, period_start) DO UPDATE SET
			base = EXCLUDED.base,
			total_bonus = EXCLUDED.total_bonus,
			total_fine = EXCLUDED.total_fine,
			net_amount = EXCLUDED.net_amount,
			computed_at = EXCLUDED.computed_at,
			updated_at = NOW()
		RETURNING ` + bonusFineColumns + `
	`

	stored, err := scanBonusFineRecord(q.QueryRow(ctx, query,
		rec.ID, rec.EmployeeID, rec.Period, rec.PeriodStart, rec.Month, rec.Year,
		rec.Base, rec.TotalBonus, rec.TotalFine, rec.NetAmount,
		rec.ManualBonus, rec.ManualFine, rec.NoPaymentApproved, rec.ComputedAt,
	))
	if err != nil {
		return compensation.BonusFineRecord{}, fmt.Errorf("failed to upsert compensation record: %w", err)
	}

	return stored, nil
}

// SetOverrides implements compensation.BonusFineRecordRepository.
func (r *bonusFineRecordRepository) SetOverrides(ctx context.Context, employeeID string, period compensation.Period, periodStart time.Time, manualBonus, manualFine *decimal.Decimal) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE bonus_fine_records
		SET manual_bonus = $1, manual_fine = $2, updated_at = NOW()
		WHERE employee_id = $3 AND period = $4 AND period_start = $5
	`

	tag, err := q.Exec(ctx, query, manualBonus, manualFine, employeeID, period, periodStart)
	if err != nil {
		return fmt.Errorf("failed to set overrides: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return compensation.ErrRecordNotFound
	}

	return nil
}

// SetNoPaymentApproved implements compensation.BonusFineRecordRepository.
func (r *bonusFineRecordRepository) SetNoPaymentApproved(ctx context.Context, employeeID string, period compensation.Period, periodStart time.Time, approved bool) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE bonus_fine_records
		SET no_payment_approved = $1, updated_at = NOW()
		WHERE employee_id = $2 AND period = $3 AND period_start = $4
	`

	tag, err := q.Exec(ctx, query, approved, employeeID, period, periodStart)
	if err != nil {
		return fmt.Errorf("failed to set no-payment approval: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return compensation.ErrRecordNotFound
	}

	return nil
}

// ListForPeriod implements compensation.BonusFineRecordRepository.
func (r *bonusFineRecordRepository) ListForPeriod(ctx context.Context, period compensation.Period, periodStart time.Time) ([]compensation.BonusFineRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + bonusFineColumns + `
		FROM bonus_fine_records
		WHERE period = $1 AND period_start = $2
		ORDER BY employee_id
	`

	rows, err := q.Query(ctx, query, period, periodStart)
	if err != nil {
		return nil, fmt.Errorf("failed to list compensation records: %w", err)
	}
	defer rows.Close()

	var records []compensation.BonusFineRecord
	for rows.Next() {
		rec, err := scanBonusFineRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan compensation record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// IncrementAppliedFines implements compensation.BonusFineRecordRepository.
// A missing monthly row is created on the fly so scheduler increments never
// vanish before the first full compute.
func (r *bonusFineRecordRepository) IncrementAppliedFines(ctx context.Context, employeeID string, day time.Time, amount decimal.Decimal) error {
	q := GetQuerier(ctx, r.db)

	// Anchor the period in the day's own location so the nudge lands on the
	// same row a full compute would write.
	month := int(day.Month())
	year := day.Year()
	periodStart := time.Date(year, day.Month(), 1, 0, 0, 0, 0, day.Location())

	query := `
		INSERT INTO bonus_fine_records (
			id, employee_id, period, period_start, month, year,
			base, total_bonus, total_fine, net_amount, computed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, 0, 0, $7, 0, NOW()
		) ON CONFLICT (employee_id, period, period_start) DO UPDATE SET
			total_fine = bonus_fine_records.total_fine + EXCLUDED.total_fine,
			net_amount = bonus_fine_records.net_amount - EXCLUDED.total_fine,
			updated_at = NOW()
	`

	_, err := q.Exec(ctx, query,
		uuid.New().String(), employeeID, compensation.PeriodMonthly, periodStart, month, year, amount,
	)
	if err != nil {
		return fmt.Errorf("failed to increment applied fines: %w", err)
	}

	return nil
}

type ledgerRepository struct {
	db *database.DB
}

func NewLedgerRepository(db *database.DB) compensation.LedgerRepository {
	return &ledgerRepository{db: db}
}

// Insert implements compensation.LedgerRepository.
func (r *ledgerRepository) Insert(ctx context.Context, entry compensation.LedgerEntry) (compensation.LedgerEntry, error) {
	q := GetQuerier(ctx, r.db)

	entry.ID = uuid.New().String()

	query := `
		INSERT INTO compensation_ledger (
			id, employee_id, date, kind, value_type, value, description, source, reference_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		) RETURNING created_at
	`

	err := q.QueryRow(ctx, query,
		entry.ID, entry.EmployeeID, entry.Date, entry.Kind, entry.ValueType,
		entry.Value, entry.Description, entry.Source, entry.ReferenceID,
	).Scan(&entry.CreatedAt)

	if err != nil {
		return compensation.LedgerEntry{}, fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	return entry, nil
}

// ListForWindow implements compensation.LedgerRepository.
func (r *ledgerRepository) ListForWindow(ctx context.Context, employeeID string, from, to time.Time) ([]compensation.LedgerEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, date, kind, value_type, value, description, source, reference_id, created_at
		FROM compensation_ledger
		WHERE employee_id = $1
		  AND date >= $2
		  AND date <= $3
		ORDER BY date, created_at
	`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []compensation.LedgerEntry
	for rows.Next() {
		var e compensation.LedgerEntry
		err := rows.Scan(
			&e.ID, &e.EmployeeID, &e.Date, &e.Kind, &e.ValueType,
			&e.Value, &e.Description, &e.Source, &e.ReferenceID, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// SumManualFines implements compensation.LedgerRepository. Scheduler-sourced
// entries are excluded: their amounts already flow in through the fine
// records they mirror.
func (r *ledgerRepository) SumManualFines(ctx context.Context, employeeID string, from, to time.Time) (decimal.Decimal, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COALESCE(SUM(value), 0)
		FROM compensation_ledger
		WHERE employee_id = $1
		  AND kind = $2
		  AND value_type = $3
		  AND source = $4
		  AND date >= $5
		  AND date <= $6
	`

	var total decimal.Decimal
	err := q.QueryRow(ctx, query,
		employeeID, compensation.LedgerFine, compensation.ValueCurrency, compensation.SourceManual, from, to,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum manual fines: %w", err)
	}

	return total, nil
}

type engagementRepository struct {
	db *database.DB
}

func NewEngagementRepository(db *database.DB) compensation.EngagementRepository {
	return &engagementRepository{db: db}
}

// DailyUpdates implements compensation.EngagementRepository.
func (r *engagementRepository) DailyUpdates(ctx context.Context, employeeID string, from, to time.Time) ([]compensation.DailyUpdate, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT employee_id, date, has_loom, has_gform
		FROM daily_updates
		WHERE employee_id = $1
		  AND date >= $2
		  AND date <= $3
		ORDER BY date
	`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily updates: %w", err)
	}
	defer rows.Close()

	var updates []compensation.DailyUpdate
	for rows.Next() {
		var u compensation.DailyUpdate
		if err := rows.Scan(&u.EmployeeID, &u.Date, &u.HasLoom, &u.HasGForm); err != nil {
			return nil, fmt.Errorf("failed to scan daily update: %w", err)
		}
		updates = append(updates, u)
	}

	return updates, rows.Err()
}

// Counts implements compensation.EngagementRepository. Shortfall counts are
// recorded by the external engagement tracker; an employee with no row has
// no recorded misses.
func (r *engagementRepository) Counts(ctx context.Context, employeeID string, from, to time.Time) (compensation.EngagementCounts, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COALESCE(SUM(missed_daily_updates), 0),
			   COALESCE(SUM(missed_team_meetings), 0),
			   COALESCE(SUM(missed_internal_meetings), 0),
			   COALESCE(SUM(missed_client_meetings), 0)
		FROM engagement_counts
		WHERE employee_id = $1
		  AND date >= $2
		  AND date <= $3
	`

	var c compensation.EngagementCounts
	err := q.QueryRow(ctx, query, employeeID, from, to).Scan(
		&c.MissedDailyUpdates, &c.MissedTeamMeetings, &c.MissedInternalMeetings, &c.MissedClientMeetings,
	)
	if err != nil {
		return compensation.EngagementCounts{}, fmt.Errorf("failed to load engagement counts: %w", err)
	}

	return c, nil
}
