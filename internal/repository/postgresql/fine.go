package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/workforcehq/workforce-backend-go/internal/domain/fine"
	"github.com/workforcehq/workforce-backend-go/internal/pkg/database"
)

type customFineRepository struct {
	db *database.DB
}

func NewCustomFineRepository(db *database.DB) fine.CustomFineRepository {
	return &customFineRepository{db: db}
}

const customFineColumns = `
	id, name, criteria, fine_type, points, currency,
	trigger_hour, trigger_minute, employee_ids, project_ids,
	is_active, created_at, updated_at
`

func scanCustomFine(row pgx.Row) (fine.CustomFine, error) {
	var f fine.CustomFine
	err := row.Scan(
		&f.ID, &f.Name, &f.Criteria, &f.FineType, &f.Points, &f.Currency,
		&f.TriggerHour, &f.TriggerMinute, &f.EmployeeIDs, &f.ProjectIDs,
		&f.IsActive, &f.CreatedAt, &f.UpdatedAt,
	)
	return f, err
}

// Create implements fine.CustomFineRepository.
func (r *customFineRepository) Create(ctx context.Context, f fine.CustomFine) (fine.CustomFine, error) {
	q := GetQuerier(ctx, r.db)

	f.ID = uuid.New().String()

	query := `
		INSERT INTO custom_fines (
			id, name, criteria, fine_type, points, currency,
			trigger_hour, trigger_minute, employee_ids, project_ids, is_active
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		) RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		f.ID, f.Name, f.Criteria, f.FineType, f.Points, f.Currency,
		f.TriggerHour, f.TriggerMinute, f.EmployeeIDs, f.ProjectIDs, f.IsActive,
	).Scan(&f.CreatedAt, &f.UpdatedAt)

	if err != nil {
		return fine.CustomFine{}, fmt.Errorf("failed to create custom fine: %w", err)
	}

	return f, nil
}

// GetByID implements fine.CustomFineRepository.
func (r *customFineRepository) GetByID(ctx context.Context, id string) (fine.CustomFine, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + customFineColumns + ` FROM custom_fines WHERE id = $1`

	f, err := scanCustomFine(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fine.CustomFine{}, fine.ErrFineNotFound
		}
		return fine.CustomFine{}, fmt.Errorf("failed to get custom fine: %w", err)
	}

	return f, nil
}

// List implements fine.CustomFineRepository.
func (r *customFineRepository) List(ctx context.Context, activeOnly bool) ([]fine.CustomFine, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + customFineColumns + ` FROM custom_fines`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY created_at`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list custom fines: %w", err)
	}
	defer rows.Close()

	var fines []fine.CustomFine
	for rows.Next() {
		f, err := scanCustomFine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan custom fine: %w", err)
		}
		fines = append(fines, f)
	}

	return fines, rows.Err()
}

// Update implements fine.CustomFineRepository.
func (r *customFineRepository) Update(ctx context.Context, f fine.CustomFine) (fine.CustomFine, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE custom_fines SET
			name = $1, points = $2, currency = $3,
			trigger_hour = $4, trigger_minute = $5,
			employee_ids = $6, project_ids = $7,
			is_active = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING updated_at
	`

	err := q.QueryRow(ctx, query,
		f.Name, f.Points, f.Currency,
		f.TriggerHour, f.TriggerMinute,
		f.EmployeeIDs, f.ProjectIDs,
		f.IsActive, f.ID,
	).Scan(&f.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fine.CustomFine{}, fine.ErrFineNotFound
		}
		return fine.CustomFine{}, fmt.Errorf("failed to update custom fine: %w", err)
	}

	return f, nil
}

// Deactivate implements fine.CustomFineRepository.
func (r *customFineRepository) Deactivate(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE custom_fines SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate custom fine: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fine.ErrFineNotFound
	}

	return nil
}

type customFineRecordRepository struct {
	db *database.DB
}

func NewCustomFineRecordRepository(db *database.DB) fine.CustomFineRecordRepository {
	return &customFineRecordRepository{db: db}
}

const fineRecordColumns = `
	id, fine_id, employee_id, project_id, date,
	points, currency, manually_deleted, created_at
`

func scanFineRecord(row pgx.Row) (fine.CustomFineRecord, error) {
	var rec fine.CustomFineRecord
	err := row.Scan(
		&rec.ID, &rec.FineID, &rec.EmployeeID, &rec.ProjectID, &rec.Date,
		&rec.Points, &rec.Currency, &rec.ManuallyDeleted, &rec.CreatedAt,
	)
	return rec, err
}

// ActiveExists implements fine.CustomFineRecordRepository. Manually deleted
// records never count, so deleting one re-opens the natural-key slot.
func (r *customFineRecordRepository) ActiveExists(ctx context.Context, fineID, employeeID string, projectID *string, day *time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM custom_fine_records
			WHERE fine_id = $1
			  AND employee_id = $2
			  AND manually_deleted = FALSE
			  AND ($3::text IS NULL OR project_id = $3)
			  AND ($4::date IS NULL OR date = $4)
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, fineID, employeeID, projectID, day).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check fine record existence: %w", err)
	}

	return exists, nil
}

// Create implements fine.CustomFineRecordRepository.
func (r *customFineRecordRepository) Create(ctx context.Context, rec fine.CustomFineRecord) (fine.CustomFineRecord, error) {
	q := GetQuerier(ctx, r.db)

	rec.ID = uuid.New().String()

	query := `
		INSERT INTO custom_fine_records (
			id, fine_id, employee_id, project_id, date, points, currency, manually_deleted
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, FALSE
		) RETURNING created_at
	`

	err := q.QueryRow(ctx, query,
		rec.ID, rec.FineID, rec.EmployeeID, rec.ProjectID, rec.Date, rec.Points, rec.Currency,
	).Scan(&rec.CreatedAt)

	if err != nil {
		return fine.CustomFineRecord{}, fmt.Errorf("failed to create fine record: %w", err)
	}

	return rec, nil
}

// GetByID implements fine.CustomFineRecordRepository.
func (r *customFineRecordRepository) GetByID(ctx context.Context, id string) (fine.CustomFineRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + fineRecordColumns + ` FROM custom_fine_records WHERE id = $1`

	rec, err := scanFineRecord(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fine.CustomFineRecord{}, fine.ErrFineRecordNotFound
		}
		return fine.CustomFineRecord{}, fmt.Errorf("failed to get fine record: %w", err)
	}

	return rec, nil
}

// ListByFine implements fine.CustomFineRecordRepository.
func (r *customFineRecordRepository) ListByFine(ctx context.Context, fineID string) ([]fine.CustomFineRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + fineRecordColumns + ` FROM custom_fine_records WHERE fine_id = $1 ORDER BY date DESC`

	rows, err := q.Query(ctx, query, fineID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fine records: %w", err)
	}
	defer rows.Close()

	return scanFineRecords(rows)
}

// ListForEmployeeWindow implements fine.CustomFineRecordRepository.
func (r *customFineRecordRepository) ListForEmployeeWindow(ctx context.Context, employeeID string, from, to time.Time) ([]fine.CustomFineRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + fineRecordColumns + `
		FROM custom_fine_records
		WHERE employee_id = $1
		  AND manually_deleted = FALSE
		  AND date >= $2
		  AND date <= $3
		ORDER BY date
	`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list fine records: %w", err)
	}
	defer rows.Close()

	return scanFineRecords(rows)
}

// SumForWindow implements fine.CustomFineRecordRepository.
func (r *customFineRecordRepository) SumForWindow(ctx context.Context, employeeID string, criteria fine.Criteria, from, to time.Time) (int, decimal.Decimal, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COALESCE(SUM(r.points), 0), COALESCE(SUM(r.currency), 0)
		FROM custom_fine_records r
		JOIN custom_fines f ON f.id = r.fine_id
		WHERE r.employee_id = $1
		  AND f.criteria = $2
		  AND r.manually_deleted = FALSE
		  AND r.date >= $3
		  AND r.date <= $4
	`

	var points int
	var currency decimal.Decimal
	if err := q.QueryRow(ctx, query, employeeID, string(criteria), from, to).Scan(&points, &currency); err != nil {
		return 0, decimal.Zero, fmt.Errorf("failed to sum fine records: %w", err)
	}

	return points, currency, nil
}

// MarkManuallyDeleted implements fine.CustomFineRecordRepository.
func (r *customFineRecordRepository) MarkManuallyDeleted(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE custom_fine_records SET manually_deleted = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark fine record deleted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fine.ErrFineRecordNotFound
	}

	return nil
}

// HasNAMark implements fine.CustomFineRecordRepository.
func (r *customFineRecordRepository) HasNAMark(ctx context.Context, fineID, employeeID, projectID string, day time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM custom_fine_na_marks
			WHERE fine_id = $1 AND employee_id = $2 AND project_id = $3 AND date = $4
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, fineID, employeeID, projectID, day).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check NA mark: %w", err)
	}

	return exists, nil
}

func scanFineRecords(rows pgx.Rows) ([]fine.CustomFineRecord, error) {
	var records []fine.CustomFineRecord
	for rows.Next() {
		rec, err := scanFineRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fine record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
