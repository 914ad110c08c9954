package lab

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const testCols = `id, code, patient_id, ordered_by, doctor_id, assigned_technician,
	test_type, specimen_type, priority, status,
	ordered_at, claimed_at, started_at, completed_at, cancelled_at,
	results, notes, updated_by, created_at, updated_at`

func scanTest(row pgx.Row) (*LabTest, error) {
	var t LabTest
	err := row.Scan(&t.ID, &t.Code, &t.PatientID, &t.OrderedBy, &t.DoctorID, &t.AssignedTechnician,
		&t.TestType, &t.SpecimenType, &t.Priority, &t.Status,
		&t.OrderedAt, &t.ClaimedAt, &t.StartedAt, &t.CompletedAt, &t.CancelledAt,
		&t.Results, &t.Notes, &t.UpdatedBy, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &t, err
}

func (r *repoPG) Create(ctx context.Context, t *LabTest) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lab_tests (id, code, patient_id, ordered_by, doctor_id, assigned_technician,
			test_type, specimen_type, priority, status, ordered_at, results, notes, updated_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		t.ID, t.Code, t.PatientID, t.OrderedBy, t.DoctorID, t.AssignedTechnician,
		t.TestType, t.SpecimenType, t.Priority, t.Status, t.OrderedAt, t.Results, t.Notes, t.UpdatedBy)
	return err
}

func (r *repoPG) GetByCode(ctx context.Context, code string) (*LabTest, error) {
	return scanTest(r.pool.QueryRow(ctx, `SELECT `+testCols+` FROM lab_tests WHERE code = $1`, code))
}

func (r *repoPG) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM lab_tests WHERE code = $1)`, code).Scan(&exists)
	return exists, err
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*LabTest, int, error) {
	query := `SELECT ` + testCols + ` FROM lab_tests WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM lab_tests WHERE 1=1`
	var args []interface{}
	idx := 1

	if f.Status != "" {
		cond := fmt.Sprintf(` AND status = $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, f.Status)
		idx++
	}
	if f.PatientID != uuid.Nil {
		cond := fmt.Sprintf(` AND patient_id = $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, f.PatientID)
		idx++
	}
	if f.Query != "" {
		cond := fmt.Sprintf(` AND code ILIKE $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, "%"+f.Query+"%")
		idx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY ordered_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var tests []*LabTest
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, 0, err
		}
		tests = append(tests, t)
	}
	return tests, total, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, t *LabTest) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE lab_tests SET test_type=$2, specimen_type=$3, priority=$4, status=$5,
			results=$6, notes=$7, updated_by=$8, updated_at=NOW()
		WHERE code = $1`,
		t.Code, t.TestType, t.SpecimenType, t.Priority, t.Status,
		t.Results, t.Notes, t.UpdatedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, code string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM lab_tests WHERE code = $1`, code)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) Claim(ctx context.Context, code string, techID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE lab_tests SET assigned_technician = $2, status = $3,
			claimed_at = COALESCE(claimed_at, NOW()), updated_at = NOW()
		WHERE code = $1
		  AND status IN ($4, $3)
		  AND (assigned_technician IS NULL OR assigned_technician = $2)`,
		code, techID, StatusClaimed, StatusOrdered)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) Start(ctx context.Context, code string, techID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE lab_tests SET status = $3, started_at = NOW(), updated_at = NOW()
		WHERE code = $1 AND assigned_technician = $2 AND status = $4`,
		code, techID, StatusInProgress, StatusClaimed)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) Complete(ctx context.Context, code string, techID uuid.UUID, results *Results, notes *string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE lab_tests SET status = $3, completed_at = NOW(),
			results = $4, notes = COALESCE($5, notes), updated_by = $2, updated_at = NOW()
		WHERE code = $1 AND assigned_technician = $2 AND status IN ($6, $7)`,
		code, techID, StatusCompleted, results, notes, StatusClaimed, StatusInProgress)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) Cancel(ctx context.Context, code string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE lab_tests SET status = $2, cancelled_at = NOW(), updated_at = NOW()
		WHERE code = $1 AND status NOT IN ($3, $2)`,
		code, StatusCancelled, StatusCompleted)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
