package appointment

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

const apptCols = `id, patient_id, doctor_id, department_id, reason, scheduled_at,
	status, notes, created_by, updated_by, created_at, updated_at`

func scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.DepartmentID, &a.Reason, &a.ScheduledAt,
		&a.Status, &a.Notes, &a.CreatedBy, &a.UpdatedBy, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, department_id, reason, scheduled_at,
			status, notes, created_by, updated_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		a.ID, a.PatientID, a.DoctorID, a.DepartmentID, a.Reason, a.ScheduledAt,
		a.Status, a.Notes, a.CreatedBy, a.UpdatedBy)
	return err
}

func (r *repoPG) GetForPatient(ctx context.Context, id, patientID uuid.UUID) (*Appointment, error) {
	return scanAppt(r.pool.QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE id = $1 AND patient_id = $2`, id, patientID))
}

func (r *repoPG) GetForDoctor(ctx context.Context, id, doctorID uuid.UUID) (*Appointment, error) {
	return scanAppt(r.pool.QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE id = $1 AND doctor_id = $2`, id, doctorID))
}

func (r *repoPG) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM appointments WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	query := `SELECT ` + apptCols + ` FROM appointments WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM appointments WHERE 1=1`
	var args []interface{}
	idx := 1

	if f.PatientID != uuid.Nil {
		cond := fmt.Sprintf(` AND patient_id = $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, f.PatientID)
		idx++
	}
	if f.DoctorID != uuid.Nil {
		cond := fmt.Sprintf(` AND doctor_id = $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, f.DoctorID)
		idx++
	}
	if f.Status != "" {
		cond := fmt.Sprintf(` AND status = $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, f.Status)
		idx++
	}
	if f.From != nil {
		cond := fmt.Sprintf(` AND scheduled_at >= $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, *f.From)
		idx++
	}
	if f.To != nil {
		cond := fmt.Sprintf(` AND scheduled_at <= $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, *f.To)
		idx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY scheduled_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var appts []*Appointment
	for rows.Next() {
		a, err := scanAppt(rows)
		if err != nil {
			return nil, 0, err
		}
		appts = append(appts, a)
	}
	return appts, total, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments SET doctor_id=$2, department_id=$3, reason=$4, scheduled_at=$5,
			status=$6, notes=$7, updated_by=$8, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.DoctorID, a.DepartmentID, a.Reason, a.ScheduledAt,
		a.Status, a.Notes, a.UpdatedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) AssignDoctor(ctx context.Context, id, doctorID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments SET doctor_id = $2, updated_by = $2, updated_at = NOW()
		WHERE id = $1 AND (doctor_id IS NULL OR doctor_id = $2)`,
		id, doctorID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) ListPatients(ctx context.Context, doctorID uuid.UUID) ([]*PatientSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT u.id, u.code, u.first_name, u.last_name
		FROM appointments a
		JOIN users u ON u.id = a.patient_id
		WHERE a.doctor_id = $1
		ORDER BY u.last_name, u.first_name`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*PatientSummary
	for rows.Next() {
		var p PatientSummary
		if err := rows.Scan(&p.ID, &p.Code, &p.FirstName, &p.LastName); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
