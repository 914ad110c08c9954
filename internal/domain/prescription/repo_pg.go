package prescription

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

const rxCols = `id, code, patient_id, doctor_id, items, status, notes,
	dispensed_at, dispensed_by, created_by, updated_by, created_at, updated_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.Code, &p.PatientID, &p.DoctorID, &p.Items, &p.Status, &p.Notes,
		&p.DispensedAt, &p.DispensedBy, &p.CreatedBy, &p.UpdatedBy, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO prescriptions (id, code, patient_id, doctor_id, items, status, notes, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.Code, p.PatientID, p.DoctorID, p.Items, p.Status, p.Notes, p.CreatedBy)
	return err
}

func (r *repoPG) GetByCode(ctx context.Context, code string) (*Prescription, error) {
	return scanPrescription(r.pool.QueryRow(ctx, `SELECT `+rxCols+` FROM prescriptions WHERE code = $1`, code))
}

func (r *repoPG) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM prescriptions WHERE code = $1)`, code).Scan(&exists)
	return exists, err
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Prescription, int, error) {
	query := `SELECT ` + rxCols + ` FROM prescriptions WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM prescriptions WHERE 1=1`
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
	if f.DoctorID != uuid.Nil {
		cond := fmt.Sprintf(` AND doctor_id = $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, f.DoctorID)
		idx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, p *Prescription) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE prescriptions SET items=$2, status=$3, notes=$4,
			dispensed_at=$5, dispensed_by=$6, updated_by=$7, updated_at=NOW()
		WHERE code = $1`,
		p.Code, p.Items, p.Status, p.Notes, p.DispensedAt, p.DispensedBy, p.UpdatedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, code string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM prescriptions WHERE code = $1`, code)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
