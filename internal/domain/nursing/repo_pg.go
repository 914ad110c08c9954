package nursing

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

const recordCols = `id, code, patient_id, nurse_id, type, data, status, created_at, updated_at`

func scanRecord(row pgx.Row) (*NursingRecord, error) {
	var rec NursingRecord
	err := row.Scan(&rec.ID, &rec.Code, &rec.PatientID, &rec.NurseID, &rec.Type,
		&rec.Data, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &rec, err
}

func (r *repoPG) Create(ctx context.Context, rec *NursingRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO nursing_records (id, code, patient_id, nurse_id, type, data, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		rec.ID, rec.Code, rec.PatientID, rec.NurseID, rec.Type, rec.Data, rec.Status)
	return err
}

func (r *repoPG) GetByCode(ctx context.Context, code string) (*NursingRecord, error) {
	return scanRecord(r.pool.QueryRow(ctx, `SELECT `+recordCols+` FROM nursing_records WHERE code = $1`, code))
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*NursingRecord, error) {
	return scanRecord(r.pool.QueryRow(ctx, `SELECT `+recordCols+` FROM nursing_records WHERE id = $1`, id))
}

func (r *repoPG) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM nursing_records WHERE code = $1)`, code).Scan(&exists)
	return exists, err
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*NursingRecord, int, error) {
	query := `SELECT ` + recordCols + ` FROM nursing_records WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM nursing_records WHERE 1=1`
	var args []interface{}
	idx := 1

	if f.PatientID != uuid.Nil {
		cond := fmt.Sprintf(` AND patient_id = $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, f.PatientID)
		idx++
	}
	if f.Type != "" {
		cond := fmt.Sprintf(` AND type = $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, f.Type)
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
	var out []*NursingRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

func (r *repoPG) Delete(ctx context.Context, code string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM nursing_records WHERE code = $1`, code)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
