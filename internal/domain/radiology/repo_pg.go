package radiology

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

const orderCols = `id, code, patient_id, ordered_by, doctor_id, performed_by,
	modality, study_type, body_part, priority, status,
	scheduled_at, started_at, completed_at,
	report_text, findings, impression, attachments,
	notes, updated_by, created_at, updated_at`

func scanOrder(row pgx.Row) (*RadiologyOrder, error) {
	var o RadiologyOrder
	err := row.Scan(&o.ID, &o.Code, &o.PatientID, &o.OrderedBy, &o.DoctorID, &o.PerformedBy,
		&o.Modality, &o.StudyType, &o.BodyPart, &o.Priority, &o.Status,
		&o.ScheduledAt, &o.StartedAt, &o.CompletedAt,
		&o.ReportText, &o.Findings, &o.Impression, &o.Attachments,
		&o.Notes, &o.UpdatedBy, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &o, err
}

func (r *repoPG) Create(ctx context.Context, o *RadiologyOrder) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO radiology_orders (id, code, patient_id, ordered_by, doctor_id, performed_by,
			modality, study_type, body_part, priority, status,
			scheduled_at, report_text, findings, impression, attachments, notes, updated_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		o.ID, o.Code, o.PatientID, o.OrderedBy, o.DoctorID, o.PerformedBy,
		o.Modality, o.StudyType, o.BodyPart, o.Priority, o.Status,
		o.ScheduledAt, o.ReportText, o.Findings, o.Impression, o.Attachments, o.Notes, o.UpdatedBy)
	return err
}

func (r *repoPG) GetByCode(ctx context.Context, code string) (*RadiologyOrder, error) {
	return scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderCols+` FROM radiology_orders WHERE code = $1`, code))
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*RadiologyOrder, error) {
	return scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderCols+` FROM radiology_orders WHERE id = $1`, id))
}

func (r *repoPG) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM radiology_orders WHERE code = $1)`, code).Scan(&exists)
	return exists, err
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*RadiologyOrder, int, error) {
	query := `SELECT ` + orderCols + ` FROM radiology_orders WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM radiology_orders WHERE 1=1`
	var args []interface{}
	idx := 1

	if f.Status != "" {
		cond := fmt.Sprintf(` AND status = $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, f.Status)
		idx++
	}
	if f.Modality != "" {
		cond := fmt.Sprintf(` AND modality = $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, f.Modality)
		idx++
	}
	if f.PatientID != uuid.Nil {
		cond := fmt.Sprintf(` AND patient_id = $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, f.PatientID)
		idx++
	}
	if f.PerformedBy != uuid.Nil {
		cond := fmt.Sprintf(` AND performed_by = $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, f.PerformedBy)
		idx++
	}
	if f.From != nil {
		cond := fmt.Sprintf(` AND created_at >= $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, *f.From)
		idx++
	}
	if f.To != nil {
		cond := fmt.Sprintf(` AND created_at <= $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, *f.To)
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
	var orders []*RadiologyOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, o *RadiologyOrder) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE radiology_orders SET performed_by=$2, modality=$3, study_type=$4, body_part=$5,
			priority=$6, status=$7, scheduled_at=$8, started_at=$9, completed_at=$10,
			report_text=$11, findings=$12, impression=$13, attachments=$14,
			notes=$15, updated_by=$16, updated_at=NOW()
		WHERE code = $1`,
		o.Code, o.PerformedBy, o.Modality, o.StudyType, o.BodyPart,
		o.Priority, o.Status, o.ScheduledAt, o.StartedAt, o.CompletedAt,
		o.ReportText, o.Findings, o.Impression, o.Attachments,
		o.Notes, o.UpdatedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Assign(ctx context.Context, code string, radiologistID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE radiology_orders SET performed_by = $2, updated_at = NOW()
		WHERE code = $1 AND (performed_by IS NULL OR performed_by = $2)`,
		code, radiologistID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) Delete(ctx context.Context, code string) (bool, bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM radiology_orders WHERE code = $1 AND status <> $2`,
		code, StatusCompleted)
	if err != nil {
		return false, false, err
	}
	if tag.RowsAffected() > 0 {
		return true, true, nil
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM radiology_orders WHERE code = $1)`, code).Scan(&exists); err != nil {
		return false, false, err
	}
	return false, exists, nil
}
