package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const slotCols = `id, doctor_id, start_time, end_time, status, notes, created_at, updated_at`

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot
	err := row.Scan(&s.ID, &s.DoctorID, &s.StartTime, &s.EndTime, &s.Status, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &s, err
}

func (r *repoPG) Create(ctx context.Context, s *Slot) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO availability_slots (id, doctor_id, start_time, end_time, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.DoctorID, s.StartTime, s.EndTime, s.Status, s.Notes)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return scanSlot(r.pool.QueryRow(ctx, `SELECT `+slotCols+` FROM availability_slots WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Slot, int, error) {
	query := `SELECT ` + slotCols + ` FROM availability_slots WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM availability_slots WHERE 1=1`
	var args []interface{}
	idx := 1

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
		cond := fmt.Sprintf(` AND start_time >= $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, *f.From)
		idx++
	}
	if f.To != nil {
		cond := fmt.Sprintf(` AND start_time <= $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, *f.To)
		idx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY start_time LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var slots []*Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, 0, err
		}
		slots = append(slots, s)
	}
	return slots, total, rows.Err()
}

func (r *repoPG) Delete(ctx context.Context, id, doctorID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM availability_slots
		WHERE id = $1 AND doctor_id = $2 AND status = $3`,
		id, doctorID, StatusAvailable)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) Book(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE availability_slots SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3`,
		id, StatusBooked, StatusAvailable)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) BookByDoctorTime(ctx context.Context, doctorID uuid.UUID, start time.Time) (*Slot, error) {
	return scanSlot(r.pool.QueryRow(ctx, `
		UPDATE availability_slots SET status = $3, updated_at = NOW()
		WHERE id = (
			SELECT id FROM availability_slots
			WHERE doctor_id = $1 AND start_time = $2 AND status = $4
			LIMIT 1
		)
		RETURNING `+slotCols,
		doctorID, start, StatusBooked, StatusAvailable))
}
