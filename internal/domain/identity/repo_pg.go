package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const userCols = `id, code, first_name, last_name, email, phone, password_hash, role,
	gender, date_of_birth, address,
	department, specialization, license_number,
	blood_group, allergies, medical_history, insurance_provider, insurance_number,
	status, approved_at, approved_by, created_at, updated_at`

// nullIfEmpty maps an absent phone to SQL NULL so the unique index ignores
// phoneless bootstrap accounts instead of colliding them on ''.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var phone *string
	err := row.Scan(&u.ID, &u.Code, &u.FirstName, &u.LastName, &u.Email, &phone, &u.PasswordHash, &u.Role,
		&u.Gender, &u.DateOfBirth, &u.Address,
		&u.Department, &u.Specialization, &u.LicenseNumber,
		&u.BloodGroup, &u.Allergies, &u.MedicalHistory, &u.InsuranceProvider, &u.InsuranceNumber,
		&u.Status, &u.ApprovedAt, &u.ApprovedBy, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if phone != nil {
		u.Phone = *phone
	}
	return &u, err
}

// mapPGError converts unique-constraint violations into ErrDuplicate.
func mapPGError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (r *repoPG) Create(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, code, first_name, last_name, email, phone, password_hash, role,
			gender, date_of_birth, address,
			department, specialization, license_number,
			blood_group, allergies, medical_history, insurance_provider, insurance_number,
			status, approved_at, approved_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`,
		u.ID, u.Code, u.FirstName, u.LastName, u.Email, nullIfEmpty(u.Phone), u.PasswordHash, u.Role,
		u.Gender, u.DateOfBirth, u.Address,
		u.Department, u.Specialization, u.LicenseNumber,
		u.BloodGroup, u.Allergies, u.MedicalHistory, u.InsuranceProvider, u.InsuranceNumber,
		u.Status, u.ApprovedAt, u.ApprovedBy)
	return mapPGError(err)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email = $1`, email))
}

func (r *repoPG) GetByCode(ctx context.Context, code string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE code = $1`, code))
}

func (r *repoPG) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE code = $1)`, code).Scan(&exists)
	return exists, err
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*User, int, error) {
	query := `SELECT ` + userCols + ` FROM users WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM users WHERE 1=1`
	var args []interface{}
	idx := 1

	if f.Role != "" {
		cond := fmt.Sprintf(` AND role = $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, f.Role)
		idx++
	}
	if f.Status != "" {
		cond := fmt.Sprintf(` AND status = $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, f.Status)
		idx++
	}
	if f.Query != "" {
		cond := fmt.Sprintf(` AND (first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR code ILIKE $%d)`, idx, idx, idx, idx)
		query += cond
		countQuery += cond
		args = append(args, "%"+f.Query+"%")
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
	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, u *User) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET first_name=$2, last_name=$3, email=$4, phone=$5, password_hash=$6,
			gender=$7, date_of_birth=$8, address=$9,
			department=$10, specialization=$11, license_number=$12,
			blood_group=$13, allergies=$14, medical_history=$15,
			insurance_provider=$16, insurance_number=$17,
			status=$18, updated_at=NOW()
		WHERE id = $1`,
		u.ID, u.FirstName, u.LastName, u.Email, nullIfEmpty(u.Phone), u.PasswordHash,
		u.Gender, u.DateOfBirth, u.Address,
		u.Department, u.Specialization, u.LicenseNumber,
		u.BloodGroup, u.Allergies, u.MedicalHistory,
		u.InsuranceProvider, u.InsuranceNumber,
		u.Status)
	if err != nil {
		return mapPGError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Activate(ctx context.Context, id uuid.UUID, approvedBy uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET status=$2, approved_at=NOW(), approved_by=$3, updated_at=NOW()
		WHERE id = $1 AND status = $4`,
		id, StatusActive, approvedBy, StatusInactive)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) Deactivate(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET status=$2, updated_at=NOW()
		WHERE id = $1 AND status = $3`,
		id, StatusInactive, StatusActive)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) FindDoctorByName(ctx context.Context, name string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userCols+` FROM users
		WHERE role = $1 AND status = $2
		  AND (first_name ILIKE $3 OR last_name ILIKE $3)
		ORDER BY created_at
		LIMIT 1`,
		RoleDoctor, StatusActive, name+"%"))
}
