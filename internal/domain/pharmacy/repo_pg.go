package pharmacy

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

const stockCols = `id, code, name, generic_name, batch_number, dosage_form, strength,
	quantity_in_stock, unit, unit_price, expiry_date, manufacturer, reorder_level,
	status, notes, created_by, updated_by, created_at, updated_at`

func scanStockItem(row pgx.Row) (*StockItem, error) {
	var s StockItem
	err := row.Scan(&s.ID, &s.Code, &s.Name, &s.GenericName, &s.BatchNumber, &s.DosageForm, &s.Strength,
		&s.QuantityInStock, &s.Unit, &s.UnitPrice, &s.ExpiryDate, &s.Manufacturer, &s.ReorderLevel,
		&s.Status, &s.Notes, &s.CreatedBy, &s.UpdatedBy, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &s, err
}

func mapPGError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (r *repoPG) Create(ctx context.Context, s *StockItem) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO pharmacy_stock (id, code, name, generic_name, batch_number, dosage_form,
			strength, quantity_in_stock, unit, unit_price, expiry_date, manufacturer,
			reorder_level, status, notes, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		s.ID, s.Code, s.Name, s.GenericName, s.BatchNumber, s.DosageForm,
		s.Strength, s.QuantityInStock, s.Unit, s.UnitPrice, s.ExpiryDate, s.Manufacturer,
		s.ReorderLevel, s.Status, s.Notes, s.CreatedBy)
	return mapPGError(err)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*StockItem, error) {
	return scanStockItem(r.pool.QueryRow(ctx, `SELECT `+stockCols+` FROM pharmacy_stock WHERE id = $1`, id))
}

func (r *repoPG) GetByCode(ctx context.Context, code string) (*StockItem, error) {
	return scanStockItem(r.pool.QueryRow(ctx, `SELECT `+stockCols+` FROM pharmacy_stock WHERE code = $1`, code))
}

func (r *repoPG) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM pharmacy_stock WHERE code = $1)`, code).Scan(&exists)
	return exists, err
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*StockItem, int, error) {
	query := `SELECT ` + stockCols + ` FROM pharmacy_stock WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM pharmacy_stock WHERE 1=1`
	var args []interface{}
	idx := 1

	if f.Status != "" {
		cond := fmt.Sprintf(` AND status = $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, f.Status)
		idx++
	}
	if f.Query != "" {
		cond := fmt.Sprintf(` AND (name ILIKE $%d OR generic_name ILIKE $%d)`, idx, idx)
		query += cond
		countQuery += cond
		args = append(args, "%"+f.Query+"%")
		idx++
	}
	if f.LowOnly {
		cond := ` AND reorder_level > 0 AND quantity_in_stock <= reorder_level`
		query += cond
		countQuery += cond
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY expiry_date ASC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*StockItem
	for rows.Next() {
		s, err := scanStockItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, s *StockItem) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE pharmacy_stock SET name=$2, generic_name=$3, batch_number=$4, dosage_form=$5,
			strength=$6, unit=$7, unit_price=$8, expiry_date=$9, manufacturer=$10,
			reorder_level=$11, status=$12, notes=$13, updated_by=$14, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.Name, s.GenericName, s.BatchNumber, s.DosageForm,
		s.Strength, s.Unit, s.UnitPrice, s.ExpiryDate, s.Manufacturer,
		s.ReorderLevel, s.Status, s.Notes, s.UpdatedBy)
	if err != nil {
		return mapPGError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE pharmacy_stock SET quantity_in_stock = quantity_in_stock + $2, updated_at = NOW()
		WHERE id = $1`, id, delta)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) DecrementStock(ctx context.Context, id uuid.UUID, amount int) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE pharmacy_stock SET quantity_in_stock = quantity_in_stock - $2, updated_at = NOW()
		WHERE id = $1 AND quantity_in_stock >= $2`, id, amount)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
