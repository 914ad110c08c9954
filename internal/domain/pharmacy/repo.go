package pharmacy

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("stock item not found")
	ErrDuplicate = errors.New("stock item already exists")
)

type Filter struct {
	Status  string
	Query   string
	LowOnly bool
}

type Repository interface {
	Create(ctx context.Context, s *StockItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*StockItem, error)
	GetByCode(ctx context.Context, code string) (*StockItem, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*StockItem, int, error)
	Update(ctx context.Context, s *StockItem) error

	// AdjustStock adds delta to the quantity. Delta must already be
	// validated positive by the caller.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (bool, error)

	// DecrementStock subtracts amount in a single conditional update that
	// refuses to go below zero. False means missing row or short stock.
	DecrementStock(ctx context.Context, id uuid.UUID, amount int) (bool, error)
}
