package department

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("department not found")
	ErrDuplicate = errors.New("duplicate department")
)

type Repository interface {
	Create(ctx context.Context, d *Department) error
	List(ctx context.Context) ([]*Department, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Department, error)
	// GetByName matches case-insensitively.
	GetByName(ctx context.Context, name string) (*Department, error)
}
