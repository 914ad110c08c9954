package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("duplicate user")
)

// Filter narrows List results. Zero values mean no constraint.
type Filter struct {
	Role   Role
	Status string
	Query  string
}

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByCode(ctx context.Context, code string) (*User, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*User, int, error)
	Update(ctx context.Context, u *User) error

	// Activate flips an inactive account to active and stamps the approval
	// audit fields. Returns false when no inactive row matched.
	Activate(ctx context.Context, id uuid.UUID, approvedBy uuid.UUID) (bool, error)
	// Deactivate flips an active account to inactive. Returns false when no
	// active row matched.
	Deactivate(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// FindDoctorByName resolves an active doctor by case-insensitive prefix
	// match on first or last name.
	FindDoctorByName(ctx context.Context, name string) (*User, error)
}
