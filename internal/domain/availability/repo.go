package availability

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("slot not found")
	ErrDuplicate = errors.New("duplicate slot")
)

// Filter narrows slot listings. Zero values mean no constraint.
type Filter struct {
	DoctorID uuid.UUID
	Status   string
	From     *time.Time
	To       *time.Time
}

type Repository interface {
	Create(ctx context.Context, s *Slot) error
	GetByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*Slot, int, error)

	// Delete removes a slot owned by doctorID that is still available.
	// Returns false when no such row matched.
	Delete(ctx context.Context, id, doctorID uuid.UUID) (bool, error)

	// Book atomically flips an available slot to booked. Returns false when
	// the slot was missing or already booked.
	Book(ctx context.Context, id uuid.UUID) (bool, error)

	// BookByDoctorTime books the slot of doctorID starting exactly at start,
	// returning the booked slot, or ErrNotFound when no available slot
	// matched.
	BookByDoctorTime(ctx context.Context, doctorID uuid.UUID, start time.Time) (*Slot, error)
}
