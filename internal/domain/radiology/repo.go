package radiology

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("radiology order not found")

// Filter narrows radiology listings.
type Filter struct {
	Status      string
	Modality    string
	PatientID   uuid.UUID
	PerformedBy uuid.UUID
	From        *time.Time
	To          *time.Time
}

type Repository interface {
	Create(ctx context.Context, o *RadiologyOrder) error
	GetByCode(ctx context.Context, code string) (*RadiologyOrder, error)
	GetByID(ctx context.Context, id uuid.UUID) (*RadiologyOrder, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*RadiologyOrder, int, error)
	Update(ctx context.Context, o *RadiologyOrder) error

	// Assign claims the order for radiologistID when it is unassigned or
	// already held by the same radiologist.
	Assign(ctx context.Context, code string, radiologistID uuid.UUID) (bool, error)

	// Delete removes an order unless it is completed. The second return
	// reports whether the row existed at all.
	Delete(ctx context.Context, code string) (deleted, existed bool, err error)
}

// PatientDirectory resolves a patient's human code.
type PatientDirectory interface {
	FindPatientByCode(ctx context.Context, code string) (id uuid.UUID, fullName string, err error)
}
