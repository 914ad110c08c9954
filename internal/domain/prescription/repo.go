package prescription

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("prescription not found")

type Filter struct {
	Status    string
	PatientID uuid.UUID
	DoctorID  uuid.UUID
}

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByCode(ctx context.Context, code string) (*Prescription, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*Prescription, int, error)
	Update(ctx context.Context, p *Prescription) error
	Delete(ctx context.Context, code string) (bool, error)
}

// PatientDirectory resolves a patient's human code.
type PatientDirectory interface {
	FindPatientByCode(ctx context.Context, code string) (id uuid.UUID, fullName string, err error)
}
