package nursing

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("nursing record not found")

type Filter struct {
	PatientID uuid.UUID
	Type      string
}

type Repository interface {
	Create(ctx context.Context, rec *NursingRecord) error
	GetByCode(ctx context.Context, code string) (*NursingRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (*NursingRecord, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*NursingRecord, int, error)
	Delete(ctx context.Context, code string) (bool, error)
}

// PatientDirectory resolves a patient's human code.
type PatientDirectory interface {
	FindPatientByCode(ctx context.Context, code string) (id uuid.UUID, fullName string, err error)
}
