package lab

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("lab test not found")

// Filter narrows lab test listings. Query matches a code fragment.
type Filter struct {
	Status    string
	PatientID uuid.UUID
	Query     string
}

type Repository interface {
	Create(ctx context.Context, t *LabTest) error
	GetByCode(ctx context.Context, code string) (*LabTest, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*LabTest, int, error)
	Update(ctx context.Context, t *LabTest) error
	Delete(ctx context.Context, code string) (bool, error)

	// Claim assigns the test to techID while it is still ordered or already
	// claimed by the same technician. claimed_at is stamped once and kept on
	// re-claim. Returns false when another technician holds it or the state
	// does not admit claiming.
	Claim(ctx context.Context, code string, techID uuid.UUID) (bool, error)

	// Start moves a claimed test held by techID to in_progress.
	Start(ctx context.Context, code string, techID uuid.UUID) (bool, error)

	// Complete finishes a claimed or in_progress test held by techID,
	// storing results and notes.
	Complete(ctx context.Context, code string, techID uuid.UUID, results *Results, notes *string) (bool, error)

	// Cancel marks a test cancelled unless it already reached a terminal
	// state.
	Cancel(ctx context.Context, code string) (bool, error)
}

// PatientDirectory resolves a patient's human code. Implemented by the
// identity package and adapted in main.
type PatientDirectory interface {
	FindPatientByCode(ctx context.Context, code string) (id uuid.UUID, fullName string, err error)
}
