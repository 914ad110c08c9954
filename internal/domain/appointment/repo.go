package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("appointment not found")

// Filter narrows appointment listings. Zero values mean no constraint.
type Filter struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Status    string
	From      *time.Time
	To        *time.Time
}

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	// GetForPatient scopes the lookup to the owning patient; an appointment
	// belonging to someone else reads as absent.
	GetForPatient(ctx context.Context, id, patientID uuid.UUID) (*Appointment, error)
	GetForDoctor(ctx context.Context, id, doctorID uuid.UUID) (*Appointment, error)
	// Exists reports whether the appointment id is present at all,
	// regardless of owner or assignment.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error)
	Update(ctx context.Context, a *Appointment) error

	// AssignDoctor claims an appointment for doctorID. Succeeds when the
	// appointment is unassigned or already assigned to the same doctor.
	AssignDoctor(ctx context.Context, id, doctorID uuid.UUID) (bool, error)

	// ListPatients returns the distinct patients appearing in a doctor's
	// appointments.
	ListPatients(ctx context.Context, doctorID uuid.UUID) ([]*PatientSummary, error)
}

// Collaborator surfaces. The concrete implementations live in other domain
// packages and are adapted in main.

// BookedSlot is the result of claiming an availability slot.
type BookedSlot struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	StartTime time.Time
}

type SlotBooker interface {
	Book(ctx context.Context, slotID uuid.UUID) (*BookedSlot, error)
	BookByDoctorTime(ctx context.Context, doctorID uuid.UUID, start time.Time) (*BookedSlot, error)
}

type DoctorDirectory interface {
	// FindDoctorByName resolves an active doctor by case-insensitive name
	// prefix.
	FindDoctorByName(ctx context.Context, name string) (uuid.UUID, error)
}

type DepartmentDirectory interface {
	ResolveName(ctx context.Context, name string) (uuid.UUID, error)
}
