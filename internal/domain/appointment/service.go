package appointment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/pkg/apperr"
)

type Service struct {
	repo  Repository
	slots SlotBooker
	docs  DoctorDirectory
	depts DepartmentDirectory
}

func NewService(repo Repository, slots SlotBooker, docs DoctorDirectory, depts DepartmentDirectory) *Service {
	return &Service{repo: repo, slots: slots, docs: docs, depts: depts}
}

type CreateInput struct {
	Reason         string     `json:"reason"`
	AvailabilityID *uuid.UUID `json:"availabilityId"`
	ScheduledAt    *time.Time `json:"scheduledAt"`
	DoctorID       *uuid.UUID `json:"doctorId"`
	DoctorName     *string    `json:"doctorName"`
	DepartmentID   *uuid.UUID `json:"departmentId"`
	DepartmentName *string    `json:"departmentName"`
	Notes          *string    `json:"notes"`
}

// Create books an appointment for a patient. Naming an availability slot
// claims it; naming a doctor and a time claims the matching slot; a bare
// time with no doctor is a department walk-in. Slot booking and appointment
// insertion are separate writes.
func (s *Service) Create(ctx context.Context, patientID uuid.UUID, in CreateInput) (*Appointment, error) {
	if strings.TrimSpace(in.Reason) == "" {
		return nil, apperr.Validation("reason is required")
	}
	if in.AvailabilityID == nil && in.ScheduledAt == nil {
		return nil, apperr.Validation("availabilityId or scheduledAt is required")
	}

	a := &Appointment{
		PatientID:    patientID,
		Reason:       strings.TrimSpace(in.Reason),
		Status:       StatusPending,
		Notes:        in.Notes,
		CreatedBy:    patientID,
		DoctorID:     in.DoctorID,
		DepartmentID: in.DepartmentID,
	}

	if a.DepartmentID == nil && in.DepartmentName != nil && *in.DepartmentName != "" {
		deptID, err := s.depts.ResolveName(ctx, *in.DepartmentName)
		if err != nil {
			return nil, err
		}
		a.DepartmentID = &deptID
	}
	if a.DoctorID == nil && in.DoctorName != nil && *in.DoctorName != "" {
		docID, err := s.docs.FindDoctorByName(ctx, *in.DoctorName)
		if err != nil {
			return nil, err
		}
		a.DoctorID = &docID
	}

	switch {
	case in.AvailabilityID != nil:
		booked, err := s.slots.Book(ctx, *in.AvailabilityID)
		if err != nil {
			return nil, err
		}
		a.DoctorID = &booked.DoctorID
		a.ScheduledAt = booked.StartTime
	case a.DoctorID != nil:
		booked, err := s.slots.BookByDoctorTime(ctx, *a.DoctorID, *in.ScheduledAt)
		if err != nil {
			return nil, err
		}
		a.ScheduledAt = booked.StartTime
	default:
		a.ScheduledAt = *in.ScheduledAt
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, apperr.Internal(err)
	}
	return a, nil
}

// -- Patient surface --

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error) {
	appts, total, err := s.repo.List(ctx, Filter{PatientID: patientID, Status: status}, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return appts, total, nil
}

func (s *Service) GetForPatient(ctx context.Context, id, patientID uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetForPatient(ctx, id, patientID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("appointment not found")
		}
		return nil, apperr.Internal(err)
	}
	return a, nil
}

func (s *Service) RescheduleForPatient(ctx context.Context, id, patientID uuid.UUID, scheduledAt *time.Time) (*Appointment, error) {
	if scheduledAt == nil {
		return nil, apperr.Validation("scheduledAt is required")
	}
	a, err := s.GetForPatient(ctx, id, patientID)
	if err != nil {
		return nil, err
	}
	a.ScheduledAt = *scheduledAt
	a.UpdatedBy = &patientID
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, apperr.Internal(err)
	}
	return a, nil
}

// CancelForPatient sets the appointment to cancelled. Cancelling an already
// cancelled appointment succeeds and leaves it cancelled. The booked slot is
// not released.
func (s *Service) CancelForPatient(ctx context.Context, id, patientID uuid.UUID) (*Appointment, error) {
	a, err := s.GetForPatient(ctx, id, patientID)
	if err != nil {
		return nil, err
	}
	a.Status = StatusCancelled
	a.UpdatedBy = &patientID
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, apperr.Internal(err)
	}
	return a, nil
}

// -- Doctor surface --

func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID, status string, from, to *time.Time, limit, offset int) ([]*Appointment, int, error) {
	appts, total, err := s.repo.List(ctx, Filter{DoctorID: doctorID, Status: status, From: from, To: to}, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return appts, total, nil
}

func (s *Service) GetForDoctor(ctx context.Context, id, doctorID uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetForDoctor(ctx, id, doctorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("appointment not found")
		}
		return nil, apperr.Internal(err)
	}
	return a, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id, doctorID uuid.UUID, status string) (*Appointment, error) {
	if !validStatuses[status] {
		return nil, apperr.Validation("invalid status: %s", status)
	}
	a, err := s.GetForDoctor(ctx, id, doctorID)
	if err != nil {
		return nil, err
	}
	a.Status = status
	a.UpdatedBy = &doctorID
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, apperr.Internal(err)
	}
	return a, nil
}

func (s *Service) RescheduleForDoctor(ctx context.Context, id, doctorID uuid.UUID, scheduledAt *time.Time) (*Appointment, error) {
	if scheduledAt == nil {
		return nil, apperr.Validation("scheduledAt is required")
	}
	a, err := s.GetForDoctor(ctx, id, doctorID)
	if err != nil {
		return nil, err
	}
	a.ScheduledAt = *scheduledAt
	a.UpdatedBy = &doctorID
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, apperr.Internal(err)
	}
	return a, nil
}

func (s *Service) SetNotes(ctx context.Context, id, doctorID uuid.UUID, notes string) (*Appointment, error) {
	a, err := s.GetForDoctor(ctx, id, doctorID)
	if err != nil {
		return nil, err
	}
	a.Notes = &notes
	a.UpdatedBy = &doctorID
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, apperr.Internal(err)
	}
	return a, nil
}

// AssignSelf claims an unassigned appointment for the calling doctor. A
// second doctor loses with a conflict; re-claiming your own assignment is a
// no-op.
func (s *Service) AssignSelf(ctx context.Context, id, doctorID uuid.UUID) (*Appointment, error) {
	ok, err := s.repo.AssignDoctor(ctx, id, doctorID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		// Zero rows is either a missing appointment or a lost race.
		exists, err := s.repo.Exists(ctx, id)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if !exists {
			return nil, apperr.NotFound("appointment not found")
		}
		return nil, apperr.Conflict("appointment is assigned to another doctor")
	}
	return s.GetForDoctor(ctx, id, doctorID)
}

func (s *Service) ListMyPatients(ctx context.Context, doctorID uuid.UUID) ([]*PatientSummary, error) {
	out, err := s.repo.ListPatients(ctx, doctorID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}
