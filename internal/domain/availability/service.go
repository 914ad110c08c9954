package availability

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/pkg/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type AddSlotInput struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Notes     *string   `json:"notes"`
}

func (s *Service) AddSlot(ctx context.Context, doctorID uuid.UUID, in AddSlotInput) (*Slot, error) {
	if in.StartTime.IsZero() || in.EndTime.IsZero() {
		return nil, apperr.Validation("startTime and endTime are required")
	}
	if !in.StartTime.Before(in.EndTime) {
		return nil, apperr.Validation("startTime must be before endTime")
	}
	slot := &Slot{
		DoctorID:  doctorID,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Status:    StatusAvailable,
		Notes:     in.Notes,
	}
	if err := s.repo.Create(ctx, slot); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, apperr.Conflict("slot already exists for this time window")
		}
		return nil, apperr.Internal(err)
	}
	return slot, nil
}

// ListMine returns a doctor's own slots with optional status and time filters.
func (s *Service) ListMine(ctx context.Context, doctorID uuid.UUID, status string, from, to *time.Time, limit, offset int) ([]*Slot, int, error) {
	slots, total, err := s.repo.List(ctx, Filter{DoctorID: doctorID, Status: status, From: from, To: to}, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return slots, total, nil
}

// ListDoctorAvailable is the patient-facing view: only open slots.
func (s *Service) ListDoctorAvailable(ctx context.Context, doctorID uuid.UUID, from, to *time.Time, limit, offset int) ([]*Slot, int, error) {
	slots, total, err := s.repo.List(ctx, Filter{DoctorID: doctorID, Status: StatusAvailable, From: from, To: to}, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return slots, total, nil
}

// RemoveSlot deletes one of the caller's open slots. A booked slot cannot be
// removed; a slot the caller does not own reads as absent.
func (s *Service) RemoveSlot(ctx context.Context, doctorID, slotID uuid.UUID) error {
	ok, err := s.repo.Delete(ctx, slotID, doctorID)
	if err != nil {
		return apperr.Internal(err)
	}
	if ok {
		return nil
	}
	slot, err := s.repo.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("slot not found")
		}
		return apperr.Internal(err)
	}
	if slot.DoctorID != doctorID {
		return apperr.NotFound("slot not found")
	}
	return apperr.Conflict("slot is booked and cannot be removed")
}

// Book claims a slot by id. Exactly one concurrent caller wins; the rest get
// a conflict.
func (s *Service) Book(ctx context.Context, slotID uuid.UUID) (*Slot, error) {
	ok, err := s.repo.Book(ctx, slotID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		return nil, apperr.Conflict("slot is not available")
	}
	slot, err := s.repo.GetByID(ctx, slotID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return slot, nil
}

// BookByDoctorTime books the doctor's slot starting exactly at start. Used
// when a patient names a doctor and a time instead of a slot id.
func (s *Service) BookByDoctorTime(ctx context.Context, doctorID uuid.UUID, start time.Time) (*Slot, error) {
	slot, err := s.repo.BookByDoctorTime(ctx, doctorID, start)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.Validation("selected time is not available")
		}
		return nil, apperr.Internal(err)
	}
	return slot, nil
}
