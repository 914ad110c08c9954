package radiology

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/platform/codes"
	"github.com/clinicore/clinicore/pkg/apperr"
)

const codeChars = 5

type Service struct {
	repo     Repository
	patients PatientDirectory
	codes    *codes.Generator
}

func NewService(repo Repository, patients PatientDirectory, gen *codes.Generator) *Service {
	return &Service{repo: repo, patients: patients, codes: gen}
}

type CreateInput struct {
	PatientCode string  `json:"patientCode"`
	Modality    string  `json:"modality"`
	StudyType   *string `json:"studyType"`
	BodyPart    *string `json:"bodyPart"`
	Priority    string  `json:"priority"`
	Notes       *string `json:"notes"`
}

func (s *Service) Create(ctx context.Context, orderedBy uuid.UUID, in CreateInput) (*RadiologyOrder, error) {
	if in.PatientCode == "" {
		return nil, apperr.Validation("patientCode is required")
	}
	mod := strings.ToLower(strings.TrimSpace(in.Modality))
	if mod == "" {
		return nil, apperr.Validation("modality is required")
	}
	if !validModalities[mod] {
		return nil, apperr.Validation("invalid modality: %s", in.Modality)
	}
	if in.Priority == "" {
		in.Priority = PriorityRoutine
	}
	if in.Priority != PriorityRoutine && in.Priority != PriorityUrgent {
		return nil, apperr.Validation("invalid priority: %s", in.Priority)
	}

	patientID, _, err := s.patients.FindPatientByCode(ctx, in.PatientCode)
	if err != nil {
		return nil, err
	}

	code, err := codes.Unique(ctx, func() string {
		return s.codes.Base36("RAD", codeChars, 3)
	}, s.repo.CodeExists)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	o := &RadiologyOrder{
		Code:      code,
		PatientID: patientID,
		OrderedBy: orderedBy,
		DoctorID:  &orderedBy,
		Modality:  mod,
		StudyType: in.StudyType,
		BodyPart:  in.BodyPart,
		Priority:  in.Priority,
		Status:    StatusOrdered,
		Notes:     in.Notes,
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, apperr.Internal(err)
	}
	return o, nil
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*RadiologyOrder, int, error) {
	orders, total, err := s.repo.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return orders, total, nil
}

// Get resolves the reference as an order id when it parses as a uuid,
// otherwise as a human code.
func (s *Service) Get(ctx context.Context, ref string) (*RadiologyOrder, error) {
	var o *RadiologyOrder
	var err error
	if id, perr := uuid.Parse(ref); perr == nil {
		o, err = s.repo.GetByID(ctx, id)
	} else {
		o, err = s.repo.GetByCode(ctx, ref)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("radiology order %s not found", ref)
		}
		return nil, apperr.Internal(err)
	}
	return o, nil
}

func (s *Service) getByCode(ctx context.Context, code string) (*RadiologyOrder, error) {
	o, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("radiology order %s not found", code)
		}
		return nil, apperr.Internal(err)
	}
	return o, nil
}

// UpdateStatus moves the order to the requested status. Entering in-progress
// stamps startedAt; entering completed stamps completedAt.
func (s *Service) UpdateStatus(ctx context.Context, code string, updatedBy uuid.UUID, status string) (*RadiologyOrder, error) {
	if !validStatuses[status] {
		return nil, apperr.Validation("invalid status: %s", status)
	}
	o, err := s.getByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	o.Status = status
	switch status {
	case StatusInProgress:
		o.StartedAt = &now
	case StatusCompleted:
		o.CompletedAt = &now
	}
	o.UpdatedBy = &updatedBy
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, apperr.Internal(err)
	}
	return o, nil
}

// Schedule books the study for a concrete time and forces the order into the
// scheduled status.
func (s *Service) Schedule(ctx context.Context, code string, updatedBy uuid.UUID, scheduledAt *time.Time) (*RadiologyOrder, error) {
	if scheduledAt == nil {
		return nil, apperr.Validation("scheduledAt is required")
	}
	o, err := s.getByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	o.ScheduledAt = scheduledAt
	o.Status = StatusScheduled
	o.UpdatedBy = &updatedBy
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, apperr.Internal(err)
	}
	return o, nil
}

// AssignSelf claims the order for the calling radiologist. Re-claiming your
// own assignment is a no-op; an order held by someone else conflicts.
func (s *Service) AssignSelf(ctx context.Context, code string, radiologistID uuid.UUID) (*RadiologyOrder, error) {
	ok, err := s.repo.Assign(ctx, code, radiologistID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if ok {
		return s.getByCode(ctx, code)
	}
	if _, err := s.getByCode(ctx, code); err != nil {
		return nil, err
	}
	return nil, apperr.Conflict("radiology order %s is assigned to another radiologist", code)
}

type SubmitReportInput struct {
	ReportText  *string      `json:"reportText"`
	Findings    *string      `json:"findings"`
	Impression  *string      `json:"impression"`
	Attachments []Attachment `json:"attachments"`
	Notes       *string      `json:"notes"`
}

// SubmitReport files the report and completes the order. The submitter
// becomes performedBy regardless of any earlier assignment.
func (s *Service) SubmitReport(ctx context.Context, code string, radiologistID uuid.UUID, in SubmitReportInput) (*RadiologyOrder, error) {
	o, err := s.getByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	o.PerformedBy = &radiologistID
	o.Status = StatusCompleted
	o.CompletedAt = &now
	if in.ReportText != nil {
		o.ReportText = in.ReportText
	}
	if in.Findings != nil {
		o.Findings = in.Findings
	}
	if in.Impression != nil {
		o.Impression = in.Impression
	}
	if in.Attachments != nil {
		o.Attachments = in.Attachments
	}
	if in.Notes != nil {
		o.Notes = in.Notes
	}
	o.UpdatedBy = &radiologistID
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, apperr.Internal(err)
	}
	return o, nil
}

// Delete removes an order. Completed orders are kept for the record and
// refuse deletion.
func (s *Service) Delete(ctx context.Context, code string) error {
	deleted, existed, err := s.repo.Delete(ctx, code)
	if err != nil {
		return apperr.Internal(err)
	}
	if deleted {
		return nil
	}
	if !existed {
		return apperr.NotFound("radiology order %s not found", code)
	}
	return apperr.Conflict("radiology order %s is completed and cannot be deleted", code)
}
