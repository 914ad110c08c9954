package lab

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/platform/codes"
	"github.com/clinicore/clinicore/pkg/apperr"
)

const codeDigits = 6

type Service struct {
	repo     Repository
	patients PatientDirectory
	codes    *codes.Generator
}

func NewService(repo Repository, patients PatientDirectory, gen *codes.Generator) *Service {
	return &Service{repo: repo, patients: patients, codes: gen}
}

type OrderInput struct {
	PatientCode  string  `json:"patientCode"`
	PatientName  *string `json:"patientName"`
	TestType     string  `json:"testType"`
	SpecimenType *string `json:"specimenType"`
	Priority     string  `json:"priority"`
	Notes        *string `json:"notes"`
}

// Order creates a lab test for the patient addressed by human code. When the
// caller also names the patient, the name must match the resolved account;
// the error names who was actually found so the mismatch is visible.
func (s *Service) Order(ctx context.Context, orderedBy uuid.UUID, in OrderInput) (*LabTest, error) {
	if strings.TrimSpace(in.TestType) == "" {
		return nil, apperr.Validation("testType is required")
	}
	if in.PatientCode == "" {
		return nil, apperr.Validation("patientCode is required")
	}
	if in.Priority == "" {
		in.Priority = PriorityRoutine
	}
	if in.Priority != PriorityRoutine && in.Priority != PriorityUrgent {
		return nil, apperr.Validation("invalid priority: %s", in.Priority)
	}

	patientID, fullName, err := s.patients.FindPatientByCode(ctx, in.PatientCode)
	if err != nil {
		return nil, err
	}
	if in.PatientName != nil && *in.PatientName != "" {
		if !strings.Contains(strings.ToLower(fullName), strings.ToLower(strings.TrimSpace(*in.PatientName))) {
			return nil, apperr.Validation("patient name does not match: %s belongs to %s", in.PatientCode, fullName)
		}
	}

	code, err := codes.Unique(ctx, func() string {
		return s.codes.Numeric("LAB", codeDigits)
	}, s.repo.CodeExists)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	t := &LabTest{
		Code:         code,
		PatientID:    patientID,
		OrderedBy:    orderedBy,
		DoctorID:     &orderedBy,
		TestType:     strings.TrimSpace(in.TestType),
		SpecimenType: in.SpecimenType,
		Priority:     in.Priority,
		Status:       StatusOrdered,
		OrderedAt:    time.Now(),
		Notes:        in.Notes,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, apperr.Internal(err)
	}
	return t, nil
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*LabTest, int, error) {
	tests, total, err := s.repo.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return tests, total, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (*LabTest, error) {
	t, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("lab test %s not found", code)
		}
		return nil, apperr.Internal(err)
	}
	return t, nil
}

// Claim assigns the test to the calling technician. Re-claiming your own
// assignment succeeds and keeps the original claim time; a test held by
// another technician conflicts.
func (s *Service) Claim(ctx context.Context, code string, techID uuid.UUID) (*LabTest, error) {
	ok, err := s.repo.Claim(ctx, code, techID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if ok {
		return s.GetByCode(ctx, code)
	}
	t, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if t.AssignedTechnician != nil && *t.AssignedTechnician != techID {
		return nil, apperr.Conflict("lab test %s is claimed by another technician", code)
	}
	return nil, apperr.Conflict("lab test %s cannot be claimed in status %s", code, t.Status)
}

// Start moves the caller's claimed test to in_progress.
func (s *Service) Start(ctx context.Context, code string, techID uuid.UUID) (*LabTest, error) {
	ok, err := s.repo.Start(ctx, code, techID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if ok {
		return s.GetByCode(ctx, code)
	}
	t, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if t.AssignedTechnician == nil || *t.AssignedTechnician != techID {
		return nil, apperr.Forbidden("lab test %s is not assigned to you", code)
	}
	return nil, apperr.Conflict("lab test %s cannot start in status %s", code, t.Status)
}

type SubmitResultsInput struct {
	Results Results `json:"results"`
	Notes   *string `json:"notes"`
}

// SubmitResults completes the caller's test and stores the results payload.
func (s *Service) SubmitResults(ctx context.Context, code string, techID uuid.UUID, in SubmitResultsInput) (*LabTest, error) {
	ok, err := s.repo.Complete(ctx, code, techID, &in.Results, in.Notes)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if ok {
		return s.GetByCode(ctx, code)
	}
	t, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if t.AssignedTechnician == nil || *t.AssignedTechnician != techID {
		return nil, apperr.Forbidden("lab test %s is not assigned to you", code)
	}
	return nil, apperr.Conflict("lab test %s cannot complete in status %s", code, t.Status)
}

// Cancel aborts a test that has not finished. When a technician holds the
// assignment only that technician may cancel.
func (s *Service) Cancel(ctx context.Context, code string, callerID uuid.UUID) (*LabTest, error) {
	t, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if t.Status == StatusCompleted || t.Status == StatusCancelled {
		return nil, apperr.Conflict("lab test %s is already %s", code, t.Status)
	}
	if t.AssignedTechnician != nil && *t.AssignedTechnician != callerID {
		return nil, apperr.Forbidden("lab test %s is assigned to another technician", code)
	}
	ok, err := s.repo.Cancel(ctx, code)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		return nil, apperr.Conflict("lab test %s is already finished", code)
	}
	return s.GetByCode(ctx, code)
}

// UpdateInput is the doctor-side maintenance patch. It writes fields
// directly, outside the technician state machine.
type UpdateInput struct {
	TestType     *string  `json:"testType"`
	SpecimenType *string  `json:"specimenType"`
	Priority     *string  `json:"priority"`
	Status       *string  `json:"status"`
	Results      *Results `json:"results"`
	Notes        *string  `json:"notes"`
}

func (s *Service) Update(ctx context.Context, code string, updatedBy uuid.UUID, in UpdateInput) (*LabTest, error) {
	t, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if in.TestType != nil {
		t.TestType = *in.TestType
	}
	if in.SpecimenType != nil {
		t.SpecimenType = in.SpecimenType
	}
	if in.Priority != nil {
		if *in.Priority != PriorityRoutine && *in.Priority != PriorityUrgent {
			return nil, apperr.Validation("invalid priority: %s", *in.Priority)
		}
		t.Priority = *in.Priority
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.Results != nil {
		t.Results = in.Results
	}
	if in.Notes != nil {
		t.Notes = in.Notes
	}
	t.UpdatedBy = &updatedBy
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, apperr.Internal(err)
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, code string) error {
	ok, err := s.repo.Delete(ctx, code)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.NotFound("lab test %s not found", code)
	}
	return nil
}
