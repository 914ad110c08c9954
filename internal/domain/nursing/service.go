package nursing

import (
	"context"
	"errors"
	"strings"

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

type RecordInput struct {
	PatientCode string                 `json:"patientCode"`
	Data        map[string]interface{} `json:"data"`
	Status      string                 `json:"status"`
}

func (s *Service) create(ctx context.Context, nurseID uuid.UUID, recordType string, in RecordInput) (*NursingRecord, error) {
	if in.PatientCode == "" {
		return nil, apperr.Validation("patientCode is required")
	}
	if in.Status == "" {
		in.Status = StatusFinal
	}
	if !validStatuses[in.Status] {
		return nil, apperr.Validation("invalid status: %s", in.Status)
	}

	patientID, _, err := s.patients.FindPatientByCode(ctx, in.PatientCode)
	if err != nil {
		return nil, err
	}

	code, err := codes.Unique(ctx, func() string {
		return s.codes.Numeric("NR", codeDigits)
	}, s.repo.CodeExists)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	rec := &NursingRecord{
		Code:      code,
		PatientID: patientID,
		NurseID:   nurseID,
		Type:      recordType,
		Data:      in.Data,
		Status:    in.Status,
	}
	if rec.Data == nil {
		rec.Data = map[string]interface{}{}
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, apperr.Internal(err)
	}
	return rec, nil
}

func (s *Service) RecordVitals(ctx context.Context, nurseID uuid.UUID, in RecordInput) (*NursingRecord, error) {
	return s.create(ctx, nurseID, TypeVitals, in)
}

func (s *Service) AddObservation(ctx context.Context, nurseID uuid.UUID, in RecordInput) (*NursingRecord, error) {
	return s.create(ctx, nurseID, TypeObservation, in)
}

// AdministerMedication records a medication entry. The payload must identify
// the medication by code or name; everything else in it stays opaque.
func (s *Service) AdministerMedication(ctx context.Context, nurseID uuid.UUID, in RecordInput) (*NursingRecord, error) {
	if !hasMedicationRef(in.Data) {
		return nil, apperr.Validation("medicationCode or medicationName is required")
	}
	return s.create(ctx, nurseID, TypeMedication, in)
}

func hasMedicationRef(data map[string]interface{}) bool {
	for _, key := range []string{"medicationCode", "medicationName"} {
		if v, ok := data[key].(string); ok && strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*NursingRecord, int, error) {
	out, total, err := s.repo.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return out, total, nil
}

// Get resolves the reference as a record id when it parses as a uuid,
// otherwise as an NR code.
func (s *Service) Get(ctx context.Context, ref string) (*NursingRecord, error) {
	var rec *NursingRecord
	var err error
	if id, perr := uuid.Parse(ref); perr == nil {
		rec, err = s.repo.GetByID(ctx, id)
	} else {
		rec, err = s.repo.GetByCode(ctx, ref)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("nursing record %s not found", ref)
		}
		return nil, apperr.Internal(err)
	}
	return rec, nil
}

// Delete removes a record regardless of status.
func (s *Service) Delete(ctx context.Context, code string) error {
	ok, err := s.repo.Delete(ctx, code)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.NotFound("nursing record %s not found", code)
	}
	return nil
}
