package prescription

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

type ItemInput struct {
	MedicationID   uuid.UUID `json:"medicationId"`
	MedicationName string    `json:"medicationName"`
	Dosage         string    `json:"dosage"`
	Frequency      string    `json:"frequency"`
	DurationDays   int       `json:"durationDays"`
	Quantity       *int      `json:"quantity"`
	Notes          string    `json:"notes"`
}

type CreateInput struct {
	PatientCode string      `json:"patientCode"`
	Items       []ItemInput `json:"items"`
	Notes       *string     `json:"notes"`
}

func (s *Service) Create(ctx context.Context, doctorID uuid.UUID, in CreateInput) (*Prescription, error) {
	if in.PatientCode == "" {
		return nil, apperr.Validation("patientCode is required")
	}
	if len(in.Items) == 0 {
		return nil, apperr.Validation("at least one item is required")
	}
	items := make([]Item, 0, len(in.Items))
	for i, it := range in.Items {
		if strings.TrimSpace(it.MedicationName) == "" {
			return nil, apperr.Validation("items[%d].medicationName is required", i)
		}
		if it.Quantity != nil && *it.Quantity <= 0 {
			return nil, apperr.Validation("items[%d].quantity must be positive", i)
		}
		items = append(items, Item{
			MedicationID:   it.MedicationID,
			MedicationName: strings.TrimSpace(it.MedicationName),
			Dosage:         it.Dosage,
			Frequency:      it.Frequency,
			DurationDays:   it.DurationDays,
			Quantity:       it.Quantity,
			Notes:          it.Notes,
		})
	}

	patientID, _, err := s.patients.FindPatientByCode(ctx, in.PatientCode)
	if err != nil {
		return nil, err
	}

	code, err := codes.Unique(ctx, func() string {
		return s.codes.Numeric("RX", codeDigits)
	}, s.repo.CodeExists)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	p := &Prescription{
		Code:      code,
		PatientID: patientID,
		DoctorID:  doctorID,
		Items:     items,
		Status:    deriveStatus(items),
		Notes:     in.Notes,
		CreatedBy: doctorID,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apperr.Internal(err)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Prescription, int, error) {
	out, total, err := s.repo.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return out, total, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (*Prescription, error) {
	p, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("prescription %s not found", code)
		}
		return nil, apperr.Internal(err)
	}
	return p, nil
}

type DispenseItem struct {
	MedicationID uuid.UUID `json:"medicationId"`
	Quantity     int       `json:"quantity"`
}

type DispenseInput struct {
	Items []DispenseItem `json:"items"`
}

// Dispense records what the pharmacist handed out. Dispensed amounts
// accumulate per line, capped at the prescribed quantity when one is known.
// Requests naming a medication not on the prescription are ignored. Stock
// levels are not touched here.
func (s *Service) Dispense(ctx context.Context, code string, pharmacistID uuid.UUID, in DispenseInput) (*Prescription, error) {
	if len(in.Items) == 0 {
		return nil, apperr.Validation("at least one dispense item is required")
	}
	p, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if p.Status == StatusCancelled {
		return nil, apperr.Conflict("prescription %s is cancelled", code)
	}

	for _, req := range in.Items {
		if req.Quantity <= 0 {
			continue
		}
		for i := range p.Items {
			if p.Items[i].MedicationID != req.MedicationID {
				continue
			}
			p.Items[i].DispensedQuantity += req.Quantity
			if q := p.Items[i].Quantity; q != nil && p.Items[i].DispensedQuantity > *q {
				p.Items[i].DispensedQuantity = *q
			}
		}
	}

	now := time.Now()
	p.Status = deriveStatus(p.Items)
	p.DispensedAt = &now
	p.DispensedBy = &pharmacistID
	p.UpdatedBy = &pharmacistID
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, apperr.Internal(err)
	}
	return p, nil
}

// Cancel marks the prescription cancelled. The status sticks; later updates
// never recompute it away.
func (s *Service) Cancel(ctx context.Context, code string, callerID uuid.UUID) (*Prescription, error) {
	p, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if p.Status == StatusCancelled {
		return p, nil
	}
	p.Status = StatusCancelled
	p.UpdatedBy = &callerID
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, apperr.Internal(err)
	}
	return p, nil
}

type UpdateInput struct {
	Items *[]ItemInput `json:"items"`
	Notes *string      `json:"notes"`
}

// Update is the authoring doctor's patch. Replacing the items resets their
// dispensed counters and recomputes status unless the prescription is
// cancelled.
func (s *Service) Update(ctx context.Context, code string, doctorID uuid.UUID, in UpdateInput) (*Prescription, error) {
	p, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if in.Items != nil {
		if len(*in.Items) == 0 {
			return nil, apperr.Validation("at least one item is required")
		}
		items := make([]Item, 0, len(*in.Items))
		for i, it := range *in.Items {
			if strings.TrimSpace(it.MedicationName) == "" {
				return nil, apperr.Validation("items[%d].medicationName is required", i)
			}
			items = append(items, Item{
				MedicationID:   it.MedicationID,
				MedicationName: strings.TrimSpace(it.MedicationName),
				Dosage:         it.Dosage,
				Frequency:      it.Frequency,
				DurationDays:   it.DurationDays,
				Quantity:       it.Quantity,
				Notes:          it.Notes,
			})
		}
		p.Items = items
	}
	if in.Notes != nil {
		p.Notes = in.Notes
	}
	if p.Status != StatusCancelled {
		p.Status = deriveStatus(p.Items)
	}
	p.UpdatedBy = &doctorID
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, apperr.Internal(err)
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, code string) error {
	ok, err := s.repo.Delete(ctx, code)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.NotFound("prescription %s not found", code)
	}
	return nil
}
