package pharmacy

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
	repo  Repository
	codes *codes.Generator
}

func NewService(repo Repository, gen *codes.Generator) *Service {
	return &Service{repo: repo, codes: gen}
}

type CreateItemInput struct {
	Name            string     `json:"name"`
	GenericName     *string    `json:"genericName"`
	BatchNumber     string     `json:"batchNumber"`
	DosageForm      string     `json:"dosageForm"`
	Strength        string     `json:"strength"`
	QuantityInStock int        `json:"quantityInStock"`
	Unit            *string    `json:"unit"`
	UnitPrice       *float64   `json:"unitPrice"`
	ExpiryDate      *time.Time `json:"expiryDate"`
	Manufacturer    *string    `json:"manufacturer"`
	ReorderLevel    int        `json:"reorderLevel"`
	Notes           *string    `json:"notes"`
}

func (s *Service) CreateItem(ctx context.Context, createdBy uuid.UUID, in CreateItemInput) (*StockItem, error) {
	required := []struct{ field, val string }{
		{"name", in.Name},
		{"batchNumber", in.BatchNumber},
		{"dosageForm", in.DosageForm},
		{"strength", in.Strength},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			return nil, apperr.Validation("%s is required", r.field)
		}
	}
	if in.ExpiryDate == nil {
		return nil, apperr.Validation("expiryDate is required")
	}
	if in.QuantityInStock < 0 {
		return nil, apperr.Validation("quantityInStock cannot be negative")
	}

	code, err := codes.Unique(ctx, func() string {
		return s.codes.Base36("MED", codeChars, 3)
	}, s.repo.CodeExists)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	item := &StockItem{
		Code:            code,
		Name:            strings.TrimSpace(in.Name),
		GenericName:     in.GenericName,
		BatchNumber:     strings.TrimSpace(in.BatchNumber),
		DosageForm:      strings.TrimSpace(in.DosageForm),
		Strength:        strings.TrimSpace(in.Strength),
		QuantityInStock: in.QuantityInStock,
		Unit:            in.Unit,
		UnitPrice:       in.UnitPrice,
		ExpiryDate:      *in.ExpiryDate,
		Manufacturer:    in.Manufacturer,
		ReorderLevel:    in.ReorderLevel,
		Status:          StatusActive,
		Notes:           in.Notes,
		CreatedBy:       createdBy,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, apperr.Conflict("batch %s of %s already exists", item.BatchNumber, item.Name)
		}
		return nil, apperr.Internal(err)
	}
	return item, nil
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*StockItem, int, error) {
	if f.Status == "" {
		f.Status = StatusActive
	}
	items, total, err := s.repo.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return items, total, nil
}

// Get resolves the reference as a stock id when it parses as a uuid,
// otherwise as a MED code.
func (s *Service) Get(ctx context.Context, ref string) (*StockItem, error) {
	var item *StockItem
	var err error
	if id, perr := uuid.Parse(ref); perr == nil {
		item, err = s.repo.GetByID(ctx, id)
	} else {
		item, err = s.repo.GetByCode(ctx, ref)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("stock item %s not found", ref)
		}
		return nil, apperr.Internal(err)
	}
	return item, nil
}

type UpdateItemInput struct {
	Name         *string    `json:"name"`
	GenericName  *string    `json:"genericName"`
	BatchNumber  *string    `json:"batchNumber"`
	DosageForm   *string    `json:"dosageForm"`
	Strength     *string    `json:"strength"`
	Unit         *string    `json:"unit"`
	UnitPrice    *float64   `json:"unitPrice"`
	ExpiryDate   *time.Time `json:"expiryDate"`
	Manufacturer *string    `json:"manufacturer"`
	ReorderLevel *int       `json:"reorderLevel"`
	Status       *string    `json:"status"`
	Notes        *string    `json:"notes"`
}

func (s *Service) UpdateItem(ctx context.Context, id uuid.UUID, updatedBy uuid.UUID, in UpdateItemInput) (*StockItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("stock item %s not found", id)
		}
		return nil, apperr.Internal(err)
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, apperr.Validation("name cannot be empty")
		}
		item.Name = strings.TrimSpace(*in.Name)
	}
	if in.GenericName != nil {
		item.GenericName = in.GenericName
	}
	if in.BatchNumber != nil {
		if strings.TrimSpace(*in.BatchNumber) == "" {
			return nil, apperr.Validation("batchNumber cannot be empty")
		}
		item.BatchNumber = strings.TrimSpace(*in.BatchNumber)
	}
	if in.DosageForm != nil {
		item.DosageForm = *in.DosageForm
	}
	if in.Strength != nil {
		item.Strength = *in.Strength
	}
	if in.Unit != nil {
		item.Unit = in.Unit
	}
	if in.UnitPrice != nil {
		item.UnitPrice = in.UnitPrice
	}
	if in.ExpiryDate != nil {
		item.ExpiryDate = *in.ExpiryDate
	}
	if in.Manufacturer != nil {
		item.Manufacturer = in.Manufacturer
	}
	if in.ReorderLevel != nil {
		item.ReorderLevel = *in.ReorderLevel
	}
	if in.Status != nil {
		if *in.Status != StatusActive && *in.Status != StatusInactive {
			return nil, apperr.Validation("invalid status: %s", *in.Status)
		}
		item.Status = *in.Status
	}
	if in.Notes != nil {
		item.Notes = in.Notes
	}
	item.UpdatedBy = &updatedBy
	if err := s.repo.Update(ctx, item); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, apperr.Conflict("batch %s of %s already exists", item.BatchNumber, item.Name)
		}
		return nil, apperr.Internal(err)
	}
	return item, nil
}

// Restock adds delivered quantity to an item.
func (s *Service) Restock(ctx context.Context, id uuid.UUID, amount int) (*StockItem, error) {
	if amount <= 0 {
		return nil, apperr.Validation("amount must be positive")
	}
	ok, err := s.repo.AdjustStock(ctx, id, amount)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		return nil, apperr.NotFound("stock item %s not found", id)
	}
	return s.Get(ctx, id.String())
}

// DecrementStock takes amount out of an item. The repo refuses to go below
// zero in a single conditional update, so concurrent decrements cannot
// oversell the shelf.
func (s *Service) DecrementStock(ctx context.Context, id uuid.UUID, amount int) (*StockItem, error) {
	if amount <= 0 {
		return nil, apperr.Validation("amount must be positive")
	}
	ok, err := s.repo.DecrementStock(ctx, id, amount)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		return nil, apperr.Conflict("insufficient stock or item not found")
	}
	return s.Get(ctx, id.String())
}
