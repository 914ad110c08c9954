package pharmacy

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// StockItem maps to the pharmacy_stock table. Code is immutable once
// assigned; (name, batchNumber) is unique.
type StockItem struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	Code            string     `db:"code" json:"code"`
	Name            string     `db:"name" json:"name"`
	GenericName     *string    `db:"generic_name" json:"genericName,omitempty"`
	BatchNumber     string     `db:"batch_number" json:"batchNumber"`
	DosageForm      string     `db:"dosage_form" json:"dosageForm"`
	Strength        string     `db:"strength" json:"strength"`
	QuantityInStock int        `db:"quantity_in_stock" json:"quantityInStock"`
	Unit            *string    `db:"unit" json:"unit,omitempty"`
	UnitPrice       *float64   `db:"unit_price" json:"unitPrice,omitempty"`
	ExpiryDate      time.Time  `db:"expiry_date" json:"expiryDate"`
	Manufacturer    *string    `db:"manufacturer" json:"manufacturer,omitempty"`
	ReorderLevel    int        `db:"reorder_level" json:"reorderLevel"`
	Status          string     `db:"status" json:"status"`
	Notes           *string    `db:"notes" json:"notes,omitempty"`
	CreatedBy       uuid.UUID  `db:"created_by" json:"createdBy"`
	UpdatedBy       *uuid.UUID `db:"updated_by" json:"updatedBy,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`
}

// IsLowStock reports whether the item sits at or under its reorder level.
// Items with no reorder level configured never count as low.
func (s *StockItem) IsLowStock() bool {
	return s.ReorderLevel > 0 && s.QuantityInStock <= s.ReorderLevel
}
