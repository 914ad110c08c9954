package prescription

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending   = "pending"
	StatusPartial   = "partial"
	StatusDispensed = "dispensed"
	StatusCancelled = "cancelled"
)

// Item is one prescribed medication line. Quantity nil means the prescribed
// amount is unknown; such a line can accumulate dispenses without a cap and
// never counts as fully dispensed.
type Item struct {
	MedicationID      uuid.UUID `json:"medicationId"`
	MedicationName    string    `json:"medicationName"`
	Dosage            string    `json:"dosage,omitempty"`
	Frequency         string    `json:"frequency,omitempty"`
	DurationDays      int       `json:"durationDays,omitempty"`
	Quantity          *int      `json:"quantity,omitempty"`
	DispensedQuantity int       `json:"dispensedQuantity"`
	Notes             string    `json:"notes,omitempty"`
}

// Prescription maps to the prescriptions table; items live in a jsonb column.
type Prescription struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Code        string     `db:"code" json:"code"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patientId"`
	DoctorID    uuid.UUID  `db:"doctor_id" json:"doctorId"`
	Items       []Item     `db:"items" json:"items"`
	Status      string     `db:"status" json:"status"`
	Notes       *string    `db:"notes" json:"notes,omitempty"`
	DispensedAt *time.Time `db:"dispensed_at" json:"dispensedAt,omitempty"`
	DispensedBy *uuid.UUID `db:"dispensed_by" json:"dispensedBy,omitempty"`
	CreatedBy   uuid.UUID  `db:"created_by" json:"createdBy"`
	UpdatedBy   *uuid.UUID `db:"updated_by" json:"updatedBy,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

// deriveStatus recomputes the fulfilment status from the items. Cancelled is
// sticky and never produced here; callers keep it once set.
func deriveStatus(items []Item) string {
	if len(items) == 0 {
		return StatusPending
	}
	full := true
	any := false
	for _, it := range items {
		if it.DispensedQuantity > 0 {
			any = true
		}
		if it.Quantity == nil || it.DispensedQuantity < *it.Quantity {
			full = false
		}
	}
	switch {
	case full:
		return StatusDispensed
	case any:
		return StatusPartial
	default:
		return StatusPending
	}
}
