package nursing

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeVitals      = "vitals"
	TypeObservation = "observation"
	TypeMedication  = "medication"
)

const (
	StatusDraft     = "draft"
	StatusFinal     = "final"
	StatusCancelled = "cancelled"
)

var validStatuses = map[string]bool{
	StatusDraft: true, StatusFinal: true, StatusCancelled: true,
}

// NursingRecord maps to the nursing_records table. Data is an opaque payload
// whose shape depends on the record type; the server stores it verbatim.
type NursingRecord struct {
	ID        uuid.UUID              `db:"id" json:"id"`
	Code      string                 `db:"code" json:"code"`
	PatientID uuid.UUID              `db:"patient_id" json:"patientId"`
	NurseID   uuid.UUID              `db:"nurse_id" json:"nurseId"`
	Type      string                 `db:"type" json:"type"`
	Data      map[string]interface{} `db:"data" json:"data"`
	Status    string                 `db:"status" json:"status"`
	CreatedAt time.Time              `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time              `db:"updated_at" json:"updatedAt"`
}
