package appointment

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

var validStatuses = map[string]bool{
	StatusPending: true, StatusConfirmed: true, StatusCancelled: true, StatusCompleted: true,
}

// Appointment maps to the appointments table. DoctorID stays NULL for
// department-only walk-ins until a doctor assigns themselves.
type Appointment struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	PatientID    uuid.UUID  `db:"patient_id" json:"patientId"`
	DoctorID     *uuid.UUID `db:"doctor_id" json:"doctorId,omitempty"`
	DepartmentID *uuid.UUID `db:"department_id" json:"departmentId,omitempty"`
	Reason       string     `db:"reason" json:"reason"`
	ScheduledAt  time.Time  `db:"scheduled_at" json:"scheduledAt"`
	Status       string     `db:"status" json:"status"`
	Notes        *string    `db:"notes" json:"notes,omitempty"`
	CreatedBy    uuid.UUID  `db:"created_by" json:"createdBy"`
	UpdatedBy    *uuid.UUID `db:"updated_by" json:"updatedBy,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// PatientSummary is the roster row returned by a doctor's patient listing.
type PatientSummary struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	FirstName string    `db:"first_name" json:"firstName"`
	LastName  string    `db:"last_name" json:"lastName"`
}
