package availability

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusAvailable = "available"
	StatusBooked    = "booked"
)

// Slot maps to the availability_slots table. A slot is a doctor-published
// time window; booking flips it to booked exactly once and it never reverts.
type Slot struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctorId"`
	StartTime time.Time `db:"start_time" json:"startTime"`
	EndTime   time.Time `db:"end_time" json:"endTime"`
	Status    string    `db:"status" json:"status"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
