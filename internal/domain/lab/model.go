package lab

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusOrdered    = "ordered"
	StatusClaimed    = "claimed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

const (
	PriorityRoutine = "routine"
	PriorityUrgent  = "urgent"
)

// ResultValue is one analyte row in a lab result.
type ResultValue struct {
	Label          string `json:"label"`
	Value          string `json:"value"`
	Unit           string `json:"unit,omitempty"`
	ReferenceRange string `json:"referenceRange,omitempty"`
}

// Results is the payload a technician submits on completion. Stored as JSONB.
type Results struct {
	Summary     *string       `json:"summary,omitempty"`
	Values      []ResultValue `json:"values,omitempty"`
	Attachments []string      `json:"attachments,omitempty"`
}

// LabTest maps to the lab_tests table. The code is the external addressing
// key; a technician holds the assignment exclusively from claim onwards.
type LabTest struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	Code               string     `db:"code" json:"code"`
	PatientID          uuid.UUID  `db:"patient_id" json:"patientId"`
	OrderedBy          uuid.UUID  `db:"ordered_by" json:"orderedBy"`
	DoctorID           *uuid.UUID `db:"doctor_id" json:"doctorId,omitempty"`
	AssignedTechnician *uuid.UUID `db:"assigned_technician" json:"assignedTechnician,omitempty"`
	TestType           string     `db:"test_type" json:"testType"`
	SpecimenType       *string    `db:"specimen_type" json:"specimenType,omitempty"`
	Priority           string     `db:"priority" json:"priority"`
	Status             string     `db:"status" json:"status"`
	OrderedAt          time.Time  `db:"ordered_at" json:"orderedAt"`
	ClaimedAt          *time.Time `db:"claimed_at" json:"claimedAt,omitempty"`
	StartedAt          *time.Time `db:"started_at" json:"startedAt,omitempty"`
	CompletedAt        *time.Time `db:"completed_at" json:"completedAt,omitempty"`
	CancelledAt        *time.Time `db:"cancelled_at" json:"cancelledAt,omitempty"`
	Results            *Results   `db:"results" json:"results,omitempty"`
	Notes              *string    `db:"notes" json:"notes,omitempty"`
	UpdatedBy          *uuid.UUID `db:"updated_by" json:"updatedBy,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updatedAt"`
}
