package radiology

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusOrdered    = "ordered"
	StatusScheduled  = "scheduled"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

var validStatuses = map[string]bool{
	StatusOrdered: true, StatusScheduled: true, StatusInProgress: true,
	StatusCompleted: true, StatusCancelled: true,
}

const (
	PriorityRoutine = "routine"
	PriorityUrgent  = "urgent"
)

var validModalities = map[string]bool{
	"xray": true, "ct": true, "mri": true, "ultrasound": true,
	"mammo": true, "pet": true, "other": true,
}

// Attachment is an external artifact reference (image URL, DICOM link).
type Attachment struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// RadiologyOrder maps to the radiology_orders table.
type RadiologyOrder struct {
	ID          uuid.UUID    `db:"id" json:"id"`
	Code        string       `db:"code" json:"code"`
	PatientID   uuid.UUID    `db:"patient_id" json:"patientId"`
	OrderedBy   uuid.UUID    `db:"ordered_by" json:"orderedBy"`
	DoctorID    *uuid.UUID   `db:"doctor_id" json:"doctorId,omitempty"`
	PerformedBy *uuid.UUID   `db:"performed_by" json:"performedBy,omitempty"`
	Modality    string       `db:"modality" json:"modality"`
	StudyType   *string      `db:"study_type" json:"studyType,omitempty"`
	BodyPart    *string      `db:"body_part" json:"bodyPart,omitempty"`
	Priority    string       `db:"priority" json:"priority"`
	Status      string       `db:"status" json:"status"`
	ScheduledAt *time.Time   `db:"scheduled_at" json:"scheduledAt,omitempty"`
	StartedAt   *time.Time   `db:"started_at" json:"startedAt,omitempty"`
	CompletedAt *time.Time   `db:"completed_at" json:"completedAt,omitempty"`
	ReportText  *string      `db:"report_text" json:"reportText,omitempty"`
	Findings    *string      `db:"findings" json:"findings,omitempty"`
	Impression  *string      `db:"impression" json:"impression,omitempty"`
	Attachments []Attachment `db:"attachments" json:"attachments,omitempty"`
	Notes       *string      `db:"notes" json:"notes,omitempty"`
	UpdatedBy   *uuid.UUID   `db:"updated_by" json:"updatedBy,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updatedAt"`
}
