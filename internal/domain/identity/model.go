package identity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of account roles. Authorization fails closed: a role
// string that does not parse never passes a gate.
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleDoctor        Role = "doctor"
	RoleNurse         Role = "nurse"
	RolePatient       Role = "patient"
	RolePharmacist    Role = "pharmacist"
	RoleLabTechnician Role = "labTechnician"
	RoleReceptionist  Role = "receptionist"
	RoleRadiologist   Role = "radiologist"
)

var allRoles = map[Role]bool{
	RoleAdmin: true, RoleDoctor: true, RoleNurse: true, RolePatient: true,
	RolePharmacist: true, RoleLabTechnician: true, RoleReceptionist: true,
	RoleRadiologist: true,
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !allRoles[r] {
		return "", fmt.Errorf("unknown role: %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool { return allRoles[r] }

func (r Role) String() string { return string(r) }

// Prefix returns the human-code prefix stamped on accounts of this role.
func (r Role) Prefix() string {
	switch r {
	case RoleDoctor:
		return "DOC"
	case RolePatient:
		return "PAT"
	case RoleNurse:
		return "NUR"
	case RoleAdmin:
		return "ADM"
	case RoleLabTechnician:
		return "LAB"
	case RolePharmacist:
		return "PHA"
	case RoleReceptionist:
		return "REC"
	case RoleRadiologist:
		return "RAD"
	default:
		return "USR"
	}
}

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// User maps to the users table.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Code         string     `db:"code" json:"code"`
	FirstName    string     `db:"first_name" json:"firstName"`
	LastName     string     `db:"last_name" json:"lastName"`
	Email        string     `db:"email" json:"email"`
	Phone        string     `db:"phone" json:"phone"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         Role       `db:"role" json:"role"`
	Gender       *string    `db:"gender" json:"gender,omitempty"`
	DateOfBirth  *time.Time `db:"date_of_birth" json:"dateOfBirth,omitempty"`
	Address      *string    `db:"address" json:"address,omitempty"`

	// Doctor profile.
	Department     *string `db:"department" json:"department,omitempty"`
	Specialization *string `db:"specialization" json:"specialization,omitempty"`
	LicenseNumber  *string `db:"license_number" json:"licenseNumber,omitempty"`

	// Patient profile.
	BloodGroup        *string  `db:"blood_group" json:"bloodGroup,omitempty"`
	Allergies         []string `db:"allergies" json:"allergies,omitempty"`
	MedicalHistory    []string `db:"medical_history" json:"medicalHistory,omitempty"`
	InsuranceProvider *string  `db:"insurance_provider" json:"insuranceProvider,omitempty"`
	InsuranceNumber   *string  `db:"insurance_number" json:"insuranceNumber,omitempty"`

	Status     string     `db:"status" json:"status"`
	ApprovedAt *time.Time `db:"approved_at" json:"approvedAt,omitempty"`
	ApprovedBy *uuid.UUID `db:"approved_by" json:"approvedBy,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updatedAt"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// initialStatus decides the account state at registration time. Patients come
// up active unless they explicitly ask to be inactive; every other role waits
// for admin approval regardless of what the request body says.
func initialStatus(role Role, requested string) string {
	if role == RolePatient {
		if requested == StatusInactive {
			return StatusInactive
		}
		return StatusActive
	}
	return StatusInactive
}
