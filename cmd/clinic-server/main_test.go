package main

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/domain/identity"
	"github.com/clinicore/clinicore/pkg/apperr"
)

// stubUserRepo satisfies identity.Repository with a fixed set of users.
type stubUserRepo struct {
	identity.Repository
	byCode map[string]*identity.User
	byName map[string]*identity.User
}

func (s *stubUserRepo) GetByCode(_ context.Context, code string) (*identity.User, error) {
	u, ok := s.byCode[code]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return u, nil
}

func (s *stubUserRepo) FindDoctorByName(_ context.Context, name string) (*identity.User, error) {
	u, ok := s.byName[name]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return u, nil
}

func TestPatientDirectoryAdapter(t *testing.T) {
	patient := &identity.User{
		ID: uuid.New(), Code: "PAT-10001",
		FirstName: "Jane", LastName: "Roe",
		Role: identity.RolePatient,
	}
	doctor := &identity.User{
		ID: uuid.New(), Code: "DOC-10001",
		FirstName: "John", LastName: "Smith",
		Role: identity.RoleDoctor,
	}
	adapter := &patientDirectoryAdapter{repo: &stubUserRepo{
		byCode: map[string]*identity.User{"PAT-10001": patient, "DOC-10001": doctor},
	}}

	id, name, err := adapter.FindPatientByCode(context.Background(), "PAT-10001")
	if err != nil {
		t.Fatalf("find patient: %v", err)
	}
	if id != patient.ID || name != "Jane Roe" {
		t.Fatalf("got %s %q", id, name)
	}

	// A staff code is not a patient, even though the row exists.
	_, _, err = adapter.FindPatientByCode(context.Background(), "DOC-10001")
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("doctor code: got %v", err)
	}

	_, _, err = adapter.FindPatientByCode(context.Background(), "PAT-99999")
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("unknown code: got %v", err)
	}
}

func TestDoctorDirectoryAdapter(t *testing.T) {
	doctor := &identity.User{ID: uuid.New(), Role: identity.RoleDoctor}
	adapter := &doctorDirectoryAdapter{repo: &stubUserRepo{
		byName: map[string]*identity.User{"Smith": doctor},
	}}

	id, err := adapter.FindDoctorByName(context.Background(), "Smith")
	if err != nil {
		t.Fatalf("find doctor: %v", err)
	}
	if id != doctor.ID {
		t.Fatalf("id mismatch")
	}

	_, err = adapter.FindDoctorByName(context.Background(), "Nobody")
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("unknown doctor: got %v", err)
	}
}
