package nursing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/platform/codes"
	"github.com/clinicore/clinicore/pkg/apperr"
)

type mockRepo struct {
	mu      sync.Mutex
	records map[string]*NursingRecord
}

func newMockRepo() *mockRepo {
	return &mockRepo{records: map[string]*NursingRecord{}}
}

func (m *mockRepo) Create(_ context.Context, rec *NursingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = time.Now()
	cp := *rec
	m.records[rec.Code] = &cp
	return nil
}

func (m *mockRepo) GetByCode(_ context.Context, code string) (*NursingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[code]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*NursingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.ID == id {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) CodeExists(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[code]
	return ok, nil
}

func (m *mockRepo) List(_ context.Context, f Filter, limit, offset int) ([]*NursingRecord, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*NursingRecord
	for _, rec := range m.records {
		if f.PatientID != uuid.Nil && rec.PatientID != f.PatientID {
			continue
		}
		if f.Type != "" && rec.Type != f.Type {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (m *mockRepo) Delete(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[code]; !ok {
		return false, nil
	}
	delete(m.records, code)
	return true, nil
}

type mockPatients struct {
	byCode map[string]uuid.UUID
}

func (m *mockPatients) FindPatientByCode(_ context.Context, code string) (uuid.UUID, string, error) {
	id, ok := m.byCode[code]
	if !ok {
		return uuid.Nil, "", apperr.NotFound("patient %s not found", code)
	}
	return id, "Jane Roe", nil
}

func newService(repo *mockRepo) (*Service, uuid.UUID) {
	patientID := uuid.New()
	patients := &mockPatients{byCode: map[string]uuid.UUID{"PAT-10001": patientID}}
	return NewService(repo, patients, codes.NewSeededGenerator(17, nil)), patientID
}

func TestRecordVitals(t *testing.T) {
	svc, patientID := newService(newMockRepo())
	nurseID := uuid.New()

	rec, err := svc.RecordVitals(context.Background(), nurseID, RecordInput{
		PatientCode: "PAT-10001",
		Data: map[string]interface{}{
			"temperature": 37.2,
			"pulse":       72,
		},
	})
	if err != nil {
		t.Fatalf("record vitals: %v", err)
	}
	if rec.Type != TypeVitals {
		t.Fatalf("type = %s, want vitals", rec.Type)
	}
	if rec.Status != StatusFinal {
		t.Fatalf("status = %s, want final default", rec.Status)
	}
	if rec.PatientID != patientID || rec.NurseID != nurseID {
		t.Fatalf("identity fields wrong")
	}
	if len(rec.Code) < 3 || rec.Code[:3] != "NR-" {
		t.Fatalf("code = %q, want NR- prefix", rec.Code)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newService(newMockRepo())
	nurseID := uuid.New()

	_, err := svc.AddObservation(context.Background(), nurseID, RecordInput{})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("missing patientCode: got %v", err)
	}
	_, err = svc.AddObservation(context.Background(), nurseID, RecordInput{
		PatientCode: "PAT-99999",
	})
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("unknown patient: got %v", err)
	}
	_, err = svc.AddObservation(context.Background(), nurseID, RecordInput{
		PatientCode: "PAT-10001",
		Status:      "archived",
	})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("bad status: got %v", err)
	}
}

func TestAdministerMedication_RequiresReference(t *testing.T) {
	svc, _ := newService(newMockRepo())
	nurseID := uuid.New()

	_, err := svc.AdministerMedication(context.Background(), nurseID, RecordInput{
		PatientCode: "PAT-10001",
		Data:        map[string]interface{}{"dosage": "500mg"},
	})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("no medication ref: got %v", err)
	}

	rec, err := svc.AdministerMedication(context.Background(), nurseID, RecordInput{
		PatientCode: "PAT-10001",
		Data: map[string]interface{}{
			"medicationName": "Amoxicillin",
			"dosage":         "500mg",
		},
	})
	if err != nil {
		t.Fatalf("with medicationName: %v", err)
	}
	if rec.Type != TypeMedication {
		t.Fatalf("type = %s, want medication", rec.Type)
	}

	if _, err := svc.AdministerMedication(context.Background(), nurseID, RecordInput{
		PatientCode: "PAT-10001",
		Data:        map[string]interface{}{"medicationCode": "MED-ABC12345"},
	}); err != nil {
		t.Fatalf("with medicationCode: %v", err)
	}
}

func TestGet_ByCodeOrID(t *testing.T) {
	svc, _ := newService(newMockRepo())
	rec, err := svc.RecordVitals(context.Background(), uuid.New(), RecordInput{
		PatientCode: "PAT-10001",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	byCode, err := svc.Get(context.Background(), rec.Code)
	if err != nil || byCode.ID != rec.ID {
		t.Fatalf("get by code: %v", err)
	}
	byID, err := svc.Get(context.Background(), rec.ID.String())
	if err != nil || byID.Code != rec.Code {
		t.Fatalf("get by id: %v", err)
	}
	_, err = svc.Get(context.Background(), "NR-000000")
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("missing record: got %v", err)
	}
}

func TestList_Filters(t *testing.T) {
	svc, patientID := newService(newMockRepo())
	nurseID := uuid.New()

	if _, err := svc.RecordVitals(context.Background(), nurseID, RecordInput{PatientCode: "PAT-10001"}); err != nil {
		t.Fatalf("vitals: %v", err)
	}
	if _, err := svc.AddObservation(context.Background(), nurseID, RecordInput{PatientCode: "PAT-10001"}); err != nil {
		t.Fatalf("observation: %v", err)
	}

	out, total, err := svc.List(context.Background(), Filter{PatientID: patientID, Type: TypeVitals}, 20, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(out) != 1 || out[0].Type != TypeVitals {
		t.Fatalf("filtered list = %d, want 1 vitals record", total)
	}
}

func TestDelete_Unconditional(t *testing.T) {
	svc, _ := newService(newMockRepo())
	rec, err := svc.RecordVitals(context.Background(), uuid.New(), RecordInput{
		PatientCode: "PAT-10001",
		Status:      StatusFinal,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Final records delete like any other.
	if err := svc.Delete(context.Background(), rec.Code); err != nil {
		t.Fatalf("delete: %v", err)
	}
	err = svc.Delete(context.Background(), rec.Code)
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("delete twice: got %v", err)
	}
}
