package radiology

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
	mu     sync.Mutex
	orders map[string]*RadiologyOrder
}

func newMockRepo() *mockRepo {
	return &mockRepo{orders: map[string]*RadiologyOrder{}}
}

func (m *mockRepo) Create(_ context.Context, o *RadiologyOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.CreatedAt = time.Now()
	cp := *o
	m.orders[o.Code] = &cp
	return nil
}

func (m *mockRepo) GetByCode(_ context.Context, code string) (*RadiologyOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[code]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*RadiologyOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			cp := *o
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) CodeExists(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.orders[code]
	return ok, nil
}

func (m *mockRepo) List(_ context.Context, f Filter, limit, offset int) ([]*RadiologyOrder, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*RadiologyOrder
	for _, o := range m.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.Modality != "" && o.Modality != f.Modality {
			continue
		}
		if f.PatientID != uuid.Nil && o.PatientID != f.PatientID {
			continue
		}
		if f.PerformedBy != uuid.Nil && (o.PerformedBy == nil || *o.PerformedBy != f.PerformedBy) {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (m *mockRepo) Update(_ context.Context, o *RadiologyOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.Code]; !ok {
		return ErrNotFound
	}
	cp := *o
	cp.UpdatedAt = time.Now()
	m.orders[o.Code] = &cp
	return nil
}

func (m *mockRepo) Assign(_ context.Context, code string, radiologistID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[code]
	if !ok {
		return false, nil
	}
	if o.PerformedBy != nil && *o.PerformedBy != radiologistID {
		return false, nil
	}
	o.PerformedBy = &radiologistID
	return true, nil
}

func (m *mockRepo) Delete(_ context.Context, code string) (bool, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[code]
	if !ok {
		return false, false, nil
	}
	if o.Status == StatusCompleted {
		return false, true, nil
	}
	delete(m.orders, code)
	return true, true, nil
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
	gen := codes.NewSeededGenerator(7, func() time.Time { return time.Unix(0, 1700000000123456789) })
	return NewService(repo, patients, gen), patientID
}

func mustCreate(t *testing.T, svc *Service, doctorID uuid.UUID) *RadiologyOrder {
	t.Helper()
	o, err := svc.Create(context.Background(), doctorID, CreateInput{
		PatientCode: "PAT-10001",
		Modality:    "ct",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return o
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newService(newMockRepo())
	doctorID := uuid.New()

	_, err := svc.Create(context.Background(), doctorID, CreateInput{Modality: "ct"})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("missing patientCode: got %v", err)
	}
	_, err = svc.Create(context.Background(), doctorID, CreateInput{PatientCode: "PAT-10001"})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("missing modality: got %v", err)
	}
	_, err = svc.Create(context.Background(), doctorID, CreateInput{PatientCode: "PAT-10001", Modality: "telepathy"})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("bad modality: got %v", err)
	}
	_, err = svc.Create(context.Background(), doctorID, CreateInput{PatientCode: "PAT-99999", Modality: "ct"})
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("unknown patient: got %v", err)
	}
}

func TestCreate_Defaults(t *testing.T) {
	svc, patientID := newService(newMockRepo())
	doctorID := uuid.New()

	o := mustCreate(t, svc, doctorID)
	if o.Status != StatusOrdered {
		t.Fatalf("status = %s, want ordered", o.Status)
	}
	if o.Priority != PriorityRoutine {
		t.Fatalf("priority = %s, want routine", o.Priority)
	}
	if o.PatientID != patientID {
		t.Fatalf("patient mismatch")
	}
	if o.DoctorID == nil || *o.DoctorID != doctorID {
		t.Fatalf("doctor not recorded")
	}
	if len(o.Code) < 4 || o.Code[:4] != "RAD-" {
		t.Fatalf("code = %q, want RAD- prefix", o.Code)
	}
}

func TestGet_ByCodeOrID(t *testing.T) {
	svc, _ := newService(newMockRepo())
	o := mustCreate(t, svc, uuid.New())

	byCode, err := svc.Get(context.Background(), o.Code)
	if err != nil || byCode.ID != o.ID {
		t.Fatalf("get by code: %v", err)
	}
	byID, err := svc.Get(context.Background(), o.ID.String())
	if err != nil || byID.Code != o.Code {
		t.Fatalf("get by id: %v", err)
	}
	_, err = svc.Get(context.Background(), "RAD-NOPE")
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("missing order: got %v", err)
	}
}

func TestUpdateStatus_Stamps(t *testing.T) {
	svc, _ := newService(newMockRepo())
	caller := uuid.New()
	o := mustCreate(t, svc, caller)

	got, err := svc.UpdateStatus(context.Background(), o.Code, caller, StatusInProgress)
	if err != nil {
		t.Fatalf("to in-progress: %v", err)
	}
	if got.StartedAt == nil {
		t.Fatalf("startedAt not stamped")
	}
	got, err = svc.UpdateStatus(context.Background(), o.Code, caller, StatusCompleted)
	if err != nil {
		t.Fatalf("to completed: %v", err)
	}
	if got.CompletedAt == nil {
		t.Fatalf("completedAt not stamped")
	}

	_, err = svc.UpdateStatus(context.Background(), o.Code, caller, "filed")
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("bad status: got %v", err)
	}
}

func TestSchedule(t *testing.T) {
	svc, _ := newService(newMockRepo())
	caller := uuid.New()
	o := mustCreate(t, svc, caller)

	_, err := svc.Schedule(context.Background(), o.Code, caller, nil)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("missing scheduledAt: got %v", err)
	}

	when := time.Now().Add(48 * time.Hour)
	got, err := svc.Schedule(context.Background(), o.Code, caller, &when)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if got.Status != StatusScheduled {
		t.Fatalf("status = %s, want scheduled", got.Status)
	}
	if got.ScheduledAt == nil || !got.ScheduledAt.Equal(when) {
		t.Fatalf("scheduledAt not set")
	}
}

func TestAssignSelf_Exclusive(t *testing.T) {
	svc, _ := newService(newMockRepo())
	o := mustCreate(t, svc, uuid.New())
	first := uuid.New()
	second := uuid.New()

	got, err := svc.AssignSelf(context.Background(), o.Code, first)
	if err != nil {
		t.Fatalf("first assign: %v", err)
	}
	if got.PerformedBy == nil || *got.PerformedBy != first {
		t.Fatalf("performedBy not set")
	}

	// Re-claiming your own assignment is a no-op.
	if _, err := svc.AssignSelf(context.Background(), o.Code, first); err != nil {
		t.Fatalf("re-assign self: %v", err)
	}

	_, err = svc.AssignSelf(context.Background(), o.Code, second)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("second radiologist: got %v", err)
	}

	_, err = svc.AssignSelf(context.Background(), "RAD-NOPE", first)
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("missing order: got %v", err)
	}
}

func TestSubmitReport_OverridesAssignment(t *testing.T) {
	svc, _ := newService(newMockRepo())
	o := mustCreate(t, svc, uuid.New())
	assigned := uuid.New()
	submitter := uuid.New()

	if _, err := svc.AssignSelf(context.Background(), o.Code, assigned); err != nil {
		t.Fatalf("assign: %v", err)
	}

	report := "no acute findings"
	got, err := svc.SubmitReport(context.Background(), o.Code, submitter, SubmitReportInput{
		ReportText:  &report,
		Attachments: []Attachment{{URL: "https://pacs.example/study/1"}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", got.Status)
	}
	if got.CompletedAt == nil {
		t.Fatalf("completedAt not stamped")
	}
	if got.PerformedBy == nil || *got.PerformedBy != submitter {
		t.Fatalf("performedBy = %v, want submitter", got.PerformedBy)
	}
	if got.ReportText == nil || *got.ReportText != report {
		t.Fatalf("report text not stored")
	}
}

func TestDelete_CompletedConflicts(t *testing.T) {
	svc, _ := newService(newMockRepo())
	caller := uuid.New()
	o := mustCreate(t, svc, caller)

	if _, err := svc.UpdateStatus(context.Background(), o.Code, caller, StatusCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}
	err := svc.Delete(context.Background(), o.Code)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("delete completed: got %v", err)
	}

	other := mustCreate(t, svc, caller)
	if err := svc.Delete(context.Background(), other.Code); err != nil {
		t.Fatalf("delete ordered: %v", err)
	}
	err = svc.Delete(context.Background(), other.Code)
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("delete twice: got %v", err)
	}
}

func TestList_AssignedFilter(t *testing.T) {
	svc, _ := newService(newMockRepo())
	me := uuid.New()
	a := mustCreate(t, svc, uuid.New())
	mustCreate(t, svc, uuid.New())

	if _, err := svc.AssignSelf(context.Background(), a.Code, me); err != nil {
		t.Fatalf("assign: %v", err)
	}
	orders, total, err := svc.List(context.Background(), Filter{PerformedBy: me}, 20, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(orders) != 1 || orders[0].Code != a.Code {
		t.Fatalf("filtered list = %d orders, want just %s", total, a.Code)
	}
}
