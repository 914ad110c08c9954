package identity

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/platform/codes"
	"github.com/clinicore/clinicore/pkg/apperr"
)

type mockRepo struct {
	users map[uuid.UUID]*User
}

func newMockRepo() *mockRepo {
	return &mockRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockRepo) Create(ctx context.Context, u *User) error {
	for _, ex := range m.users {
		// Empty phones are stored as NULL and never collide.
		if ex.Email == u.Email || ex.Code == u.Code || (u.Phone != "" && ex.Phone == u.Phone) {
			return ErrDuplicate
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = u
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetByCode(ctx context.Context, code string) (*User, error) {
	for _, u := range m.users {
		if u.Code == code {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	for _, u := range m.users {
		if u.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) List(ctx context.Context, f Filter, limit, offset int) ([]*User, int, error) {
	var out []*User
	for _, u := range m.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Status != "" && u.Status != f.Status {
			continue
		}
		if f.Query != "" && !strings.Contains(strings.ToLower(u.FirstName+" "+u.LastName+" "+u.Email), strings.ToLower(f.Query)) {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (m *mockRepo) Update(ctx context.Context, u *User) error {
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockRepo) Activate(ctx context.Context, id uuid.UUID, approvedBy uuid.UUID) (bool, error) {
	u, ok := m.users[id]
	if !ok || u.Status != StatusInactive {
		return false, nil
	}
	now := time.Now()
	u.Status = StatusActive
	u.ApprovedAt = &now
	u.ApprovedBy = &approvedBy
	return true, nil
}

func (m *mockRepo) Deactivate(ctx context.Context, id uuid.UUID) (bool, error) {
	u, ok := m.users[id]
	if !ok || u.Status != StatusActive {
		return false, nil
	}
	u.Status = StatusInactive
	return true, nil
}

func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, ok := m.users[id]; !ok {
		return false, nil
	}
	delete(m.users, id)
	return true, nil
}

func (m *mockRepo) FindDoctorByName(ctx context.Context, name string) (*User, error) {
	lower := strings.ToLower(name)
	for _, u := range m.users {
		if u.Role != RoleDoctor || u.Status != StatusActive {
			continue
		}
		if strings.HasPrefix(strings.ToLower(u.FirstName), lower) || strings.HasPrefix(strings.ToLower(u.LastName), lower) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

var testSecret = []byte("unit-test-secret-of-sufficient-len!!")

func newTestService(repo Repository) *Service {
	return NewService(repo, codes.NewSeededGenerator(42, nil), testSecret, time.Hour)
}

func patientInput(email, phone string) RegisterInput {
	return RegisterInput{
		FirstName: "Ada", LastName: "Lovelace",
		Email: email, Phone: phone,
		Password: "s3cret!", Role: "patient",
	}
}

func TestRegister_PatientIsActiveWithToken(t *testing.T) {
	svc := newTestService(newMockRepo())
	u, token, err := svc.Register(context.Background(), patientInput("ada@example.com", "111"))
	if err != nil {
		t.Fatal(err)
	}
	if u.Status != StatusActive {
		t.Errorf("patient should register active, got %s", u.Status)
	}
	if token == "" {
		t.Error("active registration should return a token")
	}
	if !strings.HasPrefix(u.Code, "PAT-") {
		t.Errorf("unexpected patient code %s", u.Code)
	}
}

func TestRegister_DoctorForcedInactive(t *testing.T) {
	svc := newTestService(newMockRepo())
	in := RegisterInput{
		FirstName: "Gregory", LastName: "House",
		Email: "house@example.com", Phone: "222",
		Password: "s3cret!", Role: "doctor",
		Status: StatusActive,
	}
	u, token, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if u.Status != StatusInactive {
		t.Errorf("doctor must register inactive even when the body asks for active, got %s", u.Status)
	}
	if token != "" {
		t.Error("inactive registration must not return a token")
	}
	if !strings.HasPrefix(u.Code, "DOC-") {
		t.Errorf("unexpected doctor code %s", u.Code)
	}
}

func TestRegister_UnknownRole(t *testing.T) {
	svc := newTestService(newMockRepo())
	in := patientInput("x@example.com", "333")
	in.Role = "superuser"
	_, _, err := svc.Register(context.Background(), in)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newTestService(newMockRepo())
	if _, _, err := svc.Register(context.Background(), patientInput("dup@example.com", "444")); err != nil {
		t.Fatal(err)
	}
	_, _, err := svc.Register(context.Background(), patientInput("dup@example.com", "555"))
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestRegister_DuplicatePhone(t *testing.T) {
	svc := newTestService(newMockRepo())
	if _, _, err := svc.Register(context.Background(), patientInput("first@example.com", "666")); err != nil {
		t.Fatal(err)
	}
	// Same phone under a different email must still conflict.
	_, _, err := svc.Register(context.Background(), patientInput("second@example.com", "666"))
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestLogin_Flow(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, patientInput("login@example.com", "666")); err != nil {
		t.Fatal(err)
	}

	u, token, err := svc.Login(ctx, "Login@Example.com", "s3cret!")
	if err != nil {
		t.Fatalf("login with correct credentials failed: %v", err)
	}
	if token == "" || u.Email != "login@example.com" {
		t.Error("expected token and normalized email")
	}

	if _, _, err := svc.Login(ctx, "login@example.com", "wrong"); !apperr.IsKind(err, apperr.KindUnauthenticated) {
		t.Errorf("wrong password: expected unauthenticated, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "s3cret!"); !apperr.IsKind(err, apperr.KindUnauthenticated) {
		t.Errorf("unknown email: expected unauthenticated, got %v", err)
	}
}

func TestLogin_InactiveDistinctFromBadCredentials(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	in := RegisterInput{
		FirstName: "Lab", LastName: "Tech",
		Email: "tech@example.com", Phone: "777",
		Password: "s3cret!", Role: "labTechnician",
	}
	if _, _, err := svc.Register(ctx, in); err != nil {
		t.Fatal(err)
	}

	_, _, err := svc.Login(ctx, "tech@example.com", "s3cret!")
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("pre-approval login must be forbidden, got %v", err)
	}
	if !strings.Contains(err.Error(), "not active") {
		t.Errorf("expected 'not active' message, got %q", err.Error())
	}
}

func TestApprove_ActivatesAndIsIdempotent(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	admin := uuid.New()

	in := RegisterInput{
		FirstName: "New", LastName: "Doctor",
		Email: "doc@example.com", Phone: "888",
		Password: "s3cret!", Role: "doctor",
	}
	u, _, err := svc.Register(ctx, in)
	if err != nil {
		t.Fatal(err)
	}

	approved, err := svc.Approve(ctx, u.Code, admin)
	if err != nil {
		t.Fatal(err)
	}
	if approved.Status != StatusActive {
		t.Errorf("expected active after approval, got %s", approved.Status)
	}
	if approved.ApprovedAt == nil || approved.ApprovedBy == nil || *approved.ApprovedBy != admin {
		t.Error("approval stamp missing")
	}
	firstStamp := *approved.ApprovedAt

	// Second approval succeeds and keeps the original stamp.
	again, err := svc.Approve(ctx, u.Code, uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if again.Status != StatusActive || !again.ApprovedAt.Equal(firstStamp) {
		t.Error("re-approval must be a no-op")
	}

	if _, _, err := svc.Login(ctx, "doc@example.com", "s3cret!"); err != nil {
		t.Errorf("login after approval failed: %v", err)
	}
}

func TestApprove_UnknownCode(t *testing.T) {
	svc := newTestService(newMockRepo())
	_, err := svc.Approve(context.Background(), "DOC-00000", uuid.New())
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestDeactivate_Idempotent(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	u, _, err := svc.Register(ctx, patientInput("off@example.com", "999"))
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		got, err := svc.Deactivate(ctx, u.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != StatusInactive {
			t.Errorf("expected inactive, got %s", got.Status)
		}
	}
}

func TestUpdate_CannotTouchStatusOrRole(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	in := RegisterInput{
		FirstName: "Pending", LastName: "Nurse",
		Email: "nurse@example.com", Phone: "121",
		Password: "s3cret!", Role: "nurse",
	}
	u, _, err := svc.Register(ctx, in)
	if err != nil {
		t.Fatal(err)
	}

	newName := "Renamed"
	got, err := svc.Update(ctx, u.ID, UpdateInput{FirstName: &newName})
	if err != nil {
		t.Fatal(err)
	}
	if got.FirstName != "Renamed" {
		t.Errorf("patch not applied: %s", got.FirstName)
	}
	if got.Status != StatusInactive {
		t.Errorf("generic update must not change status, got %s", got.Status)
	}
	if got.Role != RoleNurse {
		t.Errorf("generic update must not change role, got %s", got.Role)
	}
}

func TestUpdate_RehashesPassword(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	u, _, err := svc.Register(ctx, patientInput("pw@example.com", "131"))
	if err != nil {
		t.Fatal(err)
	}

	newPw := "n3wpass!"
	if _, err := svc.Update(ctx, u.ID, UpdateInput{Password: &newPw}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Login(ctx, "pw@example.com", "n3wpass!"); err != nil {
		t.Errorf("login with new password failed: %v", err)
	}
	if _, _, err := svc.Login(ctx, "pw@example.com", "s3cret!"); err == nil {
		t.Error("old password must stop working")
	}
}

func TestPatientDesk(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	in := patientInput("desk@example.com", "141")
	in.Role = "doctor" // must be overridden
	u, err := svc.CreatePatient(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != RolePatient || u.Status != StatusActive {
		t.Errorf("desk creation must yield an active patient, got %s/%s", u.Role, u.Status)
	}

	if _, err := svc.GetPatient(ctx, u.ID); err != nil {
		t.Fatal(err)
	}

	// Soft delete deactivates.
	if err := svc.DeletePatient(ctx, u.ID, false); err != nil {
		t.Fatal(err)
	}
	got, err := svc.Get(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusInactive {
		t.Errorf("soft delete should deactivate, got %s", got.Status)
	}

	// Hard delete removes the row.
	if err := svc.DeletePatient(ctx, u.ID, true); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(ctx, u.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found after hard delete, got %v", err)
	}
}

func TestGetPatient_NonPatientHidden(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	in := RegisterInput{
		FirstName: "Some", LastName: "Doctor",
		Email: "sd@example.com", Phone: "151",
		Password: "s3cret!", Role: "doctor",
	}
	u, _, err := svc.Register(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetPatient(ctx, u.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("doctor must not be visible through the patient surface, got %v", err)
	}
}
