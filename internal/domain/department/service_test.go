package department

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/pkg/apperr"
)

type mockRepo struct {
	depts map[uuid.UUID]*Department
}

func newMockRepo() *mockRepo {
	return &mockRepo{depts: make(map[uuid.UUID]*Department)}
}

func (m *mockRepo) Create(ctx context.Context, d *Department) error {
	for _, ex := range m.depts {
		if strings.EqualFold(ex.Name, d.Name) {
			return ErrDuplicate
		}
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	m.depts[d.ID] = d
	return nil
}

func (m *mockRepo) List(ctx context.Context) ([]*Department, error) {
	var out []*Department
	for _, d := range m.depts {
		out = append(out, d)
	}
	return out, nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Department, error) {
	d, ok := m.depts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

func (m *mockRepo) GetByName(ctx context.Context, name string) (*Department, error) {
	for _, d := range m.depts {
		if strings.EqualFold(d.Name, name) {
			return d, nil
		}
	}
	return nil, ErrNotFound
}

func TestCreate_RequiresName(t *testing.T) {
	svc := NewService(newMockRepo())
	if _, err := svc.Create(context.Background(), "  ", nil); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCreate_DuplicateName(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	if _, err := svc.Create(ctx, "Cardiology", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, "cardiology", nil); !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("expected conflict for duplicate name, got %v", err)
	}
}

func TestResolveName(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	created, err := svc.Create(ctx, "Radiology", nil)
	if err != nil {
		t.Fatal(err)
	}
	d, err := svc.ResolveName(ctx, "RADIOLOGY")
	if err != nil {
		t.Fatal(err)
	}
	if d.ID != created.ID {
		t.Error("resolve returned a different department")
	}
	if _, err := svc.ResolveName(ctx, "Oncology"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
