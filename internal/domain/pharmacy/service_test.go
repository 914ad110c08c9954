package pharmacy

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
	mu    sync.Mutex
	items map[uuid.UUID]*StockItem
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: map[uuid.UUID]*StockItem{}}
}

func (m *mockRepo) Create(_ context.Context, s *StockItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.Name == s.Name && it.BatchNumber == s.BatchNumber {
			return ErrDuplicate
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()
	cp := *s
	m.items[s.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*StockItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (m *mockRepo) GetByCode(_ context.Context, code string) (*StockItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.Code == code {
			cp := *it
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) CodeExists(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) List(_ context.Context, f Filter, limit, offset int) ([]*StockItem, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*StockItem
	for _, it := range m.items {
		if f.Status != "" && it.Status != f.Status {
			continue
		}
		if f.LowOnly && !it.IsLowStock() {
			continue
		}
		cp := *it
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (m *mockRepo) Update(_ context.Context, s *StockItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[s.ID]; !ok {
		return ErrNotFound
	}
	for _, it := range m.items {
		if it.ID != s.ID && it.Name == s.Name && it.BatchNumber == s.BatchNumber {
			return ErrDuplicate
		}
	}
	cp := *s
	cp.UpdatedAt = time.Now()
	m.items[s.ID] = &cp
	return nil
}

func (m *mockRepo) AdjustStock(_ context.Context, id uuid.UUID, delta int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return false, nil
	}
	it.QuantityInStock += delta
	return true, nil
}

func (m *mockRepo) DecrementStock(_ context.Context, id uuid.UUID, amount int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok || it.QuantityInStock < amount {
		return false, nil
	}
	it.QuantityInStock -= amount
	return true, nil
}

func newService(repo *mockRepo) *Service {
	return NewService(repo, codes.NewSeededGenerator(13, nil))
}

func timePtr(t time.Time) *time.Time { return &t }

func validInput() CreateItemInput {
	return CreateItemInput{
		Name:            "Amoxicillin",
		BatchNumber:     "B-2026-01",
		DosageForm:      "capsule",
		Strength:        "500mg",
		QuantityInStock: 100,
		ExpiryDate:      timePtr(time.Now().AddDate(1, 0, 0)),
		ReorderLevel:    10,
	}
}

func mustCreateItem(t *testing.T, svc *Service, in CreateItemInput) *StockItem {
	t.Helper()
	item, err := svc.CreateItem(context.Background(), uuid.New(), in)
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	return item
}

func TestCreateItem_Validation(t *testing.T) {
	svc := newService(newMockRepo())

	cases := []struct {
		name   string
		mutate func(*CreateItemInput)
	}{
		{"missing name", func(in *CreateItemInput) { in.Name = "" }},
		{"missing batch", func(in *CreateItemInput) { in.BatchNumber = " " }},
		{"missing dosage form", func(in *CreateItemInput) { in.DosageForm = "" }},
		{"missing strength", func(in *CreateItemInput) { in.Strength = "" }},
		{"missing expiry", func(in *CreateItemInput) { in.ExpiryDate = nil }},
		{"negative quantity", func(in *CreateItemInput) { in.QuantityInStock = -1 }},
	}
	for _, tc := range cases {
		in := validInput()
		tc.mutate(&in)
		if _, err := svc.CreateItem(context.Background(), uuid.New(), in); !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("%s: got %v", tc.name, err)
		}
	}
}

func TestCreateItem_DuplicateBatchConflicts(t *testing.T) {
	svc := newService(newMockRepo())
	mustCreateItem(t, svc, validInput())

	_, err := svc.CreateItem(context.Background(), uuid.New(), validInput())
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("duplicate (name,batch): got %v", err)
	}

	// Same name, different batch is a new item.
	in := validInput()
	in.BatchNumber = "B-2026-02"
	mustCreateItem(t, svc, in)
}

func TestCreateItem_Defaults(t *testing.T) {
	svc := newService(newMockRepo())
	item := mustCreateItem(t, svc, validInput())

	if item.Status != StatusActive {
		t.Fatalf("status = %s, want active", item.Status)
	}
	if len(item.Code) < 4 || item.Code[:4] != "MED-" {
		t.Fatalf("code = %q, want MED- prefix", item.Code)
	}
}

func TestGet_ByCodeOrID(t *testing.T) {
	svc := newService(newMockRepo())
	item := mustCreateItem(t, svc, validInput())

	byID, err := svc.Get(context.Background(), item.ID.String())
	if err != nil || byID.Code != item.Code {
		t.Fatalf("get by id: %v", err)
	}
	byCode, err := svc.Get(context.Background(), item.Code)
	if err != nil || byCode.ID != item.ID {
		t.Fatalf("get by code: %v", err)
	}
	_, err = svc.Get(context.Background(), "MED-NOPE")
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("missing item: got %v", err)
	}
}

func TestRestock(t *testing.T) {
	svc := newService(newMockRepo())
	item := mustCreateItem(t, svc, validInput())

	got, err := svc.Restock(context.Background(), item.ID, 50)
	if err != nil {
		t.Fatalf("restock: %v", err)
	}
	if got.QuantityInStock != 150 {
		t.Fatalf("quantity = %d, want 150", got.QuantityInStock)
	}

	_, err = svc.Restock(context.Background(), item.ID, 0)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("zero amount: got %v", err)
	}
	_, err = svc.Restock(context.Background(), uuid.New(), 5)
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("missing item: got %v", err)
	}
}

func TestDecrementStock(t *testing.T) {
	svc := newService(newMockRepo())
	item := mustCreateItem(t, svc, validInput())

	got, err := svc.DecrementStock(context.Background(), item.ID, 30)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if got.QuantityInStock != 70 {
		t.Fatalf("quantity = %d, want 70", got.QuantityInStock)
	}

	_, err = svc.DecrementStock(context.Background(), item.ID, 71)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("short stock: got %v", err)
	}
	_, err = svc.DecrementStock(context.Background(), item.ID, -3)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("negative amount: got %v", err)
	}
	_, err = svc.DecrementStock(context.Background(), uuid.New(), 1)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("missing item folds into the same conflict: got %v", err)
	}
}

func TestDecrementStock_NeverNegative(t *testing.T) {
	svc := newService(newMockRepo())
	in := validInput()
	in.QuantityInStock = 10
	item := mustCreateItem(t, svc, in)

	var wg sync.WaitGroup
	conflicts := make(chan bool, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.DecrementStock(context.Background(), item.ID, 4)
			conflicts <- apperr.IsKind(err, apperr.KindConflict)
		}()
	}
	wg.Wait()
	close(conflicts)

	failed := 0
	for c := range conflicts {
		if c {
			failed++
		}
	}
	// 3x4 exceeds 10, so exactly one decrement must be refused.
	if failed != 1 {
		t.Fatalf("conflicts = %d, want 1", failed)
	}
	got, err := svc.Get(context.Background(), item.ID.String())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.QuantityInStock != 2 {
		t.Fatalf("quantity = %d, want 2", got.QuantityInStock)
	}
}

func TestIsLowStock(t *testing.T) {
	item := &StockItem{QuantityInStock: 5, ReorderLevel: 10}
	if !item.IsLowStock() {
		t.Fatalf("5 of 10 should be low")
	}
	item.QuantityInStock = 11
	if item.IsLowStock() {
		t.Fatalf("11 of 10 should not be low")
	}
	item = &StockItem{QuantityInStock: 0, ReorderLevel: 0}
	if item.IsLowStock() {
		t.Fatalf("no reorder level configured should never be low")
	}
}

func TestUpdateItem_StatusEnumChecked(t *testing.T) {
	svc := newService(newMockRepo())
	item := mustCreateItem(t, svc, validInput())
	caller := uuid.New()

	bad := "retired"
	_, err := svc.UpdateItem(context.Background(), item.ID, caller, UpdateItemInput{Status: &bad})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("bad status: got %v", err)
	}

	inactive := StatusInactive
	got, err := svc.UpdateItem(context.Background(), item.ID, caller, UpdateItemInput{Status: &inactive})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Status != StatusInactive {
		t.Fatalf("status = %s, want inactive", got.Status)
	}
}
