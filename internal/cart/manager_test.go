package cart

import (
	"context"
	"errors"
	"testing"

	"eatme/pkg/model"
	"eatme/pkg/storage"

	"github.com/shopspring/decimal"
)

type failingStore struct {
	*storage.MemoryStore
	setErr error
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func jollof() model.CartItem {
	return model.CartItem{ID: "jollof", Name: "Jollof Rice", UnitPrice: 45.5}
}

func kelewele() model.CartItem {
	return model.CartItem{ID: "kelewele", Name: "Kelewele", UnitPrice: 20}
}

func TestManager_AddIncrementsExistingLine(t *testing.T) {
	ctx := context.Background()
	m := NewManager(storage.NewMemoryStore(), "u", nil)

	for i := 0; i < 3; i++ {
		if err := m.Add(ctx, jollof()); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	items := m.Items()
	if len(items) != 1 {
		t.Fatalf("expected one line, got %d", len(items))
	}
	if items[0].Quantity != 3 {
		t.Errorf("quantity = %d, want 3", items[0].Quantity)
	}
}

func TestManager_AddIgnoresCallerQuantity(t *testing.T) {
	item := kelewele()
	item.Quantity = 7

	m := NewManager(storage.NewMemoryStore(), "u", nil)
	if err := m.Add(context.Background(), item); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := m.Items()[0].Quantity; got != 1 {
		t.Errorf("new line quantity = %d, want 1", got)
	}
}

func TestManager_AddRejectsInvalidItems(t *testing.T) {
	tests := []struct {
		name string
		item model.CartItem
	}{
		{"missing id", model.CartItem{Name: "x", UnitPrice: 1}},
		{"blank id", model.CartItem{ID: "  ", UnitPrice: 1}},
		{"negative price", model.CartItem{ID: "x", UnitPrice: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(storage.NewMemoryStore(), "u", nil)
			if err := m.Add(context.Background(), tt.item); !errors.Is(err, ErrInvalidItem) {
				t.Errorf("expected ErrInvalidItem, got %v", err)
			}
		})
	}
}

func TestManager_UpdateQuantityZeroMatchesRemove(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		id   string
	}{
		{"present id", "jollof"},
		{"absent id", "waakye"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viaUpdate := NewManager(storage.NewMemoryStore(), "u", nil)
			viaRemove := NewManager(storage.NewMemoryStore(), "u", nil)
			for _, m := range []*Manager{viaUpdate, viaRemove} {
				_ = m.Add(ctx, jollof())
				_ = m.Add(ctx, kelewele())
			}

			if err := viaUpdate.UpdateQuantity(ctx, tt.id, 0); err != nil {
				t.Fatalf("update: %v", err)
			}
			if err := viaRemove.Remove(ctx, tt.id); err != nil {
				t.Fatalf("remove: %v", err)
			}

			a, b := viaUpdate.Items(), viaRemove.Items()
			if len(a) != len(b) {
				t.Fatalf("line counts differ: %d vs %d", len(a), len(b))
			}
			for i := range a {
				if a[i] != b[i] {
					t.Errorf("line %d differs: %+v vs %+v", i, a[i], b[i])
				}
			}
		})
	}
}

func TestManager_SubtotalTracksMutations(t *testing.T) {
	ctx := context.Background()
	m := NewManager(storage.NewMemoryStore(), "u", nil)

	_ = m.Add(ctx, jollof())
	_ = m.Add(ctx, kelewele())
	_ = m.UpdateQuantity(ctx, "kelewele", 3)

	if want := decimal.RequireFromString("105.5"); !m.Subtotal().Equal(want) {
		t.Errorf("subtotal = %s, want %s", m.Subtotal(), want)
	}

	_ = m.Remove(ctx, "jollof")
	if want := decimal.NewFromInt(60); !m.Subtotal().Equal(want) {
		t.Errorf("subtotal after remove = %s, want %s", m.Subtotal(), want)
	}

	if err := m.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !m.Subtotal().IsZero() {
		t.Errorf("subtotal after clear = %s, want 0", m.Subtotal())
	}
	if !m.IsEmpty() {
		t.Error("expected empty cart after clear")
	}
}

func TestManager_TotalNeverNegative(t *testing.T) {
	ctx := context.Background()
	m := NewManager(storage.NewMemoryStore(), "u", NewFlatRedemption(10))

	cheap := model.CartItem{ID: "water", UnitPrice: 4}
	_ = m.Add(ctx, cheap)

	if !m.LoyaltyDiscount().Equal(decimal.NewFromInt(10)) {
		t.Errorf("discount = %s, want 10", m.LoyaltyDiscount())
	}
	if !m.Total().IsZero() {
		t.Errorf("total = %s, want 0", m.Total())
	}
	if totals := m.Totals(); totals.AmountMinor != 0 {
		t.Errorf("amount minor = %d, want 0", totals.AmountMinor)
	}
}

func TestManager_EmptyCartHasNoDiscount(t *testing.T) {
	m := NewManager(storage.NewMemoryStore(), "u", NewFlatRedemption(10))
	if !m.LoyaltyDiscount().IsZero() {
		t.Errorf("discount on empty cart = %s, want 0", m.LoyaltyDiscount())
	}
}

func TestManager_Totals(t *testing.T) {
	ctx := context.Background()
	m := NewManager(storage.NewMemoryStore(), "u", NewFlatRedemption(10))
	_ = m.Add(ctx, jollof())
	_ = m.Add(ctx, jollof())

	got := m.Totals()
	want := Totals{Subtotal: 91, LoyaltyDiscount: 10, Total: 81, AmountMinor: 8100, ItemCount: 2}
	if got != want {
		t.Errorf("Totals() = %+v, want %+v", got, want)
	}
}

func TestManager_PersistsAcrossLoads(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	first := NewManager(store, "u", nil)
	_ = first.Add(ctx, jollof())
	_ = first.Add(ctx, jollof())

	second := NewManager(store, "u", nil)
	if err := second.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if items := second.Items(); len(items) != 1 || items[0].Quantity != 2 {
		t.Errorf("reloaded items = %+v", items)
	}
}

func TestManager_LoadDropsCorruptEntry(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	_ = store.Set(ctx, storage.UserKey(storage.CartKey, "u"), []byte("not json"))

	m := NewManager(store, "u", nil)
	if err := m.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !m.IsEmpty() {
		t.Error("corrupt entry should load as an empty cart")
	}
}

func TestManager_MutationReportsSaveFailure(t *testing.T) {
	store := &failingStore{MemoryStore: storage.NewMemoryStore(), setErr: errors.New("unavailable")}
	m := NewManager(store, "u", nil)

	err := m.Add(context.Background(), jollof())
	if !errors.Is(err, storage.ErrNotPersisted) {
		t.Fatalf("expected ErrNotPersisted, got %v", err)
	}
	if len(m.Items()) != 1 {
		t.Error("in-memory cart should keep the added line")
	}
}

func TestRedemptionPolicies(t *testing.T) {
	tests := []struct {
		name     string
		policy   RedemptionPolicy
		subtotal decimal.Decimal
		want     decimal.Decimal
	}{
		{"flat on positive subtotal", NewFlatRedemption(10), decimal.NewFromInt(50), decimal.NewFromInt(10)},
		{"flat on zero subtotal", NewFlatRedemption(10), decimal.Zero, decimal.Zero},
		{"balance below subtotal", BalanceRedemption{Balance: 30}, decimal.NewFromInt(50), decimal.NewFromInt(30)},
		{"balance capped at subtotal", BalanceRedemption{Balance: 300}, decimal.NewFromInt(50), decimal.NewFromInt(50)},
		{"fractional subtotal redeems whole points", BalanceRedemption{Balance: 100}, decimal.RequireFromString("45.5"), decimal.NewFromInt(45)},
		{"empty balance", BalanceRedemption{}, decimal.NewFromInt(50), decimal.Zero},
		{"none", NoRedemption{}, decimal.NewFromInt(50), decimal.Zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Discount(tt.subtotal); !got.Equal(tt.want) {
				t.Errorf("Discount(%s) = %s, want %s", tt.subtotal, got, tt.want)
			}
		})
	}
}

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"81", 8100},
		{"12.345", 1235},
		{"0.1", 10},
	}
	for _, tt := range tests {
		if got := ToMinorUnits(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("ToMinorUnits(%s) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
