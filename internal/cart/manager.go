// Package cart holds one user's order lines and derives the amounts owed for them.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"eatme/pkg/model"
	"eatme/pkg/storage"

	"github.com/shopspring/decimal"
)

var ErrInvalidItem = errors.New("cart item must have an id and a non-negative price")

var hundred = decimal.NewFromInt(100)

type Totals struct {
	Subtotal        float64 `json:"subtotal"`
	LoyaltyDiscount float64 `json:"loyalty_discount"`
	Total           float64 `json:"total"`
	AmountMinor     int64   `json:"amount_minor"`
	ItemCount       int     `json:"item_count"`
}

type Manager struct {
	mu     sync.Mutex
	store  storage.Store
	key    string
	policy RedemptionPolicy
	items  []model.CartItem
}

func NewManager(store storage.Store, uid string, policy RedemptionPolicy) *Manager {
	if policy == nil {
		policy = NoRedemption{}
	}
	return &Manager{
		store:  store,
		key:    storage.UserKey(storage.CartKey, uid),
		policy: policy,
	}
}

// Load reads the stored cart. A missing or unreadable entry starts an empty cart.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = nil
	raw, err := m.store.Get(ctx, m.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load cart: %w", err)
	}

	var stored []model.CartItem
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil
	}
	for _, item := range stored {
		if item.ID != "" && item.Quantity >= 1 {
			m.items = append(m.items, item)
		}
	}
	return nil
}

// Add increments the quantity of an existing line by one, or appends item with quantity one.
func (m *Manager) Add(ctx context.Context, item model.CartItem) error {
	if strings.TrimSpace(item.ID) == "" || item.UnitPrice < 0 {
		return ErrInvalidItem
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.indexOf(item.ID); i >= 0 {
		m.items[i].Quantity++
	} else {
		item.Quantity = 1
		m.items = append(m.items, item)
	}
	return m.persist(ctx)
}

// Remove drops the line with id. Absent ids are a no-op.
func (m *Manager) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return nil
	}
	m.items = append(m.items[:i], m.items[i+1:]...)
	return m.persist(ctx)
}

// UpdateQuantity sets the quantity of id. Zero or below removes the line.
func (m *Manager) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return m.Remove(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return nil
	}
	m.items[i].Quantity = quantity
	return m.persist(ctx)
}

func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = nil
	if err := m.store.Delete(ctx, m.key); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrNotPersisted, err)
	}
	return nil
}

func (m *Manager) Items() []model.CartItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.CartItem, len(m.items))
	copy(out, m.items)
	return out
}

func (m *Manager) IsEmpty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items) == 0
}

func (m *Manager) Subtotal() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subtotal()
}

func (m *Manager) LoyaltyDiscount() decimal.Decimal {
	return m.policy.Discount(m.Subtotal())
}

// Total is the subtotal less the loyalty discount, floored at zero.
func (m *Manager) Total() decimal.Decimal {
	subtotal := m.Subtotal()
	total := subtotal.Sub(m.policy.Discount(subtotal))
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

func (m *Manager) Totals() Totals {
	m.mu.Lock()
	subtotal := m.subtotal()
	count := 0
	for _, item := range m.items {
		count += item.Quantity
	}
	m.mu.Unlock()

	discount := m.policy.Discount(subtotal)
	total := decimal.Max(subtotal.Sub(discount), decimal.Zero)

	return Totals{
		Subtotal:        subtotal.InexactFloat64(),
		LoyaltyDiscount: discount.InexactFloat64(),
		Total:           total.InexactFloat64(),
		AmountMinor:     ToMinorUnits(total),
		ItemCount:       count,
	}
}

// ToMinorUnits converts a currency amount to its smallest unit, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

func (m *Manager) subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range m.items {
		line := decimal.NewFromFloat(item.UnitPrice).Mul(decimal.NewFromInt(int64(item.Quantity)))
		sum = sum.Add(line)
	}
	return sum
}

func (m *Manager) indexOf(id string) int {
	for i, item := range m.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) persist(ctx context.Context) error {
	items := m.items
	if items == nil {
		items = []model.CartItem{}
	}
	if err := storage.SaveJSON(ctx, m.store, m.key, items); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrNotPersisted, err)
	}
	return nil
}
