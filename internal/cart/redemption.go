package cart

import "github.com/shopspring/decimal"

// RedemptionPolicy decides how much loyalty value is taken off a subtotal.
type RedemptionPolicy interface {
	Discount(subtotal decimal.Decimal) decimal.Decimal
}

// FlatRedemption applies a fixed amount to any non-empty cart.
type FlatRedemption struct {
	Amount decimal.Decimal
}

func NewFlatRedemption(points int) FlatRedemption {
	return FlatRedemption{Amount: decimal.NewFromInt(int64(points))}
}

func (f FlatRedemption) Discount(subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() || f.Amount.IsNegative() {
		return decimal.Zero
	}
	return f.Amount
}

// BalanceRedemption spends the user's stored points, one point per whole currency
// unit, never more than the subtotal. The discount is always a whole number so it
// equals the points spent.
type BalanceRedemption struct {
	Balance int64
}

func (b BalanceRedemption) Discount(subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() || b.Balance <= 0 {
		return decimal.Zero
	}
	return decimal.Min(decimal.NewFromInt(b.Balance), subtotal.Floor())
}

// NoRedemption never discounts.
type NoRedemption struct{}

func (NoRedemption) Discount(decimal.Decimal) decimal.Decimal { return decimal.Zero }
