// Package pricing computes order totals in fixed-point decimal.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// moneyPlaces is the number of fractional digits for monetary amounts.
const moneyPlaces = 2

// Config holds the pricing parameters.
type Config struct {
	// TaxRate is applied to the subtotal, e.g. 0.08 for 8%.
	TaxRate decimal.Decimal
	// ShippingFee is a flat per-order charge.
	ShippingFee decimal.Decimal
}

// DefaultConfig returns the default tax rate (8%) and flat shipping fee.
func DefaultConfig() Config {
	return Config{
		TaxRate:     decimal.NewFromFloat(0.08),
		ShippingFee: decimal.NewFromFloat(10.00),
	}
}

// Line is one (unit price, quantity) pair to be priced.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Quote is the result of pricing a set of lines. Total is always the exact
// sum of the other three components.
type Quote struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// Calculator prices order lines. It is pure: no external state, no side
// effects.
type Calculator struct {
	cfg Config
}

// NewCalculator creates a calculator with the given configuration.
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// LineTotal returns the extended price of a single line, rounded to two
// places with banker's rounding.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).RoundBank(moneyPlaces)
}

// Price computes subtotal, tax, shipping and total for the given lines.
// Each component is rounded exactly once, at finalisation, using banker's
// rounding (round half to even). Rejects quantities below one and negative
// unit prices.
func (c *Calculator) Price(lines []Line) (Quote, error) {
	if len(lines) == 0 {
		return Quote{}, fmt.Errorf("pricing requires at least one line")
	}

	subtotal := decimal.Zero
	for i, line := range lines {
		if line.Quantity < 1 {
			return Quote{}, fmt.Errorf("line %d: quantity must be at least 1, got %d", i, line.Quantity)
		}
		if line.UnitPrice.IsNegative() {
			return Quote{}, fmt.Errorf("line %d: unit price must not be negative, got %s", i, line.UnitPrice)
		}
		subtotal = subtotal.Add(LineTotal(line.UnitPrice, line.Quantity))
	}

	subtotal = subtotal.RoundBank(moneyPlaces)
	tax := subtotal.Mul(c.cfg.TaxRate).RoundBank(moneyPlaces)
	shipping := c.cfg.ShippingFee.RoundBank(moneyPlaces)

	return Quote{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}, nil
}
