package money

import (
	"fmt"

	"github.com/shopspring/decimal"

	"pos-service/internal/models"
)

// Pricing arithmetic over order snapshots. Everything here is a pure
// function of its inputs; amounts stay at full precision and are rounded
// to 2 places only at presentation and gateway boundaries.

var (
	rateGST  = decimal.NewFromFloat(0.18)
	rateHalf = decimal.NewFromFloat(0.09)
)

// TaxRate returns the tax rate for an item's tax classification.
func TaxRate(taxClass string) decimal.Decimal {
	switch taxClass {
	case models.TaxClassGST:
		return rateGST
	case models.TaxClassCGST, models.TaxClassSGST:
		return rateHalf
	default:
		return decimal.Zero
	}
}

// LineTotal is the pre-tax value of a line: unit price times quantity.
func LineTotal(l models.OrderLine) decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LineTax is the tax amount owed on a line.
func LineTax(l models.OrderLine) decimal.Decimal {
	return LineTotal(l).Mul(TaxRate(l.TaxClass))
}

// Totals is the priced view of an order.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// OrderTotals computes subtotal, tax and the final total
// (subtotal + tax - discount) for a set of lines.
func OrderTotals(lines []models.OrderLine, discount decimal.Decimal) Totals {
	subtotal := decimal.Zero
	tax := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(LineTotal(l))
		tax = tax.Add(LineTax(l))
	}
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Discount: discount,
		Total:    subtotal.Add(tax).Sub(discount),
	}
}

// ValidateDiscount rejects negative discounts and discounts exceeding
// the pre-discount subtotal.
func ValidateDiscount(lines []models.OrderLine, discount decimal.Decimal) error {
	if discount.IsNegative() {
		return fmt.Errorf("%w: discount cannot be negative", models.ErrInvalidDiscount)
	}
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(LineTotal(l))
	}
	if discount.GreaterThan(subtotal) {
		return fmt.Errorf("%w: discount %s exceeds subtotal %s",
			models.ErrInvalidDiscount, Display(discount), Display(subtotal))
	}
	return nil
}

// ToMinorUnits converts an amount to integer minor units (paise) for
// gateway hand-off, rounding once to 2 places.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Round(2).Mul(decimal.NewFromInt(100)).IntPart()
}

// Display renders an amount rounded to 2 places for receipts and
// API payloads.
func Display(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
