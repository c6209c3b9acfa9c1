package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"pos-service/internal/models"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestOrderTotalsWithGSTAndDiscount(t *testing.T) {
	lines := []models.OrderLine{
		{UnitPrice: dec("100.00"), Quantity: 2, TaxClass: models.TaxClassGST},
	}

	totals := OrderTotals(lines, dec("20.00"))

	assert.True(t, totals.Subtotal.Equal(dec("200.00")), "subtotal = %s", totals.Subtotal)
	assert.True(t, totals.Tax.Equal(dec("36.00")), "tax = %s", totals.Tax)
	assert.True(t, totals.Total.Equal(dec("216.00")), "total = %s", totals.Total)
}

func TestOrderTotalsMixedTaxClasses(t *testing.T) {
	lines := []models.OrderLine{
		{UnitPrice: dec("50.00"), Quantity: 1, TaxClass: models.TaxClassCGST},
		{UnitPrice: dec("50.00"), Quantity: 1, TaxClass: models.TaxClassSGST},
		{UnitPrice: dec("10.00"), Quantity: 3, TaxClass: models.TaxClassNone},
	}

	totals := OrderTotals(lines, decimal.Zero)

	assert.True(t, totals.Subtotal.Equal(dec("130.00")))
	assert.True(t, totals.Tax.Equal(dec("9.00")))
	assert.True(t, totals.Total.Equal(dec("139.00")))
}

func TestTotalsInvariant(t *testing.T) {
	lines := []models.OrderLine{
		{UnitPrice: dec("33.33"), Quantity: 3, TaxClass: models.TaxClassGST},
		{UnitPrice: dec("0.05"), Quantity: 7, TaxClass: models.TaxClassCGST},
	}
	discount := dec("1.50")

	totals := OrderTotals(lines, discount)

	assert.True(t, totals.Total.Equal(totals.Subtotal.Add(totals.Tax).Sub(discount)))
}

func TestFullPrecisionUntilDisplay(t *testing.T) {
	// 33.33 * 3 * 0.18 = 17.9982; no intermediate rounding
	lines := []models.OrderLine{
		{UnitPrice: dec("33.33"), Quantity: 3, TaxClass: models.TaxClassGST},
	}

	totals := OrderTotals(lines, decimal.Zero)

	assert.True(t, totals.Tax.Equal(dec("17.9982")), "tax = %s", totals.Tax)
	assert.Equal(t, "18.00", Display(totals.Tax))
}

func TestValidateDiscount(t *testing.T) {
	lines := []models.OrderLine{
		{UnitPrice: dec("100.00"), Quantity: 1, TaxClass: models.TaxClassGST},
	}

	assert.NoError(t, ValidateDiscount(lines, dec("100.00")))
	assert.NoError(t, ValidateDiscount(lines, decimal.Zero))

	err := ValidateDiscount(lines, dec("100.01"))
	assert.ErrorIs(t, err, models.ErrInvalidDiscount)

	err = ValidateDiscount(lines, dec("-1.00"))
	assert.ErrorIs(t, err, models.ErrInvalidDiscount)
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(21600), ToMinorUnits(dec("216.00")))
	assert.Equal(t, int64(21600), ToMinorUnits(dec("215.995")))
	assert.Equal(t, int64(9), ToMinorUnits(dec("0.09")))
	assert.Equal(t, int64(0), ToMinorUnits(decimal.Zero))
}

func TestTaxRateUnknownClassIsZero(t *testing.T) {
	assert.True(t, TaxRate("vat").IsZero())
	assert.True(t, TaxRate("").IsZero())
}
