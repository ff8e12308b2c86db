// Package money converts between integer minor-unit amounts (cents) and their
// decimal and display representations. Every amount stored by the system is
// an int64 number of cents; floats only appear at the edges.
package money

import (
	"fmt"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency is the only currency the workshop books in.
const Currency = gomoney.BRL

var hundred = decimal.NewFromInt(100)

// Parse reads a user-typed amount into cents.
// Brazilian format is accepted ("1.234,56" -> 123456, "150,00" -> 15000),
// as is a plain decimal ("150.5" -> 15050).
func Parse(s string) (int64, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "R$")
	clean = strings.TrimSpace(clean)

	if clean == "" {
		return 0, fmt.Errorf("empty amount")
	}

	if strings.Contains(clean, ",") {
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", s, err)
	}

	return d.Mul(hundred).Round(0).IntPart(), nil
}

// FromFloat converts a float amount (e.g. 150.5) into cents, rounding to the
// nearest cent.
func FromFloat(f float64) int64 {
	return decimal.NewFromFloat(f).Mul(hundred).Round(0).IntPart()
}

// ToFloat converts cents into a float amount. Only for display and charts.
func ToFloat(cents int64) float64 {
	return decimal.New(cents, -2).InexactFloat64()
}

// Decimal renders cents with two decimals and a comma separator, no grouping
// ("15000" -> "150,00"). Used by the CSV export.
func Decimal(cents int64) string {
	return strings.Replace(decimal.New(cents, -2).StringFixed(2), ".", ",", 1)
}

// Format renders cents as a BRL display string, e.g. "R$1.234,56".
func Format(cents int64) string {
	return gomoney.New(cents, Currency).Display()
}

// Split divides total into count installments. Every installment but the last
// is truncated to whole cents; the last one absorbs the remainder so the
// series always sums to total.
func Split(total int64, count int) []int64 {
	if count <= 0 {
		return nil
	}

	parts := make([]int64, count)
	each := total / int64(count)

	for i := range parts {
		parts[i] = each
	}

	parts[count-1] += total - each*int64(count)

	return parts
}

// Sum adds up amounts.
func Sum(amounts ...int64) int64 {
	var total int64
	for _, a := range amounts {
		total += a
	}

	return total
}
