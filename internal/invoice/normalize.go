package invoice

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// CurrencyPrefix starts every canonical currency string
const CurrencyPrefix = "INR"

// CurrencyFields are rewritten into canonical currency strings
var CurrencyFields = []string{
	"invoiced_amount",
	"total_amount",
	"gst",
	"subtotal",
	"item_price",
	"item_2_price",
	"item_total",
	"item_2_total",
}

// NormalizeCurrency formats a numeric value as "INR #,##0.00".
// It returns nil when the value is empty or not a number. A value that is
// already canonical comes back unchanged.
func NormalizeCurrency(value string) *string {
	amount, ok := parseAmount(value)
	if !ok {
		return nil
	}
	s := CurrencyPrefix + " " + formatAmount(amount)
	return &s
}

// formatAmount rounds to two decimals and groups the integer digits.
// Grouping goes through big.Int so amounts beyond int64 keep their digits.
func formatAmount(amount float64) string {
	digits := strconv.FormatFloat(amount, 'f', 2, 64)
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	whole, frac, _ := strings.Cut(digits, ".")

	n, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return sign + digits
	}
	return sign + humanize.BigComma(n) + "." + frac
}

// parseAmount reads a plain or canonical amount
func parseAmount(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	value = strings.TrimSpace(strings.TrimPrefix(value, CurrencyPrefix))
	value = strings.ReplaceAll(value, ",", "")
	if value == "" {
		return 0, false
	}
	// Values beyond float64 range fail with ErrRange and become null
	amount, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, false
	}
	return amount, true
}

// NormalizeTable rewrites the currency columns of every row.
// Currency columns missing from the table are skipped.
func NormalizeTable(t *Table) {
	present := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		present[c] = true
	}

	for _, field := range CurrencyFields {
		if !present[field] {
			continue
		}
		for _, row := range t.Rows {
			v := row.Values[field]
			if v == nil {
				continue
			}
			row.Values[field] = NormalizeCurrency(*v)
		}
	}
}
