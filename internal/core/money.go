// Package core provides the ledger domain model, money handling and the
// budget reconciliation engine.
//
// This file contains parsing and formatting of monetary amounts. Amounts are
// stored as int64 cents; formatting follows the French locale (narrow no-break
// space thousands separator, decimal comma) with a currency suffix.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// Currency is the display suffix appended to formatted amounts.
const Currency = "FCFA"

// thinSpace is the narrow no-break space used as thousands separator in the
// fr locale. PDF text layout does not render it reliably, hence PDFSafe below.
const thinSpace = " "

// ParseDecimalToCents converts a decimal string to cents with half-up
// rounding on the third decimal place. Both dot and comma separators are
// accepted. Only strictly positive amounts are valid.
func ParseDecimalToCents(s string) (int64, error) {
	cents, err := parseCents(s)
	if err != nil {
		return 0, err
	}
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParsePlannedToCents parses a planned (budget) amount. Unlike transaction
// amounts, zero is a valid plan; a blank or non-numeric string is coerced to
// zero, matching the budget edit behavior. Negative values stay an error.
// Values round-tripped from the formatted display ("1 800 FCFA") parse to
// their amount: the currency suffix and group separators are stripped first.
func ParsePlannedToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, Currency)
	s = groupSeparatorReplacer.Replace(s)
	if s == "" {
		return 0, nil
	}
	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativePlanned
	}
	cents, err := parseCents(s)
	if err != nil {
		return 0, nil // non-numeric input coerces to a zero plan
	}
	return cents, nil
}

var groupSeparatorReplacer = strings.NewReplacer(thinSpace, "", " ", "", " ", "")

func parseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// First two fractional digits, half-up rounding on the third.
	var fracCents int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracCents = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracCents += d2
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}

// Format renders the amount in the fr locale: "1 234 567 FCFA". Whole-unit
// amounts drop the decimal part; fractional amounts use a decimal comma.
func (m Money) Format() string {
	neg := m.Cents < 0
	cents := m.Cents
	if neg {
		cents = -cents
	}
	units := cents / 100
	rem := cents % 100
	s := groupThousands(strconv.FormatInt(units, 10), thinSpace)
	if rem != 0 {
		s += "," + pad2(rem)
	}
	if neg {
		s = "-" + s
	}
	return s + thinSpace + Currency
}

// Decimal renders the amount as a plain dot-decimal string ("1800",
// "1800.50") with no grouping and no suffix, for numeric form inputs.
func (m Money) Decimal() string {
	neg := m.Cents < 0
	cents := m.Cents
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10)
	if rem := cents % 100; rem != 0 {
		s += "." + pad2(rem)
	}
	if neg {
		s = "-" + s
	}
	return s
}

// PDFSafe renders the amount with plain ASCII spaces in place of the locale
// separators, for embedding in PDF text cells.
func (m Money) PDFSafe() string {
	return pdfSafeReplacer.Replace(m.Format())
}

var pdfSafeReplacer = strings.NewReplacer(thinSpace, " ", " ", " ")

func groupThousands(digits, sep string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func pad2(v int64) string {
	if v < 10 {
		return "0" + strconv.FormatInt(v, 10)
	}
	return strconv.FormatInt(v, 10)
}
