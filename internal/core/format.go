package core

import (
	"strconv"
	"time"
)

// FormatDate renders a date as dd/mm/yyyy, the display format used across
// the ledger and every exported document.
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// FormatPercent renders a 0-100 realization percentage without decimals,
// e.g. "111%". Values are rounded half away from zero.
func FormatPercent(p float64) string {
	rounded := int64(p + 0.5)
	if p < 0 {
		rounded = int64(p - 0.5)
	}
	return strconv.FormatInt(rounded, 10) + "%"
}
