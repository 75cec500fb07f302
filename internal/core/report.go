package core

import "time"

type (
	// ReportRow is one reconciled line of the "État de Caisse": planned vs
	// realized for a single category. Rows are derived on every build and
	// never persisted.
	ReportRow struct {
		Seq        int
		CategoryID string
		Category   string
		Planned    Money
		Realized Money
		Percent  float64 // 0-100 scale
		Variance Money   // realized - planned, may be negative
	}

	ReportTotals struct {
		Planned  Money
		Realized Money
	}

	// Report holds the reconciled rows of one kind.
	Report struct {
		Kind   Kind
		Rows   []ReportRow
		Totals ReportTotals
	}

	// Statement is the full report: both kinds plus the realized net balance.
	Statement struct {
		Period      Period
		Income      Report
		Expense     Report
		NetBalance  Money // total realized income - total realized expense
		GeneratedAt time.Time
	}

	// Overlay carries unsaved planned-amount edits keyed by category id.
	// An overlay value takes precedence over the persisted budget entry.
	Overlay map[string]Money

	// LogEntry is a journal line: a transaction with its category name
	// resolved. Unclassified transactions keep an empty category name.
	LogEntry struct {
		Transaction Transaction
		Category    string
	}
)

// BuildReport reconciles the categories of one kind against the
// period-filtered transactions and the month's budget entries.
//
// Rows keep the category order of the input and are numbered from 1.
// Realized is the sum of transaction amounts referencing the category;
// transactions without a category reference contribute to no row. Planned
// resolves overlay first, then the persisted budget entry, then zero.
func BuildReport(categories []Category, transactions []Transaction, budgets []BudgetEntry, overlay Overlay, kind Kind) Report {
	realized := make(map[string]int64)
	for _, tx := range transactions {
		if tx.Kind != kind || tx.CategoryID == "" {
			continue
		}
		realized[tx.CategoryID] += tx.Amount.Cents
	}

	planned := make(map[string]int64)
	for _, b := range budgets {
		if b.Kind == kind {
			planned[b.CategoryID] = b.Planned.Cents
		}
	}

	report := Report{Kind: kind}
	for _, cat := range categories {
		if cat.Kind != kind {
			continue
		}
		p := planned[cat.ID]
		if pending, ok := overlay[cat.ID]; ok {
			p = pending.Cents
		}
		r := realized[cat.ID]
		row := ReportRow{
			Seq:        len(report.Rows) + 1,
			CategoryID: cat.ID,
			Category:   cat.Name,
			Planned:    Money{Cents: p},
			Realized:   Money{Cents: r},
			Percent:    realizationPercent(p, r),
			Variance:   Money{Cents: r - p},
		}
		report.Rows = append(report.Rows, row)
		report.Totals.Planned.Cents += p
		report.Totals.Realized.Cents += r
	}
	return report
}

// realizationPercent applies the division-by-zero policy: with no plan, any
// realization counts as 100%, none as 0%.
func realizationPercent(planned, realized int64) float64 {
	if planned > 0 {
		return float64(realized) / float64(planned) * 100
	}
	if realized > 0 {
		return 100
	}
	return 0
}

// BuildStatement reconciles both kinds and derives the net balance from
// realized figures only.
func BuildStatement(categories []Category, transactions []Transaction, budgets []BudgetEntry, incomeOverlay, expenseOverlay Overlay, period Period, generatedAt time.Time) Statement {
	income := BuildReport(categories, transactions, budgets, incomeOverlay, KindIncome)
	expense := BuildReport(categories, transactions, budgets, expenseOverlay, KindExpense)
	return Statement{
		Period:      period,
		Income:      income,
		Expense:     expense,
		NetBalance:  Money{Cents: income.Totals.Realized.Cents - expense.Totals.Realized.Cents},
		GeneratedAt: generatedAt,
	}
}
