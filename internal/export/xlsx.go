package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/barthos4/ma-caisse/internal/core"
)

const sheetName = "Etat de Caisse"

// xlsxStyles holds the style ids registered once per workbook.
type xlsxStyles struct {
	title    int
	section  int
	header   int
	currency int
	bold     int
	boldCur  int
	percent  int
}

// WriteStatementXLSX renders the statement as a single worksheet. Currency
// cells are stored as numeric units with a "FCFA" display format and
// percentage cells as 0-1 fractions with a percent format, so the sheet
// stays computable.
func WriteStatementXLSX(w io.Writer, st core.Statement, settings core.Settings) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	styles, err := registerStyles(f)
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "A", "A", 6); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(sheetName, "B", "B", 32); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(sheetName, "C", "F", 16); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	sw := sheetWriter{f: f, styles: styles, row: 1}

	sw.merged(settings.CompanyName, styles.title)
	if settings.Address != "" {
		sw.merged(settings.Address, 0)
	}
	sw.blank()
	sw.merged(statementTitle, styles.title)
	sw.merged(periodLine(st.Period), 0)
	sw.merged(generatedLine(st), 0)
	sw.blank()

	sw.reportBlock(labelIncome, labelTotalIn, st.Income)
	sw.blank()
	sw.reportBlock(labelExpense, labelTotalOut, st.Expense)
	sw.blank()

	sw.labeled("Total Recettes", st.Income.Totals.Realized, styles.currency)
	sw.labeled("Total Dépenses", st.Expense.Totals.Realized, styles.currency)
	sw.labeled(labelNetBalance, st.NetBalance, styles.boldCur)

	if line := fiscalLine(settings); line != "" {
		sw.blank()
		sw.merged(line, 0)
	}

	if sw.err != nil {
		return sw.err
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func registerStyles(f *excelize.File) (xlsxStyles, error) {
	currencyFmt := "#,##0\\ \"FCFA\""
	var s xlsxStyles
	var err error

	center := &excelize.Alignment{Horizontal: "center"}
	if s.title, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 13}, Alignment: center,
	}); err != nil {
		return s, fmt.Errorf("register style: %w", err)
	}
	if s.section, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true}, Alignment: center,
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDDDDD"}},
	}); err != nil {
		return s, fmt.Errorf("register style: %w", err)
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true}, Alignment: center,
	}); err != nil {
		return s, fmt.Errorf("register style: %w", err)
	}
	if s.currency, err = f.NewStyle(&excelize.Style{CustomNumFmt: &currencyFmt}); err != nil {
		return s, fmt.Errorf("register style: %w", err)
	}
	if s.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, fmt.Errorf("register style: %w", err)
	}
	if s.boldCur, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true}, CustomNumFmt: &currencyFmt,
	}); err != nil {
		return s, fmt.Errorf("register style: %w", err)
	}
	// Builtin format 9 is "0%".
	percentFmt := 9
	if s.percent, err = f.NewStyle(&excelize.Style{NumFmt: percentFmt}); err != nil {
		return s, fmt.Errorf("register style: %w", err)
	}
	return s, nil
}

// sheetWriter appends rows top to bottom, keeping the first error.
type sheetWriter struct {
	f      *excelize.File
	styles xlsxStyles
	row    int
	err    error
}

func (sw *sheetWriter) blank() { sw.row++ }

func (sw *sheetWriter) merged(text string, style int) {
	if sw.err != nil {
		return
	}
	first := fmt.Sprintf("A%d", sw.row)
	last := fmt.Sprintf("F%d", sw.row)
	if err := sw.f.MergeCell(sheetName, first, last); err != nil {
		sw.err = fmt.Errorf("merge %s: %w", first, err)
		return
	}
	sw.set(first, text, style)
	sw.row++
}

func (sw *sheetWriter) labeled(label string, amount core.Money, style int) {
	if sw.err != nil {
		return
	}
	sw.set(fmt.Sprintf("B%d", sw.row), label, sw.styles.bold)
	sw.set(fmt.Sprintf("C%d", sw.row), moneyUnits(amount), style)
	sw.row++
}

func (sw *sheetWriter) reportBlock(section, totalLabel string, rep core.Report) {
	if sw.err != nil {
		return
	}
	sw.merged(section, sw.styles.section)

	for col, name := range reportColumns {
		cell, _ := excelize.CoordinatesToCellName(col+1, sw.row)
		sw.set(cell, name, sw.styles.header)
	}
	sw.row++

	for _, r := range rep.Rows {
		sw.set(fmt.Sprintf("A%d", sw.row), r.Seq, 0)
		sw.set(fmt.Sprintf("B%d", sw.row), r.Category, 0)
		sw.set(fmt.Sprintf("C%d", sw.row), moneyUnits(r.Planned), sw.styles.currency)
		sw.set(fmt.Sprintf("D%d", sw.row), moneyUnits(r.Realized), sw.styles.currency)
		sw.set(fmt.Sprintf("E%d", sw.row), r.Percent/100, sw.styles.percent)
		sw.set(fmt.Sprintf("F%d", sw.row), moneyUnits(r.Variance), sw.styles.currency)
		sw.row++
	}

	sw.set(fmt.Sprintf("B%d", sw.row), totalLabel, sw.styles.bold)
	sw.set(fmt.Sprintf("C%d", sw.row), moneyUnits(rep.Totals.Planned), sw.styles.boldCur)
	sw.set(fmt.Sprintf("D%d", sw.row), moneyUnits(rep.Totals.Realized), sw.styles.boldCur)
	sw.row++
}

func (sw *sheetWriter) set(cell string, value any, style int) {
	if sw.err != nil {
		return
	}
	if err := sw.f.SetCellValue(sheetName, cell, value); err != nil {
		sw.err = fmt.Errorf("set %s: %w", cell, err)
		return
	}
	if style != 0 {
		if err := sw.f.SetCellStyle(sheetName, cell, cell, style); err != nil {
			sw.err = fmt.Errorf("style %s: %w", cell, err)
		}
	}
}

// moneyUnits converts cents to display units for numeric cells.
func moneyUnits(m core.Money) float64 {
	return float64(m.Cents) / 100
}
