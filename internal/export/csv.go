package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/barthos4/ma-caisse/internal/core"
)

// utf8BOM prefixes the CSV so spreadsheet tools pick up the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteTransactionLogCSV writes the journal entries as comma-separated rows
// with a UTF-8 byte-order mark. Amounts keep the locale display format.
func WriteTransactionLogCSV(w io.Writer, entries []core.LogEntry) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(logColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range entries {
		tx := e.Transaction
		rec := []string{
			core.FormatDate(tx.Date),
			tx.OrderNumber,
			tx.Description,
			tx.Reference,
			e.Category,
			kindLabel(tx.Kind),
			tx.Amount.Format(),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
