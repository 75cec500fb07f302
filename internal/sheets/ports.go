package sheets

import "context"

// Row is one mirrored transaction-log line. The transaction id in the first
// column is the lookup key for later removal.
type Row struct {
	TransactionID string
	Date          string // YYYY-MM-DD
	OrderNumber   string
	Description   string
	Reference     string
	Category      string
	Kind          string
	AmountCents   int64
}

// Ports for outbound adapters.
type (
	RowAppender interface {
		AppendRow(ctx context.Context, row Row) error
	}

	RowRemover interface {
		RemoveRow(ctx context.Context, transactionID string) error
	}
)
