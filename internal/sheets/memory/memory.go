// Package memory is an in-process sheet mirror for tests and local runs.
package memory

import (
	"context"
	"sync"

	"github.com/barthos4/ma-caisse/internal/sheets"
)

type Mirror struct {
	mu   sync.Mutex
	rows []sheets.Row
}

var (
	_ sheets.RowAppender = (*Mirror)(nil)
	_ sheets.RowRemover  = (*Mirror)(nil)
)

func New() *Mirror {
	return &Mirror{}
}

func (m *Mirror) AppendRow(_ context.Context, row sheets.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, row)
	return nil
}

func (m *Mirror) RemoveRow(_ context.Context, transactionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rows[:0]
	for _, r := range m.rows {
		if r.TransactionID != transactionID {
			kept = append(kept, r)
		}
	}
	m.rows = kept
	return nil
}

// Rows returns a copy of the mirrored rows.
func (m *Mirror) Rows() []sheets.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sheets.Row, len(m.rows))
	copy(out, m.rows)
	return out
}
