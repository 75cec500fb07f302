package amqp

import (
	"encoding/json"
	"time"
)

// TransactionMirrorMessage asks the worker to mirror one transaction to the
// off-site sheet. It carries only identifiers; the worker fetches the full
// row from the repository.
type TransactionMirrorMessage struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Timestamp time.Time `json:"timestamp"`
}

// TransactionRemoveMessage asks the worker to drop a mirrored row. The row
// no longer exists locally, so the payload carries what the sheet lookup
// needs.
type TransactionRemoveMessage struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Date        string    `json:"date"` // YYYY-MM-DD
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewTransactionMirrorMessage(id, ownerID string) *TransactionMirrorMessage {
	return &TransactionMirrorMessage{ID: id, OwnerID: ownerID, Timestamp: time.Now()}
}

func (m *TransactionMirrorMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionMirrorMessageFromJSON(data []byte) (*TransactionMirrorMessage, error) {
	var msg TransactionMirrorMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (m *TransactionRemoveMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionRemoveMessageFromJSON(data []byte) (*TransactionRemoveMessage, error) {
	var msg TransactionRemoveMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
