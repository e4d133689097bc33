package amqp

import (
	"encoding/json"
	"time"

	"hesabdari/internal/ledger"
)

// TransactionEvent is the message published after a transaction was
// created, updated or deleted. It carries the full record so consumers
// never need to read the ledger back.
type TransactionEvent struct {
	Kind        string          `json:"kind"`
	Revision    uint64          `json:"revision"`
	Transaction TransactionBody `json:"transaction"`
	Timestamp   time.Time       `json:"timestamp"`
}

type TransactionBody struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Amount   float64   `json:"amount"`
	Date     time.Time `json:"date"`
	Category string    `json:"category"`
	Type     string    `json:"type"`
}

// NewTransactionEvent builds the message for a ledger event.
func NewTransactionEvent(ev ledger.Event) *TransactionEvent {
	t := ev.Transaction
	ts := ev.At
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &TransactionEvent{
		Kind:     string(ev.Kind),
		Revision: ev.Revision,
		Transaction: TransactionBody{
			ID:       t.ID,
			Title:    t.Title,
			Amount:   t.Amount,
			Date:     t.Date.UTC(),
			Category: t.Category,
			Type:     string(t.Type),
		},
		Timestamp: ts,
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON decodes a message produced by ToJSON.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
