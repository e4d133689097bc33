package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"hesabdari/internal/core"
)

// isoMillis matches the ISO-8601 form browsers emit for Date.toISOString.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// wireRecord is the persisted shape of one transaction. Category and type
// are pointers so records written before those fields existed can be told
// apart from records holding empty values.
type wireRecord struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Amount   float64 `json:"amount"`
	Date     string  `json:"date"`
	Category *string `json:"category,omitempty"`
	Type     *string `json:"type,omitempty"`
}

// Encode serializes the sequence as a JSON array, preserving order.
func Encode(items []core.Transaction) ([]byte, error) {
	out := make([]wireRecord, len(items))
	for i, t := range items {
		category := t.Category
		typ := string(t.Type)
		out[i] = wireRecord{
			ID:       t.ID,
			Title:    t.Title,
			Amount:   t.Amount,
			Date:     t.Date.UTC().Format(isoMillis),
			Category: &category,
			Type:     &typ,
		}
	}
	return json.Marshal(out)
}

// Decode parses a blob written by Encode or by an older schema revision.
//
// Records lacking a category get "" and records lacking a valid type get
// core.Expense. Dates may be RFC 3339 instants or calendar dates; a date
// that cannot be read leaves the record undated (zero time) rather than
// failing the blob. Records with a missing or repeated ID come back with an
// empty ID; the store assigns a fresh one. Only malformed JSON is an error.
func Decode(blob []byte) ([]core.Transaction, error) {
	trimmed := bytes.TrimSpace(blob)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.New("blob is not a JSON array")
	}
	var records []wireRecord
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}

	seen := make(map[string]struct{}, len(records))
	items := make([]core.Transaction, len(records))
	for i, r := range records {
		t := core.Transaction{
			ID:     r.ID,
			Title:  r.Title,
			Amount: r.Amount,
			Type:   core.Expense,
		}
		if date, err := core.ParseDate(r.Date); err == nil {
			t.Date = date
		}
		if r.Category != nil {
			t.Category = *r.Category
		}
		if r.Type != nil {
			if typ, err := core.ParseType(*r.Type); err == nil {
				t.Type = typ
			}
		}
		if _, dup := seen[t.ID]; dup {
			t.ID = ""
		} else if t.ID != "" {
			seen[t.ID] = struct{}{}
		}
		items[i] = t
	}
	return items, nil
}
