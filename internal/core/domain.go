package core

import (
	"errors"
	"sort"
	"strings"
	"time"
)

const (
	Income  Type = "income"
	Expense Type = "expense"
)

type (
	// Type tells whether a transaction adds to or takes from the balance.
	Type string

	// Transaction is one monetary note.
	Transaction struct {
		ID       string
		Title    string
		Amount   float64
		Date     time.Time
		Category string
		Type     Type
	}

	// Entry is a transaction that has not been assigned an ID yet.
	Entry struct {
		Title    string
		Amount   float64
		Date     time.Time
		Category string
		Type     Type
	}

	// Patch overlays the non-nil fields on an existing transaction.
	Patch struct {
		Title    *string
		Amount   *float64
		Date     *time.Time
		Category *string
		Type     *Type
	}
)

var (
	ErrEmptyTitle        = errors.New("empty title")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrMissingDate       = errors.New("missing date")
	ErrInvalidDate       = errors.New("invalid date")
	ErrEmptyCategory     = errors.New("empty category")
	ErrInvalidType       = errors.New("invalid transaction type")
)

// ParseType accepts "income" or "expense" in any case.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case Income, Expense:
		return t, nil
	default:
		return "", ErrInvalidType
	}
}

func (t Type) IsValid() bool {
	return t == Income || t == Expense
}

func (t Type) String() string {
	return string(t)
}

// Validate checks an entry against the current schema.
func (e Entry) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	if e.Amount <= 0 {
		return ErrNonPositiveAmount
	}
	if e.Date.IsZero() {
		return ErrMissingDate
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if !e.Type.IsValid() {
		return ErrInvalidType
	}
	return nil
}

// WithID turns the entry into a stored transaction.
func (e Entry) WithID(id string) Transaction {
	return Transaction{
		ID:       id,
		Title:    e.Title,
		Amount:   e.Amount,
		Date:     e.Date.UTC(),
		Category: e.Category,
		Type:     e.Type,
	}
}

// Entry returns the editable part of the transaction.
func (t Transaction) Entry() Entry {
	return Entry{
		Title:    t.Title,
		Amount:   t.Amount,
		Date:     t.Date,
		Category: t.Category,
		Type:     t.Type,
	}
}

// FullPatch returns a patch replacing every editable field, date included.
func FullPatch(e Entry) Patch {
	date := e.Date.UTC()
	return Patch{
		Title:    &e.Title,
		Amount:   &e.Amount,
		Date:     &date,
		Category: &e.Category,
		Type:     &e.Type,
	}
}

// Apply returns t with the patch overlaid. The ID is never changed.
func (p Patch) Apply(t Transaction) Transaction {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Date != nil {
		t.Date = p.Date.UTC()
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	return t
}

// Categories returns the distinct non-empty categories, sorted.
func Categories(items []Transaction) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(items))
	for _, t := range items {
		c := strings.TrimSpace(t.Category)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
