package core

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// Field names used in FieldErrors.
const (
	FieldTitle    = "title"
	FieldAmount   = "amount"
	FieldDate     = "date"
	FieldCategory = "category"
	FieldType     = "type"
)

// Draft is raw form input for one transaction, before validation.
type Draft struct {
	Title    string
	Amount   string
	Date     string
	Category string
	Type     string
}

// FieldErrors maps a field name to a message meant for display next to it.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "invalid transaction: " + strings.Join(parts, "; ")
}

// AsFieldErrors extracts FieldErrors from err.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate accepts a calendar date or an RFC 3339 instant, in any supported
// digit script. The result is in UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(ToWestern(s))
	if s == "" {
		return time.Time{}, ErrMissingDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// Validate turns the draft into an Entry or returns FieldErrors describing
// every invalid field.
func (d Draft) Validate() (Entry, error) {
	errs := FieldErrors{}
	var e Entry

	e.Title = strings.TrimSpace(d.Title)
	if e.Title == "" {
		errs[FieldTitle] = "title cannot be empty"
	}

	amount, err := ParseAmount(d.Amount)
	switch {
	case err == nil:
		e.Amount = amount
	case strings.TrimSpace(d.Amount) == "":
		errs[FieldAmount] = "amount cannot be empty"
	case errors.Is(err, ErrNonPositiveAmount):
		errs[FieldAmount] = "amount must be positive"
	default:
		errs[FieldAmount] = "amount must be a number"
	}

	date, err := ParseDate(d.Date)
	switch {
	case err == nil:
		e.Date = date
	case errors.Is(err, ErrMissingDate):
		errs[FieldDate] = "date cannot be empty"
	default:
		errs[FieldDate] = "date is not a valid calendar date"
	}

	e.Category = strings.TrimSpace(d.Category)
	if e.Category == "" {
		errs[FieldCategory] = "category cannot be empty"
	}

	if strings.TrimSpace(d.Type) == "" {
		e.Type = Expense
	} else if t, err := ParseType(d.Type); err == nil {
		e.Type = t
	} else {
		errs[FieldType] = "type must be income or expense"
	}

	if len(errs) > 0 {
		return Entry{}, errs
	}
	return e, nil
}

// DraftFrom fills a draft from a stored transaction, for edit forms. An
// undated transaction leaves the date blank.
func DraftFrom(t Transaction) Draft {
	d := Draft{
		Title:    t.Title,
		Amount:   FormatAmount(t.Amount),
		Category: t.Category,
		Type:     string(t.Type),
	}
	if !t.Date.IsZero() {
		d.Date = t.Date.UTC().Format("2006-01-02")
	}
	return d
}
