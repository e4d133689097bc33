package core

import (
	"strings"
	"time"
)

// AllCategories is the category filter value that matches every record.
const AllCategories = "all"

// LevyPercent is the fixed share of the total shown next to it.
const LevyPercent = 8

const (
	// FallbackToAll aggregates over the whole list when the filter matches
	// nothing but the list is not empty.
	FallbackToAll FallbackPolicy = iota
	// FallbackNone always aggregates over the filtered subset.
	FallbackNone
)

type (
	// FallbackPolicy decides what the aggregates cover when a filter
	// matches no record.
	FallbackPolicy int

	// Filter selects records for the derived view. The zero value matches
	// everything.
	Filter struct {
		Search   string
		Category string
		From     time.Time // inclusive calendar day, zero means unbounded
		To       time.Time // inclusive calendar day, zero means unbounded
	}

	// View is the filtered list plus its aggregates.
	View struct {
		Items    []Transaction
		Total    float64
		Levy     float64
		FellBack bool
	}
)

// ParseFallbackPolicy maps "all" and "none" to a policy.
func ParseFallbackPolicy(s string) (FallbackPolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FallbackToAll, true
	case "none":
		return FallbackNone, true
	}
	return FallbackToAll, false
}

// Key returns a stable string for the filter, usable as a cache key.
func (f Filter) Key() string {
	var b strings.Builder
	b.WriteString(strings.ToLower(f.search()))
	b.WriteByte('|')
	b.WriteString(f.category())
	b.WriteByte('|')
	if !f.From.IsZero() {
		b.WriteString(f.From.UTC().Format(time.DateOnly))
	}
	b.WriteByte('|')
	if !f.To.IsZero() {
		b.WriteString(f.To.UTC().Format(time.DateOnly))
	}
	return b.String()
}

// search is the search string, or "" when it holds only whitespace.
func (f Filter) search() string {
	if strings.TrimSpace(f.Search) == "" {
		return ""
	}
	return f.Search
}

func (f Filter) category() string {
	c := strings.TrimSpace(f.Category)
	if strings.EqualFold(c, AllCategories) {
		return ""
	}
	return c
}

// Match reports whether t passes every condition of the filter.
func (f Filter) Match(t Transaction) bool {
	if search := f.search(); search != "" {
		if !strings.Contains(strings.ToLower(t.Title), strings.ToLower(search)) {
			return false
		}
	}
	if c := f.category(); c != "" && t.Category != c {
		return false
	}
	day := dayOf(t.Date)
	if !f.From.IsZero() && day.Before(dayOf(f.From)) {
		return false
	}
	if !f.To.IsZero() && day.After(dayOf(f.To)) {
		return false
	}
	return true
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Derive filters items and computes the total and levy. It never modifies
// items and returns a fresh slice.
func Derive(items []Transaction, f Filter, policy FallbackPolicy) View {
	v := View{Items: make([]Transaction, 0, len(items))}
	for _, t := range items {
		if f.Match(t) {
			v.Items = append(v.Items, t)
		}
	}

	over := v.Items
	if len(v.Items) == 0 && len(items) > 0 && policy == FallbackToAll {
		over = items
		v.FellBack = true
	}
	v.Total = Sum(over)
	v.Levy = Levy(v.Total)
	return v
}

// Sum adds up the amounts.
func Sum(items []Transaction) float64 {
	var total float64
	for _, t := range items {
		total += t.Amount
	}
	return total
}

// Levy returns the fixed LevyPercent share of total.
func Levy(total float64) float64 {
	return total * LevyPercent / 100
}
