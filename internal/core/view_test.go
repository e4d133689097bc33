package core

import (
	"reflect"
	"testing"
	"time"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func sample() []Transaction {
	return []Transaction{
		{ID: "3", Title: "Coffee beans", Amount: 40, Date: day(2024, 3, 10).Add(15 * time.Hour), Category: "food", Type: Expense},
		{ID: "2", Title: "Salary", Amount: 1000, Date: day(2024, 2, 28), Category: "work", Type: Income},
		{ID: "1", Title: "coffee shop", Amount: 10, Date: day(2024, 1, 5), Category: "food", Type: Expense},
	}
}

func ids(items []Transaction) []string {
	out := make([]string, len(items))
	for i, t := range items {
		out[i] = t.ID
	}
	return out
}

func TestDeriveTotalsWithoutFilter(t *testing.T) {
	items := []Transaction{
		{ID: "a", Title: "A", Amount: 100, Date: day(2024, 1, 1), Category: "x"},
		{ID: "b", Title: "B", Amount: 200, Date: day(2024, 1, 2), Category: "y"},
	}
	v := Derive(items, Filter{Category: AllCategories}, FallbackToAll)
	if v.Total != 300 || v.Levy != 24 {
		t.Fatalf("total=%v levy=%v, want 300/24", v.Total, v.Levy)
	}
	if len(v.Items) != 2 || v.FellBack {
		t.Fatalf("unexpected view %+v", v)
	}
}

func TestDeriveSingleRecordLevy(t *testing.T) {
	items := []Transaction{{ID: "1", Title: "Coffee", Amount: 50000, Date: day(2024, 1, 1), Category: "food", Type: Expense}}
	v := Derive(items, Filter{}, FallbackToAll)
	if v.Total != 50000 || v.Levy != 4000 {
		t.Fatalf("total=%v levy=%v, want 50000/4000", v.Total, v.Levy)
	}
}

func TestFilterConditions(t *testing.T) {
	cases := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"zero filter", Filter{}, []string{"3", "2", "1"}},
		{"search is case insensitive", Filter{Search: "COFFEE"}, []string{"3", "1"}},
		{"category", Filter{Category: "work"}, []string{"2"}},
		{"category all", Filter{Category: "All"}, []string{"3", "2", "1"}},
		{"from inclusive", Filter{From: day(2024, 2, 28)}, []string{"3", "2"}},
		{"to inclusive includes later hours", Filter{To: day(2024, 3, 10)}, []string{"3", "2", "1"}},
		{"to excludes next day", Filter{To: day(2024, 3, 9)}, []string{"2", "1"}},
		{"blank search matches all", Filter{Search: "  "}, []string{"3", "2", "1"}},
		{"search is not trimmed", Filter{Search: "coffee  "}, []string{}},
		{"conjunction", Filter{Search: "coffee", Category: "food", From: day(2024, 2, 1)}, []string{"3"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := Derive(sample(), tc.filter, FallbackNone)
			if got := ids(v.Items); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDeriveFallback(t *testing.T) {
	f := Filter{Search: "nothing matches this"}

	v := Derive(sample(), f, FallbackToAll)
	if len(v.Items) != 0 {
		t.Fatalf("expected empty items, got %v", ids(v.Items))
	}
	if !v.FellBack || v.Total != 1050 || v.Levy != 84 {
		t.Fatalf("fallback view = %+v", v)
	}

	v = Derive(sample(), f, FallbackNone)
	if v.FellBack || v.Total != 0 || v.Levy != 0 {
		t.Fatalf("no-fallback view = %+v", v)
	}

	v = Derive(nil, f, FallbackToAll)
	if v.FellBack || v.Total != 0 {
		t.Fatalf("empty store should not fall back: %+v", v)
	}
}

func TestDeriveIsPure(t *testing.T) {
	items := sample()
	before := append([]Transaction(nil), items...)
	f := Filter{Category: "food"}

	a := Derive(items, f, FallbackToAll)
	b := Derive(items, f, FallbackToAll)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("results differ: %+v vs %+v", a, b)
	}
	if !reflect.DeepEqual(items, before) {
		t.Fatalf("input modified")
	}
	a.Items[0].Title = "changed"
	if items[0].Title == "changed" {
		t.Fatalf("view shares backing array with input")
	}
}

func TestFilterKey(t *testing.T) {
	a := Filter{Search: "Coffee", Category: "all"}
	b := Filter{Search: "coffee"}
	if a.Key() != b.Key() {
		t.Fatalf("equivalent filters have different keys: %q %q", a.Key(), b.Key())
	}
	if (Filter{Search: " "}).Key() != (Filter{}).Key() {
		t.Fatalf("blank search should key like no search")
	}
	if (Filter{Search: " coffee"}).Key() == b.Key() {
		t.Fatalf("leading space ignored in key")
	}
	c := Filter{Search: "coffee", From: day(2024, 1, 1)}
	if c.Key() == b.Key() {
		t.Fatalf("date bound ignored in key")
	}
}

func TestParseFallbackPolicy(t *testing.T) {
	if p, ok := ParseFallbackPolicy("none"); !ok || p != FallbackNone {
		t.Fatalf("none -> %v %v", p, ok)
	}
	if p, ok := ParseFallbackPolicy(""); !ok || p != FallbackToAll {
		t.Fatalf("empty -> %v %v", p, ok)
	}
	if _, ok := ParseFallbackPolicy("sometimes"); ok {
		t.Fatalf("unknown policy accepted")
	}
}
