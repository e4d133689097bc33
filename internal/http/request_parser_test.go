package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"hesabdari/internal/core"
)

func newParser(body, contentType string) *RequestBodyParser {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	return NewRequestBodyParser(httptest.NewRecorder(), r)
}

func TestRequestBodyParser_Draft(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		want        core.Draft
		wantJSON    bool
	}{
		{
			name:        "form encoded",
			body:        "title=+Coffee+&amount=%DB%B5%DB%B0%DB%B0%DB%B0%DB%B0&date=2024-03-10&category=food&type=expense",
			contentType: "application/x-www-form-urlencoded",
			want:        core.Draft{Title: "Coffee", Amount: "۵۰۰۰۰", Date: "2024-03-10", Category: "food", Type: "expense"},
		},
		{
			name:        "json with numeric amount",
			body:        `{"title":"Salary","amount":1500000,"date":"2024-03-01","category":"work","type":"income"}`,
			contentType: "application/json",
			want:        core.Draft{Title: "Salary", Amount: "1500000", Date: "2024-03-01", Category: "work", Type: "income"},
			wantJSON:    true,
		},
		{
			name:     "json detected without content type",
			body:     ` {"title":"Tea","amount":"12.5"}`,
			want:     core.Draft{Title: "Tea", Amount: "12.5"},
			wantJSON: true,
		},
		{
			name: "control characters stripped",
			body: "title=a%00b%07c",
			want: core.Draft{Title: "abc"},
		},
		{
			name: "empty body",
			body: "",
			want: core.Draft{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newParser(tt.body, tt.contentType)
			if err := p.Parse(); err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := p.Draft(); got != tt.want {
				t.Errorf("Draft() = %+v, want %+v", got, tt.want)
			}
			if p.IsJSON() != tt.wantJSON {
				t.Errorf("IsJSON() = %v, want %v", p.IsJSON(), tt.wantJSON)
			}
		})
	}
}

func TestRequestBodyParser_Malformed(t *testing.T) {
	for _, body := range []string{`{"title":`, "title=%zz"} {
		p := newParser(body, "")
		err := p.Parse()
		if !errors.Is(err, ErrMalformedBody) {
			t.Errorf("Parse(%q) error = %v, want ErrMalformedBody", body, err)
		}
		if again := p.Parse(); again != err {
			t.Errorf("second Parse() = %v, want cached %v", again, err)
		}
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name      string
		query     url.Values
		wantForm  FilterForm
		wantFrom  time.Time
		wantTo    time.Time
		wantError []string
	}{
		{
			name:     "empty query matches everything",
			query:    url.Values{},
			wantForm: FilterForm{Category: core.AllCategories},
		},
		{
			name: "all fields",
			query: url.Values{
				"search":   {" cof "},
				"category": {"food"},
				"from":     {"2024-03-01"},
				"to":       {"۱۴۰۳-۰۱-۰۱"},
			},
			wantForm: FilterForm{Search: " cof ", Category: "food", From: "2024-03-01", To: "۱۴۰۳-۰۱-۰۱"},
			wantFrom: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(1403, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "bad bounds are reported and ignored",
			query:     url.Values{"from": {"yesterday"}, "to": {"2024-13-40"}},
			wantForm:  FilterForm{Category: core.AllCategories, From: "yesterday", To: "2024-13-40"},
			wantError: []string{"from", "to"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, form, errs := ParseFilter(tt.query)
			if form != tt.wantForm {
				t.Errorf("form = %+v, want %+v", form, tt.wantForm)
			}
			if !f.From.Equal(tt.wantFrom) || !f.To.Equal(tt.wantTo) {
				t.Errorf("bounds = %v..%v, want %v..%v", f.From, f.To, tt.wantFrom, tt.wantTo)
			}
			if len(errs) != len(tt.wantError) {
				t.Fatalf("errors = %v, want keys %v", errs, tt.wantError)
			}
			for _, k := range tt.wantError {
				if _, ok := errs[k]; !ok {
					t.Errorf("missing error for %q", k)
				}
			}
		})
	}
}

func TestIsConfirmed(t *testing.T) {
	for v, want := range map[string]bool{
		"yes":  true,
		"TRUE": true,
		"on":   true,
		"1":    true,
		"":     false,
		"no":   false,
		"y":    false,
	} {
		if got := isConfirmed(v); got != want {
			t.Errorf("isConfirmed(%q) = %v, want %v", v, got, want)
		}
	}
}
