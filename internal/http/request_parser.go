package http

// This file turns request bodies and query strings into drafts and filters.
// Form posts from the page and JSON from the API go through the same parser.

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"hesabdari/internal/core"
)

const maxBodyBytes = 1 << 20

// ErrMalformedBody is returned when a body is neither a JSON object nor
// form-encoded data.
var ErrMalformedBody = errors.New("malformed request body")

// RequestBodyParser reads a request body once and serves values from it,
// whether it was JSON or form-encoded.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads at most 1 MiB of the body.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	}
	return p
}

// Parse decodes the body. JSON is detected from the content type or a
// leading '{'; anything else is parsed as a query string.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if strings.HasPrefix(p.contentType, "application/json") || trimmed[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.jsonData = nil
			p.err = errors.Join(ErrMalformedBody, err)
		}
		return p.err
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	if p.err != nil {
		p.err = errors.Join(ErrMalformedBody, p.err)
	}
	return p.err
}

// Get returns a trimmed, sanitized value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// Draft collects the transaction fields.
func (p *RequestBodyParser) Draft() core.Draft {
	return core.Draft{
		Title:    p.Get(core.FieldTitle),
		Amount:   p.Get(core.FieldAmount),
		Date:     p.Get(core.FieldDate),
		Category: p.Get(core.FieldCategory),
		Type:     p.Get(core.FieldType),
	}
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// FilterForm is the raw filter input, echoed back into the filter form.
type FilterForm struct {
	Search   string
	Category string
	From     string
	To       string
}

// ParseFilter reads search, category, from and to. Bounds that do not
// parse are left open and reported in the returned FieldErrors.
func ParseFilter(q url.Values) (core.Filter, FilterForm, core.FieldErrors) {
	form := FilterForm{
		Search:   stripControl(q.Get("search")),
		Category: sanitizeInput(q.Get("category")),
		From:     sanitizeInput(q.Get("from")),
		To:       sanitizeInput(q.Get("to")),
	}
	if form.Category == "" {
		form.Category = core.AllCategories
	}

	f := core.Filter{Search: form.Search, Category: form.Category}
	var errs core.FieldErrors
	bound := func(name, raw string) (time.Time, bool) {
		if raw == "" {
			return time.Time{}, false
		}
		d, err := core.ParseDate(raw)
		if err != nil {
			if errs == nil {
				errs = core.FieldErrors{}
			}
			errs[name] = "date is not a valid calendar date"
			return time.Time{}, false
		}
		return d, true
	}
	if d, ok := bound("from", form.From); ok {
		f.From = d
	}
	if d, ok := bound("to", form.To); ok {
		f.To = d
	}
	return f, form, errs
}

// isConfirmed accepts the values a confirmation checkbox or query flag
// sends.
func isConfirmed(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "true", "1", "on":
		return true
	}
	return false
}
