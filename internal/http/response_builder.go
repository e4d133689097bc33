package http

// This file provides a small fluent builder for JSON and HTML responses so
// handlers report errors in one consistent shape.

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"hesabdari/internal/core"
)

// ResponseBuilder accumulates status, headers and body before writing.
type ResponseBuilder struct {
	statusCode int
	body       []byte
	headers    map[string]string
	err        error
}

// NewResponse creates a builder with a 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON encodes v as the body. An encoding failure turns the response into
// a 500 when written.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	data, err := json.Marshal(v)
	if err != nil {
		b.err = err
		return b
	}
	b.headers["Content-Type"] = "application/json; charset=utf-8"
	b.body = append(data, '\n')
	return b
}

// HTML sets an already-rendered HTML body.
func (b *ResponseBuilder) HTML(html []byte) *ResponseBuilder {
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body = html
	return b
}

// Write sends the built response.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	if b.err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

type fieldErrorsBody struct {
	Errors core.FieldErrors `json:"errors"`
}

// JSONError creates a {"error": message} response.
func JSONError(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(errorBody{Error: message})
}

// FieldErrorsResponse creates a 422 {"errors": {field: message}} response.
func FieldErrorsResponse(errs core.FieldErrors) *ResponseBuilder {
	return NewResponse().Status(http.StatusUnprocessableEntity).JSON(fieldErrorsBody{Errors: errs})
}

// HTMLError creates an escaped error snippet for page requests.
func HTMLError(statusCode int, message string) *ResponseBuilder {
	escaped := template.HTMLEscapeString(message)
	return NewResponse().
		Status(statusCode).
		HTML([]byte(`<div class="error">` + escaped + `</div>`))
}

// SeeOther redirects a form post back to a page.
func SeeOther(location string) *ResponseBuilder {
	return NewResponse().Status(http.StatusSeeOther).Header("Location", location)
}

// transactionJSON is the API shape of one transaction.
type transactionJSON struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Amount   float64 `json:"amount"`
	Date     string  `json:"date"`
	Category string  `json:"category"`
	Type     string  `json:"type"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:       t.ID,
		Title:    t.Title,
		Amount:   t.Amount,
		Date:     t.Date.UTC().Format(time.RFC3339),
		Category: t.Category,
		Type:     string(t.Type),
	}
}

// viewJSON is the API shape of a derived view.
type viewJSON struct {
	Items    []transactionJSON `json:"items"`
	Total    float64           `json:"total"`
	Levy     float64           `json:"levy"`
	FellBack bool              `json:"fell_back"`
	Revision uint64            `json:"revision"`
}

func toViewJSON(v core.View, revision uint64) viewJSON {
	items := make([]transactionJSON, 0, len(v.Items))
	for _, t := range v.Items {
		items = append(items, toTransactionJSON(t))
	}
	return viewJSON{
		Items:    items,
		Total:    v.Total,
		Levy:     v.Levy,
		FellBack: v.FellBack,
		Revision: revision,
	}
}
