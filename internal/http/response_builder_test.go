package http

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hesabdari/internal/core"
)

func TestResponseBuilder_JSON(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/1").
		JSON(map[string]int{"n": 1}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
	if loc := w.Header().Get("Location"); loc != "/api/transactions/1" {
		t.Errorf("Location = %q", loc)
	}
	if body := strings.TrimSpace(w.Body.String()); body != `{"n":1}` {
		t.Errorf("Body = %q", body)
	}
}

func TestResponseBuilder_EncodingFailure(t *testing.T) {
	w := httptest.NewRecorder()
	NewResponse().JSON(math.Inf(1)).Write(w)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want 500", w.Code)
	}
}

func TestFieldErrorsResponse(t *testing.T) {
	w := httptest.NewRecorder()
	FieldErrorsResponse(core.FieldErrors{core.FieldTitle: "title cannot be empty"}).Write(w)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Status code = %d, want 422", w.Code)
	}
	var body struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Errors["title"] != "title cannot be empty" {
		t.Errorf("errors = %v", body.Errors)
	}
}

func TestHTMLErrorEscapes(t *testing.T) {
	w := httptest.NewRecorder()
	HTMLError(http.StatusNotFound, "<script>x</script>").Write(w)

	if w.Code != http.StatusNotFound {
		t.Errorf("Status code = %d, want 404", w.Code)
	}
	if strings.Contains(w.Body.String(), "<script>") {
		t.Errorf("message not escaped: %s", w.Body.String())
	}
}

func TestSeeOther(t *testing.T) {
	w := httptest.NewRecorder()
	SeeOther("/").Write(w)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		t.Errorf("got %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestToViewJSON(t *testing.T) {
	v := core.View{
		Items: []core.Transaction{{
			ID:       "1710000000000",
			Title:    "Coffee",
			Amount:   50000,
			Date:     time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			Category: "food",
			Type:     core.Expense,
		}},
		Total: 50000,
		Levy:  4000,
	}
	got := toViewJSON(v, 7)
	if got.Revision != 7 || got.Total != 50000 || got.Levy != 4000 || got.FellBack {
		t.Errorf("unexpected view %+v", got)
	}
	if len(got.Items) != 1 || got.Items[0].Date != "2024-03-10T00:00:00Z" || got.Items[0].Type != "expense" {
		t.Errorf("unexpected items %+v", got.Items)
	}

	empty := toViewJSON(core.View{}, 0)
	data, _ := json.Marshal(empty)
	if !strings.Contains(string(data), `"items":[]`) {
		t.Errorf("empty view should encode items as [], got %s", data)
	}
}
