package http

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"time"

	"hesabdari/internal/core"
	"hesabdari/internal/log"
	"hesabdari/internal/services"
)

// row is one transaction formatted for display.
type row struct {
	ID       string
	Title    string
	Amount   string
	Date     string
	Category string
	Income   bool
}

type pageData struct {
	Lang       string
	Dir        string
	Total      string
	Levy       string
	FellBack   bool
	Count      int
	Filter     FilterForm
	Categories []string
	Rows       []row
	Form       core.Draft
	Errors     core.FieldErrors
}

type editData struct {
	Lang   string
	Dir    string
	ID     string
	Form   core.Draft
	Errors core.FieldErrors
}

type deleteData struct {
	Lang string
	Dir  string
	Row  row
}

func (s *Server) row(t core.Transaction) row {
	return row{
		ID:       t.ID,
		Title:    t.Title,
		Amount:   s.format.Amount(t.Amount),
		Date:     s.format.Date(t.Date),
		Category: t.Category,
		Income:   t.Type == core.Income,
	}
}

func (s *Server) indexData(q url.Values) pageData {
	f, form, filterErrs := ParseFilter(q)
	v, _ := s.view(f)

	rows := make([]row, 0, len(v.Items))
	for _, t := range v.Items {
		rows = append(rows, s.row(t))
	}
	return pageData{
		Lang:       s.format.Lang(),
		Dir:        s.format.Dir(),
		Total:      s.format.Amount(v.Total),
		Levy:       s.format.Amount(v.Levy),
		FellBack:   v.FellBack,
		Count:      len(v.Items),
		Filter:     form,
		Categories: s.editor.Categories(),
		Rows:       rows,
		Form:       core.Draft{Type: string(core.Expense), Date: time.Now().UTC().Format(time.DateOnly)},
		Errors:     filterErrs,
	}
}

// render executes a template into a buffer so a failure can still become a
// clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).LogError(r.Context(), "Template render failed", err, log.OpRender,
			log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, "", ""))
		HTMLError(http.StatusInternalServerError, "Could not render the page.").Write(w)
		return
	}
	NewResponse().Status(status).HTML(buf.Bytes()).Write(w)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "index.html", s.indexData(r.URL.Query()))
}

// handleCreate adds a transaction from the add form and redirects back to
// the list. Invalid input re-renders the page with the errors.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		HTMLError(http.StatusBadRequest, "Invalid form submission.").Write(w)
		return
	}
	d := p.Draft()

	if _, err := s.editor.Create(r.Context(), d); err != nil {
		if fe, ok := core.AsFieldErrors(err); ok {
			data := s.indexData(r.URL.Query())
			data.Form = d
			data.Errors = fe
			s.render(w, r, http.StatusUnprocessableEntity, "index.html", data)
			return
		}
		s.serverError(w, r, "Could not save the transaction.", err, log.OpCreate)
		return
	}
	SeeOther("/").Write(w)
}

func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	d, err := s.editor.Prefill(id)
	if errors.Is(err, services.ErrNotFound) {
		HTMLError(http.StatusNotFound, "Transaction not found.").Write(w)
		return
	}
	s.render(w, r, http.StatusOK, "edit.html", editData{
		Lang: s.format.Lang(),
		Dir:  s.format.Dir(),
		ID:   id,
		Form: d,
	})
}

func (s *Server) handleSaveEdit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		HTMLError(http.StatusBadRequest, "Invalid form submission.").Write(w)
		return
	}
	d := p.Draft()

	_, found, err := s.editor.Edit(r.Context(), id, d)
	if err != nil {
		if fe, ok := core.AsFieldErrors(err); ok {
			s.render(w, r, http.StatusUnprocessableEntity, "edit.html", editData{
				Lang:   s.format.Lang(),
				Dir:    s.format.Dir(),
				ID:     id,
				Form:   d,
				Errors: fe,
			})
			return
		}
		s.serverError(w, r, "Could not save the transaction.", err, log.OpUpdate)
		return
	}
	if !found {
		HTMLError(http.StatusNotFound, "Transaction not found.").Write(w)
		return
	}
	SeeOther("/").Write(w)
}

func (s *Server) handleConfirmDelete(w http.ResponseWriter, r *http.Request) {
	t, err := s.editor.Get(r.PathValue("id"))
	if errors.Is(err, services.ErrNotFound) {
		HTMLError(http.StatusNotFound, "Transaction not found.").Write(w)
		return
	}
	s.render(w, r, http.StatusOK, "confirm_delete.html", deleteData{
		Lang: s.format.Lang(),
		Dir:  s.format.Dir(),
		Row:  s.row(t),
	})
}

// handleDelete removes the transaction when the form carries confirm=yes.
// Anything else sends the user back to the confirmation page.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		HTMLError(http.StatusBadRequest, "Invalid form submission.").Write(w)
		return
	}

	_, err := s.editor.Delete(r.Context(), id, isConfirmed(p.Get("confirm")))
	switch {
	case errors.Is(err, services.ErrConfirmationRequired):
		SeeOther("/transactions/" + url.PathEscape(id) + "/delete").Write(w)
	case err != nil:
		s.serverError(w, r, "Could not delete the transaction.", err, log.OpDelete)
	default:
		SeeOther("/").Write(w)
	}
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error, op string) {
	log.FromContext(r.Context()).LogError(r.Context(), msg, err, op,
		log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, "", ""))
	if isAPI(r) {
		JSONError(http.StatusInternalServerError, msg).Write(w)
		return
	}
	HTMLError(http.StatusInternalServerError, msg).Write(w)
}
