package http

import (
	"errors"
	"net/http"

	"hesabdari/internal/cache"
	"hesabdari/internal/core"
	"hesabdari/internal/log"
	"hesabdari/internal/middleware/ratelimit"
	"hesabdari/internal/middleware/security"
	"hesabdari/internal/middleware/trace"
	"hesabdari/internal/services"
)

func (s *Server) handleAPIList(w http.ResponseWriter, r *http.Request) {
	f, _, errs := ParseFilter(r.URL.Query())
	if len(errs) > 0 {
		FieldErrorsResponse(errs).Status(http.StatusBadRequest).Write(w)
		return
	}
	v, rev := s.view(f)
	NewResponse().JSON(toViewJSON(v, rev)).Write(w)
}

func (s *Server) handleAPIGet(w http.ResponseWriter, r *http.Request) {
	t, err := s.editor.Get(r.PathValue("id"))
	if errors.Is(err, services.ErrNotFound) {
		JSONError(http.StatusNotFound, "transaction not found").Write(w)
		return
	}
	NewResponse().JSON(toTransactionJSON(t)).Write(w)
}

// parseDraft reads the body and writes a 400 when it cannot be parsed.
func (s *Server) parseDraft(w http.ResponseWriter, r *http.Request) (core.Draft, bool) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		JSONError(http.StatusBadRequest, "malformed request body").Write(w)
		return core.Draft{}, false
	}
	return p.Draft(), true
}

func (s *Server) handleAPICreate(w http.ResponseWriter, r *http.Request) {
	d, ok := s.parseDraft(w, r)
	if !ok {
		return
	}
	t, err := s.editor.Create(r.Context(), d)
	if err != nil {
		if fe, ok := core.AsFieldErrors(err); ok {
			FieldErrorsResponse(fe).Write(w)
			return
		}
		s.serverError(w, r, "could not save the transaction", err, log.OpCreate)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+t.ID).
		JSON(toTransactionJSON(t)).
		Write(w)
}

func (s *Server) handleAPIUpdate(w http.ResponseWriter, r *http.Request) {
	d, ok := s.parseDraft(w, r)
	if !ok {
		return
	}
	t, found, err := s.editor.Edit(r.Context(), r.PathValue("id"), d)
	if err != nil {
		if fe, ok := core.AsFieldErrors(err); ok {
			FieldErrorsResponse(fe).Write(w)
			return
		}
		s.serverError(w, r, "could not save the transaction", err, log.OpUpdate)
		return
	}
	if !found {
		JSONError(http.StatusNotFound, "transaction not found").Write(w)
		return
	}
	NewResponse().JSON(toTransactionJSON(t)).Write(w)
}

// handleAPIDelete requires ?confirm=true. Deleting an unknown ID succeeds.
func (s *Server) handleAPIDelete(w http.ResponseWriter, r *http.Request) {
	_, err := s.editor.Delete(r.Context(), r.PathValue("id"), isConfirmed(r.URL.Query().Get("confirm")))
	switch {
	case errors.Is(err, services.ErrConfirmationRequired):
		JSONError(http.StatusPreconditionRequired, "deletion must be confirmed with confirm=true").Write(w)
	case err != nil:
		s.serverError(w, r, "could not delete the transaction", err, log.OpDelete)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleAPICategories(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string][]string{"categories": s.editor.Categories()}).Write(w)
}

type statsJSON struct {
	Revision  uint64                    `json:"revision"`
	Requests  trace.Metrics             `json:"requests"`
	RateLimit ratelimit.Metrics         `json:"rate_limit"`
	Security  security.DetectionMetrics `json:"security"`
	ViewCache cache.Stats               `json:"view_cache"`
}

func (s *Server) handleAPIStats(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(statsJSON{
		Revision:  s.editor.Revision(),
		Requests:  s.tracer.GetMetrics(),
		RateLimit: s.limiter.GetMetrics(),
		Security:  s.detector.GetMetrics(),
		ViewCache: s.views.Stats(),
	}).Write(w)
}
