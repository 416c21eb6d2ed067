package api

import (
	"net/http"
	"puntoazul/internal/availability"
	"puntoazul/internal/entities"
	apperrors "puntoazul/internal/errors"
	"puntoazul/internal/service"

	"github.com/gorilla/mux"
)

// SessionHandler drives blocked-date edit sessions, one draft per open modal.
type SessionHandler struct {
	Service *service.VenueService
}

func NewSessionHandler(svc *service.VenueService) *SessionHandler {
	return &SessionHandler{Service: svc}
}

func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := session(w, r)
	if !ok {
		return
	}
	view, err := h.Service.EditSession(r.Context(), sess, mux.Vars(r)["id"])
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// step applies one draft change and answers with the updated session.
func (h *SessionHandler) step(w http.ResponseWriter, r *http.Request, fn service.EditStep) {
	sess, ok := session(w, r)
	if !ok {
		return
	}
	view, err := h.Service.UpdateEditSession(r.Context(), sess, mux.Vars(r)["id"], fn)
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *SessionHandler) ReplaceDraft(w http.ResponseWriter, r *http.Request) {
	var req entities.BlockRequest
	if err := decode(r, &req); err != nil {
		apperrors.Write(w, err)
		return
	}
	h.step(w, r, func(es *availability.EditSession) error {
		return es.Replace(req)
	})
}

func (h *SessionHandler) SetFullDay(w http.ResponseWriter, r *http.Request) {
	var req FullDayRequest
	if err := decode(r, &req); err != nil {
		apperrors.Write(w, err)
		return
	}
	h.step(w, r, func(es *availability.EditSession) error {
		return es.SetFullDay(*req.FullDay)
	})
}

func (h *SessionHandler) AddInterval(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, func(es *availability.EditSession) error {
		return es.AddInterval()
	})
}

func (h *SessionHandler) UpdateInterval(w http.ResponseWriter, r *http.Request) {
	i, err := pathIndex(r, "i")
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	var req IntervalRequest
	if err := decode(r, &req); err != nil {
		apperrors.Write(w, err)
		return
	}
	h.step(w, r, func(es *availability.EditSession) error {
		return es.UpdateInterval(i, req.Start, req.End)
	})
}

func (h *SessionHandler) RemoveInterval(w http.ResponseWriter, r *http.Request) {
	i, err := pathIndex(r, "i")
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	h.step(w, r, func(es *availability.EditSession) error {
		return es.RemoveInterval(i)
	})
}

type finishFunc func(svc *service.VenueService, r *http.Request, sess *service.Session, id string) (service.EditSessionView, error)

func (h *SessionHandler) finish(w http.ResponseWriter, r *http.Request, fn finishFunc) {
	sess, ok := session(w, r)
	if !ok {
		return
	}
	view, err := fn(h.Service, r, sess, mux.Vars(r)["id"])
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Commit stores the draft in the workspace. A failed validation keeps the session open.
func (h *SessionHandler) Commit(w http.ResponseWriter, r *http.Request) {
	h.finish(w, r, func(svc *service.VenueService, r *http.Request, sess *service.Session, id string) (service.EditSessionView, error) {
		return svc.CommitEditSession(r.Context(), sess, id)
	})
}

func (h *SessionHandler) DeleteDate(w http.ResponseWriter, r *http.Request) {
	h.finish(w, r, func(svc *service.VenueService, r *http.Request, sess *service.Session, id string) (service.EditSessionView, error) {
		return svc.DeleteEditSession(r.Context(), sess, id)
	})
}

func (h *SessionHandler) Discard(w http.ResponseWriter, r *http.Request) {
	h.finish(w, r, func(svc *service.VenueService, r *http.Request, sess *service.Session, id string) (service.EditSessionView, error) {
		return svc.DiscardEditSession(r.Context(), sess, id)
	})
}
