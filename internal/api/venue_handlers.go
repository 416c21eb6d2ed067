package api

import (
	"net/http"
	"puntoazul/internal/auth"
	"puntoazul/internal/availability"
	"puntoazul/internal/entities"
	apperrors "puntoazul/internal/errors"
	"puntoazul/internal/schedule"
	"puntoazul/internal/service"
	"puntoazul/internal/utils"
	"strconv"

	"github.com/gorilla/mux"
)

type VenueHandler struct {
	Service *service.VenueService
}

func NewVenueHandler(svc *service.VenueService) *VenueHandler {
	return &VenueHandler{Service: svc}
}

func session(w http.ResponseWriter, r *http.Request) (*service.Session, bool) {
	sess := auth.SessionFrom(r.Context())
	if sess == nil {
		apperrors.Write(w, apperrors.ErrUnauthorized("not authenticated"))
		return nil, false
	}
	return sess, true
}

func (h *VenueHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Options lists the values the panel offers in its selectors.
func (h *VenueHandler) Options(w http.ResponseWriter, r *http.Request) {
	weekdays := make([]entities.WeekdayOption, 0, len(utils.WeekdayKeys))
	for _, key := range utils.WeekdayKeys {
		weekdays = append(weekdays, entities.WeekdayOption{Key: key, Label: utils.WeekdayLabel(key)})
	}
	writeJSON(w, http.StatusOK, entities.OptionsResponse{
		Times:    schedule.DefaultOptions,
		Weekdays: weekdays,
		MaxPartySize: entities.Range{
			Min: availability.MinPartySize, Max: availability.MaxPartySize,
		},
		MaxDailyReservations: entities.Range{
			Min: availability.MinDailyReservations, Max: availability.MaxDailyReservations,
		},
	})
}

func (h *VenueHandler) ListVenues(w http.ResponseWriter, r *http.Request) {
	sess, ok := session(w, r)
	if !ok {
		return
	}
	list, err := h.Service.List(r.Context(), sess)
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *VenueHandler) Reload(w http.ResponseWriter, r *http.Request) {
	sess, ok := session(w, r)
	if !ok {
		return
	}
	list, err := h.Service.Reload(r.Context(), sess)
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *VenueHandler) Save(w http.ResponseWriter, r *http.Request) {
	sess, ok := session(w, r)
	if !ok {
		return
	}
	result, err := h.Service.Save(r.Context(), sess)
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *VenueHandler) GetVenue(w http.ResponseWriter, r *http.Request) {
	sess, ok := session(w, r)
	if !ok {
		return
	}
	index, err := pathIndex(r, "index")
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	detail, err := h.Service.Venue(r.Context(), sess, index)
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// UpdateVenue applies the fields present in the body. Issues in the response are
// advisory; only the save refuses error-level issues.
func (h *VenueHandler) UpdateVenue(w http.ResponseWriter, r *http.Request) {
	sess, ok := session(w, r)
	if !ok {
		return
	}
	index, err := pathIndex(r, "index")
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	var req VenuePatchRequest
	if err := decode(r, &req); err != nil {
		apperrors.Write(w, err)
		return
	}
	detail, err := h.Service.UpdateVenue(r.Context(), sess, index, req.toPatch())
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *VenueHandler) ListBlockedDates(w http.ResponseWriter, r *http.Request) {
	sess, ok := session(w, r)
	if !ok {
		return
	}
	index, err := pathIndex(r, "index")
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	dates, err := h.Service.BlockedDates(r.Context(), sess, index)
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dates)
}

func (h *VenueHandler) PutBlockedDate(w http.ResponseWriter, r *http.Request) {
	sess, ok := session(w, r)
	if !ok {
		return
	}
	index, err := pathIndex(r, "index")
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	var req entities.BlockRequest
	if err := decode(r, &req); err != nil {
		apperrors.Write(w, err)
		return
	}
	view, err := h.Service.PutBlockedDate(r.Context(), sess, index, mux.Vars(r)["date"], req)
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *VenueHandler) DeleteBlockedDate(w http.ResponseWriter, r *http.Request) {
	sess, ok := session(w, r)
	if !ok {
		return
	}
	index, err := pathIndex(r, "index")
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	if err := h.Service.DeleteBlockedDate(r.Context(), sess, index, mux.Vars(r)["date"]); err != nil {
		apperrors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Blocked date removed"})
}

func (h *VenueHandler) OpenEditSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := session(w, r)
	if !ok {
		return
	}
	index, err := pathIndex(r, "index")
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	view, err := h.Service.OpenEditSession(r.Context(), sess, index, mux.Vars(r)["date"])
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *VenueHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			apperrors.Write(w, apperrors.ErrBadRequest("invalid limit"))
			return
		}
		limit = n
	}
	saves, err := h.Service.History(r.Context(), limit)
	if err != nil {
		apperrors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saves)
}
