package api

import (
	"net/http"
	"puntoazul/internal/auth"
	apperrors "puntoazul/internal/errors"
	"puntoazul/internal/service"

	"go.uber.org/zap"
)

type AuthHandler struct {
	Auth   service.AuthService
	Venues *service.VenueService
}

func NewAuthHandler(authSvc service.AuthService, venues *service.VenueService) *AuthHandler {
	return &AuthHandler{Auth: authSvc, Venues: venues}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decode(r, &req); err != nil {
		apperrors.Write(w, err)
		return
	}
	token, sess, err := h.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		zap.L().Info("Login rejected", zap.String("user", req.Username), zap.Error(err))
		apperrors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, Session: sess})
}

// Logout clears the stored credential and forgets the session's workspace, unsaved edits included.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	if sess == nil {
		apperrors.Write(w, apperrors.ErrUnauthorized("not authenticated"))
		return
	}
	if err := h.Auth.Logout(r.Context(), sess.ID); err != nil {
		apperrors.Write(w, err)
		return
	}
	h.Venues.Drop(sess.ID)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())
	if sess == nil {
		apperrors.Write(w, apperrors.ErrUnauthorized("not authenticated"))
		return
	}
	writeJSON(w, http.StatusOK, sess)
}
