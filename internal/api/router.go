package api

import (
	"net"
	"net/http"
	"puntoazul/internal/auth"
	"puntoazul/internal/service"

	"github.com/gorilla/mux"
)

type RouterConfig struct {
	Auth            service.AuthService
	Venues          *service.VenueService
	LoginRatePerMin int
	TrustedProxies  []*net.IPNet
}

func NewRouter(cfg RouterConfig) *mux.Router {
	authHandler := NewAuthHandler(cfg.Auth, cfg.Venues)
	venueHandler := NewVenueHandler(cfg.Venues)
	sessionHandler := NewSessionHandler(cfg.Venues)
	limiter := NewLoginLimiter(cfg.LoginRatePerMin, cfg.TrustedProxies)

	r := mux.NewRouter()
	r.Use(RequestLogger)

	// Public endpoints
	r.HandleFunc("/health", venueHandler.Health).Methods("GET")
	r.Handle("/api/auth/login", limiter.Middleware(http.HandlerFunc(authHandler.Login))).Methods("POST")

	// Panel endpoints (protected)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(auth.SessionMiddleware(cfg.Auth))
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST")
	api.HandleFunc("/auth/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/options", venueHandler.Options).Methods("GET")
	api.HandleFunc("/history", venueHandler.History).Methods("GET")

	api.HandleFunc("/venues", venueHandler.ListVenues).Methods("GET")
	api.HandleFunc("/venues/reload", venueHandler.Reload).Methods("POST")
	api.HandleFunc("/venues/save", venueHandler.Save).Methods("POST")
	api.HandleFunc("/venues/{index:[0-9]+}", venueHandler.GetVenue).Methods("GET")
	api.HandleFunc("/venues/{index:[0-9]+}", venueHandler.UpdateVenue).Methods("PATCH")
	api.HandleFunc("/venues/{index:[0-9]+}/blocked-dates", venueHandler.ListBlockedDates).Methods("GET")
	api.HandleFunc("/venues/{index:[0-9]+}/blocked-dates/{date}", venueHandler.PutBlockedDate).Methods("PUT")
	api.HandleFunc("/venues/{index:[0-9]+}/blocked-dates/{date}", venueHandler.DeleteBlockedDate).Methods("DELETE")
	api.HandleFunc("/venues/{index:[0-9]+}/blocked-dates/{date}/session", venueHandler.OpenEditSession).Methods("POST")

	api.HandleFunc("/sessions/{id}", sessionHandler.GetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", sessionHandler.ReplaceDraft).Methods("PUT")
	api.HandleFunc("/sessions/{id}", sessionHandler.Discard).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/commit", sessionHandler.Commit).Methods("POST")
	api.HandleFunc("/sessions/{id}/delete", sessionHandler.DeleteDate).Methods("POST")
	api.HandleFunc("/sessions/{id}/full-day", sessionHandler.SetFullDay).Methods("PUT")
	api.HandleFunc("/sessions/{id}/intervals", sessionHandler.AddInterval).Methods("POST")
	api.HandleFunc("/sessions/{id}/intervals/{i:[0-9]+}", sessionHandler.UpdateInterval).Methods("PUT")
	api.HandleFunc("/sessions/{id}/intervals/{i:[0-9]+}", sessionHandler.RemoveInterval).Methods("DELETE")

	return r
}
