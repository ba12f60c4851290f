package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all HTTP routes.
func (h *Handler) SetupRoutes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", h.Health).Methods("GET")

	api := r.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/session", h.SessionStatus).Methods("GET")
	api.HandleFunc("/sessions/{userId}", h.Logout).Methods("DELETE")
	api.HandleFunc("/login", h.StartLogin).Methods("POST")
	api.HandleFunc("/login/verify", h.VerifyOTP).Methods("POST")
	api.HandleFunc("/listings", h.CreateListing).Methods("POST")

	r.Use(requestLogging(h.log))

	return r
}
