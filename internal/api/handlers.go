package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/shehryarbajwa/divar-automation/pkg/models"
)

// Automator is the slice of the automation service the HTTP facade
// consumes.
type Automator interface {
	HasValidSession(ctx context.Context) (bool, error)
	StartLogin(ctx context.Context, userID, phone string) error
	VerifyOTP(ctx context.Context, userID, code string) (bool, error)
	CreateListing(ctx context.Context, userID string, draft models.ListingDraft) (string, error)
	Logout(ctx context.Context, userID string) (bool, error)
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	svc Automator
	log *logrus.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(svc Automator, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// failureResponse is the JSON shape every workflow failure renders as.
// The stage and artifact paths let an operator reproduce the failure.
type failureResponse struct {
	Error          string `json:"error"`
	Stage          string `json:"stage,omitempty"`
	Kind           string `json:"kind,omitempty"`
	ScreenshotPath string `json:"screenshotPath,omitempty"`
	HTMLPath       string `json:"htmlPath,omitempty"`
}

func statusFor(kind models.ErrorKind) int {
	switch kind {
	case models.ErrInvalidInput:
		return http.StatusBadRequest
	case models.ErrAuthenticationRequired:
		return http.StatusUnauthorized
	case models.ErrMissingRequiredField:
		return http.StatusUnprocessableEntity
	case models.ErrRateLimited:
		return http.StatusTooManyRequests
	case models.ErrUnexpectedPageState:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	resp := failureResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	var se *models.StageError
	if errors.As(err, &se) {
		status = statusFor(se.Kind)
		resp.Stage = string(se.Stage)
		resp.Kind = string(se.Kind)
		resp.ScreenshotPath = se.ScreenshotPath
		resp.HTMLPath = se.HTMLPath
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SessionStatus handles GET /v1/session.
func (h *Handler) SessionStatus(w http.ResponseWriter, r *http.Request) {
	valid, err := h.svc.HasValidSession(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

// StartLogin handles POST /v1/login.
func (h *Handler) StartLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	if err := h.svc.StartLogin(r.Context(), req.UserID, req.Phone); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "code_requested"})
}

// VerifyOTP handles POST /v1/login/verify.
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	ok, err := h.svc.VerifyOTP(r.Context(), req.UserID, req.Code)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": ok})
}

// CreateListing handles POST /v1/listings.
func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req models.CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	result, err := h.svc.CreateListing(r.Context(), req.UserID, req.Draft)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"result": result})
}

// Logout handles DELETE /v1/sessions/{userId}.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	ok, err := h.svc.Logout(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"loggedOut": ok})
}
