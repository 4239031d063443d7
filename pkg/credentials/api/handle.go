package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/tendant/simple-verify/pkg/account"
	"github.com/tendant/simple-verify/pkg/credentials"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// LoginResponse represents the response after a successful login
type LoginResponse struct {
	Message string `json:"message"`
}

// LogoutResponse represents the response after a logout
type LogoutResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// SessionManager starts a session after a successful login and ends it on
// logout. *session.SessionService satisfies it.
type SessionManager interface {
	StartSession(w http.ResponseWriter, accountID uuid.UUID) error
	EndSession(w http.ResponseWriter) error
}

// Handler exposes the password login and logout endpoints
type Handler struct {
	accounts account.Repository
	service  *credentials.CredentialService
	sessions SessionManager
}

// NewHandler creates a new login handler
func NewHandler(accounts account.Repository, service *credentials.CredentialService, sessions SessionManager) *Handler {
	return &Handler{
		accounts: accounts,
		service:  service,
		sessions: sessions,
	}
}

// Routes returns the router for the login endpoints
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	return r
}

// Login handles POST /login. Accounts still awaiting verification are told
// so and pointed at the resend path; every other failure is a generic
// invalid-credentials error.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request body", "err", err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}

	if req.Login == "" || req.Password == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Login and password are required"})
		return
	}

	acct, err := h.accounts.GetByLogin(r.Context(), req.Login)
	if err != nil {
		if !errors.Is(err, account.ErrAccountNotFound) {
			slog.Error("Failed to look up login", "err", err)
		}
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Invalid login or password"})
		return
	}

	valid, err := h.service.Authenticate(r.Context(), acct, req.Password)
	if err != nil {
		if errors.Is(err, credentials.ErrAccountNotOpen) {
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, ErrorResponse{Error: "The account you tried to login with is currently awaiting verification"})
			return
		}
		if !errors.Is(err, credentials.ErrNoPassword) {
			slog.Error("Failed to verify password", "account_id", acct.ID, "err", err)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, ErrorResponse{Error: "An error occurred while logging in"})
			return
		}
		valid = false
	}

	if !valid {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Invalid login or password"})
		return
	}

	if h.sessions != nil {
		if err := h.sessions.StartSession(w, acct.ID); err != nil {
			slog.Error("Failed to start session", "account_id", acct.ID, "err", err)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, ErrorResponse{Error: "An error occurred while logging in"})
			return
		}
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, LoginResponse{Message: "Logged in"})
}

// Logout handles POST /logout by clearing the session cookie
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.sessions != nil {
		if err := h.sessions.EndSession(w); err != nil {
			slog.Error("Failed to end session", "err", err)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, ErrorResponse{Error: "An error occurred while logging out"})
			return
		}
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, LogoutResponse{Message: "Logged out"})
}
