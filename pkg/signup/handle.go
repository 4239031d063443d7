package signup

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/simple-verify/pkg/account"
)

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// RegisterResponse represents the response after registration
type RegisterResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler exposes the registration endpoint
type Handler struct {
	service *SignupService
}

// NewHandler creates a new signup handler
func NewHandler(service *SignupService) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for the signup endpoints
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.Register)
	return r
}

// Register handles POST /signup
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
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

	_, err := h.service.Register(r.Context(), req.Login, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrAccountAwaitingVerification):
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, ErrorResponse{Error: "The account you tried to create is currently awaiting verification"})
		case errors.Is(err, account.ErrLoginTaken):
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, ErrorResponse{Error: "Login already taken"})
		case errors.Is(err, ErrRegistrationDisabled):
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, ErrorResponse{Error: "Registration is disabled"})
		default:
			slog.Error("Failed to register account", "err", err)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, ErrorResponse{Error: "An error occurred while creating the account"})
		}
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, RegisterResponse{
		Message: "An email has been sent to you with a link to verify your account",
	})
}
