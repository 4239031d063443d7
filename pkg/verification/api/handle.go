package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/simple-verify/pkg/session"
	"github.com/tendant/simple-verify/pkg/verification"
)

// Handler exposes the verification endpoints
type Handler struct {
	service       *verification.VerificationService
	sessions      session.Starter
	resendEnabled bool
}

// HandlerOption is a function that configures a Handler
type HandlerOption func(*Handler)

// WithSessionStarter enables auto-login after redemption using the given
// session starter
func WithSessionStarter(starter session.Starter) HandlerOption {
	return func(h *Handler) {
		h.sessions = starter
	}
}

// WithResendEnabled controls whether the resend route is exposed. Default
// is true.
func WithResendEnabled(enabled bool) HandlerOption {
	return func(h *Handler) {
		h.resendEnabled = enabled
	}
}

// NewHandler creates a new verification API handler
func NewHandler(service *verification.VerificationService, opts ...HandlerOption) *Handler {
	h := &Handler{
		service:       service,
		resendEnabled: true,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Routes returns the router for the verification endpoints
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/verify", h.PresentKey)
	r.Post("/verify", h.RedeemKey)
	if h.resendEnabled {
		r.Post("/resend", h.ResendVerification)
	}
	return r
}

// PresentKey handles GET /verify?key=. Validation only; nothing is mutated
// on this path.
func (h *Handler) PresentKey(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Key is required"})
		return
	}

	acct, err := h.service.Present(r.Context(), key)
	if err != nil {
		h.renderVerifyError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, PresentResponse{
		Login:   acct.Login,
		Message: "Press the button to verify your account",
	})
}

// RedeemKey handles POST /verify. On success the account is open, the key
// row is gone, and (policy permitting) a session cookie is set.
func (h *Handler) RedeemKey(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request body", "err", err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}

	if req.Key == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Key is required"})
		return
	}

	acct, err := h.service.Redeem(r.Context(), req.Key)
	if err != nil {
		h.renderVerifyError(w, r, err)
		return
	}

	loggedIn := false
	if h.service.AutoLogin() && h.sessions != nil {
		if err := h.sessions.StartSession(w, acct.ID); err != nil {
			// The account is already verified; failing to set the cookie
			// only means the user has to log in manually.
			slog.Error("Failed to start session after verification", "account_id", acct.ID, "err", err)
		} else {
			loggedIn = true
		}
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RedeemResponse{
		Message:  "Your account has been verified",
		LoggedIn: loggedIn,
	})
}

// ResendVerification handles POST /resend
func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req ResendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request body", "err", err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}

	if req.Login == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Login is required"})
		return
	}

	err := h.service.Resend(r.Context(), req.Login)
	if err != nil {
		if errors.Is(err, verification.ErrResendNotAllowed) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Error: "Unable to resend verification email"})
			return
		}

		slog.Error("Failed to resend verification email", "err", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Error: "An error occurred while sending verification email"})
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, ResendResponse{
		Message: "An email has been sent to you with a link to verify your account",
	})
}

func (h *Handler) renderVerifyError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, verification.ErrKeyNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, ErrorResponse{Error: "Invalid verification key"})
		return
	}

	slog.Error("Failed to verify account", "err", err)
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, ErrorResponse{Error: "An error occurred while verifying account"})
}
