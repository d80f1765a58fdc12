package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/muebleria/api/internal/platform/httpx"
	"github.com/muebleria/api/internal/services"
)

const maxAuthBodySize = 8 * 1024

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthHandlers exposes the registration and login endpoints.
type AuthHandlers struct {
	auth services.AuthService
}

// NewAuthHandlers constructs a new AuthHandlers instance.
func NewAuthHandlers(auth services.AuthService) *AuthHandlers {
	return &AuthHandlers{auth: auth}
}

// Routes registers the /auth endpoints.
func (h *AuthHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/register", h.register)
	r.Post("/login", h.login)
}

func (h *AuthHandlers) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.auth == nil {
		httpx.WriteError(ctx, w, httpx.NewError("auth_service_unavailable", "auth service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxAuthBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var req registerRequest
	if err := decodeStrict(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	account, err := h.auth.Register(ctx, services.RegisterCommand{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeAuthError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildUserPayload(account))
}

func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.auth == nil {
		httpx.WriteError(ctx, w, httpx.NewError("auth_service_unavailable", "auth service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxAuthBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var req loginRequest
	if err := decodeStrict(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	session, err := h.auth.Login(ctx, services.LoginCommand{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		writeAuthError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, sessionPayload{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      buildUserPayload(session.User),
	})
}

func writeAuthError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrAuthInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrAuthUsernameTaken):
		httpx.WriteError(ctx, w, httpx.NewError("username_taken", "username already taken", http.StatusConflict))
	case errors.Is(err, services.ErrAuthEmailTaken):
		httpx.WriteError(ctx, w, httpx.NewError("email_taken", "email already registered", http.StatusConflict))
	case errors.Is(err, services.ErrAuthInvalidCredentials):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_credentials", "invalid username or password", http.StatusUnauthorized))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("request_too_large", "request body too large", http.StatusRequestEntityTooLarge))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is required", http.StatusBadRequest))
	}
}
