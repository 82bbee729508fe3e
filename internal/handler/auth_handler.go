package handler

import (
	"net/http"

	"go-contacts-api/internal/middleware"
	"go-contacts-api/internal/model"
	"go-contacts-api/internal/service"
	"go-contacts-api/internal/validation"
	"go-contacts-api/pkg/apierror"
)

type AuthHandler struct {
	service   *service.AuthService
	validator *validation.Validator
}

func NewAuthHandler(service *service.AuthService, validator *validation.Validator) *AuthHandler {
	return &AuthHandler{service: service, validator: validator}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload model.RegisterRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.service.Register(r.Context(), actorFromRequest(r), payload.Email, payload.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, r, http.StatusCreated, "User registered successfully", user, nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		writeError(w, r, err)
		return
	}

	tokens, err := h.service.Login(r.Context(), actorFromRequest(r), payload.Email, payload.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, r, http.StatusOK, "Login successful", tokens, nil)
}

// Refresh exchanges a refresh token for a new access token. A missing token
// is reported as 401 like any other unusable token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var payload model.RefreshRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	token, err := h.service.Refresh(r.Context(), actorFromRequest(r), payload.RefreshToken)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, r, http.StatusOK, "Token refreshed", token, nil)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.ClaimsFromContext(r.Context()); !ok {
		writeError(w, r, apierror.Wrap(apierror.KindUnauthorized, model.ErrUnauthorized, "no token provided"))
		return
	}

	if err := h.service.Logout(r.Context(), actorFromRequest(r)); err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, r, http.StatusOK, "Logged out successfully", nil, nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, apierror.Wrap(apierror.KindUnauthorized, model.ErrUnauthorized, "no token provided"))
		return
	}

	user, err := h.service.Me(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}
