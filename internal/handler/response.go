package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"go-contacts-api/internal/i18n"
	"go-contacts-api/internal/model"
	"go-contacts-api/pkg/apierror"
)

const maxBodyBytes = 1 << 20

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	writeJSON(w, status, model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// writeMessage is writeSuccess with a message translated into the request's
// language.
func writeMessage(w http.ResponseWriter, r *http.Request, status int, message string, data any, meta *model.Meta, args ...any) {
	writeJSON(w, status, model.APIResponse{
		Success: true,
		Message: i18n.T(r.Context(), message, args...),
		Data:    data,
		Meta:    meta,
	})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apierror.KindInternal
	body := &model.APIError{
		Code:    kind.String(),
		Message: "internal server error",
	}

	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Kind != apierror.KindInternal:
		kind = apiErr.Kind
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	case errors.Is(err, model.ErrContactNotFound):
		kind = apierror.KindNotFound
		body.Code, body.Message = kind.String(), "contact not found"
	case errors.Is(err, model.ErrUserNotFound):
		kind = apierror.KindNotFound
		body.Code, body.Message = kind.String(), "user not found"
	case errors.Is(err, model.ErrUserAlreadyExists):
		kind = apierror.KindConflict
		body.Code, body.Message = kind.String(), "user already exists"
	case errors.Is(err, model.ErrInvalidCredentials):
		kind = apierror.KindUnauthorized
		body.Code, body.Message = kind.String(), "invalid credentials"
	case errors.Is(err, model.ErrTokenMissing), errors.Is(err, model.ErrTokenInvalid), errors.Is(err, model.ErrInvalidRefreshToken), errors.Is(err, model.ErrUnauthorized):
		kind = apierror.KindUnauthorized
		body.Code, body.Message = kind.String(), "invalid or expired token"
	case errors.Is(err, model.ErrForbidden):
		kind = apierror.KindForbidden
		body.Code, body.Message = kind.String(), "insufficient permissions"
	default:
		slog.Error("unhandled error", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	body.Message = i18n.T(r.Context(), body.Message)
	writeJSON(w, kind.HTTPStatus(), model.APIResponse{
		Success: false,
		Error:   body,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload model.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON reads a single JSON object into dst. An empty body leaves dst
// zero-valued.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return apierror.Validation("request body too large", strconv.FormatInt(maxBytesErr.Limit, 10))
		}
		return apierror.Wrap(apierror.KindValidation, err, "invalid request body")
	}
	return nil
}

func parseIntOrDefault(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, apierror.NotFound("route not found", r.URL.Path))
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    "METHOD_NOT_ALLOWED",
			Message: i18n.T(r.Context(), "method not allowed"),
		},
	})
}
