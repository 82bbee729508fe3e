package middleware

import (
	"encoding/json"
	"net/http"

	"go-contacts-api/internal/i18n"
	"go-contacts-api/internal/model"
)

func jsonEncode(w http.ResponseWriter, value any) error {
	return json.NewEncoder(w).Encode(value)
}

// writeError renders the error envelope with message translated into the
// request's language.
func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = jsonEncode(w, model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    code,
			Message: i18n.T(r.Context(), message),
		},
	})
}
