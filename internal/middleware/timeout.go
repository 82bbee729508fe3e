package middleware

import (
	"net/http"
	"time"

	"go-contacts-api/internal/i18n"
)

func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			message := `{"success":false,"error":{"code":"REQUEST_TIMEOUT","message":"` + i18n.T(r.Context(), "request timed out") + `"}}`
			http.TimeoutHandler(next, timeout, message).ServeHTTP(w, r)
		})
	}
}
