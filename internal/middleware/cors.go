package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS lets browser clients send credentials and a language preference, and
// read the negotiated language and rate-limit hints back.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Accept-Language", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Language", "Retry-After", "X-Request-ID"},
		MaxAge:         600,
	}).Handler
}
