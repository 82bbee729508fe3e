package middleware

import (
	"net/http"

	"golang.org/x/text/language"

	"go-contacts-api/internal/i18n"
)

// Locale negotiates the response language from Accept-Language, or the lang
// query parameter when present.
func Locale(defaultLocale string) func(http.Handler) http.Handler {
	fallback := i18n.Parse(defaultLocale, language.English)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tag := i18n.Match(r.Header.Get("Accept-Language"), fallback)
			if lang := r.URL.Query().Get("lang"); lang != "" {
				tag = i18n.Parse(lang, tag)
			}

			w.Header().Set("Content-Language", tag.String())
			next.ServeHTTP(w, r.WithContext(i18n.WithLanguage(r.Context(), tag)))
		})
	}
}
