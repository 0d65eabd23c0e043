package middleware

import (
	"context"
	"net/http"
)

const localeKey = contextKey("locale")

// LocaleMatcher picks a supported locale for an Accept-Language value.
type LocaleMatcher interface {
	Match(accept string) string
}

// LocaleFromContext returns the negotiated locale, or "" outside a request.
func LocaleFromContext(ctx context.Context) string {
	l, _ := ctx.Value(localeKey).(string)
	return l
}

// Locale negotiates the response locale from Accept-Language, falling back to
// defaultLocale when the header is absent, and echoes it in Content-Language.
func Locale(m LocaleMatcher, defaultLocale string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accept := r.Header.Get("Accept-Language")
			if accept == "" {
				accept = defaultLocale
			}
			locale := m.Match(accept)
			w.Header().Set("Content-Language", locale)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), localeKey, locale)))
		})
	}
}
