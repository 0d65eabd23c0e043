package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Harshitk-cp/vetpms/internal/domain"
)

type contextKey string

const (
	practiceContextKey contextKey = "practice"
	practiceSlotKey    contextKey = "practice_slot"
)

// PracticeFromContext returns the authenticated practice, or nil.
func PracticeFromContext(ctx context.Context) *domain.Practice {
	p, _ := ctx.Value(practiceContextKey).(*domain.Practice)
	return p
}

// WithPractice stores p in ctx. Used by tests and internal callers.
func WithPractice(ctx context.Context, p *domain.Practice) context.Context {
	if slot, ok := ctx.Value(practiceSlotKey).(*string); ok && p != nil {
		*slot = p.ID.String()
	}
	return context.WithValue(ctx, practiceContextKey, p)
}

func withPracticeSlot(ctx context.Context, slot *string) context.Context {
	return context.WithValue(ctx, practiceSlotKey, slot)
}

// APIKeyAuth authenticates "Authorization: Bearer <key>" against the practice
// store and puts the practice in the request context.
func APIKeyAuth(practices domain.PracticeStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			scheme, apiKey, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(apiKey) == "" {
				writeError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			practice, err := practices.GetByAPIKeyHash(r.Context(), HashAPIKey(strings.TrimSpace(apiKey)))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPractice(r.Context(), practice)))
		})
	}
}

// HashAPIKey returns the hex sha256 of key, the form stored with a practice.
func HashAPIKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg, "code": "UNAUTHORIZED"})
}
