package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// Verifier resolves a bearer token to a username. Satisfied by *Sessions;
// handlers and tests can substitute their own.
type Verifier interface {
	Lookup(ctx context.Context, token string) (string, error)
}

type ctxKey struct{}

// Username returns the authenticated username stored by RequireToken.
func Username(ctx context.Context) string {
	v, _ := ctx.Value(ctxKey{}).(string)
	return v
}

func RequireToken(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				deny(w, "missing bearer token")
				return
			}
			user, err := v.Lookup(r.Context(), token)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "session lookup failed"})
				return
			}
			if user == "" {
				deny(w, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, user)))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

func deny(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": msg})
}
