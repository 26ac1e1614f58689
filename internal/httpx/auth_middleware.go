package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/sander-0/sanberbe59-sander/internal/auth"
)

type ctxKey int

const identityKey ctxKey = 0

// RequireAuth memverifikasi bearer token dan menaruh identity di context.
// Tanpa token valid -> 401, handler tidak pernah jalan.
func RequireAuth(m *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				writeJSON(w, http.StatusUnauthorized, response{Message: "User not authenticated"})
				return
			}
			id, err := m.Verify(raw)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, response{Message: "User not authenticated"})
				return
			}
			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID mengambil id user hasil verifikasi; "" kalau request tidak lewat
// middleware auth.
func UserID(r *http.Request) string {
	id, _ := r.Context().Value(identityKey).(auth.Identity)
	return id.UserID
}
