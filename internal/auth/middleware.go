package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// Middleware verifies an "Authorization: Bearer" header and stores the
// identity in the request context. Requests without the header pass through
// anonymously; handlers decide whether they need an identity.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			unauthorized(w)
			return
		}
		id, err := a.Authenticate(strings.TrimSpace(token))
		if err != nil {
			slog.WarnContext(r.Context(), "Rejected bearer token", "path", r.URL.Path, "error", err)
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="hubtrack"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": ErrInvalidToken.Error()})
}
