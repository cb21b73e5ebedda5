package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"hubtrack/internal/auth"
	"hubtrack/internal/core"
)

var (
	errUnauthenticated = errors.New("authentication required")
	errBadRequest      = errors.New("bad request")
)

type identityHandler func(w http.ResponseWriter, r *http.Request, who core.Identity)

// authed rejects requests that carry no verified identity. Role checks
// belong to the service.
func (s *Server) authed(next identityHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		who, ok := auth.IdentityFrom(r.Context())
		if !ok {
			writeError(w, r, errUnauthenticated)
			return
		}
		next(w, r, who)
	}
}

// decodeJSON reads exactly one JSON object of at most s.maxBody bytes into
// dst. Unknown fields are rejected.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return err
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty body", errBadRequest)
		default:
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON object", errBadRequest)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", errBadRequest, raw)
	}
	return id, nil
}

func queryID(r *http.Request, key string) (int64, bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false, fmt.Errorf("%w: invalid %s %q", errBadRequest, key, raw)
	}
	return id, true, nil
}
