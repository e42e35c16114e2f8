package httpx

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// IDParam parses the {id} route parameter. On failure it writes a 400
// problem response and returns false.
func IDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		Problem(w, http.StatusBadRequest, "Invalid id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// ActorID reads the acting user from the X-Actor-ID header, zero when absent.
func ActorID(r *http.Request) int64 {
	if raw := r.Header.Get("X-Actor-ID"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return id
		}
	}
	return 0
}
