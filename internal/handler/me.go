package handler

import "net/http"

// HandleMe returns the caller's local user row.
//
// HTTP: GET /api/me
//
// The frontend uses it to learn its own local id, and it is the cheapest way
// to force the shadow row to exist.
func HandleMe(resp *Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r, resp)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}
