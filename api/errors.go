package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yukawa/avatarbridge/session"
	"github.com/yukawa/avatarbridge/upstream"
)

// maxBodySize bounds request bodies. Credentials, codes and the settings
// blob all fit comfortably under a megabyte.
const maxBodySize = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, FailureResponse{Error: msg})
}

// decodeJSON reads and decodes a bounded JSON request body. On failure it
// writes the 400 response itself and reports false.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return v, false
	}
	return v, true
}

// writeUpstreamError maps a failed upstream exchange onto the response.
// Platform rejections keep their status and body, passed through inside a
// 401 envelope. An unknown session also reads as unauthenticated. Anything
// else is a transport failure and reads as a bad gateway.
func (a *API) writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	var rejected *upstream.Rejected
	switch {
	case errors.As(err, &rejected):
		writeJSON(w, http.StatusUnauthorized, FailureResponse{Status: rejected.Status, Body: rejected.Body})
	case errors.Is(err, session.ErrNotFound):
		writeJSON(w, http.StatusUnauthorized, FailureResponse{})
	default:
		a.logger.Error("upstream call failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadGateway, "upstream unreachable")
	}
}
