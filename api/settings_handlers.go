package api

import (
	"io"
	"net/http"
)

func (a *API) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	blob, err := a.settings.Get()
	if err != nil {
		a.logger.Error("reading settings failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read settings")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(blob)
}

func (a *API) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	blob, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if err := a.settings.Set(blob); err != nil {
		writeError(w, http.StatusBadRequest, "settings must be valid JSON")
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}
