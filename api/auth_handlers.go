package api

import (
	"net/http"

	"github.com/yukawa/avatarbridge/upstream"
)

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[LoginRequest](w, r)
	if !ok {
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	sid := sidFromContext(r.Context())
	result, err := a.client.Login(r.Context(), sid, req.Username, req.Password)
	if err != nil {
		a.events.log(EventLoginFailure, r, "sid", sid)
		a.writeUpstreamError(w, r, err)
		return
	}

	if len(result.TwoFactorMethods) > 0 {
		a.events.log(EventLoginSecondFactor, r, "sid", sid, "methods", result.TwoFactorMethods)
		writeJSON(w, http.StatusOK, TwoFactorRequiredResponse{
			OK:      true,
			State:   StateTwoFactorRequired,
			Methods: result.TwoFactorMethods,
		})
		return
	}

	a.events.log(EventLoginSuccess, r, "sid", sid)
	writeJSON(w, http.StatusOK, LoggedInResponse{
		OK:          true,
		State:       StateLoggedIn,
		DisplayName: result.User.DisplayName,
	})
}

func (a *API) handleTwoFactor(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[TwoFactorRequest](w, r)
	if !ok {
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	sid := sidFromContext(r.Context())
	user, err := a.client.VerifyTwoFactor(r.Context(), sid, upstream.Method(req.Method), req.Code)
	if err != nil {
		a.events.log(EventVerifyFailure, r, "sid", sid, "method", req.Method)
		a.writeUpstreamError(w, r, err)
		return
	}

	a.events.log(EventVerifySuccess, r, "sid", sid, "method", req.Method)
	writeJSON(w, http.StatusOK, LoggedInResponse{
		OK:          true,
		State:       StateLoggedIn,
		DisplayName: user.DisplayName,
	})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	sid := sidFromContext(r.Context())
	user, err := a.client.CurrentUser(r.Context(), sid)
	if err != nil {
		a.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MeResponse{OK: true, DisplayName: user.DisplayName})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	sid := sidFromContext(r.Context())
	if err := a.sessions.Delete(sid); err != nil {
		a.logger.Error("deleting session failed", "sid", sid, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}
	a.events.log(EventLogout, r, "sid", sid)
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}
