package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const (
	sessionCookieName   = "sid"
	sessionCookieMaxAge = 30 * 24 * time.Hour
)

type contextKey int

const sidContextKey contextKey = iota

// sessionMiddleware guarantees every request downstream of it carries a
// live session id. A missing or stale sid cookie is replaced with a fresh
// session transparently; handlers never see an absent sid.
func (a *API) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sid string
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			sid = cookie.Value
		}

		if sid == "" || !a.sessions.Has(sid) {
			created, err := a.sessions.Create()
			if err != nil {
				a.logger.Error("creating session failed", "error", err)
				writeError(w, http.StatusInternalServerError, "failed to create session")
				return
			}
			sid = created
			a.events.log(EventSessionCreated, r, slog.String("sid", sid))
			setSessionCookie(w, sid)
		}

		ctx := context.WithValue(r.Context(), sidContextKey, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sidFromContext(ctx context.Context) string {
	sid, _ := ctx.Value(sidContextKey).(string)
	return sid
}

func setSessionCookie(w http.ResponseWriter, sid string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(sessionCookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
