package api

import (
	"log/slog"
	"net/http"
)

// Event identifies an auth-relevant action for the structured event log.
type Event string

const (
	EventSessionCreated    Event = "session_created"
	EventLoginSuccess      Event = "login_success"
	EventLoginSecondFactor Event = "login_second_factor_required"
	EventLoginFailure      Event = "login_failure"
	EventVerifySuccess     Event = "two_factor_success"
	EventVerifyFailure     Event = "two_factor_failure"
	EventLogout            Event = "logout"
	EventAvatarSelected    Event = "avatar_selected"
)

// eventLogger emits one structured record per auth-relevant action.
// Credentials and codes never appear in events, only outcomes.
type eventLogger struct {
	logger *slog.Logger
}

func newEventLogger(logger *slog.Logger) *eventLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &eventLogger{logger: logger.With("component", "events")}
}

func (el *eventLogger) log(event Event, r *http.Request, args ...any) {
	attrs := append([]any{
		"event", string(event),
		"remote", r.RemoteAddr,
	}, args...)
	el.logger.Info("api event", attrs...)
}
