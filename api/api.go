// Package api implements the bridge's local HTTP surface: session-scoped
// authentication against the avatar platform, avatar listing, search and
// selection, and the UI settings blob.
package api

import (
	_ "embed"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	openapimw "github.com/go-openapi/runtime/middleware"

	"github.com/yukawa/avatarbridge/search"
	"github.com/yukawa/avatarbridge/session"
	"github.com/yukawa/avatarbridge/settings"
	"github.com/yukawa/avatarbridge/upstream"
)

//go:embed openapi.yaml
var openapiSpec []byte

// API wires the stores and the upstream client into HTTP handlers.
type API struct {
	sessions *session.Store
	client   *upstream.Client
	searcher *search.Aggregator
	settings *settings.Store
	logger   *slog.Logger
	events   *eventLogger
}

// Option configures the API.
type Option func(*API)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) { a.logger = logger.With("component", "api") }
}

// New builds the API around its collaborators.
func New(sessions *session.Store, client *upstream.Client, searcher *search.Aggregator, settingsStore *settings.Store, opts ...Option) *API {
	a := &API{
		sessions: sessions,
		client:   client,
		searcher: searcher,
		settings: settingsStore,
		logger:   slog.Default().With("component", "api"),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.events = newEventLogger(a.logger)
	return a
}

// Router returns the full route tree. Everything except the health check
// and the API docs runs behind the session middleware, so handlers always
// have a sid to work with.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", a.handleHealth)
	r.Get("/openapi.yaml", a.handleOpenAPISpec)
	r.Handle("/docs", openapimw.SwaggerUI(openapimw.SwaggerUIOpts{
		Path:    "/docs",
		SpecURL: "/openapi.yaml",
		Title:   "Avatar Bridge API",
	}, nil))
	r.Handle("/redoc", openapimw.Redoc(openapimw.RedocOpts{
		Path:    "/redoc",
		SpecURL: "/openapi.yaml",
		Title:   "Avatar Bridge API",
	}, nil))

	r.Group(func(r chi.Router) {
		r.Use(a.sessionMiddleware)

		r.Post("/auth/login", a.handleLogin)
		r.Post("/auth/2fa", a.handleTwoFactor)
		r.Get("/auth/me", a.handleMe)
		r.Post("/auth/logout", a.handleLogout)

		r.Get("/avatars", a.handleListAvatars)
		r.Get("/avatars/search", a.handleSearchAvatars)
		r.Post("/avatars/{avatarID}/select", a.handleSelectAvatar)

		r.Get("/settings", a.handleGetSettings)
		r.Put("/settings", a.handlePutSettings)
	})

	return r
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

func (a *API) handleOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(openapiSpec)
}
