package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/yukawa/avatarbridge/upstream"
)

const (
	defaultListPageSize   = 100
	defaultSearchPageSize = 50
	maxPageSize           = 100
)

func (a *API) handleListAvatars(w http.ResponseWriter, r *http.Request) {
	sid := sidFromContext(r.Context())
	n := clamp(queryInt(r, "n", defaultListPageSize), 1, maxPageSize)
	offset := max(0, queryInt(r, "offset", 0))
	sort := queryDefault(r, "sort", "updated")
	order := queryDefault(r, "order", "descending")

	var (
		page  *upstream.Page
		total int
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		page, err = a.client.ListAvatars(ctx, sid, n, offset, sort, order)
		return err
	})
	// The exact total costs a full catalog walk, so it is only computed
	// alongside the first page.
	if offset == 0 {
		g.Go(func() error {
			var err error
			total, err = a.client.CountAvatars(ctx, sid)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		a.writeUpstreamError(w, r, err)
		return
	}

	resp := ListAvatarsResponse{
		OK:      true,
		Avatars: summarizeAll(page.Avatars),
		N:       n,
		Offset:  offset,
		HasMore: page.HasMore,
	}
	if offset == 0 {
		resp.Total = &total
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleSearchAvatars(w http.ResponseWriter, r *http.Request) {
	sid := sidFromContext(r.Context())
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	n := clamp(queryInt(r, "n", defaultSearchPageSize), 1, maxPageSize)
	offset := max(0, queryInt(r, "offset", 0))

	result, err := a.searcher.Search(r.Context(), sid, query, n, offset)
	if err != nil {
		a.writeUpstreamError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SearchAvatarsResponse{
		OK:           true,
		Query:        query,
		TotalMatches: result.TotalMatches,
		Avatars:      summarizeAll(result.Avatars),
		N:            n,
		Offset:       offset,
		HasMore:      result.HasMore,
	})
}

func (a *API) handleSelectAvatar(w http.ResponseWriter, r *http.Request) {
	sid := sidFromContext(r.Context())
	avatarID := chi.URLParam(r, "avatarID")
	if avatarID == "" {
		writeError(w, http.StatusBadRequest, "avatar id is required")
		return
	}

	if err := a.client.SelectAvatar(r.Context(), sid, avatarID); err != nil {
		a.writeUpstreamError(w, r, err)
		return
	}
	a.events.log(EventAvatarSelected, r, "sid", sid, "avatar", avatarID)
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func queryDefault(r *http.Request, name, def string) string {
	if v := r.URL.Query().Get(name); v != "" {
		return v
	}
	return def
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
