// Package search emulates substring search over the platform's listing
// API, which offers no server-side search of its own.
package search

import (
	"context"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/yukawa/avatarbridge/upstream"
)

// pageSize matches the platform's maximum listing page.
const pageSize = 100

// Lister is the single upstream primitive the aggregator consumes.
// *upstream.Client satisfies it.
type Lister interface {
	ListAvatars(ctx context.Context, sid string, n, offset int, sort, order string) (*upstream.Page, error)
}

// Result is a windowed view over all matches: the slice of matches inside
// [offset, offset+limit) plus the true total match count.
type Result struct {
	TotalMatches int
	Avatars      []upstream.Avatar
	HasMore      bool
}

// Aggregator turns the paginated listing into a searchable, counted,
// windowed result set. Every search is a full catalog scan — O(total/100)
// upstream calls — since no index is maintained.
type Aggregator struct {
	lister Lister
}

// New builds an aggregator over the given lister.
func New(lister Lister) *Aggregator {
	return &Aggregator{lister: lister}
}

// Search scans the catalog for avatars whose name contains query,
// case-insensitively. An empty or whitespace-only query short-circuits to
// an empty result without touching upstream: an unguarded empty query
// would enumerate the entire catalog.
func (a *Aggregator) Search(ctx context.Context, sid, query string, limit, offset int) (*Result, error) {
	needle := fold(strings.TrimSpace(query))
	if needle == "" {
		return &Result{}, nil
	}

	result := &Result{}
	for pageOffset := 0; ; pageOffset += pageSize {
		page, err := a.lister.ListAvatars(ctx, sid, pageSize, pageOffset, "", "")
		if err != nil {
			return nil, err
		}
		if len(page.Avatars) == 0 {
			break
		}

		for _, avatar := range page.Avatars {
			if !strings.Contains(fold(avatar.Name), needle) {
				continue
			}
			idx := result.TotalMatches
			result.TotalMatches++
			if idx >= offset && idx < offset+limit {
				result.Avatars = append(result.Avatars, avatar)
			}
		}

		if len(page.Avatars) < pageSize {
			break
		}
	}

	result.HasMore = offset+len(result.Avatars) < result.TotalMatches
	return result, nil
}

// fold canonicalizes a string for caseless matching: NFKC normalization
// first, so width and compatibility variants compare equal, then lowercase.
func fold(s string) string {
	return strings.ToLower(norm.NFKC.String(s))
}
