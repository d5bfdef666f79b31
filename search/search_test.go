package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukawa/avatarbridge/upstream"
)

// fakeLister serves pages from a fixed catalog and counts calls.
type fakeLister struct {
	avatars []upstream.Avatar
	calls   int
}

func (f *fakeLister) ListAvatars(_ context.Context, _ string, n, offset int, _, _ string) (*upstream.Page, error) {
	f.calls++
	start := min(offset, len(f.avatars))
	end := min(start+n, len(f.avatars))
	page := f.avatars[start:end]
	return &upstream.Page{Avatars: page, HasMore: len(page) == n}, nil
}

func catalog(total int, matchIndices ...int) []upstream.Avatar {
	matches := make(map[int]bool, len(matchIndices))
	for _, i := range matchIndices {
		matches[i] = true
	}
	avatars := make([]upstream.Avatar, total)
	for i := range avatars {
		name := fmt.Sprintf("Avatar %d", i)
		if matches[i] {
			name = fmt.Sprintf("Fox Avatar %d", i)
		}
		avatars[i] = upstream.Avatar{ID: fmt.Sprintf("avtr_%04d", i), Name: name}
	}
	return avatars
}

func TestSearchEmptyQueryMakesNoUpstreamCalls(t *testing.T) {
	for _, query := range []string{"", "   ", "\t\n"} {
		lister := &fakeLister{avatars: catalog(50)}
		result, err := New(lister).Search(t.Context(), "sid", query, 10, 0)
		require.NoError(t, err)
		assert.Zero(t, result.TotalMatches)
		assert.Empty(t, result.Avatars)
		assert.False(t, result.HasMore)
		assert.Zero(t, lister.calls, "query %q must not hit upstream", query)
	}
}

func TestSearchWindowing(t *testing.T) {
	// 230 avatars; matches at indices 5, 80 and 210. With limit=2 and
	// offset=1 the window holds the 2nd and 3rd matches.
	lister := &fakeLister{avatars: catalog(230, 5, 80, 210)}

	result, err := New(lister).Search(t.Context(), "sid", "fox", 2, 1)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalMatches)
	require.Len(t, result.Avatars, 2)
	assert.Equal(t, "avtr_0080", result.Avatars[0].ID)
	assert.Equal(t, "avtr_0210", result.Avatars[1].ID)
	assert.False(t, result.HasMore)
	assert.Equal(t, 3, lister.calls, "230 avatars scan in 3 pages of 100")
}

func TestSearchHasMore(t *testing.T) {
	lister := &fakeLister{avatars: catalog(10, 0, 1, 2, 3, 4)}

	result, err := New(lister).Search(t.Context(), "sid", "fox", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, result.TotalMatches)
	assert.Len(t, result.Avatars, 2)
	assert.True(t, result.HasMore)

	tail, err := New(&fakeLister{avatars: catalog(10, 0, 1, 2, 3, 4)}).Search(t.Context(), "sid", "fox", 10, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, tail.TotalMatches)
	assert.Len(t, tail.Avatars, 2)
	assert.False(t, tail.HasMore)
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	lister := &fakeLister{avatars: []upstream.Avatar{
		{ID: "a", Name: "Shiba POLICE"},
		{ID: "b", Name: "shiba casual"},
		{ID: "c", Name: "Cat"},
	}}

	result, err := New(lister).Search(t.Context(), "sid", "SHIBA", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalMatches)
}

func TestSearchNormalizesWidthVariants(t *testing.T) {
	// Fullwidth letters in the catalog name match an ASCII query after
	// NFKC folding.
	lister := &fakeLister{avatars: []upstream.Avatar{
		{ID: "a", Name: "ＦＯＸ　ｍａｓｋ"},
	}}

	result, err := New(lister).Search(t.Context(), "sid", "fox", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalMatches)
}

func TestSearchNoMatches(t *testing.T) {
	lister := &fakeLister{avatars: catalog(42)}
	result, err := New(lister).Search(t.Context(), "sid", "zzz", 10, 0)
	require.NoError(t, err)
	assert.Zero(t, result.TotalMatches)
	assert.Empty(t, result.Avatars)
	assert.False(t, result.HasMore)
	assert.Equal(t, 1, lister.calls)
}
