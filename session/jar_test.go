package session

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func cookieNames(cookies []*http.Cookie) []string {
	names := make([]string, len(cookies))
	for i, c := range cookies {
		names[i] = c.Name
	}
	return names
}

func TestJarSetAndGet(t *testing.T) {
	jar := NewJar()
	u := mustURL(t, "https://api.example.com/api/1/auth/user")

	jar.SetCookies(u, []*http.Cookie{
		{Name: "auth", Value: "tok-1"},
		{Name: "twoFactorAuth", Value: "tok-2"},
	})

	got := jar.Cookies(mustURL(t, "https://api.example.com/api/1/avatars"))
	assert.ElementsMatch(t, []string{"auth", "twoFactorAuth"}, cookieNames(got))
}

func TestJarOverwriteSameIdentity(t *testing.T) {
	jar := NewJar()
	u := mustURL(t, "https://api.example.com/")

	jar.SetCookies(u, []*http.Cookie{{Name: "auth", Value: "old"}})
	jar.SetCookies(u, []*http.Cookie{{Name: "auth", Value: "new"}})

	got := jar.Cookies(u)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Value)
}

func TestJarDomainMatching(t *testing.T) {
	jar := NewJar()
	u := mustURL(t, "https://api.example.com/")

	jar.SetCookies(u, []*http.Cookie{
		{Name: "host_only", Value: "1"},
		{Name: "domain_wide", Value: "2", Domain: ".example.com"},
	})

	sub := jar.Cookies(mustURL(t, "https://other.example.com/"))
	assert.Equal(t, []string{"domain_wide"}, cookieNames(sub))

	same := jar.Cookies(u)
	assert.ElementsMatch(t, []string{"host_only", "domain_wide"}, cookieNames(same))

	unrelated := jar.Cookies(mustURL(t, "https://example.org/"))
	assert.Empty(t, unrelated)
}

func TestJarPathMatching(t *testing.T) {
	jar := NewJar()
	jar.SetCookies(mustURL(t, "https://h.test/"), []*http.Cookie{
		{Name: "scoped", Value: "1", Path: "/api"},
	})

	assert.NotEmpty(t, jar.Cookies(mustURL(t, "https://h.test/api")))
	assert.NotEmpty(t, jar.Cookies(mustURL(t, "https://h.test/api/1/users")))
	assert.Empty(t, jar.Cookies(mustURL(t, "https://h.test/apiary")))
	assert.Empty(t, jar.Cookies(mustURL(t, "https://h.test/")))
}

func TestJarSecureCookies(t *testing.T) {
	jar := NewJar()
	jar.SetCookies(mustURL(t, "https://h.test/"), []*http.Cookie{
		{Name: "sec", Value: "1", Secure: true},
	})

	assert.NotEmpty(t, jar.Cookies(mustURL(t, "https://h.test/")))
	assert.Empty(t, jar.Cookies(mustURL(t, "http://h.test/")))
}

func TestJarExpiry(t *testing.T) {
	jar := NewJar()
	u := mustURL(t, "https://h.test/")

	jar.SetCookies(u, []*http.Cookie{{Name: "keep", Value: "1"}})

	// MaxAge < 0 deletes an existing cookie.
	jar.SetCookies(u, []*http.Cookie{{Name: "keep", Value: "", MaxAge: -1}})
	assert.Empty(t, jar.Cookies(u))

	// Already-expired Expires never stores.
	jar.SetCookies(u, []*http.Cookie{
		{Name: "dead", Value: "1", Expires: time.Now().Add(-time.Hour)},
	})
	assert.Empty(t, jar.Cookies(u))

	// A future expiry stores and survives.
	jar.SetCookies(u, []*http.Cookie{
		{Name: "live", Value: "1", Expires: time.Now().Add(time.Hour)},
	})
	assert.Equal(t, []string{"live"}, cookieNames(jar.Cookies(u)))
}

func TestJarRoundTripsThroughJSON(t *testing.T) {
	jar := NewJar()
	expires := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	jar.SetCookies(mustURL(t, "https://api.example.com/api/1/login"), []*http.Cookie{
		{Name: "auth", Value: "tok", Expires: expires, Secure: true, HttpOnly: true},
		{Name: "pref", Value: "dark", Domain: ".example.com", Path: "/"},
	})

	data, err := json.Marshal(jar)
	require.NoError(t, err)

	restored := NewJar()
	require.NoError(t, json.Unmarshal(data, restored))

	again, err := json.Marshal(restored)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
	assert.Equal(t, jar.Len(), restored.Len())
}
