// Package session owns the mapping from browser session ids to upstream
// cookie jars, including their persistence to the session file.
package session

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// Cookie is a single stored cookie with the attributes that must survive
// serialization. Cookie identity is domain+path+name.
type Cookie struct {
	Name     string     `json:"name"`
	Value    string     `json:"value"`
	Domain   string     `json:"domain"`
	Path     string     `json:"path"`
	Expires  *time.Time `json:"expires,omitempty"`
	Secure   bool       `json:"secure,omitempty"`
	HTTPOnly bool       `json:"http_only,omitempty"`
	HostOnly bool       `json:"host_only,omitempty"`
}

func (c Cookie) key() string {
	return c.Domain + ";" + c.Path + ";" + c.Name
}

func (c Cookie) expired(now time.Time) bool {
	return c.Expires != nil && c.Expires.Before(now)
}

// Jar is an owned, serializable http.CookieJar. The standard library jar
// cannot enumerate its contents, so the bridge keeps its own store: the
// whole jar must round-trip through JSON when the session file is written.
type Jar struct {
	mu      sync.Mutex
	cookies map[string]Cookie
}

var _ http.CookieJar = (*Jar)(nil)

// NewJar returns an empty jar.
func NewJar() *Jar {
	return &Jar{cookies: make(map[string]Cookie)}
}

// SetCookies implements http.CookieJar. Cookies with a negative MaxAge or
// an expiry in the past delete the matching stored cookie.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	host := canonicalHost(u.Host)
	now := time.Now()

	j.mu.Lock()
	defer j.mu.Unlock()

	for _, hc := range cookies {
		c := Cookie{
			Name:     hc.Name,
			Value:    hc.Value,
			Secure:   hc.Secure,
			HTTPOnly: hc.HttpOnly,
		}

		c.Domain = strings.TrimPrefix(strings.ToLower(hc.Domain), ".")
		if c.Domain == "" {
			c.Domain = host
			c.HostOnly = true
		}

		c.Path = hc.Path
		if c.Path == "" || c.Path[0] != '/' {
			c.Path = defaultPath(u.Path)
		}

		switch {
		case hc.MaxAge < 0:
			delete(j.cookies, c.key())
			continue
		case hc.MaxAge > 0:
			e := now.Add(time.Duration(hc.MaxAge) * time.Second)
			c.Expires = &e
		case !hc.Expires.IsZero():
			if hc.Expires.Before(now) {
				delete(j.cookies, c.key())
				continue
			}
			e := hc.Expires
			c.Expires = &e
		}

		j.cookies[c.key()] = c
	}
}

// Cookies implements http.CookieJar. Expired cookies are dropped as a side
// effect.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	host := canonicalHost(u.Host)
	reqPath := u.Path
	if reqPath == "" {
		reqPath = "/"
	}
	secure := u.Scheme == "https"
	now := time.Now()

	j.mu.Lock()
	defer j.mu.Unlock()

	var matched []Cookie
	for key, c := range j.cookies {
		if c.expired(now) {
			delete(j.cookies, key)
			continue
		}
		if c.Secure && !secure {
			continue
		}
		if !domainMatch(host, c) || !pathMatch(reqPath, c.Path) {
			continue
		}
		matched = append(matched, c)
	}

	// Longest path first, then by name for a stable header order.
	sort.Slice(matched, func(i, k int) bool {
		if len(matched[i].Path) != len(matched[k].Path) {
			return len(matched[i].Path) > len(matched[k].Path)
		}
		return matched[i].Name < matched[k].Name
	})

	out := make([]*http.Cookie, len(matched))
	for i, c := range matched {
		out[i] = &http.Cookie{Name: c.Name, Value: c.Value}
	}
	return out
}

// Len reports the number of stored cookies.
func (j *Jar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.cookies)
}

// jarState is the wire form of a jar inside the session file.
type jarState struct {
	Cookies []Cookie `json:"cookies"`
}

// MarshalJSON serializes the jar with cookies in stable identity order.
func (j *Jar) MarshalJSON() ([]byte, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	state := jarState{Cookies: make([]Cookie, 0, len(j.cookies))}
	for _, c := range j.cookies {
		state.Cookies = append(state.Cookies, c)
	}
	sort.Slice(state.Cookies, func(i, k int) bool {
		return state.Cookies[i].key() < state.Cookies[k].key()
	})
	return json.Marshal(state)
}

// UnmarshalJSON replaces the jar contents with the serialized state.
func (j *Jar) UnmarshalJSON(data []byte) error {
	var state jarState
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	j.cookies = make(map[string]Cookie, len(state.Cookies))
	for _, c := range state.Cookies {
		j.cookies[c.key()] = c
	}
	return nil
}

func canonicalHost(host string) string {
	if i := strings.LastIndex(host, ":"); i > 0 && !strings.HasSuffix(host, "]") {
		host = host[:i]
	}
	return strings.ToLower(strings.TrimSuffix(host, "."))
}

// defaultPath derives the cookie default path from the request path per
// RFC 6265 section 5.1.4.
func defaultPath(reqPath string) string {
	if reqPath == "" || reqPath[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(reqPath, "/")
	if i == 0 {
		return "/"
	}
	return reqPath[:i]
}

func domainMatch(host string, c Cookie) bool {
	if c.HostOnly {
		return host == c.Domain
	}
	return host == c.Domain || strings.HasSuffix(host, "."+c.Domain)
}

func pathMatch(reqPath, cookiePath string) bool {
	if reqPath == cookiePath {
		return true
	}
	if !strings.HasPrefix(reqPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || reqPath[len(cookiePath)] == '/'
}
