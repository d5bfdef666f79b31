// Package upstream implements the authenticated client for the avatar
// platform's REST API. The client is stateless aside from the cookie jar
// it borrows from the session store for the duration of one call.
package upstream

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/yukawa/avatarbridge/session"
)

// Method is a second-factor verification method offered by the platform.
type Method string

const (
	MethodTOTP     Method = "totp"
	MethodEmailOTP Method = "emailOtp"
)

const (
	// DefaultBaseURL is the production API root.
	DefaultBaseURL = "https://api.vrchat.cloud/api/1"

	// DefaultUserAgent identifies the bridge to the platform.
	DefaultUserAgent = "avatarbridge/0.1"

	// maxPageSize is the largest page the listing endpoint accepts.
	maxPageSize = 100
)

// Rejected is a non-2xx upstream response. Status and body pass through to
// the caller verbatim; they are never swallowed.
type Rejected struct {
	Status int
	Body   any
}

func (e *Rejected) Error() string {
	return fmt.Sprintf("upstream rejected request: status %d", e.Status)
}

// User is the subset of the current-user document the bridge exposes.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// LoginResult is the outcome of a successful password login. When the
// platform demands a second factor, TwoFactorMethods is non-empty and User
// is nil; the session jar then carries the partial-auth cookies the verify
// call must reuse.
type LoginResult struct {
	TwoFactorMethods []Method
	User             *User
}

// Page is one raw listing page. HasMore is the page-length-equals-limit
// heuristic: the platform exposes no cursor, so a full page is the only
// available "probably more" signal.
type Page struct {
	Avatars []Avatar
	HasMore bool
}

// SessionJars resolves session ids to cookie jars and persists rotated
// cookies after each call. *session.Store satisfies it.
type SessionJars interface {
	Get(id string) (*session.Jar, error)
	Save() error
}

// Client issues calls against the platform. Safe for concurrent use.
type Client struct {
	base      string
	userAgent string
	sessions  SessionJars
	transport http.RoundTripper
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTransport overrides the HTTP transport, mainly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger.With("component", "upstream") }
}

// NewClient builds a client for the API rooted at baseURL.
func NewClient(baseURL, userAgent string, sessions SessionJars, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	c := &Client{
		base:      strings.TrimSuffix(baseURL, "/"),
		userAgent: userAgent,
		sessions:  sessions,
		transport: http.DefaultTransport,
		logger:    slog.Default().With("component", "upstream"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Login performs the first phase of the login protocol: a current-user GET
// carrying HTTP Basic authentication.
func (c *Client) Login(ctx context.Context, sid, username, password string) (*LoginResult, error) {
	header := http.Header{}
	header.Set("Authorization", basicAuth(username, password))

	body, err := c.call(ctx, sid, http.MethodGet, "/auth/user", nil, nil, header)
	if err != nil {
		return nil, err
	}

	var payload struct {
		User
		RequiresTwoFactorAuth []Method `json:"requiresTwoFactorAuth"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parsing login response: %w", err)
	}

	if len(payload.RequiresTwoFactorAuth) > 0 {
		c.logger.Debug("login requires second factor", "sid", sid, "methods", payload.RequiresTwoFactorAuth)
		return &LoginResult{TwoFactorMethods: payload.RequiresTwoFactorAuth}, nil
	}
	user := payload.User
	return &LoginResult{User: &user}, nil
}

// VerifyTwoFactor posts the code to the method-specific verification path,
// then confirms full authentication with a second current-user GET. The
// method is not validated against the methods the login challenge offered;
// an unknown method falls back to the TOTP path, matching the platform's
// own leniency.
func (c *Client) VerifyTwoFactor(ctx context.Context, sid string, method Method, code string) (*User, error) {
	verifyPath := "/auth/twofactorauth/totp/verify"
	if method == MethodEmailOTP {
		verifyPath = "/auth/twofactorauth/emailotp/verify"
	}
	c.logger.Debug("verifying second factor", "sid", sid, "path", verifyPath)

	if _, err := c.call(ctx, sid, http.MethodPost, verifyPath, nil, map[string]string{"code": code}, nil); err != nil {
		return nil, err
	}

	// The verify call alone does not prove the session is usable; a
	// current-user fetch must also succeed.
	return c.CurrentUser(ctx, sid)
}

// CurrentUser fetches the authenticated user, doubling as a liveness check.
func (c *Client) CurrentUser(ctx context.Context, sid string) (*User, error) {
	body, err := c.call(ctx, sid, http.MethodGet, "/auth/user", nil, nil, nil)
	if err != nil {
		return nil, err
	}
	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("parsing current user: %w", err)
	}
	return &user, nil
}

// ListAvatars fetches one raw page of the caller's avatars.
func (c *Client) ListAvatars(ctx context.Context, sid string, n, offset int, sort, order string) (*Page, error) {
	query := url.Values{
		"ownerId":       {"me"},
		"releaseStatus": {"all"},
		"n":             {strconv.Itoa(n)},
		"offset":        {strconv.Itoa(offset)},
	}
	if sort != "" {
		query.Set("sort", sort)
	}
	if order != "" {
		query.Set("order", order)
	}

	body, err := c.call(ctx, sid, http.MethodGet, "/avatars", query, nil, nil)
	if err != nil {
		return nil, err
	}
	var avatars []Avatar
	if err := json.Unmarshal(body, &avatars); err != nil {
		return nil, fmt.Errorf("parsing avatar page: %w", err)
	}
	return &Page{Avatars: avatars, HasMore: len(avatars) == n}, nil
}

// CountAvatars walks the full catalog in pages of 100 and returns the
// total. This costs one upstream call per 100 avatars, so callers restrict
// it to the first page of a listing request.
func (c *Client) CountAvatars(ctx context.Context, sid string) (int, error) {
	total := 0
	for offset := 0; ; offset += maxPageSize {
		page, err := c.ListAvatars(ctx, sid, maxPageSize, offset, "", "")
		if err != nil {
			return 0, err
		}
		total += len(page.Avatars)
		if len(page.Avatars) < maxPageSize {
			return total, nil
		}
	}
}

// SelectAvatar switches the user's current avatar.
func (c *Client) SelectAvatar(ctx context.Context, sid, avatarID string) error {
	path := "/avatars/" + url.PathEscape(avatarID) + "/select"
	_, err := c.call(ctx, sid, http.MethodPut, path, nil, nil, nil)
	return err
}

// call performs one upstream round-trip with the session's jar and
// persists the session afterward, since any exchange may rotate cookies.
// Non-2xx responses become *Rejected; network failures surface as wrapped
// transport errors.
func (c *Client) call(ctx context.Context, sid, method, path string, query url.Values, body any, header http.Header) ([]byte, error) {
	jar, err := c.sessions.Get(sid)
	if err != nil {
		return nil, err
	}

	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	hc := &http.Client{Transport: c.transport, Jar: jar}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling upstream: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading upstream response: %w", err)
	}

	// The exchange may have rotated cookies whether or not it succeeded.
	if err := c.sessions.Save(); err != nil {
		c.logger.Warn("persisting session after upstream call failed", "sid", sid, "error", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Rejected{Status: resp.StatusCode, Body: jsonSafe(data)}
	}
	return data, nil
}

func basicAuth(username, password string) string {
	token := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return "Basic " + token
}

// jsonSafe keeps a response body as raw JSON when it parses, otherwise as
// the literal text, so rejections pass the upstream body through verbatim.
func jsonSafe(data []byte) any {
	if json.Valid(data) {
		return json.RawMessage(data)
	}
	return string(data)
}
