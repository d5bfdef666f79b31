package api

import (
	"github.com/yukawa/avatarbridge/upstream"
)

// LoginRequest carries the platform credentials for the first login phase.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TwoFactorRequest carries the second-factor code for the verify phase.
type TwoFactorRequest struct {
	Method string `json:"method"`
	Code   string `json:"code"`
}

// Login states.
const (
	StateLoggedIn          = "logged_in"
	StateTwoFactorRequired = "2fa_required"
)

// TwoFactorRequiredResponse tells the client which second-factor methods
// the platform will accept.
type TwoFactorRequiredResponse struct {
	OK      bool              `json:"ok"`
	State   string            `json:"state"`
	Methods []upstream.Method `json:"methods"`
}

// LoggedInResponse is returned once a session is fully authenticated.
type LoggedInResponse struct {
	OK          bool   `json:"ok"`
	State       string `json:"state"`
	DisplayName string `json:"displayName"`
}

// MeResponse reports session liveness.
type MeResponse struct {
	OK          bool   `json:"ok"`
	DisplayName string `json:"displayName"`
}

// OKResponse is the bare acknowledgement body.
type OKResponse struct {
	OK bool `json:"ok"`
}

// FailureResponse is the uniform error body. For upstream rejections,
// Status and Body carry the platform's response through verbatim.
type FailureResponse struct {
	OK     bool   `json:"ok"`
	Status int    `json:"status,omitempty"`
	Body   any    `json:"body,omitempty"`
	Error  string `json:"error,omitempty"`
}

// AvatarSummary is the flattened avatar shape served to the UI.
type AvatarSummary struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Thumbnail   string            `json:"thumbnail"`
	CreatedAt   string            `json:"createdAt"`
	UpdatedAt   string            `json:"updatedAt"`
	Platforms   []string          `json:"platforms"`
	Performance map[string]string `json:"performance"`
}

// ListAvatarsResponse is one page of the caller's avatars. Total is only
// computed for the first page, where the UI needs it to size pagination.
type ListAvatarsResponse struct {
	OK      bool            `json:"ok"`
	Avatars []AvatarSummary `json:"avatars"`
	N       int             `json:"n"`
	Offset  int             `json:"offset"`
	HasMore bool            `json:"hasMore"`
	Total   *int            `json:"total,omitempty"`
}

// SearchAvatarsResponse is a window over all catalog entries matching the
// query, with the exact total match count.
type SearchAvatarsResponse struct {
	OK           bool            `json:"ok"`
	Query        string          `json:"q"`
	TotalMatches int             `json:"totalMatches"`
	Avatars      []AvatarSummary `json:"avatars"`
	N            int             `json:"n"`
	Offset       int             `json:"offset"`
	HasMore      bool            `json:"hasMore"`
}

func summarize(a upstream.Avatar) AvatarSummary {
	return AvatarSummary{
		ID:          a.ID,
		Name:        a.Name,
		Thumbnail:   a.ThumbnailImageURL,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		Platforms:   a.Platforms(),
		Performance: a.PerformanceByPlatform(),
	}
}

func summarizeAll(avatars []upstream.Avatar) []AvatarSummary {
	out := make([]AvatarSummary, len(avatars))
	for i, a := range avatars {
		out[i] = summarize(a)
	}
	return out
}
