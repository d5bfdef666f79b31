package upstream

// UnityPackage is one build of an avatar for a specific platform.
type UnityPackage struct {
	Platform          string `json:"platform"`
	PerformanceRating string `json:"performanceRating"`
}

// Avatar is the raw listing record returned by the platform. It is sourced
// fresh on every listing call and never cached across requests.
type Avatar struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	ThumbnailImageURL string            `json:"thumbnailImageUrl"`
	CreatedAt         string            `json:"created_at"`
	UpdatedAt         string            `json:"updated_at"`
	UnityPackages     []UnityPackage    `json:"unityPackages"`
	Performance       map[string]string `json:"performance"`
}

// Platforms returns the deduplicated platform tags across the avatar's
// unity packages, in first-seen order.
func (a Avatar) Platforms() []string {
	seen := make(map[string]bool, len(a.UnityPackages))
	var platforms []string
	for _, p := range a.UnityPackages {
		if p.Platform == "" || seen[p.Platform] {
			continue
		}
		seen[p.Platform] = true
		platforms = append(platforms, p.Platform)
	}
	return platforms
}

// PerformanceByPlatform maps each platform to its performance rating,
// taken from the unity packages. When no package carries a rating the
// avatar's own performance block is returned instead.
func (a Avatar) PerformanceByPlatform() map[string]string {
	perf := make(map[string]string)
	for _, p := range a.UnityPackages {
		if p.Platform != "" && p.PerformanceRating != "" {
			perf[p.Platform] = p.PerformanceRating
		}
	}
	if len(perf) == 0 {
		return a.Performance
	}
	return perf
}
