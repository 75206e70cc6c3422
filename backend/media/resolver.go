package media

import "strings"

// Resolver turns stored media references into absolute URLs. References
// that are already absolute pass through; anything else is served by the
// file service under /files/view/.
type Resolver struct {
	BaseURL string
}

func NewResolver(baseURL string) *Resolver {
	return &Resolver{BaseURL: strings.TrimRight(baseURL, "/")}
}

func (r *Resolver) Resolve(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return r.BaseURL + "/files/view/" + strings.TrimLeft(raw, "/")
}
