package net

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeOrigin validates a server base URL and strips any trailing slash.
func NormalizeOrigin(base string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid base url %q: scheme must be http or https", base)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid base url %q: missing host", base)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// ResolvePath joins a file path handed out by the server onto the origin.
// Paths may arrive as "./uploads/x.pdf", "/uploads/x.pdf" or "uploads/x.pdf".
// Absolute URLs are returned unchanged.
func ResolvePath(origin, p string) string {
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimLeft(p, "/")
	return origin + "/" + p
}
