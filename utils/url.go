package utils

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNotVirtualScheme is returned for URLs whose scheme does not carry the
// session's virtual prefix. Those requests are not the interceptor's concern.
var ErrNotVirtualScheme = errors.New("url scheme has no virtual prefix")

// IsVirtual reports whether rawURL carries the virtual scheme prefix, e.g.
// "yeahhttps://..." for prefix "yeah".
func IsVirtual(rawURL, prefix string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasPrefix(u.Scheme, prefix) && u.Scheme != prefix
}

// RealURL recovers the origin URL from a virtual-scheme URL by stripping the
// prefix from the scheme. Every other URL component is kept unchanged.
func RealURL(rawURL, prefix string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", rawURL, err)
	}
	if !strings.HasPrefix(u.Scheme, prefix) || u.Scheme == prefix {
		return "", fmt.Errorf("%w: %q", ErrNotVirtualScheme, rawURL)
	}
	u.Scheme = strings.TrimPrefix(u.Scheme, prefix)
	return u.String(), nil
}

// VirtualURL prefixes a real URL's scheme so the player's requests for it
// are routed back through the interceptor.
func VirtualURL(realURL, prefix string) string {
	return prefix + realURL
}
