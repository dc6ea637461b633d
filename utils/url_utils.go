package utils

import (
	"net/url"
	"strings"

	"github.com/gosimple/slug"
)

func TrimURLScheme(u string) string {
	u = strings.TrimPrefix(u, "file://")
	u = strings.TrimPrefix(u, "http://")
	u = strings.TrimPrefix(u, "https://")
	u = strings.TrimPrefix(u, "www.")
	u = strings.ToLower(u)
	return u
}

func MakeURLStringSlug(u string) string {
	return slug.Make(TrimURLScheme(u))
}

// SameDomain reports whether u and base share a host. Unparseable URLs are
// never considered same-domain.
func SameDomain(u string, base string) bool {
	up, err := url.Parse(u)
	if err != nil {
		return false
	}
	bp, err := url.Parse(base)
	if err != nil {
		return false
	}
	return up.Host == bp.Host
}
