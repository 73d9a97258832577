package sanitizer

import (
	"strings"
)

// NormalizeURL forces https and lowercases the host, keeping the path as given.
func NormalizeURL(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}
	url = strings.TrimPrefix(url, "http://")
	url = strings.TrimPrefix(url, "https://")
	parts := strings.SplitN(url, "/", 2)
	host := strings.ToLower(parts[0])
	if host == "" {
		return ""
	}
	var path string
	if len(parts) > 1 {
		path = "/" + parts[1]
	}
	return strings.TrimSuffix("https://"+host+path, "/")
}
