package utils

import (
	"regexp"
)

// SiteNameRegex matches the site labels the Caddyfile codec can read back:
// letters, digits, dots and dashes
var SiteNameRegex = regexp.MustCompile(`^[a-zA-Z0-9.-]+$`)

// UpstreamHostRegex matches an upstream host without scheme, port or path
var UpstreamHostRegex = regexp.MustCompile(`^[^:\s/{}]+$`)

// IsValidSiteName checks if the provided string can be used as a host block label
func IsValidSiteName(name string) bool {
	if len(name) > 253 {
		return false
	}
	return SiteNameRegex.MatchString(name)
}

// IsValidUpstreamHost checks if the provided string can be used as a reverse_proxy host
func IsValidUpstreamHost(host string) bool {
	if len(host) > 253 {
		return false
	}
	return UpstreamHostRegex.MatchString(host)
}
