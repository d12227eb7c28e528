package caddy

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/osa911/caddymanager/internal/models"
)

var (
	// ErrInvalidConfig is the parent of every Caddyfile structure error
	ErrInvalidConfig = errors.New("invalid caddyfile")

	// ErrMissingDynamicRegion means one or both dynamic markers are absent
	ErrMissingDynamicRegion = fmt.Errorf("%w: dynamic config markers not found", ErrInvalidConfig)

	// ErrDuplicateDynamicRegion means a dynamic marker occurs more than once or out of order
	ErrDuplicateDynamicRegion = fmt.Errorf("%w: dynamic config markers must appear exactly once, start before end", ErrInvalidConfig)
)

var hostBlockRegex = regexp.MustCompile(`(?s)([a-zA-Z0-9.-]+)\s*\{[^}]*reverse_proxy\s+(https?://)?([^:\s/]+):(\d+)`)

// Parse extracts every host block found in the document, in document order.
// Duplicate names are returned as they appear.
func Parse(document string) []models.Host {
	matches := hostBlockRegex.FindAllStringSubmatch(document, -1)
	hosts := make([]models.Host, 0, len(matches))

	for _, m := range matches {
		port := parsePort(m[4])
		hosts = append(hosts, models.Host{
			Name:   m[1],
			IP:     m[3],
			Port:   port,
			Scheme: inferScheme(m[2], port, m[0]),
		})
	}

	return hosts
}

// ParseDynamic extracts only the host blocks inside the dynamic region.
// These are the hosts Render owns; blocks outside the region are left to the operator.
func ParseDynamic(document string) ([]models.Host, error) {
	start, end, err := dynamicRegion(document)
	if err != nil {
		return nil, err
	}
	return Parse(document[start+len(DynamicStartMarker) : end]), nil
}

// parsePort falls back to DefaultPort for text that is not a port number.
func parsePort(text string) uint16 {
	port, err := strconv.ParseUint(text, 10, 16)
	if err != nil || port == 0 {
		return DefaultPort
	}
	return uint16(port)
}

// inferScheme resolves the upstream scheme: explicit prefix first, then
// port 443 or a tls mention inside the block, then plain http.
func inferScheme(prefix string, port uint16, block string) string {
	if prefix != "" {
		return strings.TrimSuffix(prefix, "://")
	}
	if port == 443 || strings.Contains(block, "tls") {
		return models.SchemeHTTPS
	}
	return models.SchemeHTTP
}

// RenderHost returns the block written for a single host
func RenderHost(host models.Host) string {
	return fmt.Sprintf("%s {\n    reverse_proxy %s://%s:%d {\n        header_up Host {upstream_hostport}\n    }\n}\n",
		host.Name, host.Scheme, host.IP, host.Port)
}

// Render replaces the dynamic region of document with blocks for hosts.
// The document is returned unchanged outside the region. An error is
// returned, and nothing rendered, unless both markers occur exactly once
// with the start marker first.
func Render(document string, hosts []models.Host) (string, error) {
	start, end, err := dynamicRegion(document)
	if err != nil {
		return "", err
	}

	var blocks strings.Builder
	for _, host := range hosts {
		blocks.WriteString(RenderHost(host))
	}

	var out strings.Builder
	out.Grow(len(document) + blocks.Len())
	out.WriteString(document[:start])
	out.WriteString(DynamicStartMarker)
	out.WriteString("\n")
	out.WriteString(strings.TrimSpace(blocks.String()))
	out.WriteString("\n")
	out.WriteString(DynamicEndMarker)
	out.WriteString(document[end+len(DynamicEndMarker):])

	return out.String(), nil
}

// dynamicRegion returns the offsets of the start and end markers.
func dynamicRegion(document string) (int, int, error) {
	starts := strings.Count(document, DynamicStartMarker)
	ends := strings.Count(document, DynamicEndMarker)

	if starts == 0 || ends == 0 {
		return 0, 0, ErrMissingDynamicRegion
	}
	if starts > 1 || ends > 1 {
		return 0, 0, ErrDuplicateDynamicRegion
	}

	start := strings.Index(document, DynamicStartMarker)
	end := strings.Index(document, DynamicEndMarker)
	if end < start+len(DynamicStartMarker) {
		return 0, 0, ErrDuplicateDynamicRegion
	}

	return start, end, nil
}
