// Package caddy reads and writes the host entries kept in a Caddyfile.
//
// The Caddyfile is owned by an operator except for one region delimited by
// DynamicStartMarker and DynamicEndMarker. Everything between the markers is
// rewritten on every change; everything outside them is preserved byte for byte.
//
// Host blocks are recognised with a constrained pattern, not a full Caddyfile
// parser. A block is accepted when it has the shape
//
//	<name> { ... reverse_proxy [http://|https://]<host>:<port> ... }
//
// where <name> is made of letters, digits, dots and dashes, and no closing
// brace appears between the opening brace and the reverse_proxy directive.
// Blocks anywhere in the document are matched, including hand-written ones
// outside the dynamic region.
package caddy

const (
	// DynamicStartMarker opens the machine-owned region of the Caddyfile
	DynamicStartMarker = "# --- START DYNAMIC CONFIG ---"

	// DynamicEndMarker closes the machine-owned region of the Caddyfile
	DynamicEndMarker = "# --- END DYNAMIC CONFIG ---"

	// DefaultPort is used when a reverse_proxy target carries an unusable port
	DefaultPort uint16 = 80
)
