package caddy

import (
	"errors"
	"strings"
	"testing"

	"github.com/osa911/caddymanager/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseCaddyfile = `{
	admin localhost:2019
}

manager.example.com {
	reverse_proxy localhost:8080
}

# --- START DYNAMIC CONFIG ---
# --- END DYNAMIC CONFIG ---

:8081 {
	respond "ok"
}
`

func TestParseSchemeInference(t *testing.T) {
	tests := []struct {
		name     string
		document string
		want     models.Host
	}{
		{
			name:     "port 443 without prefix",
			document: "a.example.com {\n    reverse_proxy 10.0.0.1:443\n}\n",
			want:     models.Host{Name: "a.example.com", IP: "10.0.0.1", Port: 443, Scheme: "https"},
		},
		{
			name:     "explicit http prefix wins over port",
			document: "b.example.com {\n    reverse_proxy http://10.0.0.1:9000\n}\n",
			want:     models.Host{Name: "b.example.com", IP: "10.0.0.1", Port: 9000, Scheme: "http"},
		},
		{
			name:     "explicit http prefix on port 443",
			document: "c.example.com {\n    reverse_proxy http://10.0.0.1:443\n}\n",
			want:     models.Host{Name: "c.example.com", IP: "10.0.0.1", Port: 443, Scheme: "http"},
		},
		{
			name:     "tls mention in block",
			document: "d.example.com {\n    tls internal\n    reverse_proxy 10.0.0.1:8080\n}\n",
			want:     models.Host{Name: "d.example.com", IP: "10.0.0.1", Port: 8080, Scheme: "https"},
		},
		{
			name:     "explicit https prefix",
			document: "e.example.com {\n    reverse_proxy https://backend.local:8443\n}\n",
			want:     models.Host{Name: "e.example.com", IP: "backend.local", Port: 8443, Scheme: "https"},
		},
		{
			name:     "plain upstream",
			document: "f.example.com {\n    reverse_proxy 127.0.0.1:3000\n}\n",
			want:     models.Host{Name: "f.example.com", IP: "127.0.0.1", Port: 3000, Scheme: "http"},
		},
		{
			name:     "out of range port falls back to 80",
			document: "g.example.com {\n    reverse_proxy 127.0.0.1:99999\n}\n",
			want:     models.Host{Name: "g.example.com", IP: "127.0.0.1", Port: 80, Scheme: "http"},
		},
		{
			name:     "zero port falls back to 80",
			document: "h.example.com {\n    reverse_proxy 127.0.0.1:0\n}\n",
			want:     models.Host{Name: "h.example.com", IP: "127.0.0.1", Port: 80, Scheme: "http"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hosts := Parse(tt.document)
			require.Len(t, hosts, 1)
			assert.Equal(t, tt.want, hosts[0])
		})
	}
}

func TestParseWholeDocument(t *testing.T) {
	hosts := Parse(baseCaddyfile)

	require.Len(t, hosts, 1)
	assert.Equal(t, "manager.example.com", hosts[0].Name)
	assert.Equal(t, "localhost", hosts[0].IP)
	assert.Equal(t, uint16(8080), hosts[0].Port)
}

func TestParseKeepsDuplicates(t *testing.T) {
	doc := "a.example.com {\n reverse_proxy 1.1.1.1:80\n}\na.example.com {\n reverse_proxy 2.2.2.2:81\n}\n"

	hosts := Parse(doc)
	require.Len(t, hosts, 2)
	assert.Equal(t, "1.1.1.1", hosts[0].IP)
	assert.Equal(t, "2.2.2.2", hosts[1].IP)
}

func TestParseEmpty(t *testing.T) {
	assert.Empty(t, Parse(""))
	assert.Empty(t, Parse("# --- START DYNAMIC CONFIG ---\n\n# --- END DYNAMIC CONFIG ---\n"))
}

func TestRenderRoundTrip(t *testing.T) {
	doc := "{\n\tadmin localhost:2019\n}\n\n" + DynamicStartMarker + "\n" + DynamicEndMarker + "\n"

	tests := []struct {
		name  string
		hosts []models.Host
	}{
		{"empty", []models.Host{}},
		{"single", []models.Host{
			{Name: "a.example.com", IP: "127.0.0.1", Port: 9000, Scheme: "http"},
		}},
		{"mixed schemes and ports", []models.Host{
			{Name: "a.example.com", IP: "127.0.0.1", Port: 9000, Scheme: "http"},
			{Name: "b.example.com", IP: "10.0.0.2", Port: 443, Scheme: "http"},
			{Name: "c.example.com", IP: "backend.internal", Port: 8443, Scheme: "https"},
			{Name: "tls.example.com", IP: "10.0.0.3", Port: 80, Scheme: "http"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rendered, err := Render(doc, tt.hosts)
			require.NoError(t, err)
			assert.Equal(t, tt.hosts, Parse(rendered))

			// Rendering twice must be stable
			again, err := Render(rendered, tt.hosts)
			require.NoError(t, err)
			assert.Equal(t, rendered, again)
		})
	}
}

func TestRenderPreservesStaticContent(t *testing.T) {
	hosts := []models.Host{{Name: "a.example.com", IP: "127.0.0.1", Port: 9000, Scheme: "http"}}

	rendered, err := Render(baseCaddyfile, hosts)
	require.NoError(t, err)

	start := strings.Index(baseCaddyfile, DynamicStartMarker)
	end := strings.Index(baseCaddyfile, DynamicEndMarker) + len(DynamicEndMarker)
	assert.True(t, strings.HasPrefix(rendered, baseCaddyfile[:start]))
	assert.True(t, strings.HasSuffix(rendered, baseCaddyfile[end:]))

	expected := DynamicStartMarker + "\n" +
		"a.example.com {\n" +
		"    reverse_proxy http://127.0.0.1:9000 {\n" +
		"        header_up Host {upstream_hostport}\n" +
		"    }\n" +
		"}\n" +
		DynamicEndMarker
	assert.Contains(t, rendered, expected)
}

func TestRenderReplacesPreviousRegion(t *testing.T) {
	first, err := Render(baseCaddyfile, []models.Host{
		{Name: "old.example.com", IP: "1.1.1.1", Port: 80, Scheme: "http"},
	})
	require.NoError(t, err)

	second, err := Render(first, []models.Host{
		{Name: "new.example.com", IP: "2.2.2.2", Port: 81, Scheme: "https"},
	})
	require.NoError(t, err)

	assert.NotContains(t, second, "old.example.com")
	assert.Contains(t, second, "reverse_proxy https://2.2.2.2:81")
}

func TestRenderRejectsBadMarkers(t *testing.T) {
	tests := []struct {
		name     string
		document string
		want     error
	}{
		{"no markers", "a.example.com {\n}\n", ErrMissingDynamicRegion},
		{"only start", DynamicStartMarker + "\n", ErrMissingDynamicRegion},
		{"only end", DynamicEndMarker + "\n", ErrMissingDynamicRegion},
		{"two starts", DynamicStartMarker + "\n" + DynamicStartMarker + "\n" + DynamicEndMarker + "\n", ErrDuplicateDynamicRegion},
		{"two regions", strings.Repeat(DynamicStartMarker+"\n"+DynamicEndMarker+"\n", 2), ErrDuplicateDynamicRegion},
		{"end before start", DynamicEndMarker + "\n" + DynamicStartMarker + "\n", ErrDuplicateDynamicRegion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Render(tt.document, nil)
			assert.Empty(t, out)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestParseDynamicIgnoresStaticBlocks(t *testing.T) {
	rendered, err := Render(baseCaddyfile, []models.Host{
		{Name: "a.example.com", IP: "127.0.0.1", Port: 9000, Scheme: "http"},
	})
	require.NoError(t, err)

	dynamic, err := ParseDynamic(rendered)
	require.NoError(t, err)
	require.Len(t, dynamic, 1)
	assert.Equal(t, "a.example.com", dynamic[0].Name)

	all := Parse(rendered)
	require.Len(t, all, 2)
	assert.Equal(t, "manager.example.com", all[0].Name)

	_, err = ParseDynamic("no markers here")
	assert.ErrorIs(t, err, ErrMissingDynamicRegion)
}
