package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHTML(t *testing.T) {
	r := NewRenderer()

	out, err := r.ToHTML("# Ella\n\nThe **Nine Arch** bridge.\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	require.NoError(t, err)
	assert.Contains(t, out, `<h1 id="ella">Ella</h1>`)
	assert.Contains(t, out, "<strong>Nine Arch</strong>")
	assert.Contains(t, out, "<table>")
}

func TestToHTML_DropsRawHTML(t *testing.T) {
	out, err := NewRenderer().ToHTML("hello <script>alert(1)</script>")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
}

func TestFromHTML(t *testing.T) {
	out, err := NewRenderer().FromHTML("<h2>Galle Fort</h2><p>Walk the <strong>ramparts</strong>.</p>")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "## Galle Fort"))
	assert.Contains(t, out, "**ramparts**")
}

func TestLooksLikeHTML(t *testing.T) {
	assert.True(t, LooksLikeHTML("  <p>hello</p>"))
	assert.True(t, LooksLikeHTML("<DIV>x</DIV>"))
	assert.False(t, LooksLikeHTML("# heading"))
	assert.False(t, LooksLikeHTML("<3 Sri Lanka"))
}
