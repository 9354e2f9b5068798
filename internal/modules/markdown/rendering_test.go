package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	html := Render("# Mojito\n\nA *classic* highball.")
	assert.Contains(t, html, "<h1")
	assert.Contains(t, html, "<em>classic</em>")
}

func TestRenderEmpty(t *testing.T) {
	assert.Empty(t, Render(""))
	assert.Empty(t, Render("   \n  "))
}

func TestRenderGFMTable(t *testing.T) {
	html := Render("| a | b |\n|---|---|\n| 1 | 2 |")
	assert.Contains(t, html, "<table>")
}
