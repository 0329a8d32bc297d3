package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRenderer(t *testing.T) {
	render := NewRenderer("notty", 80)

	out, err := render("Total: **120.00€**\n- 3 of Red Rose")
	require.NoError(t, err)
	assert.Contains(t, out, "120.00€")
	assert.Contains(t, out, "Red Rose")
	assert.Less(t, strings.Index(out, "Total"), strings.Index(out, "Red Rose"))
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "catalog.json", "0.1.0")

	assert.Contains(t, buf.String(), "catalog.json")
	assert.Contains(t, buf.String(), "v0.1.0")
	assert.NotContains(t, buf.String(), "\x1b[", "a buffer is not a color terminal")
}
