package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the chat banner with the shop name and version.
// Colors degrade to plain text when w is not a color terminal.
func PrintBanner(w io.Writer, shop, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{` _  ___           _    `, "#34d399"},
		{`| |/ (_)___  ___ | | __`, "#2dd4bf"},
		{`| ' /| / _ \/ __|| |/ /`, "#22d3ee"},
		{`| . \| | (_) \__ \|   < `, "#38bdf8"},
		{`|_|\_\_|\___/|___/|_|\_\`, "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
	if shop != "" {
		fmt.Fprintf(w, "  %s ", out.String(shop).Bold())
	}
	fmt.Fprintf(w, "v%s\n\n", version)
}
