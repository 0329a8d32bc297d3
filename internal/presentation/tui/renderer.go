package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders view text as markdown using glamour.
// An empty style picks light or dark from the terminal background.
// If the renderer cannot be built the text is returned unchanged.
func NewRenderer(style string, wordWrap int) func(string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithEmoji()}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	if wordWrap > 0 {
		opts = append(opts, glamour.WithWordWrap(wordWrap))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return func(text string) (string, error) { return text, nil }
	}

	return func(text string) (string, error) {
		// Chat text uses single newlines; markdown needs hard breaks to keep them.
		return r.Render(strings.ReplaceAll(text, "\n", "  \n"))
	}
}
