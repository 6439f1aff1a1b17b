package tui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
)

var (
	markdownRenderer     *glamour.TermRenderer
	markdownRendererOnce sync.Once
)

// markdownStyle reuses the Dark variants of theme.go's palette so rendered
// message content matches the rest of the timeline rather than glamour's
// default dark style. It does not switch to the Light variants.
func markdownStyle() ansi.StyleConfig {
	return ansi.StyleConfig{
		Document: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Color: strPtr("#9CA3AF")},
			Margin:         uintPtr(0),
		},
		BlockQuote: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Color: strPtr("#9CA3AF"), Italic: boolPtr(true)},
			Indent:         uintPtr(2),
			IndentToken:    strPtr("| "),
		},
		Heading: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Color: strPtr("#79C0FF"), Bold: boolPtr(true)},
		},
		Emph:   ansi.StylePrimitive{Italic: boolPtr(true)},
		Strong: ansi.StylePrimitive{Bold: boolPtr(true)},
		Code: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Color: strPtr("#7EE2B8"), Prefix: " ", Suffix: " "},
		},
		Link: ansi.StylePrimitive{Color: strPtr("#79C0FF"), Underline: boolPtr(true)},
		Item: ansi.StylePrimitive{BlockPrefix: "- "},
	}
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func uintPtr(u uint) *uint    { return &u }

// markdownRendererFor returns the singleton timeline markdown renderer. The
// word-wrap width is the one passed on the first call; later width arguments
// are ignored.
func markdownRendererFor(width int) *glamour.TermRenderer {
	markdownRendererOnce.Do(func() {
		markdownRenderer, _ = glamour.NewTermRenderer(
			glamour.WithStyles(markdownStyle()),
			glamour.WithWordWrap(width),
		)
	})
	return markdownRenderer
}

// renderMarkdown renders message content as markdown for the timeline pane.
// If rendering fails, or there's no renderer, it returns content unchanged —
// a message is always something, never a blank line.
func renderMarkdown(content string, width int) string {
	if content == "" {
		return ""
	}
	renderer := markdownRendererFor(width)
	if renderer == nil {
		return content
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimSpace(rendered)
}
