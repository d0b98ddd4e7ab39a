// Package markdownrender converts stored markdown bodies to HTML for
// the public read endpoint.
package markdownrender

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

var engine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Strikethrough,
		extension.Table,
		extension.TaskList,
		extension.Linkify,
	),
	// raw HTML stays escaped: WithUnsafe is deliberately not set
	goldmark.WithRendererOptions(
		// single newlines render as <br>
		htmlrenderer.WithHardWraps(),
	),
)

// Render converts markdown to HTML. Raw HTML in the input is escaped,
// not passed through.
func Render(markdown string) (string, error) {
	text := strings.TrimSpace(markdown)
	if text == "" {
		return "", nil
	}

	var out bytes.Buffer
	if err := engine.Convert([]byte(text), &out); err != nil {
		return "", err
	}
	return out.String(), nil
}
