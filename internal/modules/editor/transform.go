// Package editor implements the markdown toolbar transform: wrapping
// or prefixing a selected span of text with markdown syntax. Pure
// string manipulation, no I/O.
package editor

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Action is a toolbar action type.
type Action string

const (
	ActionBold      Action = "bold"
	ActionItalic    Action = "italic"
	ActionStrike    Action = "strike"
	ActionCode      Action = "code"
	ActionCodeBlock Action = "codeblock"
	ActionLink      Action = "link"
	ActionImage     Action = "image"
	ActionBullet    Action = "bullet"
	ActionNumber    Action = "number"
	ActionQuote     Action = "quote"
	ActionHeading1  Action = "heading1"
	ActionHeading2  Action = "heading2"
	ActionHeading3  Action = "heading3"
	ActionTable     Action = "table"
)

// Range is a selection span in byte offsets plus the selected text.
type Range struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// Apply replaces the selection in content with the markdown form of
// the action and returns the new content plus a range covering the
// inserted text, so the caller can reposition the cursor.
func Apply(content string, sel Range, action Action) (string, Range) {
	start, end := clamp(content, sel.Start, sel.End)
	selected := sel.Text
	if selected == "" {
		selected = content[start:end]
	}

	inserted := transform(selected, action)

	out := content[:start] + inserted + content[end:]
	return out, Range{Start: start, End: start + len(inserted), Text: inserted}
}

func transform(text string, action Action) string {
	switch action {
	case ActionBold:
		return "**" + text + "**"
	case ActionItalic:
		return "*" + text + "*"
	case ActionStrike:
		return "~~" + text + "~~"
	case ActionCode:
		return "`" + text + "`"
	case ActionCodeBlock:
		return "```\n" + text + "\n```"
	case ActionLink:
		return "[" + text + "](url)"
	case ActionImage:
		return "![" + text + "](url)"
	case ActionBullet:
		return prefixLines(text, func(int) string { return "- " })
	case ActionNumber:
		return prefixLines(text, func(i int) string { return fmt.Sprintf("%d. ", i+1) })
	case ActionQuote:
		return prefixLines(text, func(int) string { return "> " })
	case ActionHeading1:
		return "# " + text
	case ActionHeading2:
		return "## " + text
	case ActionHeading3:
		return "### " + text
	case ActionTable:
		return tableTemplate(text)
	default:
		return text
	}
}

// prefixLines applies a per-line prefix; the prefix function receives
// the 0-based line index.
func prefixLines(text string, prefix func(i int) string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix(i) + line
	}
	return strings.Join(lines, "\n")
}

func tableTemplate(text string) string {
	header := text
	if header == "" {
		header = "Header"
	}
	return "| " + header + " |  |\n| --- | --- |\n|  |  |"
}

// clamp bounds the selection to the content and snaps both offsets
// down to rune boundaries, so a mid-rune offset never slices through
// a multibyte character.
func clamp(content string, start, end int) (int, int) {
	max := len(content)
	if start < 0 {
		start = 0
	}
	if end < start {
		end = start
	}
	if start > max {
		start = max
	}
	if end > max {
		end = max
	}
	for start > 0 && start < max && !utf8.RuneStart(content[start]) {
		start--
	}
	for end > start && end < max && !utf8.RuneStart(content[end]) {
		end--
	}
	return start, end
}
