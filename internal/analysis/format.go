package analysis

import (
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

const indentUnit = "    "

// FormatEdits returns the canonical formatting of a tracked document as
// one whole-document edit, or nothing when the text is already
// formatted.
func (w *Workspace) FormatEdits(uriStr string) []protocol.TextEdit {
	doc, ok := w.document(uriStr)
	if !ok {
		return nil
	}
	formatted := formatSource(doc.Doc.Text())
	if formatted == doc.Doc.Text() {
		return nil
	}
	return []protocol.TextEdit{{Range: doc.Doc.FullRange(), NewText: formatted}}
}

// formatSource reindents by brace depth, trims trailing whitespace, and
// ensures a trailing newline. Blank lines and line content are left
// alone; braces inside strings and comments do not affect depth.
func formatSource(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 1)
	indent := 0

	rest := text
	for len(rest) > 0 {
		line := rest
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			line = rest[:i]
			rest = rest[i+1:]
		} else {
			rest = ""
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			b.WriteByte('\n')
			continue
		}

		closes := strings.HasPrefix(trimmed, "}")
		if closes {
			indent--
			if indent < 0 {
				indent = 0
			}
		}

		for i := 0; i < indent; i++ {
			b.WriteString(indentUnit)
		}
		b.WriteString(trimmed)
		b.WriteByte('\n')

		delta := braceDelta(trimmed)
		if closes {
			delta++
		}
		indent += delta
		if indent < 0 {
			indent = 0
		}
	}

	return b.String()
}

// braceDelta counts the net brace nesting change of one line, ignoring
// braces inside string literals and after a line comment.
func braceDelta(line string) int {
	delta := 0
	inString := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '/':
			if i+1 < len(line) && line[i+1] == '/' {
				return delta
			}
		case '{':
			delta++
		case '}':
			delta--
		}
	}
	return delta
}
