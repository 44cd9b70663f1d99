package syntax

import "unicode/utf8"

type tokenType int

const (
	tokEOF tokenType = iota
	tokNewline
	tokIdent
	tokString
	tokNumber
	tokArrow // "->"
	tokLBrace
	tokRBrace
)

type token struct {
	typ   tokenType
	start int
	end   int
}

func (t token) text(src []byte) string { return string(src[t.start:t.end]) }

// lex tokenizes the whole document. Unknown bytes are dropped; the parser
// deals with structure errors, not the lexer.
func lex(src []byte) []token {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == '\n':
			toks = append(toks, token{tokNewline, i, i + 1})
			i++
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '{':
			toks = append(toks, token{tokLBrace, i, i + 1})
			i++
		case c == '}':
			toks = append(toks, token{tokRBrace, i, i + 1})
			i++
		case c == '-' && i+1 < len(src) && src[i+1] == '>':
			toks = append(toks, token{tokArrow, i, i + 2})
			i += 2
		case c == '"':
			end := scanString(src, i)
			toks = append(toks, token{tokString, i, end})
			i = end
		case isDigit(c):
			end := i + 1
			for end < len(src) && isDigit(src[end]) {
				end++
			}
			toks = append(toks, token{tokNumber, i, end})
			i = end
		case isIdentStart(c):
			end := scanIdent(src, i)
			toks = append(toks, token{tokIdent, i, end})
			i = end
		default:
			_, size := utf8.DecodeRune(src[i:])
			i += size
		}
	}
	toks = append(toks, token{tokEOF, len(src), len(src)})
	return toks
}

func scanString(src []byte, start int) int {
	i := start + 1
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
		case '"':
			return i + 1
		case '\n':
			// unterminated; stop at the line break so recovery stays local
			return i
		default:
			i++
		}
	}
	return len(src)
}

// scanIdent accepts identifiers like hallway, brass_key, test-room and
// sequence-flag references like quest#2. A '-' only continues the
// identifier when an identifier byte follows, so "a ->" lexes as ident
// plus arrow.
func scanIdent(src []byte, start int) int {
	i := start + 1
	for i < len(src) {
		c := src[i]
		switch {
		case isIdentByte(c):
			i++
		case c == '-' && i+1 < len(src) && isIdentByte(src[i+1]):
			i++
		case c == '#' && i+1 < len(src) && isDigit(src[i+1]):
			i++
		default:
			return i
		}
	}
	return i
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentByte(c byte) bool { return isIdentStart(c) || isDigit(c) }
