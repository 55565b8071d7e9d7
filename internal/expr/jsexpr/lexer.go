package jsexpr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokTemplate
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

// SyntaxError reports a malformed expression.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("jsexpr: syntax error at %d: %s", e.Pos, e.Msg)
}

// Longest first so that "===" wins over "==".
var punctuators = []string{
	"===", "!==",
	"==", "!=", "<=", ">=", "&&", "||", "??", "?.",
	"+", "-", "*", "/", "%", "!", "<", ">", "?", ":", ".", "[", "]", "(", ")", ",",
}

func tokenize(src string) ([]token, error) {
	var tokens []token
	pos := 0
	for pos < len(src) {
		c := src[pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			pos++
		case isIdentStart(c):
			start := pos
			for pos < len(src) && isIdentPart(src[pos]) {
				pos++
			}
			tokens = append(tokens, token{kind: tokIdent, text: src[start:pos], pos: start})
		case isDigit(c) || (c == '.' && pos+1 < len(src) && isDigit(src[pos+1])):
			tok, next, err := scanNumber(src, pos)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			pos = next
		case c == '\'' || c == '"':
			text, next, err := scanString(src, pos)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokString, text: text, pos: pos})
			pos = next
		case c == '`':
			raw, next, err := scanTemplate(src, pos)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokTemplate, text: raw, pos: pos})
			pos = next
		default:
			matched := false
			for _, p := range punctuators {
				if strings.HasPrefix(src[pos:], p) {
					tokens = append(tokens, token{kind: tokPunct, text: p, pos: pos})
					pos += len(p)
					matched = true
					break
				}
			}
			if !matched {
				r, _ := utf8.DecodeRuneInString(src[pos:])
				return nil, &SyntaxError{Pos: pos, Msg: fmt.Sprintf("unexpected character %q", r)}
			}
		}
	}
	return append(tokens, token{kind: tokEOF, pos: pos}), nil
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || c == '$' || (c|0x20 >= 'a' && c|0x20 <= 'z') }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }

func scanNumber(src string, pos int) (token, int, error) {
	start := pos
	for pos < len(src) && isDigit(src[pos]) {
		pos++
	}
	if pos < len(src) && src[pos] == '.' {
		pos++
		for pos < len(src) && isDigit(src[pos]) {
			pos++
		}
	}
	if pos < len(src) && (src[pos] == 'e' || src[pos] == 'E') {
		exp := pos + 1
		if exp < len(src) && (src[exp] == '+' || src[exp] == '-') {
			exp++
		}
		if exp < len(src) && isDigit(src[exp]) {
			pos = exp
			for pos < len(src) && isDigit(src[pos]) {
				pos++
			}
		}
	}
	if pos < len(src) && isIdentStart(src[pos]) {
		return token{}, 0, &SyntaxError{Pos: pos, Msg: "identifier starts immediately after number"}
	}
	f, err := strconv.ParseFloat(src[start:pos], 64)
	if err != nil {
		return token{}, 0, &SyntaxError{Pos: start, Msg: err.Error()}
	}
	return token{kind: tokNumber, text: src[start:pos], num: f, pos: start}, pos, nil
}

func scanString(src string, pos int) (string, int, error) {
	quote := src[pos]
	var sb strings.Builder
	for i := pos + 1; i < len(src); i++ {
		c := src[i]
		switch {
		case c == quote:
			return sb.String(), i + 1, nil
		case c == '\\' && i+1 < len(src):
			i++
			sb.WriteString(unescape(src[i]))
		case c == '\n':
			return "", 0, &SyntaxError{Pos: i, Msg: "unterminated string"}
		default:
			sb.WriteByte(c)
		}
	}
	return "", 0, &SyntaxError{Pos: pos, Msg: "unterminated string"}
}

// scanTemplate returns the raw body of a template literal; substitutions
// are parsed later by the parser.
func scanTemplate(src string, pos int) (string, int, error) {
	depth := 0
	for i := pos + 1; i < len(src); i++ {
		switch c := src[i]; {
		case c == '\\':
			i++
		case c == '$' && i+1 < len(src) && src[i+1] == '{':
			depth++
			i++
		case c == '}' && depth > 0:
			depth--
		case c == '`' && depth == 0:
			return src[pos+1 : i], i + 1, nil
		}
	}
	return "", 0, &SyntaxError{Pos: pos, Msg: "unterminated template literal"}
}

func unescape(c byte) string {
	switch c {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case '0':
		return "\x00"
	}
	return string(c)
}
