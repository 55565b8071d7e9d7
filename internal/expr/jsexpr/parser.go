package jsexpr

import (
	"fmt"
	"strings"
)

type parser struct {
	tokens []token
	pos    int
}

func parse(src string) (node, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	if p.current().kind == tokEOF {
		return nil, &SyntaxError{Pos: 0, Msg: "empty expression"}
	}
	n, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if tok := p.current(); tok.kind != tokEOF {
		return nil, &SyntaxError{Pos: tok.pos, Msg: fmt.Sprintf("unexpected trailing token %q", tok.text)}
	}
	return n, nil
}

func (p *parser) current() token {
	if p.pos >= len(p.tokens) {
		return token{kind: tokEOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) advance() token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *parser) is(punct ...string) bool {
	tok := p.current()
	if tok.kind != tokPunct {
		return false
	}
	for _, s := range punct {
		if tok.text == s {
			return true
		}
	}
	return false
}

func (p *parser) expect(punct string) error {
	if !p.is(punct) {
		tok := p.current()
		return &SyntaxError{Pos: tok.pos, Msg: fmt.Sprintf("expected %q, found %q", punct, tok.text)}
	}
	p.advance()
	return nil
}

// parseExpression parses a complete expression (lowest precedence).
func (p *parser) parseExpression() (node, error) {
	return p.parseConditional()
}

func (p *parser) parseConditional() (node, error) {
	cond, err := p.parseNullish()
	if err != nil {
		return nil, err
	}
	if !p.is("?") {
		return cond, nil
	}
	p.advance()
	then, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	if err := p.expect(":"); err != nil {
		return nil, err
	}
	otherwise, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	return &conditionalNode{cond: cond, then: then, otherwise: otherwise}, nil
}

// binaryLevel parses a left-associative chain of operators at one
// precedence level.
func (p *parser) binaryLevel(next func() (node, error), logical bool, ops ...string) (node, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for p.is(ops...) {
		op := p.advance().text
		right, err := next()
		if err != nil {
			return nil, err
		}
		if logical {
			left = &logicalNode{op: op, left: left, right: right}
		} else {
			left = &binaryNode{op: op, left: left, right: right}
		}
	}
	return left, nil
}

func (p *parser) parseNullish() (node, error) {
	return p.binaryLevel(p.parseOr, true, "??")
}

func (p *parser) parseOr() (node, error) {
	return p.binaryLevel(p.parseAnd, true, "||")
}

func (p *parser) parseAnd() (node, error) {
	return p.binaryLevel(p.parseEquality, true, "&&")
}

func (p *parser) parseEquality() (node, error) {
	return p.binaryLevel(p.parseRelational, false, "===", "!==", "==", "!=")
}

func (p *parser) parseRelational() (node, error) {
	return p.binaryLevel(p.parseAdditive, false, "<", "<=", ">", ">=")
}

func (p *parser) parseAdditive() (node, error) {
	return p.binaryLevel(p.parseMultiplicative, false, "+", "-")
}

func (p *parser) parseMultiplicative() (node, error) {
	return p.binaryLevel(p.parseUnary, false, "*", "/", "%")
}

func (p *parser) parseUnary() (node, error) {
	if p.is("!", "-", "+") {
		op := p.advance().text
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: op, operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.is(".", "?."):
			optional := p.advance().text == "?."
			name := p.current()
			if name.kind != tokIdent {
				return nil, &SyntaxError{Pos: name.pos, Msg: "expected property name"}
			}
			p.advance()
			n = &memberNode{object: n, name: name.text, optional: optional}
		case p.is("["):
			p.advance()
			key, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if err := p.expect("]"); err != nil {
				return nil, err
			}
			n = &indexNode{object: n, key: key}
		case p.is("("):
			p.advance()
			args, err := p.parseList(")")
			if err != nil {
				return nil, err
			}
			n = &callNode{callee: n, args: args}
		default:
			return n, nil
		}
	}
}

// parseList parses comma separated expressions up to the closing token.
func (p *parser) parseList(closing string) ([]node, error) {
	var list []node
	for !p.is(closing) {
		item, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		list = append(list, item)
		if !p.is(",") {
			break
		}
		p.advance()
	}
	if err := p.expect(closing); err != nil {
		return nil, err
	}
	return list, nil
}

func (p *parser) parsePrimary() (node, error) {
	tok := p.current()
	switch tok.kind {
	case tokNumber:
		p.advance()
		return &literalNode{value: tok.num}, nil
	case tokString:
		p.advance()
		return &literalNode{value: tok.text}, nil
	case tokTemplate:
		p.advance()
		return parseTemplate(tok)
	case tokIdent:
		p.advance()
		switch tok.text {
		case "true":
			return &literalNode{value: true}, nil
		case "false":
			return &literalNode{value: false}, nil
		case "null", "undefined":
			return &literalNode{value: nil}, nil
		}
		return &identNode{name: tok.text}, nil
	case tokPunct:
		switch tok.text {
		case "(":
			p.advance()
			inner, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			return inner, nil
		case "[":
			p.advance()
			items, err := p.parseList("]")
			if err != nil {
				return nil, err
			}
			return &arrayNode{items: items}, nil
		}
	}
	if tok.kind == tokEOF {
		return nil, &SyntaxError{Pos: tok.pos, Msg: "unexpected end of expression"}
	}
	return nil, &SyntaxError{Pos: tok.pos, Msg: fmt.Sprintf("unexpected token %q", tok.text)}
}

// parseTemplate splits a template literal body into text and ${} parts.
func parseTemplate(tok token) (node, error) {
	raw := tok.text
	var parts []node
	var text strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '\\' && i+1 < len(raw):
			i++
			text.WriteString(unescape(raw[i]))
		case c == '$' && i+1 < len(raw) && raw[i+1] == '{':
			end := matchBrace(raw, i+2)
			if end < 0 {
				return nil, &SyntaxError{Pos: tok.pos + i, Msg: "unterminated substitution"}
			}
			inner, err := parse(raw[i+2 : end])
			if err != nil {
				return nil, err
			}
			if text.Len() > 0 {
				parts = append(parts, &literalNode{value: text.String()})
				text.Reset()
			}
			parts = append(parts, inner)
			i = end
		default:
			text.WriteByte(c)
		}
	}
	if text.Len() > 0 || len(parts) == 0 {
		parts = append(parts, &literalNode{value: text.String()})
	}
	return &templateNode{parts: parts}, nil
}

func matchBrace(s string, from int) int {
	depth := 1
	for i := from; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
