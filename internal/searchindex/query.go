package searchindex

import (
	"strings"
	"unicode"

	"enchant/internal/apperr"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokTerm
	tokPhrase
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
}

// ParseQuery translates a free-text query into an FTS5 match expression.
//
// Supported syntax: bare terms (implicitly ANDed), "quoted phrases", the
// uppercase operators AND, OR and NOT, a leading '-' as shorthand for NOT,
// parentheses, and a trailing '*' for prefix matches. NOT is binary: it
// removes matches of its right operand from everything to its left.
func ParseQuery(input string) (string, error) {
	p := &queryParser{tokens: tokenize(input)}
	root, err := p.parseOr()
	if err != nil {
		return "", invalidQuery(input, err.Error())
	}
	if p.peek().kind != tokEOF {
		return "", invalidQuery(input, "unbalanced parenthesis")
	}
	if root == nil {
		return "", invalidQuery(input, "no searchable terms")
	}
	return root.render(), nil
}

func invalidQuery(input, reason string) error {
	return apperr.New(apperr.KindInvalidInput, "parse query", input, reason)
}

func tokenize(input string) []token {
	var tokens []token
	runes := []rune(input)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			tokens = append(tokens, token{kind: tokLParen})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokRParen})
			i++
		case r == '"':
			end := i + 1
			for end < len(runes) && runes[end] != '"' {
				end++
			}
			tokens = append(tokens, token{kind: tokPhrase, text: string(runes[i+1 : end])})
			i = end + 1
		case r == '-' && i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) && runes[i+1] != ')':
			tokens = append(tokens, token{kind: tokNot})
			i++
		default:
			end := i
			for end < len(runes) && !unicode.IsSpace(runes[end]) && !strings.ContainsRune(`()"`, runes[end]) {
				end++
			}
			word := string(runes[i:end])
			i = end
			switch word {
			case "AND":
				tokens = append(tokens, token{kind: tokAnd})
			case "OR":
				tokens = append(tokens, token{kind: tokOr})
			case "NOT":
				tokens = append(tokens, token{kind: tokNot})
			default:
				tokens = append(tokens, token{kind: tokTerm, text: strings.TrimPrefix(word, "content:")})
			}
		}
	}
	return tokens
}

type queryNode interface {
	render() string
}

type termNode struct {
	text   string
	prefix bool
}

func (n termNode) render() string {
	quoted := `"` + strings.ReplaceAll(n.text, `"`, `""`) + `"`
	if n.prefix {
		return quoted + " *"
	}
	return quoted
}

type binaryNode struct {
	op          string
	left, right queryNode
}

func (n binaryNode) render() string {
	return "(" + n.left.render() + " " + n.op + " " + n.right.render() + ")"
}

type queryParser struct {
	tokens []token
	pos    int
}

func (p *queryParser) peek() token {
	if p.pos >= len(p.tokens) {
		return token{kind: tokEOF}
	}
	return p.tokens[p.pos]
}

func (p *queryParser) next() token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *queryParser) parseOr() (queryNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		if left == nil || right == nil {
			return nil, errorString("OR needs a term on both sides")
		}
		left = binaryNode{op: "OR", left: left, right: right}
	}
	return left, nil
}

func (p *queryParser) parseAnd() (queryNode, error) {
	var left queryNode
	pendingAnd := false
	for {
		switch p.peek().kind {
		case tokEOF, tokRParen, tokOr:
			if pendingAnd {
				return nil, errorString("AND needs a term on both sides")
			}
			return left, nil
		case tokAnd:
			p.next()
			if left == nil || pendingAnd {
				return nil, errorString("AND needs a term on both sides")
			}
			pendingAnd = true
		case tokNot:
			p.next()
			operand, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			if operand == nil {
				return nil, errorString("NOT needs a term to exclude")
			}
			if left == nil {
				return nil, errorString("NOT needs a preceding term")
			}
			left = binaryNode{op: "NOT", left: left, right: operand}
			pendingAnd = false
		default:
			operand, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			if operand == nil {
				continue
			}
			if left == nil {
				left = operand
			} else {
				left = binaryNode{op: "AND", left: left, right: operand}
			}
			pendingAnd = false
		}
	}
}

// parsePrimary returns nil, nil for a term that carries no searchable text.
func (p *queryParser) parsePrimary() (queryNode, error) {
	tok := p.next()
	switch tok.kind {
	case tokTerm:
		text, prefix := strings.CutSuffix(tok.text, "*")
		if !hasWordRune(text) {
			return nil, nil
		}
		return termNode{text: text, prefix: prefix}, nil
	case tokPhrase:
		text := strings.Join(strings.Fields(tok.text), " ")
		if !hasWordRune(text) {
			return nil, nil
		}
		return termNode{text: text}, nil
	case tokLParen:
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.next().kind != tokRParen {
			return nil, errorString("unbalanced parenthesis")
		}
		return inner, nil
	default:
		return nil, errorString("expected a term")
	}
}

func hasWordRune(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

type errorString string

func (e errorString) Error() string { return string(e) }
