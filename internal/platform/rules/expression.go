package rules

import (
	"fmt"
	"strings"
	"unicode"
)

// node es un nodo del AST de la expresión booleana.
type node interface {
	eval(call func(rule string) (bool, error)) (bool, error)
	refs(acc []string) []string
}

type ruleRef string
type notNode struct{ x node }
type andNode struct{ l, r node }
type orNode struct{ l, r node }

func (n ruleRef) eval(call func(string) (bool, error)) (bool, error) { return call(string(n)) }
func (n ruleRef) refs(acc []string) []string                         { return append(acc, string(n)) }

func (n notNode) eval(call func(string) (bool, error)) (bool, error) {
	v, err := n.x.eval(call)
	return !v, err
}
func (n notNode) refs(acc []string) []string { return n.x.refs(acc) }

// && y || cortocircuitan: una regla no evaluada no lanza petición.
func (n andNode) eval(call func(string) (bool, error)) (bool, error) {
	l, err := n.l.eval(call)
	if err != nil || !l {
		return false, err
	}
	return n.r.eval(call)
}
func (n andNode) refs(acc []string) []string { return n.r.refs(n.l.refs(acc)) }

func (n orNode) eval(call func(string) (bool, error)) (bool, error) {
	l, err := n.l.eval(call)
	if err != nil {
		return false, err
	}
	if l {
		return true, nil
	}
	return n.r.eval(call)
}
func (n orNode) refs(acc []string) []string { return n.r.refs(n.l.refs(acc)) }

// parseExpression implementa:
//
//	or   := and { "||" and }
//	and  := unary { "&&" unary }
//	unary:= "!" unary | "(" or ")" | ident "()"
func parseExpression(src string) (node, error) {
	p := &exprParser{src: src}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	p.skip()
	if p.pos < len(p.src) {
		return nil, fmt.Errorf("expression: unexpected %q at %d", p.src[p.pos:], p.pos)
	}
	return n, nil
}

type exprParser struct {
	src string
	pos int
}

func (p *exprParser) skip() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *exprParser) accept(tok string) bool {
	p.skip()
	if strings.HasPrefix(p.src[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *exprParser) parseOr() (node, error) {
	l, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.accept("||") {
		r, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l = orNode{l, r}
	}
	return l, nil
}

func (p *exprParser) parseAnd() (node, error) {
	l, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.accept("&&") {
		r, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		l = andNode{l, r}
	}
	return l, nil
}

func (p *exprParser) parseUnary() (node, error) {
	if p.accept("!") {
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notNode{x}, nil
	}
	if p.accept("(") {
		x, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.accept(")") {
			return nil, fmt.Errorf("expression: missing ) at %d", p.pos)
		}
		return x, nil
	}

	p.skip()
	start := p.pos
	for p.pos < len(p.src) {
		c := rune(p.src[p.pos])
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '_' && c != '-' {
			break
		}
		p.pos++
	}
	if start == p.pos {
		return nil, fmt.Errorf("expression: expected rule call at %d", start)
	}
	name := p.src[start:p.pos]
	if !p.accept("()") {
		return nil, fmt.Errorf("expression: %s must be called as %s()", name, name)
	}
	return ruleRef(name), nil
}
