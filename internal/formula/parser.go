package formula

import (
	"fmt"
)

// Operator precedence, lowest first.
const (
	precNone = iota
	precAdd
	precMul
	precUnary
)

// Resolver classifies a name while parsing.
type Resolver interface {
	// Lookup returns the node for name, or ok=false when the name is unknown.
	Lookup(name string) (n Node, ok bool)
}

// parser builds an expression tree with Pratt precedence climbing.
type parser struct {
	tokens     []Token
	pos        int
	resolver   Resolver
	unresolved []string
}

// Parse builds the expression tree of a cleaned-up token list. Unknown
// names are collected and reported together.
func Parse(tokens []Token, resolver Resolver) (Node, []string, error) {
	if len(tokens) == 0 {
		return nil, nil, fmt.Errorf("empty expression")
	}
	p := &parser{tokens: tokens, resolver: resolver}
	n, err := p.parseExpression(precNone + 1)
	if err != nil {
		return nil, nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, nil, fmt.Errorf("unexpected %s %q at token %d", p.peek().Kind, p.peek().Text, p.pos)
	}
	return n, p.unresolved, nil
}

func (p *parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Kind: -1}
	}
	return p.tokens[p.pos]
}

func (p *parser) next() Token {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) parseExpression(minPrec int) (Node, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	for {
		t := p.peek()
		prec := infixPrecedence(t)
		if prec < minPrec {
			break
		}
		p.next()
		right, err := p.parseExpression(prec + 1)
		if err != nil {
			return nil, err
		}
		left = BinaryOp{Op: t.Text[0], Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parsePrefix() (Node, error) {
	t := p.next()
	switch t.Kind {
	case KindOperator:
		if t.Text != "-" {
			return nil, fmt.Errorf("unexpected operator %q at token %d", t.Text, p.pos-1)
		}
		operand, err := p.parseExpression(precUnary)
		if err != nil {
			return nil, err
		}
		return BinaryOp{Op: '-', Left: Const{Value: 0}, Right: operand}, nil

	case KindNumber:
		return Const{Value: t.Value}, nil

	case KindName:
		n, ok := p.resolver.Lookup(t.Text)
		if !ok {
			p.unresolved = append(p.unresolved, t.Text)
			return Const{Value: 0}, nil
		}
		return n, nil

	case KindLParen:
		inner, err := p.parseExpression(precNone + 1)
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.Kind != KindRParen {
			return nil, fmt.Errorf("missing closing parenthesis at token %d", p.pos-1)
		}
		return inner, nil
	}

	if p.pos > len(p.tokens) {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	return nil, fmt.Errorf("unexpected %s at token %d", t.Kind, p.pos-1)
}

func infixPrecedence(t Token) int {
	if t.Kind != KindOperator {
		return precNone
	}
	switch t.Text {
	case "+", "-":
		return precAdd
	case "*", "/":
		return precMul
	}
	return precNone
}
