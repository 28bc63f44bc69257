package formula

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Kind is the type of a formula token.
type Kind int

// Token kinds
const (
	KindName Kind = iota
	KindNumber
	KindOperator
	KindLParen
	KindRParen
)

func (k Kind) String() string {
	switch k {
	case KindName:
		return "name"
	case KindNumber:
		return "number"
	case KindOperator:
		return "operator"
	case KindLParen:
		return "("
	case KindRParen:
		return ")"
	}
	return "unknown"
}

// Token is one element of a formula.
type Token struct {
	Kind  Kind
	Text  string
	Value float64 // KindNumber only
}

func (t Token) String() string { return t.Text }

func isOperatorRune(r rune) bool {
	return r == '+' || r == '-' || r == '*' || r == '/'
}

func isNameRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.'
}

// Lex splits a formula string into tokens.
func Lex(src string) ([]Token, error) {
	var out []Token
	runes := []rune(src)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case isOperatorRune(r):
			out = append(out, Token{Kind: KindOperator, Text: string(r)})
			i++
		case r == '(':
			out = append(out, Token{Kind: KindLParen, Text: "("})
			i++
		case r == ')':
			out = append(out, Token{Kind: KindRParen, Text: ")"})
			i++
		case unicode.IsDigit(r):
			j := i
			for j < len(runes) && (unicode.IsDigit(runes[j]) || runes[j] == '.') {
				j++
			}
			text := string(runes[i:j])
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q at %d", text, i)
			}
			out = append(out, Token{Kind: KindNumber, Text: text, Value: v})
			i = j
		case isNameRune(r):
			j := i
			for j < len(runes) && isNameRune(runes[j]) {
				j++
			}
			out = append(out, Token{Kind: KindName, Text: string(runes[i:j])})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q at %d", r, i)
		}
	}
	return out, nil
}

// FromList converts an operator-supplied token list. Each element is one
// name, number, operator or parenthesis; blank elements are dropped.
func FromList(items []string) ([]Token, error) {
	var out []Token
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		toks, err := Lex(item)
		if err != nil {
			return nil, err
		}
		if len(toks) != 1 {
			return nil, fmt.Errorf("list element %q is not a single token", item)
		}
		out = append(out, toks[0])
	}
	return out, nil
}

// Render joins tokens back into formula text.
func Render(tokens []Token) string {
	var sb strings.Builder
	for i, t := range tokens {
		if i > 0 && t.Kind != KindRParen && tokens[i-1].Kind != KindLParen {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.Text)
	}
	return sb.String()
}
