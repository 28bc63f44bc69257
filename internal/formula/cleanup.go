package formula

// Cleanup repairs operator sequences left behind by removed terms. The rules
// are applied until the token list no longer changes:
//
//   - a binary operator following another operator is dropped, except a
//     unary minus
//   - an operator other than '-' at the start or after '(' is dropped
//   - an operator at the end or before ')' is dropped
//   - an empty pair of parentheses is dropped
func Cleanup(tokens []Token) []Token {
	out := append([]Token(nil), tokens...)
	for {
		next := cleanupPass(out)
		if len(next) == len(out) {
			return next
		}
		out = next
	}
}

// cleanupPass applies each rule once; every rule only removes tokens, so an
// unchanged length means a fixed point.
func cleanupPass(in []Token) []Token {
	out := make([]Token, 0, len(in))
	for i, t := range in {
		var prev *Token
		if len(out) > 0 {
			prev = &out[len(out)-1]
		}

		switch t.Kind {
		case KindOperator:
			atStart := prev == nil || prev.Kind == KindLParen
			if atStart && t.Text != "-" {
				continue
			}
			if prev != nil && prev.Kind == KindOperator && t.Text != "-" {
				continue
			}
			if i == len(in)-1 || in[i+1].Kind == KindRParen {
				continue
			}
		case KindRParen:
			if prev != nil && prev.Kind == KindLParen {
				out = out[:len(out)-1]
				continue
			}
		}
		out = append(out, t)
	}
	return out
}
