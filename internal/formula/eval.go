package formula

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"distribution-sizer/internal/domain"
)

// Env holds the computed values a formula may reference.
type Env struct {
	Aggregates map[string]float64
	Factors    map[string]float64
	// Optional names may be missing or zero; such terms are elided.
	Optional map[string]bool
}

// Lookup implements Resolver. Aggregates shadow factors of the same name.
func (e *Env) Lookup(name string) (Node, bool) {
	if v, ok := e.Aggregates[name]; ok {
		if v == 0 && e.Optional[name] {
			return elided{Name: name}, true
		}
		return AggregateRef{Name: name}, true
	}
	if v, ok := e.Factors[name]; ok {
		if v == 0 && e.Optional[name] {
			return elided{Name: name}, true
		}
		return FactorRef{Name: name}, true
	}
	if e.Optional[name] {
		return elided{Name: name}, true
	}
	return nil, false
}

// Expression is a compiled formula.
type Expression struct {
	Source string
	Root   Node
}

// Names returns the names a formula references, in first-use order.
func Names(src string) ([]string, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, &domain.FormulaError{Formula: src, Reason: err.Error()}
	}
	seen := make(map[string]bool)
	var out []string
	for _, t := range tokens {
		if t.Kind == KindName && !seen[t.Text] {
			seen[t.Text] = true
			out = append(out, t.Text)
		}
	}
	return out, nil
}

// Compile lexes, cleans up, parses and simplifies src against env.
func Compile(src string, env *Env) (*Expression, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, &domain.FormulaError{Formula: src, Reason: err.Error()}
	}
	return compile(src, tokens, env)
}

// CompileList compiles an operator-supplied token list.
func CompileList(items []string, env *Env) (*Expression, error) {
	src := strings.Join(items, " ")
	tokens, err := FromList(items)
	if err != nil {
		return nil, &domain.FormulaError{Formula: src, Reason: err.Error()}
	}
	return compile(src, tokens, env)
}

func compile(src string, tokens []Token, env *Env) (*Expression, error) {
	tokens = Cleanup(tokens)
	root, unresolved, err := Parse(tokens, env)
	if err != nil {
		return nil, &domain.FormulaError{Formula: src, Reason: err.Error()}
	}
	if len(unresolved) > 0 {
		sort.Strings(unresolved)
		return nil, &domain.FormulaError{
			Formula: src,
			Reason:  "unresolved names: " + strings.Join(unresolved, ", "),
		}
	}
	return &Expression{Source: src, Root: Simplify(root)}, nil
}

// Refs returns the aggregate and factor names left in the compiled tree.
func (x *Expression) Refs() (aggregates, factors []string) {
	walk(x.Root, func(n Node) {
		switch v := n.(type) {
		case AggregateRef:
			aggregates = append(aggregates, v.Name)
		case FactorRef:
			factors = append(factors, v.Name)
		}
	})
	return aggregates, factors
}

// Evaluate computes the formula with the values of env.
func (x *Expression) Evaluate(env *Env) (float64, error) {
	v, err := eval(x.Root, env)
	if err != nil {
		return 0, &domain.FormulaError{Formula: x.Source, Reason: err.Error()}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &domain.FormulaError{Formula: x.Source, Reason: fmt.Sprintf("non-finite result %g", v)}
	}
	return v, nil
}

func eval(n Node, env *Env) (float64, error) {
	switch v := n.(type) {
	case Const:
		return v.Value, nil
	case AggregateRef:
		val, ok := env.Aggregates[v.Name]
		if !ok {
			return 0, fmt.Errorf("aggregate %s has no value", v.Name)
		}
		return val, nil
	case FactorRef:
		val, ok := env.Factors[v.Name]
		if !ok {
			return 0, fmt.Errorf("factor %s has no value", v.Name)
		}
		return val, nil
	case BinaryOp:
		l, err := eval(v.Left, env)
		if err != nil {
			return 0, err
		}
		r, err := eval(v.Right, env)
		if err != nil {
			return 0, err
		}
		switch v.Op {
		case '+':
			return l + r, nil
		case '-':
			return l - r, nil
		case '*':
			return l * r, nil
		case '/':
			return l / r, nil
		}
		return 0, fmt.Errorf("unknown operator %q", v.Op)
	}
	return 0, fmt.Errorf("unexpected node %T", n)
}
