package formula

import (
	"strconv"
)

// Node is an expression tree node: Const, AggregateRef, FactorRef or BinaryOp.
type Node interface {
	node()
	String() string
}

// Const is a numeric literal.
type Const struct {
	Value float64
}

// AggregateRef references a power aggregate by name.
type AggregateRef struct {
	Name string
}

// FactorRef references a demand factor by name.
type FactorRef struct {
	Name string
}

// BinaryOp applies one of + - * / to two operands.
type BinaryOp struct {
	Op    byte
	Left  Node
	Right Node
}

// elided marks an optional term without a value. It never survives Simplify.
type elided struct {
	Name string
}

func (Const) node()        {}
func (AggregateRef) node() {}
func (FactorRef) node()    {}
func (BinaryOp) node()     {}
func (elided) node()       {}

func (c Const) String() string        { return strconv.FormatFloat(c.Value, 'g', -1, 64) }
func (a AggregateRef) String() string { return a.Name }
func (f FactorRef) String() string    { return f.Name }
func (e elided) String() string       { return "<" + e.Name + ">" }

func (b BinaryOp) String() string {
	return "(" + b.Left.String() + " " + string(b.Op) + " " + b.Right.String() + ")"
}

// Simplify removes elided terms. A product or quotient with an elided
// operand is elided itself; a sum keeps its other operand; an elided
// minuend becomes 0. A fully elided tree evaluates to 0.
func Simplify(n Node) Node {
	out := simplify(n)
	if _, ok := out.(elided); ok {
		return Const{Value: 0}
	}
	return out
}

func simplify(n Node) Node {
	b, ok := n.(BinaryOp)
	if !ok {
		return n
	}
	left, right := simplify(b.Left), simplify(b.Right)
	_, le := left.(elided)
	_, re := right.(elided)

	switch b.Op {
	case '*', '/':
		if le {
			return left
		}
		if re {
			return right
		}
	case '+':
		if le {
			return right
		}
		if re {
			return left
		}
	case '-':
		if re {
			return left
		}
		if le {
			left = Const{Value: 0}
		}
	}
	return BinaryOp{Op: b.Op, Left: left, Right: right}
}

// walk visits every node depth-first.
func walk(n Node, fn func(Node)) {
	fn(n)
	if b, ok := n.(BinaryOp); ok {
		walk(b.Left, fn)
		walk(b.Right, fn)
	}
}
