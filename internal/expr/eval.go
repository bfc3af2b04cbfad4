package expr

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// Eval tokenizes, parses, and evaluates src against the variable table.
// vars may be nil; unknown identifiers evaluate to 0.
//
// Eval never panics. Malformed input produces a best-effort partial
// result; a residual panic from a pathological tree is converted to an
// error so callers can degrade (expression conditions treat it as false).
func Eval(src string, vars map[string]Value) (result Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = Number(0)
			err = fmt.Errorf("evaluate %q: %v", src, r)
		}
	}()
	return evalNode(parse(lex(src)), vars), nil
}

// EvalTruth evaluates src and coerces the result to a boolean.
// Evaluation errors are false.
func EvalTruth(src string, vars map[string]Value) bool {
	v, err := Eval(src, vars)
	if err != nil {
		return false
	}
	return v.Truth()
}

func evalNode(n astNode, vars map[string]Value) Value {
	switch node := n.(type) {
	case litNode:
		return node.val

	case identNode:
		if v, ok := vars[node.name]; ok {
			return v
		}
		return Number(0)

	case unaryNode:
		x := evalNode(node.x, vars)
		if node.op == "!" {
			return Bool(!x.Truth())
		}
		return Number(-x.Num())

	case callNode:
		return evalCall(node, vars)

	case binaryNode:
		return evalBinary(node, vars)

	default:
		return Number(0)
	}
}

func evalCall(c callNode, vars map[string]Value) Value {
	arg := Number(0)
	if len(c.args) > 0 {
		arg = evalNode(c.args[0], vars)
	}
	switch c.name {
	case "len":
		return Number(float64(utf8.RuneCountInString(arg.Str())))
	case "num":
		return Number(arg.Num())
	case "str":
		return String(arg.Str())
	case "abs":
		return Number(math.Abs(arg.Num()))
	}
	return Number(0)
}

func evalBinary(b binaryNode, vars map[string]Value) Value {
	// && and || short-circuit on the coerced truth of the left side.
	switch b.op {
	case "&&":
		l := evalNode(b.l, vars)
		if !l.Truth() {
			return Bool(false)
		}
		return Bool(evalNode(b.r, vars).Truth())
	case "||":
		l := evalNode(b.l, vars)
		if l.Truth() {
			return Bool(true)
		}
		return Bool(evalNode(b.r, vars).Truth())
	}

	l := evalNode(b.l, vars)
	r := evalNode(b.r, vars)

	switch b.op {
	case "+":
		// String-biased: either string operand turns + into concatenation.
		if l.IsString() || r.IsString() {
			return String(l.Str() + r.Str())
		}
		return Number(l.Num() + r.Num())
	case "-":
		return Number(l.Num() - r.Num())
	case "*":
		return Number(l.Num() * r.Num())
	case "/":
		if r.Num() == 0 {
			return Number(0)
		}
		return Number(l.Num() / r.Num())
	case "%":
		if r.Num() == 0 {
			return Number(0)
		}
		return Number(math.Mod(l.Num(), r.Num()))
	case ">":
		return Bool(l.Num() > r.Num())
	case "<":
		return Bool(l.Num() < r.Num())
	case ">=":
		return Bool(l.Num() >= r.Num())
	case "<=":
		return Bool(l.Num() <= r.Num())
	case "==":
		return Bool(looseEqual(l, r))
	case "!=":
		return Bool(!looseEqual(l, r))
	}
	return Number(0)
}
