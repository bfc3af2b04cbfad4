package expr

import (
	"strconv"
	"strings"
)

type valueKind int

const (
	kindNumber valueKind = iota
	kindString
	kindBool
)

// Value is a loosely typed scalar: a number, a string, or a boolean.
// The zero Value is the number 0.
//
// Coercion rules follow the language definition: everything can be viewed
// as a number, a string, or a truth value, and no coercion ever fails.
type Value struct {
	kind valueKind
	num  float64
	str  string
	b    bool
}

// Number returns a numeric Value.
func Number(f float64) Value { return Value{kind: kindNumber, num: f} }

// String returns a string Value.
func String(s string) Value { return Value{kind: kindString, str: s} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: kindBool, b: b} }

// IsString reports whether the value is a string. The `+` operator
// concatenates when either operand is a string.
func (v Value) IsString() bool { return v.kind == kindString }

// Num coerces the value to a number. Strings parse as decimal floats and
// default to 0; booleans are 1 or 0.
func (v Value) Num() float64 {
	switch v.kind {
	case kindNumber:
		return v.num
	case kindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		if v.b {
			return 1
		}
		return 0
	}
}

// Str coerces the value to a string. Numbers render without a trailing
// ".0" so integer arithmetic round-trips cleanly through templates.
func (v Value) Str() string {
	switch v.kind {
	case kindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case kindString:
		return v.str
	default:
		if v.b {
			return "true"
		}
		return "false"
	}
}

// Truth coerces the value to a boolean: non-zero numbers, non-empty
// strings, and true are truthy.
func (v Value) Truth() bool {
	switch v.kind {
	case kindNumber:
		return v.num != 0
	case kindString:
		return v.str != ""
	default:
		return v.b
	}
}

// looseEqual implements the language's loose equality: two strings compare
// as strings, every other pairing compares numerically.
func looseEqual(a, b Value) bool {
	if a.kind == kindString && b.kind == kindString {
		return a.str == b.str
	}
	return a.Num() == b.Num()
}
