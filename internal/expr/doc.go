// Package expr implements the small expression language used by
// expression conditions: a tokenizer, a recursive-descent parser, and a
// tree-walking evaluator over loosely typed scalar values.
//
// The language is deliberately tiny and fully sandboxed: there is no host
// evaluation, no assignment, no user-defined functions, and no I/O.
// Identifiers resolve against a caller-supplied variable table and default
// to 0 when absent. Four builtins are recognized as call syntax: len, num,
// str, abs.
//
// The pipeline degrades rather than raising. Unrecognized characters are
// skipped by the lexer, the parser substitutes zero literals for missing
// operands, division and modulo by zero evaluate to 0, and Eval converts
// any residual panic into an error for the caller to absorb.
package expr
