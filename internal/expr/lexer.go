package expr

import (
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokString
	tokBool
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
	tokEOF
)

type token struct {
	kind tokenKind
	text string  // operator or identifier text
	num  float64 // tokNumber payload
	str  string  // tokString payload
	b    bool    // tokBool payload
}

// lex tokenizes src. It never fails: unrecognized characters are skipped,
// an unterminated string extends to end of input, and a lone '-' before a
// digit in prefix position fuses into a negative number literal.
func lex(src string) []token {
	var toks []token
	runes := []rune(src)
	i := 0

	// prefixPos reports whether the next token is in prefix position, where
	// a '-' starts a negative number rather than a subtraction.
	prefixPos := func() bool {
		if len(toks) == 0 {
			return true
		}
		switch toks[len(toks)-1].kind {
		case tokOp, tokLParen, tokComma:
			return true
		}
		return false
	}

	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++

		case r >= '0' && r <= '9' || r == '.' && i+1 < len(runes) && runes[i+1] >= '0' && runes[i+1] <= '9':
			start := i
			for i < len(runes) && (runes[i] >= '0' && runes[i] <= '9' || runes[i] == '.') {
				i++
			}
			f, _ := strconv.ParseFloat(string(runes[start:i]), 64)
			toks = append(toks, token{kind: tokNumber, num: f})

		case r == '-' && prefixPos() && i+1 < len(runes) &&
			(runes[i+1] >= '0' && runes[i+1] <= '9' || runes[i+1] == '.'):
			i++
			start := i
			for i < len(runes) && (runes[i] >= '0' && runes[i] <= '9' || runes[i] == '.') {
				i++
			}
			f, _ := strconv.ParseFloat(string(runes[start:i]), 64)
			toks = append(toks, token{kind: tokNumber, num: -f})

		case r == '"' || r == '\'':
			quote := r
			i++
			var sb strings.Builder
			for i < len(runes) && runes[i] != quote {
				if runes[i] == '\\' && i+1 < len(runes) {
					i++
					switch runes[i] {
					case 'n':
						sb.WriteRune('\n')
					case 't':
						sb.WriteRune('\t')
					case 'r':
						sb.WriteRune('\r')
					default:
						sb.WriteRune(runes[i])
					}
				} else {
					sb.WriteRune(runes[i])
				}
				i++
			}
			if i < len(runes) {
				i++ // closing quote
			}
			toks = append(toks, token{kind: tokString, str: sb.String()})

		case r == '(':
			toks = append(toks, token{kind: tokLParen})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen})
			i++
		case r == ',':
			toks = append(toks, token{kind: tokComma})
			i++

		case isIdentStart(r):
			start := i
			for i < len(runes) && isIdentPart(runes[i]) {
				i++
			}
			word := string(runes[start:i])
			switch word {
			case "true":
				toks = append(toks, token{kind: tokBool, b: true})
			case "false":
				toks = append(toks, token{kind: tokBool, b: false})
			default:
				toks = append(toks, token{kind: tokIdent, text: word})
			}

		default:
			if op, n := lexOperator(runes[i:]); n > 0 {
				toks = append(toks, token{kind: tokOp, text: op})
				i += n
			} else {
				i++ // unrecognized character: skip
			}
		}
	}

	return append(toks, token{kind: tokEOF})
}

// lexOperator matches the longest operator at the head of rs. The
// three-character strict forms "===" and "!==" fold to their two-character
// loose counterparts.
func lexOperator(rs []rune) (string, int) {
	if len(rs) >= 3 {
		switch string(rs[:3]) {
		case "===":
			return "==", 3
		case "!==":
			return "!=", 3
		}
	}
	if len(rs) >= 2 {
		switch s := string(rs[:2]); s {
		case ">=", "<=", "==", "!=", "&&", "||":
			return s, 2
		}
	}
	switch rs[0] {
	case '+', '-', '*', '/', '%', '>', '<', '!':
		return string(rs[0]), 1
	}
	return "", 0
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
