package regmap

import (
	"fmt"
	"strconv"
	"strings"
)

// Address, bit and default expressions use a tiny integer grammar:
//
//	expr   = term { ("+" | "-") term }
//	term   = factor { ("*" | "/") factor }
//	factor = number | ident | "(" expr ")" | "-" factor
//
// Numbers are decimal, 0x-prefixed hex or 0b-prefixed binary.

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokOp
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	num  int64
}

// UnknownSymbolError reports an identifier without a binding.
type UnknownSymbolError struct {
	Symbol string
}

func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("unknown symbol %q", e.Symbol)
}

func tokenize(expr string) ([]token, error) {
	var toks []token
	s := expr
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case strings.IndexByte("+-*/()", c) >= 0:
			toks = append(toks, token{kind: tokOp, text: string(c)})
			i++
		case c >= '0' && c <= '9':
			j := i
			for j < len(s) && (isAlnum(s[j]) || s[j] == '_') {
				j++
			}
			lit := strings.ReplaceAll(s[i:j], "_", "")
			n, err := strconv.ParseInt(lit, 0, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q", s[i:j])
			}
			toks = append(toks, token{kind: tokNumber, text: s[i:j], num: n})
			i = j
		case isAlpha(c) || c == '_' || c == '`':
			j := i + 1
			for j < len(s) && (isAlnum(s[j]) || s[j] == '_') {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: s[i:j]})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q in %q", c, expr)
		}
	}
	return append(toks, token{kind: tokEOF}), nil
}

func isMacro(ident string) bool { return strings.HasPrefix(ident, "`") }

func isAlpha(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isAlnum(c byte) bool { return isAlpha(c) || c >= '0' && c <= '9' }

type evaluator struct {
	toks []token
	pos  int
	vars map[string]int64
}

// Eval evaluates an integer expression with the given variable bindings.
func Eval(expr string, vars map[string]int64) (int64, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return 0, err
	}
	if len(toks) == 1 {
		return 0, fmt.Errorf("empty expression")
	}
	e := &evaluator{toks: toks, vars: vars}
	v, err := e.expr()
	if err != nil {
		return 0, err
	}
	if e.peek().kind != tokEOF {
		return 0, fmt.Errorf("unexpected %q in %q", e.peek().text, expr)
	}
	return v, nil
}

func (e *evaluator) peek() token { return e.toks[e.pos] }

func (e *evaluator) next() token {
	t := e.toks[e.pos]
	if t.kind != tokEOF {
		e.pos++
	}
	return t
}

func (e *evaluator) expr() (int64, error) {
	v, err := e.term()
	if err != nil {
		return 0, err
	}
	for {
		t := e.peek()
		if t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return v, nil
		}
		e.next()
		r, err := e.term()
		if err != nil {
			return 0, err
		}
		if t.text == "+" {
			v += r
		} else {
			v -= r
		}
	}
}

func (e *evaluator) term() (int64, error) {
	v, err := e.factor()
	if err != nil {
		return 0, err
	}
	for {
		t := e.peek()
		if t.kind != tokOp || (t.text != "*" && t.text != "/") {
			return v, nil
		}
		e.next()
		r, err := e.factor()
		if err != nil {
			return 0, err
		}
		if t.text == "*" {
			v *= r
		} else {
			if r == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			v /= r
		}
	}
}

func (e *evaluator) factor() (int64, error) {
	t := e.next()
	switch t.kind {
	case tokNumber:
		return t.num, nil
	case tokIdent:
		if v, ok := e.vars[t.text]; ok {
			return v, nil
		}
		return 0, &UnknownSymbolError{Symbol: t.text}
	case tokOp:
		switch t.text {
		case "(":
			v, err := e.expr()
			if err != nil {
				return 0, err
			}
			if c := e.next(); c.text != ")" {
				return 0, fmt.Errorf("missing closing parenthesis")
			}
			return v, nil
		case "-":
			v, err := e.factor()
			return -v, err
		}
	}
	if t.kind == tokEOF {
		return 0, fmt.Errorf("unexpected end of expression")
	}
	return 0, fmt.Errorf("unexpected %q", t.text)
}

// usesVar reports whether expr references the identifier v.
func usesVar(expr, v string) bool {
	toks, err := tokenize(expr)
	if err != nil {
		return false
	}
	for _, t := range toks {
		if t.kind == tokIdent && t.text == v {
			return true
		}
	}
	return false
}

// symbols lists the identifiers of an expression that have no binding.
// Macro references (`NAME) are not symbols.
func symbols(expr string, vars map[string]int64) []string {
	toks, err := tokenize(expr)
	if err != nil {
		return nil
	}
	seen := map[string]bool{}
	for _, t := range toks {
		if t.kind == tokIdent && !isMacro(t.text) {
			if _, ok := vars[t.text]; !ok {
				seen[t.text] = true
			}
		}
	}
	return sortedKeys(seen)
}

// svExpr rewrites an expression for SystemVerilog: hex and binary literals
// get the 'h / 'b base prefix, loop variables are replaced by their value.
func svExpr(expr string, vars map[string]int64) string {
	toks, err := tokenize(expr)
	if err != nil {
		return expr
	}
	var b strings.Builder
	for _, t := range toks {
		switch t.kind {
		case tokNumber:
			lower := strings.ToLower(t.text)
			switch {
			case strings.HasPrefix(lower, "0x"):
				b.WriteString("'h" + strings.ToUpper(t.text[2:]))
			case strings.HasPrefix(lower, "0b"):
				b.WriteString("'b" + t.text[2:])
			default:
				b.WriteString(t.text)
			}
		case tokIdent:
			if v, ok := vars[t.text]; ok {
				b.WriteString(strconv.FormatInt(v, 10))
			} else {
				b.WriteString(t.text)
			}
		case tokOp:
			if t.text == "(" || t.text == ")" {
				b.WriteString(t.text)
			} else {
				b.WriteString(" " + t.text + " ")
			}
		}
	}
	return strings.TrimSpace(b.String())
}
