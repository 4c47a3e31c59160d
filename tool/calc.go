package tool

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"unicode"
)

// CalculationError is the calculate tool's answer to an invalid expression.
const CalculationError = "Calculation error: invalid expression."

var errInvalidExpression = errors.New("invalid expression")

// Evaluate computes an arithmetic expression over decimal numbers with
// + - * /, parentheses and unary minus. Usual precedence applies.
//
// Grammar:
//
//	expr   = term { ("+" | "-") term }
//	term   = unary { ("*" | "/") unary }
//	unary  = ("-" | "+") unary | factor
//	factor = number | "(" expr ")"
func Evaluate(expression string) (float64, error) {
	p := &parser{src: []rune(expression)}
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return 0, fmt.Errorf("%w: unexpected %q at %d", errInvalidExpression, p.src[p.pos], p.pos)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: result is not finite", errInvalidExpression)
	}
	return v, nil
}

type parser struct {
	src []rune
	pos int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

// peek returns the next non-space rune, or 0 at the end.
func (p *parser) peek() rune {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) expr() (float64, error) {
	left, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.term()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *parser) term() (float64, error) {
	left, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		p.pos++
		right, err := p.unary()
		if err != nil {
			return 0, err
		}
		if op == '*' {
			left *= right
			continue
		}
		if right == 0 {
			return 0, fmt.Errorf("%w: division by zero", errInvalidExpression)
		}
		left /= right
	}
}

func (p *parser) unary() (float64, error) {
	switch p.peek() {
	case '-':
		p.pos++
		v, err := p.unary()
		return -v, err
	case '+':
		p.pos++
		return p.unary()
	}
	return p.factor()
}

func (p *parser) factor() (float64, error) {
	switch r := p.peek(); {
	case r == '(':
		p.pos++
		v, err := p.expr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, fmt.Errorf("%w: missing )", errInvalidExpression)
		}
		p.pos++
		return v, nil
	case unicode.IsDigit(r) || r == '.':
		return p.number()
	case r == 0:
		return 0, fmt.Errorf("%w: unexpected end", errInvalidExpression)
	default:
		return 0, fmt.Errorf("%w: unexpected %q at %d", errInvalidExpression, r, p.pos)
	}
}

func (p *parser) number() (float64, error) {
	start := p.pos
	for p.pos < len(p.src) && (unicode.IsDigit(p.src[p.pos]) || p.src[p.pos] == '.') {
		p.pos++
	}
	v, err := strconv.ParseFloat(string(p.src[start:p.pos]), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad number %q", errInvalidExpression, string(p.src[start:p.pos]))
	}
	return v, nil
}
