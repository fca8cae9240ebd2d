package refresher

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrBadFormula is returned when a derived formula cannot be evaluated
var ErrBadFormula = errors.New("invalid formula")

// evalFormula evaluates a derived KPI formula over resolved variables. The
// grammar is deliberately tiny: numbers, identifiers, + - * / and parentheses.
// Anything else, including unknown identifiers and division by zero, fails.
func evalFormula(expr string, vars map[string]float64) (float64, error) {
	p := &formulaParser{input: expr, vars: vars}

	v, err := p.parseSum()
	if err != nil {
		return 0, err
	}

	p.skipSpace()

	if p.pos != len(p.input) {
		return 0, fmt.Errorf("%w: unexpected %q at offset %d", ErrBadFormula, p.input[p.pos], p.pos)
	}

	return v, nil
}

type formulaParser struct {
	input string
	pos   int
	vars  map[string]float64
}

func (p *formulaParser) skipSpace() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}

func (p *formulaParser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}

	return p.input[p.pos]
}

func (p *formulaParser) parseSum() (float64, error) {
	left, err := p.parseProduct()
	if err != nil {
		return 0, err
	}

	for {
		p.skipSpace()

		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}

		p.pos++

		right, err := p.parseProduct()
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

func (p *formulaParser) parseProduct() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}

	for {
		p.skipSpace()

		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}

		p.pos++

		right, err := p.parseUnary()
		if err != nil {
			return 0, err
		}

		if op == '*' {
			left *= right
			continue
		}

		if right == 0 {
			return 0, fmt.Errorf("%w: division by zero", ErrBadFormula)
		}

		left /= right
	}
}

func (p *formulaParser) parseUnary() (float64, error) {
	p.skipSpace()

	switch p.peek() {
	case '-':
		p.pos++

		v, err := p.parseUnary()
		return -v, err
	case '+':
		p.pos++
		return p.parseUnary()
	}

	return p.parsePrimary()
}

func (p *formulaParser) parsePrimary() (float64, error) {
	p.skipSpace()

	c := p.peek()

	switch {
	case c == '(':
		p.pos++

		v, err := p.parseSum()
		if err != nil {
			return 0, err
		}

		p.skipSpace()

		if p.peek() != ')' {
			return 0, fmt.Errorf("%w: missing closing parenthesis", ErrBadFormula)
		}

		p.pos++

		return v, nil
	case c >= '0' && c <= '9' || c == '.':
		return p.parseNumber()
	case c == '_' || unicode.IsLetter(rune(c)):
		return p.parseIdentifier()
	case c == 0:
		return 0, fmt.Errorf("%w: unexpected end of input", ErrBadFormula)
	default:
		return 0, fmt.Errorf("%w: unexpected %q at offset %d", ErrBadFormula, c, p.pos)
	}
}

func (p *formulaParser) parseNumber() (float64, error) {
	start := p.pos

	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if (c < '0' || c > '9') && c != '.' {
			break
		}

		p.pos++
	}

	v, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad number %q", ErrBadFormula, p.input[start:p.pos])
	}

	return v, nil
}

func (p *formulaParser) parseIdentifier() (float64, error) {
	start := p.pos

	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c != '_' && !unicode.IsLetter(rune(c)) && !unicode.IsDigit(rune(c)) {
			break
		}

		p.pos++
	}

	name := strings.ToLower(p.input[start:p.pos])

	v, ok := p.vars[name]
	if !ok {
		return 0, fmt.Errorf("%w: unknown identifier %q", ErrBadFormula, name)
	}

	return v, nil
}
