package builtin

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hupe1980/planmesh/tool"
)

const calculatorCharset = "0123456789+-*/()., "

// CalculatorConfig describes the advanced_calculator tool.
func CalculatorConfig() tool.Config {
	return tool.Config{
		Name:         "advanced_calculator",
		FunctionName: "advanced_calculator",
		Description:  "Safe mathematical expression evaluator supporting +, -, *, / and parentheses",
		Parameters: map[string]any{
			"expression": map[string]any{
				"type":        "string",
				"required":    true,
				"description": "Mathematical expression to evaluate",
			},
		},
		PriceUSD:     0.0,
		Capabilities: []string{"arithmetic", "calculation", "math"},
	}
}

// Calculate evaluates a mathematical expression. Only digits, the four basic
// operators, parentheses, decimal points and whitespace are accepted; any
// other character fails validation before evaluation. Failures are reported
// in the payload, never as a Go error.
func Calculate(_ context.Context, params map[string]any) (map[string]any, error) {
	expression, _ := params["expression"].(string)

	for _, r := range expression {
		if !strings.ContainsRune(calculatorCharset, r) {
			return calculatorError(expression, fmt.Errorf("expression contains invalid characters")), nil
		}
	}

	result, err := evalExpression(expression)
	if err != nil {
		return calculatorError(expression, err), nil
	}

	return map[string]any{
		"status":           "success",
		"expression":       expression,
		"result":           result,
		"formatted_result": strconv.FormatFloat(result, 'g', -1, 64),
	}, nil
}

func calculatorError(expression string, err error) map[string]any {
	return map[string]any{
		"status":     "error",
		"error":      err.Error(),
		"expression": expression,
	}
}

// evalExpression parses and evaluates with standard operator precedence
// using a small recursive descent parser.
func evalExpression(expression string) (float64, error) {
	p := &exprParser{input: expression}
	value, err := p.parseSum()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.pos < len(p.input) {
		return 0, fmt.Errorf("unexpected character %q at position %d", p.input[p.pos], p.pos)
	}
	return value, nil
}

type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *exprParser) peek() (byte, bool) {
	p.skipSpaces()
	if p.pos >= len(p.input) {
		return 0, false
	}
	return p.input[p.pos], true
}

func (p *exprParser) parseSum() (float64, error) {
	value, err := p.parseProduct()
	if err != nil {
		return 0, err
	}
	for {
		op, ok := p.peek()
		if !ok || (op != '+' && op != '-') {
			return value, nil
		}
		p.pos++
		right, err := p.parseProduct()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			value += right
		} else {
			value -= right
		}
	}
}

func (p *exprParser) parseProduct() (float64, error) {
	value, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		op, ok := p.peek()
		if !ok || (op != '*' && op != '/') {
			return value, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if op == '*' {
			value *= right
		} else {
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			value /= right
		}
	}
}

func (p *exprParser) parseUnary() (float64, error) {
	if op, ok := p.peek(); ok && (op == '-' || op == '+') {
		p.pos++
		value, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if op == '-' {
			return -value, nil
		}
		return value, nil
	}
	return p.parseAtom()
}

func (p *exprParser) parseAtom() (float64, error) {
	c, ok := p.peek()
	if !ok {
		return 0, fmt.Errorf("unexpected end of expression")
	}

	if c == '(' {
		p.pos++
		value, err := p.parseSum()
		if err != nil {
			return 0, err
		}
		closing, ok := p.peek()
		if !ok || closing != ')' {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return value, nil
	}

	start := p.pos
	for p.pos < len(p.input) && (isDigit(p.input[p.pos]) || p.input[p.pos] == '.') {
		p.pos++
	}
	if start == p.pos {
		return 0, fmt.Errorf("unexpected character %q at position %d", c, start)
	}

	value, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", p.input[start:p.pos])
	}
	return value, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
