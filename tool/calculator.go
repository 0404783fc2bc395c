package tool

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Calculator evaluates simple arithmetic expressions of the form
// "<number> <op> <number>" where op is one of + - * /.
type Calculator struct{}

// NewCalculator creates a new Calculator tool.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Name returns the tool name.
func (c *Calculator) Name() string {
	return "calculator"
}

// Description returns what the tool does, for the model's tool selection.
func (c *Calculator) Description() string {
	return "Evaluates a basic arithmetic expression like '3 * 4' or '10 / 2'. " +
		"Supports +, -, * and / on two numbers."
}

// Call evaluates the expression and returns the result as a string.
func (c *Calculator) Call(ctx context.Context, input string) (string, error) {
	fields := strings.Fields(strings.TrimSpace(input))
	if len(fields) != 3 {
		return "", fmt.Errorf("expected expression like '2 + 3', got %q", input)
	}

	left, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return "", fmt.Errorf("invalid left operand %q: %w", fields[0], err)
	}
	right, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return "", fmt.Errorf("invalid right operand %q: %w", fields[2], err)
	}

	var result float64
	switch fields[1] {
	case "+":
		result = left + right
	case "-":
		result = left - right
	case "*":
		result = left * right
	case "/":
		if right == 0 {
			return "", fmt.Errorf("division by zero")
		}
		result = left / right
	default:
		return "", fmt.Errorf("unsupported operator %q", fields[1])
	}

	return strconv.FormatFloat(result, 'f', -1, 64), nil
}
