package tool

import (
	"context"
	"errors"
	"math"
	"strconv"
)

// ErrDivisionByZero is returned by divide when b is zero.
var ErrDivisionByZero = errors.New("division by zero")

// PairArgs are the operands of the binary arithmetic tools.
type PairArgs struct {
	A int `json:"a" jsonschema_description:"first int"`
	B int `json:"b" jsonschema_description:"second int"`
}

// ExpressionArgs is the input of the calculate tool.
type ExpressionArgs struct {
	Expression string `json:"expression" jsonschema_description:"Arithmetic expression, e.g. \"2 * (3 + 5)\"."`
}

// Arithmetic returns the add, multiply and divide tools.
func Arithmetic() []Registration {
	return []Registration{
		Func("add", "Adds a and b.", func(_ context.Context, args PairArgs) (string, error) {
			return strconv.Itoa(args.A + args.B), nil
		}),
		Func("multiply", "Multiply a and b.", func(_ context.Context, args PairArgs) (string, error) {
			return strconv.Itoa(args.A * args.B), nil
		}),
		Func("divide", "Divide a and b.", func(_ context.Context, args PairArgs) (string, error) {
			if args.B == 0 {
				return "", ErrDivisionByZero
			}
			return FormatNumber(float64(args.A) / float64(args.B)), nil
		}),
	}
}

// Calculator returns the calculate tool. Expressions it cannot evaluate
// produce the text "Calculation error: invalid expression." rather than
// an error result.
func Calculator() Registration {
	return Func("calculate", "Evaluate an arithmetic expression with + - * / and parentheses.",
		func(_ context.Context, args ExpressionArgs) (string, error) {
			v, err := Evaluate(args.Expression)
			if err != nil {
				return CalculationError, nil
			}
			return FormatNumber(v), nil
		})
}

// FormatNumber renders a result the way the tools report it: integral
// values keep one decimal ("4.0"), others use the shortest exact form.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
