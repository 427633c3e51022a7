package credit

import (
	"fmt"
	"reflect"

	"github.com/google/cel-go/cel"

	"stockroom/internal/core/types"
)

// Policy decides whether an accrual may proceed.
type Policy interface {
	Allow(current, amount, limit types.Money) (bool, error)
}

// CELPolicy evaluates a boolean CEL expression over the doubles
// current, amount and limit, e.g. "limit == 0.0 || current + amount <= limit".
type CELPolicy struct {
	expr    string
	program cel.Program
}

// NewCELPolicy compiles expr. The expression must yield a bool.
func NewCELPolicy(expr string) (*CELPolicy, error) {
	env, err := cel.NewEnv(
		cel.Variable("current", cel.DoubleType),
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("limit", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	ast, iss := env.Compile(expr)
	if iss.Err() != nil {
		return nil, fmt.Errorf("compile credit policy %q: %w", expr, iss.Err())
	}
	if !reflect.DeepEqual(ast.OutputType(), cel.BoolType) {
		return nil, fmt.Errorf("credit policy %q must return bool, got %v", expr, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build credit policy program: %w", err)
	}
	return &CELPolicy{expr: expr, program: program}, nil
}

// Allow implements Policy.
func (p *CELPolicy) Allow(current, amount, limit types.Money) (bool, error) {
	out, _, err := p.program.Eval(map[string]any{
		"current": current.InexactFloat64(),
		"amount":  amount.InexactFloat64(),
		"limit":   limit.InexactFloat64(),
	})
	if err != nil {
		return false, fmt.Errorf("evaluate credit policy %q: %w", p.expr, err)
	}
	allowed, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("credit policy %q returned %T", p.expr, out.Value())
	}
	return allowed, nil
}

// String returns the source expression.
func (p *CELPolicy) String() string {
	return p.expr
}
