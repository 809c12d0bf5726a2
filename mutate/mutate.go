// Package mutate compiles sample rewrite rules from expressions.
//
// An expression computes the new value of one sample from three variables:
//
//	x  the current sample value, widened to float64
//	i  the sample index within its segment
//	n  the number of samples in the segment
//
// For example "x * 2", "0", "i % 2 == 0 ? x : -x" or "round(x / 10) * 10".
// The result must be numeric; it is narrowed back to the segment's sample type
// by samples.Buffer.Apply.
package mutate

import (
	"fmt"

	"github.com/arloliu/seistrace/errs"
	"github.com/arloliu/seistrace/samples"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Env is the evaluation environment of an expression.
type Env struct {
	X float64 `expr:"x"`
	I int     `expr:"i"`
	N int     `expr:"n"`
}

// Rule is a compiled expression rule.
type Rule struct {
	source  string
	program *vm.Program
}

var _ samples.Rule = (*Rule)(nil)

// Compile compiles expression into a rule.
//
// Returns:
//   - *Rule: The compiled rule, safe for concurrent use
//   - error: ConfigurationError for an empty, malformed or non-numeric expression
func Compile(expression string) (*Rule, error) {
	if expression == "" {
		return nil, errs.Wrap(errs.KindConfiguration, "compile rule",
			fmt.Errorf("%w: empty expression", errs.ErrInvalidOption))
	}

	program, err := expr.Compile(expression, expr.Env(Env{}), expr.AsFloat64())
	if err != nil {
		return nil, errs.Wrap(errs.KindConfiguration, "compile rule",
			fmt.Errorf("%w: %q: %w", errs.ErrInvalidOption, expression, err))
	}

	return &Rule{source: expression, program: program}, nil
}

// Value evaluates the expression for sample i of n with value x.
func (r *Rule) Value(x float64, i, n int) (float64, error) {
	out, err := expr.Run(r.program, Env{X: x, I: i, N: n})
	if err != nil {
		return 0, fmt.Errorf("evaluate %q: %w", r.source, err)
	}

	v, ok := out.(float64)
	if !ok {
		return 0, fmt.Errorf("evaluate %q: result %T is not a number", r.source, out)
	}

	return v, nil
}

// String returns the source expression.
func (r *Rule) String() string {
	return r.source
}
