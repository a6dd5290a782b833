// Package expression compiles user-supplied arithmetic over a single numeric
// variable into a reusable function.
//
// Expressions are evaluated with expr-lang. The only free variable is x; the
// usual math helpers (sqrt, ln, sin, ...) and the constants pi and e are
// available alongside the expr-lang built-ins (abs, ceil, floor, round, max,
// min). Both ^ and ** are exponentiation.
package expression

import (
	"errors"
	"fmt"
	"math"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
)

// Var is the name of the free variable every expression is bound to.
const Var = "x"

var (
	// ErrParse reports an expression that is not syntactically valid.
	ErrParse = errors.New("failed to parse transform expression")
	// ErrBind reports a syntactically valid expression that cannot be bound to
	// x: unknown identifiers, wrong arity, or a non-numeric result.
	ErrBind = errors.New("failed to bind transform expression")
	// ErrEval reports a runtime failure while evaluating a bound expression.
	ErrEval = errors.New("failed to evaluate transform expression")
)

// env is the evaluation environment. Field tags give the names visible to
// expressions.
type env struct {
	X  float64 `expr:"x"`
	Pi float64 `expr:"pi"`
	E  float64 `expr:"e"`
}

// Func is a compiled expression. It is immutable and safe for concurrent use.
type Func struct {
	src     string
	program *vm.Program
}

// Compile parses src and binds it to x.
//
// Syntax errors wrap ErrParse; type-check failures wrap ErrBind.
func Compile(src string) (*Func, error) {
	if _, err := parser.Parse(src); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrParse, src, err)
	}

	opts := make([]expr.Option, 0, len(mathFuncs)+2)
	opts = append(opts, expr.Env(env{}), expr.AsFloat64())
	for name, fn := range mathFuncs {
		opts = append(opts, unary(name, fn))
	}
	opts = append(opts, expr.Function("signum", func(params ...any) (any, error) {
		v, err := toFloat(params)
		if err != nil {
			return nil, fmt.Errorf("signum: %w", err)
		}
		switch {
		case v > 0:
			return 1.0, nil
		case v < 0:
			return -1.0, nil
		default:
			return v, nil
		}
	}, new(func(float64) float64)))

	program, err := expr.Compile(src, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrBind, src, err)
	}
	return &Func{src: src, program: program}, nil
}

// MustCompile is like Compile but panics on error. Intended for tests and
// package-level fixtures.
func MustCompile(src string) *Func {
	f, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return f
}

// Eval applies the expression to v.
func (f *Func) Eval(v float64) (float64, error) {
	out, err := expr.Run(f.program, env{X: v, Pi: math.Pi, E: math.E})
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrEval, f.src, err)
	}
	res, ok := out.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: %q: result is %T", ErrEval, f.src, out)
	}
	return res, nil
}

// String returns the source text.
func (f *Func) String() string { return f.src }

var mathFuncs = map[string]func(float64) float64{
	"sqrt":  math.Sqrt,
	"exp":   math.Exp,
	"ln":    math.Log,
	"log10": math.Log10,
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"asin":  math.Asin,
	"acos":  math.Acos,
	"atan":  math.Atan,
	"sinh":  math.Sinh,
	"cosh":  math.Cosh,
	"tanh":  math.Tanh,
}

func unary(name string, fn func(float64) float64) expr.Option {
	return expr.Function(name, func(params ...any) (any, error) {
		v, err := toFloat(params)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return fn(v), nil
	}, new(func(float64) float64))
}

func toFloat(params []any) (float64, error) {
	if len(params) != 1 {
		return 0, fmt.Errorf("expected 1 argument, got %d", len(params))
	}
	switch v := params[0].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}
