// Package funceval evaluates the source text of function values decoded
// from query strings.
//
// Function values arrive as text. An Evaluator turns that text into an
// ir.Func by compiling it as an expr-lang expression; it is installed on a
// codec with querystring.WithFuncEvaluator. Two source forms are accepted:
//
//	args[0] + args[1]
//	function(a, b) { return a + b }
//
// The first is an expression over the call arguments. The second binds
// each parameter name to the argument in its position (missing arguments
// are nil) as well as args. Only a single return expression is allowed in
// the body.
//
// A bare name registered with WithNamed resolves to that Go function
// instead of being compiled.
package funceval

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/roach88/querycodec/internal/ir"
)

// ErrEmptySource is returned for blank function source.
var ErrEmptySource = errors.New("empty function source")

// functionLiteral matches function(a, b) { return <expr> } with an
// optional trailing semicolon.
var functionLiteral = regexp.MustCompile(`(?s)^function\s*\(([^)]*)\)\s*\{\s*return\b\s*(.*?);?\s*\}$`)

var paramName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Evaluator compiles function source with expr-lang. It is safe for
// concurrent use once constructed.
type Evaluator struct {
	named map[string]func(args ...any) (any, error)
	opts  []expr.Option
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithNamed registers fn under name. Source equal to name evaluates to
// fn without compiling anything.
func WithNamed(name string, fn func(args ...any) (any, error)) Option {
	return func(e *Evaluator) {
		e.named[name] = fn
	}
}

// WithFunction makes fn callable by name inside compiled expressions.
func WithFunction(name string, fn func(params ...any) (any, error)) Option {
	return func(e *Evaluator) {
		e.opts = append(e.opts, expr.Function(name, fn))
	}
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		named: make(map[string]func(args ...any) (any, error)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate compiles source and returns a callable ir.Func whose Source is
// the original text. Compilation happens once; each call runs the
// compiled program.
func (e *Evaluator) Evaluate(source string) (ir.Func, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return ir.Func{}, ErrEmptySource
	}

	if fn, ok := e.named[trimmed]; ok {
		slog.Debug("function resolved by name", "name", trimmed)
		return ir.Func{Source: source, Call: fn}, nil
	}

	params, body, err := splitFunction(trimmed)
	if err != nil {
		return ir.Func{}, err
	}

	program, err := expr.Compile(body, e.opts...)
	if err != nil {
		return ir.Func{}, fmt.Errorf("compile %q: %w", source, err)
	}
	slog.Debug("function compiled", "params", len(params))

	return ir.Func{
		Source: source,
		Call:   caller(program, params),
	}, nil
}

// splitFunction separates parameter names from the body expression. Text
// that is not a function literal is an expression over args.
func splitFunction(src string) ([]string, string, error) {
	if !strings.HasPrefix(src, "function") {
		return nil, src, nil
	}
	m := functionLiteral.FindStringSubmatch(src)
	if m == nil {
		return nil, "", fmt.Errorf("unsupported function literal %q: body must be a single return statement", src)
	}

	var params []string
	if list := strings.TrimSpace(m[1]); list != "" {
		for _, p := range strings.Split(list, ",") {
			p = strings.TrimSpace(p)
			if !paramName.MatchString(p) || p == "args" {
				return nil, "", fmt.Errorf("invalid parameter name %q", p)
			}
			params = append(params, p)
		}
	}
	return params, m[2], nil
}

func caller(program *vm.Program, params []string) func(args ...any) (any, error) {
	return func(args ...any) (any, error) {
		env := make(map[string]any, len(params)+1)
		env["args"] = args
		for i, p := range params {
			if i < len(args) {
				env[p] = args[i]
			} else {
				env[p] = nil
			}
		}
		out, err := expr.Run(program, env)
		if err != nil {
			return nil, fmt.Errorf("run function: %w", err)
		}
		return out, nil
	}
}
