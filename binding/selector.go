package binding

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"
)

// selector is a compiled `when` expression
type selector struct {
	expression string
	program    cel.Program
}

func compileSelector(expression string) (*selector, error) {
	env, err := cel.NewEnv(
		cel.Variable("method", cel.StringType),
		ext.Strings(),
	)
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("cel compile: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("cel compile: %q must evaluate to bool, got %s", expression, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("cel program: %w", err)
	}

	return &selector{expression: expression, program: prg}, nil
}

// matches evaluates the expression for method
func (s *selector) matches(method string) (bool, error) {
	out, _, err := s.program.Eval(map[string]any{"method": method})
	if err != nil {
		return false, fmt.Errorf("cel eval %q for %s: %w", s.expression, method, err)
	}

	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("cel eval %q for %s: result is %T, not bool", s.expression, method, out.Value())
	}
	return matched, nil
}
