package policy

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/threatgraph/sandstix/report"
)

// DefaultExpression is the filter applied when none is configured: emit an
// indicator for every high-severity signature match.
const DefaultExpression = "severity >= 3"

// SignatureFilter evaluates a compiled CEL expression against signature
// matches. Available variables: name (string), description (string),
// severity (int), confidence (int), families (list of string).
type SignatureFilter struct {
	expr string
	prg  cel.Program
}

// NewSignatureFilter compiles expr into a filter. An empty expr selects
// DefaultExpression. Compilation problems (syntax errors, non-boolean
// result) are configuration errors reported up front, not at match time.
func NewSignatureFilter(expr string) (*SignatureFilter, error) {
	if expr == "" {
		expr = DefaultExpression
	}
	env, err := cel.NewEnv(
		cel.Variable("name", cel.StringType),
		cel.Variable("description", cel.StringType),
		cel.Variable("severity", cel.IntType),
		cel.Variable("confidence", cel.IntType),
		cel.Variable("families", cel.ListType(cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("building filter environment: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compiling signature filter %q: %w", expr, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("signature filter %q must evaluate to a boolean, got %s", expr, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("building signature filter program: %w", err)
	}
	return &SignatureFilter{expr: expr, prg: prg}, nil
}

// Expression returns the source expression the filter was compiled from.
func (f *SignatureFilter) Expression() string { return f.expr }

// Match reports whether sig passes the filter.
func (f *SignatureFilter) Match(sig report.Signature) (bool, error) {
	families := sig.Families
	if families == nil {
		families = []string{}
	}
	out, _, err := f.prg.Eval(map[string]any{
		"name":        sig.Name,
		"description": sig.Description,
		"severity":    sig.Severity,
		"confidence":  sig.Confidence,
		"families":    families,
	})
	if err != nil {
		return false, fmt.Errorf("evaluating signature filter for %q: %w", sig.Name, err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("signature filter returned %T, want bool", out.Value())
	}
	return matched, nil
}
