// Package filter evaluates CEL expressions against feed items. Callers pass
// an optional filter string with the feed request ("'food' in tags &&
// duration_sec < 60"); invalid expressions are a client error, surfaced at
// compile time before any store access.
package filter

import (
	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	"github.com/citypulse/pulse/store"
)

// ErrInvalidExpression marks filter expressions rejected at compile time.
// Callers treat it as client input error rather than an engine failure.
var ErrInvalidExpression = errors.New("invalid filter expression")

// Fields exposed to filter expressions. Score components are deliberately
// absent: filtering happens on item attributes, ranking stays with the scorer.
var itemEnvOptions = []cel.EnvOption{
	cel.Variable("title", cel.StringType),
	cel.Variable("tags", cel.ListType(cel.StringType)),
	cel.Variable("zone", cel.StringType),
	cel.Variable("zone_source", cel.StringType),
	cel.Variable("creator_id", cel.StringType),
	cel.Variable("duration_sec", cel.DoubleType),
}

// ItemFilter is a compiled feed filter expression.
type ItemFilter struct {
	program cel.Program
}

// New compiles expression into an ItemFilter. The expression must evaluate
// to a boolean.
func New(expression string) (*ItemFilter, error) {
	env, err := cel.NewEnv(itemEnvOptions...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create filter environment")
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrapf(ErrInvalidExpression, "%q: %v", expression, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, errors.Wrapf(ErrInvalidExpression, "%q must evaluate to a boolean, got %s", expression, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build filter program")
	}

	return &ItemFilter{program: program}, nil
}

// Match evaluates the filter against one item.
func (f *ItemFilter) Match(item *store.Item) (bool, error) {
	tags := item.Tags
	if tags == nil {
		tags = []string{}
	}

	out, _, err := f.program.Eval(map[string]any{
		"title":        item.Title,
		"tags":         tags,
		"zone":         string(item.Zone),
		"zone_source":  string(item.ZoneSource),
		"creator_id":   item.CreatorID,
		"duration_sec": item.DurationSec,
	})
	if err != nil {
		return false, errors.Wrap(err, "failed to evaluate filter")
	}

	matched, ok := out.Value().(bool)
	if !ok {
		return false, errors.Errorf("filter returned non-boolean value %v", out.Value())
	}
	return matched, nil
}
