package alert

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"stockbook/internal/core/apperror"
)

// Rule is an operator-defined alert predicate written as a CEL expression
// over a product stock snapshot, e.g.
//
//	stock_value > 10000.0 && days_to_expiry < 14
//
// Matching products are reported under the rule's name in the alert summary.
type Rule struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
}

// RuleInput is the snapshot a rule is evaluated against.
type RuleInput struct {
	Stock        float64
	Threshold    float64
	StockValue   float64
	Active       bool
	HasExpiry    bool
	DaysToExpiry int
}

type compiledRule struct {
	name    string
	program cel.Program
}

// RuleSet holds compiled rules. Compilation happens once at startup; a bad
// expression fails fast instead of surfacing per-request.
type RuleSet struct {
	rules []compiledRule
}

// CompileRules builds a RuleSet from rule definitions.
func CompileRules(rules []Rule) (*RuleSet, error) {
	if len(rules) == 0 {
		return nil, nil
	}

	env, err := cel.NewEnv(
		cel.Variable("stock", cel.DoubleType),
		cel.Variable("threshold", cel.DoubleType),
		cel.Variable("stock_value", cel.DoubleType),
		cel.Variable("active", cel.BoolType),
		cel.Variable("has_expiry", cel.BoolType),
		cel.Variable("days_to_expiry", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel environment: %w", err)
	}

	set := &RuleSet{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		if r.Name == "" {
			return nil, apperror.NewValidation("alert rule requires a name")
		}
		ast, issues := env.Compile(r.Expression)
		if issues != nil && issues.Err() != nil {
			return nil, apperror.NewValidation("invalid alert rule expression").
				WithDetail("rule", r.Name).
				WithDetail("error", issues.Err().Error())
		}
		if ast.OutputType() != cel.BoolType {
			return nil, apperror.NewValidation("alert rule must evaluate to a boolean").
				WithDetail("rule", r.Name)
		}
		program, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		set.rules = append(set.rules, compiledRule{name: r.Name, program: program})
	}
	return set, nil
}

// Names returns rule names in definition order.
func (rs *RuleSet) Names() []string {
	names := make([]string, len(rs.rules))
	for i, r := range rs.rules {
		names[i] = r.name
	}
	return names
}

// Evaluate returns the names of rules matching the snapshot.
func (rs *RuleSet) Evaluate(input RuleInput) ([]string, error) {
	vars := map[string]any{
		"stock":          input.Stock,
		"threshold":      input.Threshold,
		"stock_value":    input.StockValue,
		"active":         input.Active,
		"has_expiry":     input.HasExpiry,
		"days_to_expiry": input.DaysToExpiry,
	}

	var matched []string
	for _, r := range rs.rules {
		out, _, err := r.program.Eval(vars)
		if err != nil {
			return nil, fmt.Errorf("evaluate rule %q: %w", r.name, err)
		}
		if ok, isBool := out.Value().(bool); isBool && ok {
			matched = append(matched, r.name)
		}
	}
	return matched, nil
}
