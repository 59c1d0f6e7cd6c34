// Package rules loads rewrite rules from YAML files and applies them to a
// refactoring session in file order.
//
// A rule file looks like:
//
//	rules:
//	  - name: swap-mul
//	    kind: expr
//	    pattern: "$a * 2"
//	    replacement: "2 * $a"
//
// kind is one of expr, ty, stmts or item. An optional label restricts a
// rule to nodes carrying that mark; it is not allowed for stmts rules.
package rules

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/refactor/internal/observability"
	"github.com/Sumatoshi-tech/refactor/pkg/refactor"
)

//go:embed schema.json
var schemaJSON []byte

// ErrInvalid is returned for rule files that fail validation.
var ErrInvalid = errors.New("invalid rule file")

// Rule kinds.
const (
	KindExpr  = "expr"
	KindType  = "ty"
	KindStmts = "stmts"
	KindItem  = "item"
)

//nolint:gochecknoglobals // immutable lookup table.
var commandByKind = map[string]string{
	KindExpr:  "rewrite_expr",
	KindType:  "rewrite_ty",
	KindStmts: "rewrite_stmts",
	KindItem:  "rewrite_item",
}

// Rule is one rewrite.
type Rule struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Kind        string `yaml:"kind"`
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
	Label       string `yaml:"label,omitempty"`
}

// Set is an ordered list of rules.
type Set struct {
	Rules []Rule `yaml:"rules"`
}

// ValidationError lists every problem found in a rule file.
type ValidationError struct {
	Source   string
	Problems []string
}

// Error implements error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Source, strings.Join(e.Problems, "; "))
}

// Unwrap returns ErrInvalid.
func (e *ValidationError) Unwrap() error { return ErrInvalid }

// Load reads and validates the rule file at path.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}

	return Parse(path, data)
}

// Parse validates data against the rule schema and decodes it. source
// names the data in errors.
func Parse(source string, data []byte) (*Set, error) {
	var doc any

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalid, source, err)
	}

	if doc == nil {
		return nil, &ValidationError{Source: source, Problems: []string{"file is empty"}}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", source, err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			problems = append(problems, re.String())
		}

		return nil, &ValidationError{Source: source, Problems: problems}
	}

	var set Set

	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalid, source, err)
	}

	if err := set.validate(source); err != nil {
		return nil, err
	}

	return &set, nil
}

// Validate checks a set built in code rather than parsed from a file.
func (s *Set) Validate() error {
	return s.validate("rules")
}

func (s *Set) validate(source string) error {
	if problems := s.check(); len(problems) > 0 {
		return &ValidationError{Source: source, Problems: problems}
	}

	return nil
}

// check reports constraints the schema does not express.
func (s *Set) check() []string {
	var problems []string

	seen := make(map[string]bool, len(s.Rules))

	for _, r := range s.Rules {
		if seen[r.Name] {
			problems = append(problems, fmt.Sprintf("rule %q is defined twice", r.Name))
		}

		seen[r.Name] = true

		if _, ok := commandByKind[r.Kind]; !ok {
			problems = append(problems, fmt.Sprintf("rule %q: unknown kind %q", r.Name, r.Kind))
		}

		if r.Kind == KindStmts && r.Label != "" {
			problems = append(problems, fmt.Sprintf("rule %q: label is not supported for stmts rules", r.Name))
		}
	}

	return problems
}

// Result is the outcome of one rule.
type Result struct {
	Rule     string
	Rewrites int
}

// Apply runs the rules in order against st. It stops at the first failing
// rule; results of the rules before it are returned with the error.
func (s *Set) Apply(ctx context.Context, st *refactor.State) ([]Result, error) {
	results := make([]Result, 0, len(s.Rules))

	for _, r := range s.Rules {
		args := []string{r.Pattern, r.Replacement}
		if r.Label != "" {
			args = append(args, r.Label)
		}

		rctx := observability.WithRule(ctx, r.Name)

		n, err := st.Run(rctx, commandByKind[r.Kind], args)
		if err != nil {
			return results, fmt.Errorf("rule %s: %w", r.Name, err)
		}

		st.Logger().DebugContext(rctx, "rule applied", "rewrites", n)

		results = append(results, Result{Rule: r.Name, Rewrites: n})
	}

	return results, nil
}
