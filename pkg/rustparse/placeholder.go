package rustparse

import (
	"regexp"
	"strings"

	"github.com/Sumatoshi-tech/refactor/pkg/syntax"
)

// Pattern variables are written $name or $name:kind. Before parsing they
// are rewritten into plain Rust the grammar accepts: expression and type
// variables become identifiers, statement, item and member variables become
// brace macro invocations. Lowering turns both forms back into placeholders.
const (
	phPrefix = "__ph_"
	phSep    = "__"
)

// Longer kind names come first: alternation picks the leftmost match.
//
//nolint:gochecknoglobals // compiled once.
var phPattern = regexp.MustCompile(
	`\$([A-Za-z_][A-Za-z0-9_]*)(?::(expr|type|ty|stmts|stmt|multistmt|item|trait_item|impl_item|foreign_item)\b)?(\s*;)?`)

// macroKinds are written in macro form.
//
//nolint:gochecknoglobals // immutable lookup table.
var macroKinds = map[string]bool{
	"stmt": true, "stmts": true, "multistmt": true,
	"item": true, "trait_item": true, "impl_item": true, "foreign_item": true,
}

// expandPlaceholders rewrites pattern variables in src.
func expandPlaceholders(src string) string {
	if !strings.Contains(src, "$") {
		return src
	}

	return phPattern.ReplaceAllStringFunc(src, func(m string) string {
		sub := phPattern.FindStringSubmatch(m)
		name, kind, semi := sub[1], sub[2], sub[3]

		if macroKinds[kind] {
			return phPrefix + name + phSep + kind + "!{}"
		}

		ident := phPrefix + name
		if kind != "" {
			ident += phSep + kind
		}

		return ident + semi
	})
}

// placeholderName decodes an identifier or macro path produced by
// expandPlaceholders. multi is set for statement list variables.
func placeholderName(ident string) (name string, multi, ok bool) {
	rest, found := strings.CutPrefix(ident, phPrefix)
	if !found || rest == "" {
		return "", false, false
	}

	if i := strings.LastIndex(rest, phSep); i > 0 {
		if kind := rest[i+len(phSep):]; isKindSuffix(kind) {
			return rest[:i], kind == "stmts" || kind == "multistmt", true
		}
	}

	return rest, false, true
}

func isKindSuffix(s string) bool {
	if macroKinds[s] {
		return true
	}

	return s == "expr" || s == "ty" || s == "type"
}

func placeholder(ident string) (*syntax.Placeholder, bool) {
	name, multi, ok := placeholderName(ident)
	if !ok {
		return nil, false
	}

	return &syntax.Placeholder{Name: name, Multi: multi}, true
}
