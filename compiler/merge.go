// Package compiler implements the compile-time semantics shared by both
// render backends: template-inheritance resolution (layout chains and
// section merging), expression policy checks, tag-argument normalization,
// and rendering of expression trees to fragments of generated code.
package compiler

import (
	"strings"

	"github.com/mbarley/edge/ast"
	"github.com/mbarley/edge/errortypes"
	"github.com/mbarley/edge/lexer"
	"github.com/mbarley/edge/parse"
	"github.com/mbarley/edge/template"
)

// Resolve returns the fully merged token tree for t. If t opens with
// @layout, the named parent is resolved first (a layout may itself extend
// another), then t's sections are merged into the parent's tree. The
// resolved tree never contains the @layout tag itself.
func Resolve(reg *template.Registry, t *template.Template) ([]lexer.Token, error) {
	return resolve(reg, t, map[string]bool{t.Name: true})
}

func resolve(reg *template.Registry, t *template.Template, seen map[string]bool) ([]lexer.Token, error) {
	layout, ok := t.Layout()
	if !ok {
		return t.Tokens, nil
	}
	ref, err := layoutRef(layout, t.Filename)
	if err != nil {
		return nil, err
	}
	var name = template.Normalize(ref)
	if seen[name] {
		return nil, errortypes.NewErrFilePosf(errortypes.CodeBadExpression, t.Filename,
			layout.Loc.Line, layout.Loc.Col, "@layout cycle: %s extends itself through %s", name, t.Name)
	}
	seen[name] = true
	var parent = reg.Template(name)
	if parent == nil {
		return nil, errortypes.NewErrFilePosf(errortypes.CodeMissingTemplate, t.Filename,
			layout.Loc.Line, layout.Loc.Col, "unknown layout %q", ref)
	}
	base, err := resolve(reg, parent, seen)
	if err != nil {
		return nil, err
	}
	return MergeSections(base, t.Tokens[1:]), nil
}

// layoutRef parses an @layout argument, which must be a string literal
// naming the parent template.
func layoutRef(tag *lexer.Token, filename string) (string, error) {
	if strings.TrimSpace(tag.RawArg) == "" {
		return "", errortypes.NewErrFilePosf(errortypes.CodeBadExpression, filename,
			tag.Loc.Line, tag.Loc.Col, "@layout requires a template name")
	}
	expr, err := parse.ExprAt(tag.RawArg, filename, tag.ArgLoc.Line, tag.ArgLoc.Col)
	if err != nil {
		return "", err
	}
	str, ok := expr.(*ast.StringNode)
	if !ok {
		var p = expr.Position()
		return "", errortypes.NewErrFilePosf(errortypes.CodeUnallowedExpression, filename,
			p.Line, p.Col, "@layout requires a string literal, not a %s", ast.KindOf(expr))
	}
	return str.Value, nil
}

// MergeSections resolves inheritance between a base template's token tree
// and the tree of a template extending it:
//
//  1. The extending tree's top-level sections are indexed by identifier
//     (a later duplicate replaces an earlier one).
//  2. Its top-level @set calls are hoisted, in order, to the front of the
//     merged tree, so bindings they declare are visible to the whole
//     output, inherited sections included.
//  3. The base tree is walked in order. Non-sections pass through.
//     A section with no override keeps its base content. An override
//     whose first child is @super appends the override's remaining
//     children after the base children; otherwise the override replaces
//     the base section entirely.
//
// Top-level content of the extending tree other than sections and @set
// calls has no slot in the base and is dropped. Neither input is mutated;
// untouched subtrees are shared with the result.
func MergeSections(base, extended []lexer.Token) []lexer.Token {
	var overrides = make(map[string]lexer.Token)
	for _, t := range extended {
		if isSection(t) {
			overrides[sectionID(t)] = t
		}
	}

	var merged []lexer.Token
	for _, t := range extended {
		if t.Kind == lexer.Tag && t.Name == "set" {
			merged = append(merged, t)
		}
	}

	for _, t := range base {
		if !isSection(t) {
			merged = append(merged, t)
			continue
		}
		override, ok := overrides[sectionID(t)]
		if !ok {
			merged = append(merged, t)
			continue
		}
		if leadingSuper(override) {
			var section = t
			section.Children = append(append([]lexer.Token{}, t.Children...), override.Children[1:]...)
			merged = append(merged, section)
			continue
		}
		merged = append(merged, override)
	}
	return merged
}

func isSection(t lexer.Token) bool {
	return t.Kind == lexer.Tag && t.Name == "section"
}

// sectionID returns a section's identifier: its trimmed raw argument,
// quotes included.
func sectionID(t lexer.Token) string {
	return strings.TrimSpace(t.RawArg)
}

// leadingSuper reports whether a section override opts into appending
// after the base content rather than replacing it.
func leadingSuper(t lexer.Token) bool {
	return len(t.Children) > 0 && t.Children[0].Kind == lexer.Tag && t.Children[0].Name == "super"
}
