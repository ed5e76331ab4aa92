package compiler

import (
	"strings"

	"github.com/mbarley/edge/ast"
	"github.com/mbarley/edge/errortypes"
	"github.com/mbarley/edge/lexer"
	"github.com/mbarley/edge/parse"
)

// argRule is the argument policy Check applies to one tag.
type argRule struct {
	required   bool       // the tag must carry an argument
	bare       bool       // the tag must not carry an argument
	allowed    []ast.Kind // when non-nil, the argument must be one of these kinds
	disallowed []ast.Kind // kinds rejected for the argument
}

var argRules = map[string]argRule{
	"if":        {required: true, disallowed: []ast.Kind{ast.KindSequence, ast.KindAssignment}},
	"elseif":    {required: true, disallowed: []ast.Kind{ast.KindSequence, ast.KindAssignment}},
	"else":      {bare: true},
	"each":      {required: true}, // binding shape checked by checkEachBinding
	"include":   {required: true, disallowed: []ast.Kind{ast.KindSequence, ast.KindAssignment}},
	"component": {required: true, disallowed: []ast.Kind{ast.KindAssignment}},
	"slot":      {required: true, allowed: []ast.Kind{ast.KindLiteral, ast.KindSequence}},
	"section":   {required: true, allowed: []ast.Kind{ast.KindLiteral}},
	"set":       {required: true, allowed: []ast.Kind{ast.KindLiteral, ast.KindSequence}},
	"super":     {bare: true},
	"debugger":  {bare: true},
}

// parentRules names the block tags a tag may appear directly inside.
var parentRules = map[string][]string{
	"elseif": {"if"},
	"else":   {"if", "each"},
	"slot":   {"component"},
}

// Check validates tag placement and argument expressions across a
// resolved token tree, before either backend generates code. The first
// problem found aborts compilation of the whole template. Resolve strips
// a legitimate leading @layout, so any layout tag Check encounters is
// misplaced.
func Check(tokens []lexer.Token, filename string) error {
	return checkAll(tokens, "", filename)
}

func checkAll(tokens []lexer.Token, parent, filename string) error {
	for i := range tokens {
		if err := check(&tokens[i], parent, filename); err != nil {
			return err
		}
	}
	return nil
}

func check(t *lexer.Token, parent, filename string) error {
	switch t.Kind {
	case lexer.Mustache:
		expr, err := parse.ExprAt(t.Text, filename, t.ArgLoc.Line, t.ArgLoc.Col)
		if err != nil {
			return err
		}
		switch kind := ast.KindOf(expr); kind {
		case ast.KindSequence, ast.KindAssignment:
			var p = expr.Position()
			return errortypes.NewErrFilePosf(errortypes.CodeUnallowedExpression, filename,
				p.Line, p.Col, "a %s cannot be interpolated", kind)
		}
		return nil

	case lexer.Tag:
		if t.Name == "layout" {
			return errortypes.NewErrFilePosf(errortypes.CodeUnallowedExpression, filename,
				t.Loc.Line, t.Loc.Col, "@layout must be the first tag of the template")
		}
		if parents, ok := parentRules[t.Name]; ok && !containsName(parents, parent) {
			return errortypes.NewErrFilePosf(errortypes.CodeUnallowedExpression, filename,
				t.Loc.Line, t.Loc.Col, "@%s must appear directly inside @%s",
				t.Name, strings.Join(parents, " or @"))
		}
		var rule = argRules[t.Name]
		var arg = strings.TrimSpace(t.RawArg)
		if rule.required && arg == "" {
			return errortypes.NewErrFilePosf(errortypes.CodeBadExpression, filename,
				t.Loc.Line, t.Loc.Col, "@%s requires an argument", t.Name)
		}
		if rule.bare && arg != "" {
			return errortypes.NewErrFilePosf(errortypes.CodeBadExpression, filename,
				t.Loc.Line, t.Loc.Col, "@%s does not take an argument", t.Name)
		}
		if arg != "" {
			expr, err := parse.ExprAt(t.RawArg, filename, t.ArgLoc.Line, t.ArgLoc.Col)
			if err != nil {
				return err
			}
			if rule.allowed != nil {
				if err := AllowExpressions(t.Name, expr, rule.allowed, filename); err != nil {
					return err
				}
			}
			if rule.disallowed != nil {
				if err := DisallowExpressions(t.Name, expr, rule.disallowed, filename); err != nil {
					return err
				}
			}
			switch t.Name {
			case "each":
				if err := checkEachBinding(expr, filename); err != nil {
					return err
				}
			case "section":
				if _, ok := expr.(*ast.StringNode); !ok {
					var p = expr.Position()
					return errortypes.NewErrFilePosf(errortypes.CodeUnallowedExpression, filename,
						p.Line, p.Col, "@section requires a string literal name")
				}
			}
		}
		return checkAll(t.Children, t.Name, filename)
	}
	return nil
}

// checkEachBinding validates an @each argument: "item in items" or
// "(value, key) in items", binding identifiers only.
func checkEachBinding(expr ast.Node, filename string) error {
	in, ok := expr.(*ast.InNode)
	if !ok {
		var p = expr.Position()
		return errortypes.NewErrFilePosf(errortypes.CodeUnallowedExpression, filename,
			p.Line, p.Col, "@each requires a binding of the form 'item in items'")
	}
	switch left := in.Arg1.(type) {
	case *ast.IdentNode:
		return nil
	case *ast.SequenceNode:
		if len(left.Items) == 2 {
			_, ok1 := left.Items[0].(*ast.IdentNode)
			_, ok2 := left.Items[1].(*ast.IdentNode)
			if ok1 && ok2 {
				return nil
			}
		}
	}
	var p = in.Arg1.Position()
	return errortypes.NewErrFilePosf(errortypes.CodeUnallowedExpression, filename,
		p.Line, p.Col, "@each binds an identifier or a (value, key) pair of identifiers")
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
