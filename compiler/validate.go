package compiler

import (
	"github.com/mbarley/edge/ast"
	"github.com/mbarley/edge/errortypes"
)

// AllowExpressions fails with E_UNALLOWED_EXPRESSION unless expr's kind is
// one of the allowed kinds for an argument of @tag. It has no other effect.
func AllowExpressions(tag string, expr ast.Node, allowed []ast.Kind, filename string) error {
	var kind = ast.KindOf(expr)
	for _, k := range allowed {
		if kind == k {
			return nil
		}
	}
	var p = expr.Position()
	return errortypes.NewErrFilePosf(errortypes.CodeUnallowedExpression, filename,
		p.Line, p.Col, "@%s does not accept a %s as its argument", tag, kind)
}

// DisallowExpressions is the dual of AllowExpressions: it fails when
// expr's kind is one of the forbidden kinds.
func DisallowExpressions(tag string, expr ast.Node, forbidden []ast.Kind, filename string) error {
	var kind = ast.KindOf(expr)
	for _, k := range forbidden {
		if kind == k {
			var p = expr.Position()
			return errortypes.NewErrFilePosf(errortypes.CodeUnallowedExpression, filename,
				p.Line, p.Col, "@%s does not accept a %s as its argument", tag, kind)
		}
	}
	return nil
}
