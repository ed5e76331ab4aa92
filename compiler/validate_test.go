package compiler

import (
	"testing"

	"github.com/mbarley/edge/ast"
	"github.com/mbarley/edge/errortypes"
)

func TestAllowExpressions(t *testing.T) {
	if err := AllowExpressions("section", mustExpr(t, "'home'"), []ast.Kind{ast.KindLiteral}, "home.edge"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err := AllowExpressions("section", mustExpr(t, "title"), []ast.Kind{ast.KindLiteral}, "home.edge")
	ferr := errortypes.ToErrFilePos(err)
	if ferr == nil {
		t.Fatalf("expected a positioned error, got %v", err)
	}
	if ferr.Code() != errortypes.CodeUnallowedExpression {
		t.Errorf("expected code %v, got %v", errortypes.CodeUnallowedExpression, ferr.Code())
	}
	if ferr.File() != "home.edge" || ferr.Line() != 1 || ferr.Col() != 1 {
		t.Errorf("expected home.edge:1:1, got %v:%v:%v", ferr.File(), ferr.Line(), ferr.Col())
	}
}

func TestDisallowExpressions(t *testing.T) {
	if err := DisallowExpressions("if", mustExpr(t, "a && b"), []ast.Kind{ast.KindSequence, ast.KindAssignment}, "home.edge"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err := DisallowExpressions("if", mustExpr(t, "a = 1"), []ast.Kind{ast.KindSequence, ast.KindAssignment}, "home.edge")
	if code := errortypes.Code(err); code != errortypes.CodeUnallowedExpression {
		t.Errorf("expected code %v, got %v", errortypes.CodeUnallowedExpression, err)
	}
}
