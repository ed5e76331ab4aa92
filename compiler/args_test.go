package compiler

import (
	"testing"

	"github.com/mbarley/edge/ast"
	"github.com/mbarley/edge/errortypes"
	"github.com/mbarley/edge/parse"
)

func mustExpr(t *testing.T, text string) ast.Node {
	t.Helper()
	expr, err := parse.Expr(text)
	if err != nil {
		t.Fatal(err)
	}
	return expr
}

func TestParseSequenceExpression(t *testing.T) {
	tests := []struct {
		input string
		name  string
		props string
	}{
		{"'card'", "'card'", "{}"},
		{"name", "ctx.resolve('name')", "{}"},
		{"'card', title = 'hi'", "'card'", "{ title: 'hi' }"},
		{"'card', { title: 'hi' }", "'card'", "{ title: 'hi' }"},
		{"'card', title = 'hi', subtitle = sub", "'card'", "{ title: 'hi', subtitle: ctx.resolve('sub') }"},
		{"'card', { a: 1, b: 2 }, a = 3", "'card'", "{ a: 3, b: 2 }"},
		{"'card', title = 'a', title = 'b'", "'card'", "{ title: 'b' }"},
		{"'card', { 'data-id': 7 }", "'card'", "{ 'data-id': 7 }"},
		{"'card', 42", "'card'", "{}"},
	}
	var c = ExprCompiler{Filename: "home.edge"}
	for _, test := range tests {
		name, props := ParseSequenceExpression(mustExpr(t, test.input), &c)
		if name != test.name {
			t.Errorf("%s: expected name %v, got %v", test.input, test.name, name)
		}
		if props != test.props {
			t.Errorf("%s: expected props %v, got %v", test.input, test.props, props)
		}
	}
}

func TestParseAsKeyValuePair(t *testing.T) {
	tests := []struct {
		input    string
		literal  string
		value    string
		hasValue bool
	}{
		{"'title'", "'title'", "", false},
		{"42", "42", "", false},
		{"'title', 'Home'", "'title'", "'Home'", true},
		{"'count', items", "'count'", "ctx.resolve('items')", true},
		{"'sum', a + b", "'sum'", "(ctx.resolve('a') + ctx.resolve('b'))", true},
	}
	var c = ExprCompiler{Filename: "home.edge"}
	for _, test := range tests {
		literal, value, hasValue, err := ParseAsKeyValuePair("set", mustExpr(t, test.input), nil, &c)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", test.input, err)
			continue
		}
		if literal != test.literal || value != test.value || hasValue != test.hasValue {
			t.Errorf("%s: expected (%v, %v, %v), got (%v, %v, %v)",
				test.input, test.literal, test.value, test.hasValue, literal, value, hasValue)
		}
	}
}

func TestParseAsKeyValuePairErrors(t *testing.T) {
	tests := []struct {
		input string
		code  string
	}{
		{"'a', 'b', 'c'", errortypes.CodeMaxArguments},
		{"title, 'x'", errortypes.CodeUnallowedExpression},
		{"title", errortypes.CodeUnallowedExpression},
		{"a + b", errortypes.CodeUnallowedExpression},
	}
	var c = ExprCompiler{Filename: "home.edge"}
	for _, test := range tests {
		_, _, _, err := ParseAsKeyValuePair("set", mustExpr(t, test.input), nil, &c)
		if code := errortypes.Code(err); code != test.code {
			t.Errorf("%s: expected code %v, got %v (%v)", test.input, test.code, code, err)
		}
	}
}

func TestParseAsKeyValuePairMaxArgumentsPosition(t *testing.T) {
	var c = ExprCompiler{Filename: "home.edge"}
	_, _, _, err := ParseAsKeyValuePair("set", mustExpr(t, "'a', 'b', 'c'"), nil, &c)
	ferr := errortypes.ToErrFilePos(err)
	if ferr == nil {
		t.Fatalf("expected a positioned error, got %v", err)
	}
	if ferr.File() != "home.edge" || ferr.Line() != 1 || ferr.Col() != 11 {
		t.Errorf("expected home.edge:1:11, got %v:%v:%v", ferr.File(), ferr.Line(), ferr.Col())
	}
}

func TestParseAsKeyValuePairValueKinds(t *testing.T) {
	var c = ExprCompiler{Filename: "home.edge"}
	var allowed = []ast.Kind{ast.KindIdentifier}

	_, value, hasValue, err := ParseAsKeyValuePair("slot", mustExpr(t, "'card', props"), allowed, &c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hasValue || value != "ctx.resolve('props')" {
		t.Errorf("expected props alias, got (%v, %v)", value, hasValue)
	}

	_, _, _, err = ParseAsKeyValuePair("slot", mustExpr(t, "'card', 'x'"), allowed, &c)
	if code := errortypes.Code(err); code != errortypes.CodeUnallowedExpression {
		t.Errorf("expected %v, got %v", errortypes.CodeUnallowedExpression, err)
	}
}
