package compiler

import (
	"testing"

	"github.com/mbarley/edge/errortypes"
)

func TestCompileExpr(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"null", "null"},
		{"undefined", "undefined"},
		{"true", "true"},
		{"42", "42"},
		{"2.5", "2.5"},
		{"1e21", "1e+21"},
		{"-3", "(-3)"},
		{"'hi'", "'hi'"},
		{`"hi"`, `"hi"`},
		{"'it\\'s'", "'it\\'s'"},

		{"name", "ctx.resolve('name')"},
		{"$loop.index", "ctx.access(ctx.resolve('$loop'), 'index')"},
		{"user.profile.email", "ctx.access(ctx.access(ctx.resolve('user'), 'profile'), 'email')"},
		{"users[0]", "ctx.access(ctx.resolve('users'), 0)"},
		{"users[i + 1]", "ctx.access(ctx.resolve('users'), (ctx.resolve('i') + 1))"},

		{"size(items)", "ctx.call('size', [ctx.resolve('items')])"},
		{"join(items, ', ')", "ctx.call('join', [ctx.resolve('items'), ', '])"},
		{"upper(user.name)", "ctx.call('upper', [ctx.access(ctx.resolve('user'), 'name')])"},
		{"user.format(x)", "undefined"},

		{"!ok", "!(ctx.resolve('ok'))"},
		{"a + b * c", "(ctx.resolve('a') + (ctx.resolve('b') * ctx.resolve('c')))"},
		{"(a + b) * c", "((ctx.resolve('a') + ctx.resolve('b')) * ctx.resolve('c'))"},
		{"x % 2 == 0", "((ctx.resolve('x') % 2) === 0)"},
		{"a == b", "(ctx.resolve('a') === ctx.resolve('b'))"},
		{"a != b", "(ctx.resolve('a') !== ctx.resolve('b'))"},
		{"a <= b", "(ctx.resolve('a') <= ctx.resolve('b'))"},
		{"a && b || c", "((ctx.resolve('a') && ctx.resolve('b')) || ctx.resolve('c'))"},
		{"'admin' in roles", "ctx.has('admin', ctx.resolve('roles'))"},
		{"ok ? 'yes' : 'no'", "(ctx.resolve('ok') ? 'yes' : 'no')"},

		{"[1, 2]", "[1, 2]"},
		{"[]", "[]"},
		{"{}", "{}"},
		{"{ title: 'hi', 'data-id': 3 }", "{title: 'hi', 'data-id': 3}"},
	}
	var c = ExprCompiler{Filename: "home.edge"}
	for _, test := range tests {
		var actual = c.Compile(mustExpr(t, test.input))
		if actual != test.expected {
			t.Errorf("%s: expected %v, got %v", test.input, test.expected, actual)
		}
	}
}

func TestCompileRejectsSequence(t *testing.T) {
	var expr = mustExpr(t, "a, b")
	defer func() {
		e := recover()
		if e == nil {
			t.Fatal("expected a panic")
		}
		err, ok := e.(error)
		if !ok {
			t.Fatalf("expected an error value, got %v", e)
		}
		if code := errortypes.Code(err); code != errortypes.CodeBadExpression {
			t.Errorf("expected code %v, got %v", errortypes.CodeBadExpression, err)
		}
	}()
	var c = ExprCompiler{Filename: "home.edge"}
	c.Compile(expr)
}
