package compiler

import (
	"github.com/mbarley/edge/ast"
	"github.com/mbarley/edge/errortypes"
)

// propsPair is one key/value entry of the object literal accumulated by
// ParseSequenceExpression, kept structured until serialized at the end.
type propsPair struct {
	key   string
	value string
}

// ParseSequenceExpression normalizes a call-like tag argument into a
// (name, propsLiteral) pair of code fragments. A non-sequence argument is
// the name alone, with an empty props literal. In a sequence, the first
// element is the name and the remaining elements build the props: an
// object literal contributes each of its key/value pairs, an assignment
// contributes (name, value), and any other element is dropped. Keys keep
// the position of their first occurrence; a rebound key takes the later
// value.
//
// @component('card', title = 'hi') normalizes to ("'card'", "{ title: 'hi' }").
func ParseSequenceExpression(expr ast.Node, c *ExprCompiler) (name, props string) {
	seq, ok := expr.(*ast.SequenceNode)
	if !ok {
		return c.Compile(expr), "{}"
	}
	var pairs []propsPair
	var add = func(key, value string) {
		for i := range pairs {
			if pairs[i].key == key {
				pairs[i].value = value
				return
			}
		}
		pairs = append(pairs, propsPair{key, value})
	}
	for _, item := range seq.Items[1:] {
		switch item := item.(type) {
		case *ast.ObjectLiteralNode:
			for i, key := range item.Keys {
				add(key, c.Compile(item.Values[i]))
			}
		case *ast.AssignNode:
			add(item.Name, c.Compile(item.Expr))
		}
	}
	return c.Compile(seq.Items[0]), propsLiteral(pairs)
}

func propsLiteral(pairs []propsPair) string {
	if len(pairs) == 0 {
		return "{}"
	}
	var lit = "{ "
	for i, p := range pairs {
		if i > 0 {
			lit += ", "
		}
		lit += ast.PropKey(p.key) + ": " + p.value
	}
	return lit + " }"
}

// ParseAsKeyValuePair normalizes a key/value-style tag argument. The
// argument must be a literal or a sequence of at most two elements whose
// first element is a literal; a longer sequence fails with
// E_MAX_ARGUMENTS. The literal is returned in source form. When a value
// element is present it is rendered to a code fragment and hasValue is
// true; a non-empty allowedValueKinds restricts the kinds it may take.
func ParseAsKeyValuePair(tag string, expr ast.Node, allowedValueKinds []ast.Kind, c *ExprCompiler) (literal, value string, hasValue bool, err error) {
	if err := AllowExpressions(tag, expr, []ast.Kind{ast.KindLiteral, ast.KindSequence}, c.Filename); err != nil {
		return "", "", false, err
	}
	seq, ok := expr.(*ast.SequenceNode)
	if !ok {
		return expr.String(), "", false, nil
	}
	if len(seq.Items) > 2 {
		var p = seq.Items[2].Position()
		return "", "", false, errortypes.NewErrFilePosf(errortypes.CodeMaxArguments, c.Filename,
			p.Line, p.Col, "@%s accepts at most 2 arguments, got %d", tag, len(seq.Items))
	}
	if err := AllowExpressions(tag, seq.Items[0], []ast.Kind{ast.KindLiteral}, c.Filename); err != nil {
		return "", "", false, err
	}
	if len(allowedValueKinds) > 0 {
		if err := AllowExpressions(tag, seq.Items[1], allowedValueKinds, c.Filename); err != nil {
			return "", "", false, err
		}
	}
	return seq.Items[0].String(), c.Compile(seq.Items[1]), true, nil
}
