package compiler

import (
	"bytes"

	"github.com/mbarley/edge/ast"
	"github.com/mbarley/edge/errortypes"
)

// ExprCompiler renders an expression tree to a JavaScript fragment that
// reads its data through the runtime-context contract: identifiers become
// ctx.resolve calls, member and index accesses go through ctx.access, and
// function calls dispatch by name through ctx.call. The fragments are
// embedded by the code generator and by the tag-argument normalizer.
type ExprCompiler struct {
	Filename string // file the compiled expressions came from, for error attribution
}

// Compile returns the code fragment for the given node. Sequence and
// assignment expressions have no value form; encountering one (or any
// other node that cannot stand as a value) panics with a positioned
// error, recovered at the code generator's boundary.
func (c *ExprCompiler) Compile(node ast.Node) string {
	var buf bytes.Buffer
	var w = &exprWriter{&buf, c.Filename}
	w.walk(node)
	return buf.String()
}

type exprWriter struct {
	wr       *bytes.Buffer
	filename string
}

func (w *exprWriter) walk(node ast.Node) {
	switch node := node.(type) {

	// Values ----------
	case *ast.NullNode:
		w.js("null")
	case *ast.UndefinedNode:
		w.js("undefined")
	case *ast.BoolNode:
		w.js(node.String())
	case *ast.IntNode:
		w.js(node.String())
	case *ast.FloatNode:
		w.js(node.String())
	case *ast.StringNode:
		w.js(node.Quoted)
	case *ast.ArrayLiteralNode:
		w.js("[")
		for i, item := range node.Items {
			if i != 0 {
				w.js(", ")
			}
			w.walk(item)
		}
		w.js("]")
	case *ast.ObjectLiteralNode:
		w.js("{")
		for i, key := range node.Keys {
			if i != 0 {
				w.js(", ")
			}
			w.js(ast.PropKey(key), ": ")
			w.walk(node.Values[i])
		}
		w.js("}")

	// References ----------
	case *ast.IdentNode:
		w.js("ctx.resolve('", node.Name, "')")
	case *ast.MemberNode:
		w.js("ctx.access(")
		w.walk(node.Object)
		w.js(", '", node.Key, "')")
	case *ast.IndexNode:
		w.js("ctx.access(")
		w.walk(node.Object)
		w.js(", ")
		w.walk(node.Index)
		w.js(")")
	case *ast.CallNode:
		ident, ok := node.Callee.(*ast.IdentNode)
		if !ok {
			// Only named functions are callable; anything else
			// resolves to no value, matching the native renderer.
			w.js("undefined")
			return
		}
		w.js("ctx.call('", ident.Name, "', [")
		for i, arg := range node.Args {
			if i != 0 {
				w.js(", ")
			}
			w.walk(arg)
		}
		w.js("])")

	// Operators ----------
	case *ast.NegateNode:
		w.js("(-")
		w.walk(node.Arg)
		w.js(")")
	case *ast.NotNode:
		w.js("!(")
		w.walk(node.Arg)
		w.js(")")
	case *ast.MulNode:
		w.op("*", node)
	case *ast.DivNode:
		w.op("/", node)
	case *ast.ModNode:
		w.op("%", node)
	case *ast.AddNode:
		w.op("+", node)
	case *ast.SubNode:
		w.op("-", node)

	// Comparisons are emitted strict so generated code agrees with the
	// native renderer's typed equality.
	case *ast.EqNode:
		w.op("===", node)
	case *ast.NotEqNode:
		w.op("!==", node)
	case *ast.GtNode:
		w.op(">", node)
	case *ast.GteNode:
		w.op(">=", node)
	case *ast.LtNode:
		w.op("<", node)
	case *ast.LteNode:
		w.op("<=", node)
	case *ast.AndNode:
		w.op("&&", node)
	case *ast.OrNode:
		w.op("||", node)
	case *ast.InNode:
		w.js("ctx.has(")
		w.walk(node.Arg1)
		w.js(", ")
		w.walk(node.Arg2)
		w.js(")")
	case *ast.TernNode:
		w.js("(")
		w.walk(node.Arg1)
		w.js(" ? ")
		w.walk(node.Arg2)
		w.js(" : ")
		w.walk(node.Arg3)
		w.js(")")

	default:
		var p = node.Position()
		panic(errortypes.NewErrFilePosf(errortypes.CodeBadExpression, w.filename,
			p.Line, p.Col, "cannot compile a %s to a value", ast.KindOf(node)))
	}
}

func (w *exprWriter) op(symbol string, node ast.ParentNode) {
	var children = node.Children()
	w.js("(")
	w.walk(children[0])
	w.js(" ", symbol, " ")
	w.walk(children[1])
	w.js(")")
}

func (w *exprWriter) js(args ...string) {
	for _, arg := range args {
		w.wr.WriteString(arg)
	}
}
