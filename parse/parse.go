// Package parse converts the text of an Edge expression into its in-memory
// representation (see the ast package).
package parse

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/mbarley/edge/ast"
	"github.com/mbarley/edge/errortypes"
)

// tree is the parse state for a single expression.
type tree struct {
	text      string // the expression source text
	filename  string // file the errors are attributed to
	line, col int    // position of text[0] within filename. 1-based.
	lex       *lexer // lexer provides a sequence of tokens
	token     [2]item
	peekCount int
}

// Expr returns the parsed representation of the given Edge expression.
// An expression is anything that can appear between mustaches or as a tag
// argument: literals, references, arithmetic, comparisons, sequences, and
// name = value bindings.
func Expr(text string) (ast.Node, error) {
	return ExprAt(text, "", 1, 1)
}

// ExprAt parses an expression that begins at the given line and column of
// filename, so that node positions and errors point into the template file
// rather than at the expression fragment.
func ExprAt(text, filename string, line, col int) (node ast.Node, err error) {
	var t = &tree{
		text:     text,
		filename: filename,
		line:     line,
		col:      col,
		lex:      lexExpr(filename, text),
	}
	defer t.recover(&err)
	node = t.parseSequenceExpr()
	t.expect(itemEOF, "expression")
	t.lex = nil
	return node, nil
}

var precedence = map[itemType]int{
	itemNot:    7,
	itemNegate: 7,
	itemMul:    6,
	itemDiv:    6,
	itemMod:    6,
	itemAdd:    5,
	itemSub:    5,
	itemGt:     4,
	itemGte:    4,
	itemLt:     4,
	itemLte:    4,
	itemIn:     4,
	itemEq:     3,
	itemNotEq:  3,
	itemAnd:    2,
	itemOr:     1,
}

// parseSequenceExpr parses the top level of a tag argument: one or more
// elements separated by commas. A single element is returned unwrapped.
func (t *tree) parseSequenceExpr() ast.Node {
	var first = t.parseElement()
	if t.peek().typ != itemComma {
		return first
	}
	var seq = &ast.SequenceNode{Pos: first.Position(), Items: []ast.Node{first}}
	for t.peek().typ == itemComma {
		t.next()
		seq.Items = append(seq.Items, t.parseElement())
	}
	return seq
}

// parseElement parses one sequence element: a name = value binding or a
// plain expression.
func (t *tree) parseElement() ast.Node {
	var first = t.next()
	if first.typ == itemIdent {
		var second = t.next()
		if second.typ == itemAssign {
			return &ast.AssignNode{Pos: t.pos(first), Name: first.val, Expr: t.parseExpr(0)}
		}
		t.backup2(first)
	} else {
		t.backup()
	}
	return t.parseExpr(0)
}

// parseExpr parses an arbitrary expression involving function applications
// and arithmetic.
//
// For handling binary operators, we use the Precedence Climbing algorithm
// described in:
//   http://www.engr.mun.ca/~theo/Misc/exp_parsing.htm
func (t *tree) parseExpr(prec int) ast.Node {
	n := t.parseExprFirstTerm()
	var tok item
	for {
		tok = t.next()
		q := precedence[tok.typ]
		if !isBinaryOp(tok.typ) || q < prec {
			break
		}
		q++
		n = newBinaryOpNode(tok, t.pos(tok), n, t.parseExpr(q))
	}
	if prec == 0 && tok.typ == itemQuestion {
		return t.parseTernary(n)
	}
	t.backup()
	return n
}

// Primary ->   "(" SequenceExpr ")"
//            | u=UnaryOp PrecExpr(prec(u))
//            | ArrayLiteral | ObjectLiteral | Primitive | Ident
// followed by any number of postfix accesses (.key, [expr], (args)).
func (t *tree) parseExprFirstTerm() ast.Node {
	switch tok := t.next(); {
	case isUnaryOp(tok):
		return newUnaryOpNode(tok, t.pos(tok), t.parseExpr(precedence[tok.typ]))
	case tok.typ == itemLeftParen:
		n := t.parseSequenceExpr()
		t.expect(itemRightParen, "expression")
		return t.parsePostfix(n)
	case isValue(tok):
		return t.parsePostfix(t.newValueNode(tok))
	default:
		t.unexpected(tok, "expression")
	}
	return nil
}

// parsePostfix absorbs property accesses, element accesses, and call
// arguments following a primary term.
func (t *tree) parsePostfix(n ast.Node) ast.Node {
	for {
		switch tok := t.next(); tok.typ {
		case itemDotIdent:
			n = &ast.MemberNode{Pos: t.pos(tok), Object: n, Key: tok.val[1:]}
		case itemLeftBracket:
			var index = t.parseExpr(0)
			t.expect(itemRightBracket, "element access")
			n = &ast.IndexNode{Pos: t.pos(tok), Object: n, Index: index}
		case itemLeftParen:
			n = t.parseCallArgs(tok, n)
		default:
			t.backup()
			return n
		}
	}
}

// parseCallArgs parses a call's argument list. "(" has just been read.
func (t *tree) parseCallArgs(token item, callee ast.Node) ast.Node {
	var node = &ast.CallNode{Pos: t.pos(token), Callee: callee, Args: nil}
	if t.peek().typ == itemRightParen {
		t.next()
		return node
	}
	for {
		node.Args = append(node.Args, t.parseExpr(0))
		switch tok := t.next(); tok.typ {
		case itemComma:
			// continue to get the next arg
		case itemRightParen:
			return node // all done
		default:
			t.unexpected(tok, "call arguments")
		}
	}
}

// parseTernary parses the ternary operator within an expression.
// itemQuestion has already been read, and the condition is provided.
func (t *tree) parseTernary(cond ast.Node) ast.Node {
	n1 := t.parseExpr(0)
	t.expect(itemColon, "ternary")
	n2 := t.parseExpr(0)
	return &ast.TernNode{Pos: cond.Position(), Arg1: cond, Arg2: n1, Arg3: n2}
}

// "[" has just been read.
// ArrayLiteral -> "[" [ Expr ( "," Expr )* ] "]"
func (t *tree) parseArrayLiteral(token item) ast.Node {
	if t.peek().typ == itemRightBracket {
		t.next()
		return &ast.ArrayLiteralNode{Pos: t.pos(token), Items: nil}
	}
	var items []ast.Node
	for {
		items = append(items, t.parseExpr(0))
		next := t.next()
		if next.typ == itemRightBracket {
			return &ast.ArrayLiteralNode{Pos: t.pos(token), Items: items}
		}
		if next.typ != itemComma {
			t.unexpected(next, "array literal")
		}
	}
}

// "{" has just been read.
// ObjectLiteral -> "{" [ Key ":" Expr ( "," Key ":" Expr )* ] "}"
func (t *tree) parseObjectLiteral(token item) ast.Node {
	var n = &ast.ObjectLiteralNode{Pos: t.pos(token)}
	if t.peek().typ == itemRightBrace {
		t.next()
		return n
	}
	for {
		var key string
		switch tok := t.next(); tok.typ {
		case itemIdent:
			key = tok.val
		case itemString:
			var err error
			key, err = unquoteString(tok.val)
			if err != nil {
				t.error(err)
			}
		default:
			t.unexpected(tok, "object literal key")
		}
		t.expect(itemColon, "object literal")
		n.Keys = append(n.Keys, key)
		n.Values = append(n.Values, t.parseExpr(0))
		next := t.next()
		if next.typ == itemRightBrace {
			return n
		}
		if next.typ != itemComma {
			t.unexpected(next, "object literal")
		}
	}
}

func isBinaryOp(typ itemType) bool {
	switch typ {
	case itemMul, itemDiv, itemMod,
		itemAdd, itemSub,
		itemEq, itemNotEq, itemGt, itemGte, itemLt, itemLte, itemIn,
		itemOr, itemAnd:
		return true
	}
	return false
}

func isUnaryOp(t item) bool {
	switch t.typ {
	case itemNot, itemNegate:
		return true
	}
	return false
}

func isValue(t item) bool {
	switch t.typ {
	case itemNull, itemUndefined, itemBool, itemInteger, itemFloat, itemString, itemIdent:
		return true
	case itemLeftBracket:
		return true // array literal
	case itemLeftBrace:
		return true // object literal
	}
	return false
}

func op(n ast.BinaryOpNode, name string) ast.BinaryOpNode {
	n.Name = name
	return n
}

func newBinaryOpNode(t item, pos ast.Pos, n1, n2 ast.Node) ast.Node {
	var bin = ast.BinaryOpNode{Name: "", Pos: pos, Arg1: n1, Arg2: n2}
	switch t.typ {
	case itemMul:
		return &ast.MulNode{BinaryOpNode: op(bin, "*")}
	case itemDiv:
		return &ast.DivNode{BinaryOpNode: op(bin, "/")}
	case itemMod:
		return &ast.ModNode{BinaryOpNode: op(bin, "%")}
	case itemAdd:
		return &ast.AddNode{BinaryOpNode: op(bin, "+")}
	case itemSub:
		return &ast.SubNode{BinaryOpNode: op(bin, "-")}
	case itemEq:
		return &ast.EqNode{BinaryOpNode: op(bin, "==")}
	case itemNotEq:
		return &ast.NotEqNode{BinaryOpNode: op(bin, "!=")}
	case itemGt:
		return &ast.GtNode{BinaryOpNode: op(bin, ">")}
	case itemGte:
		return &ast.GteNode{BinaryOpNode: op(bin, ">=")}
	case itemLt:
		return &ast.LtNode{BinaryOpNode: op(bin, "<")}
	case itemLte:
		return &ast.LteNode{BinaryOpNode: op(bin, "<=")}
	case itemOr:
		return &ast.OrNode{BinaryOpNode: op(bin, "||")}
	case itemAnd:
		return &ast.AndNode{BinaryOpNode: op(bin, "&&")}
	case itemIn:
		return &ast.InNode{BinaryOpNode: op(bin, "in")}
	}
	panic("unimplemented")
}

func newUnaryOpNode(t item, pos ast.Pos, n1 ast.Node) ast.Node {
	switch t.typ {
	case itemNot:
		return &ast.NotNode{Pos: pos, Arg: n1}
	case itemNegate:
		return &ast.NegateNode{Pos: pos, Arg: n1}
	}
	panic("unreachable")
}

func (t *tree) newValueNode(tok item) ast.Node {
	switch tok.typ {
	case itemNull:
		return &ast.NullNode{Pos: t.pos(tok)}
	case itemUndefined:
		return &ast.UndefinedNode{Pos: t.pos(tok)}
	case itemBool:
		return &ast.BoolNode{Pos: t.pos(tok), True: tok.val == "true"}
	case itemInteger:
		var base = 10
		if strings.HasPrefix(tok.val, "0x") {
			base = 0 // let strconv recognize the hex prefix
		}
		value, err := strconv.ParseInt(tok.val, base, 64)
		if err != nil {
			t.error(err)
		}
		return &ast.IntNode{Pos: t.pos(tok), Value: value}
	case itemFloat:
		value, err := strconv.ParseFloat(tok.val, 64)
		if err != nil {
			t.error(err)
		}
		return &ast.FloatNode{t.pos(tok), value}
	case itemString:
		s, err := unquoteString(tok.val)
		if err != nil {
			t.errorf("error unquoting %s: %s", tok.val, err)
		}
		return &ast.StringNode{t.pos(tok), tok.val, s}
	case itemIdent:
		return &ast.IdentNode{t.pos(tok), tok.val}
	case itemLeftBracket:
		return t.parseArrayLiteral(tok)
	case itemLeftBrace:
		return t.parseObjectLiteral(tok)
	}
	panic("unreachable")
}

// Helpers ----------

// next returns the next token.
func (t *tree) next() item {
	if t.peekCount > 0 {
		t.peekCount--
	} else {
		t.token[0] = t.lex.nextItem()
	}
	return t.token[t.peekCount]
}

// backup backs the input stream up one token.
func (t *tree) backup() {
	t.peekCount++
}

// backup2 backs the input stream up two tokens.
// The zeroth token is already there.
func (t *tree) backup2(t1 item) {
	t.token[1] = t1
	t.peekCount = 2
}

// peek returns but does not consume the next token.
func (t *tree) peek() item {
	if t.peekCount > 0 {
		return t.token[t.peekCount-1]
	}
	t.peekCount = 1
	t.token[0] = t.lex.nextItem()
	return t.token[0]
}

// pos converts a token's byte offset into a file position, folding in where
// the expression itself begins. columnNumber counts bytes since the last
// newline, so on the expression's first line the base column is added.
func (t *tree) pos(tok item) ast.Pos {
	var line = t.lex.lineNumber(tok.pos)
	var col = t.lex.columnNumber(tok.pos)
	if line == 1 {
		col += t.col
	}
	return ast.Pos{Line: t.line + line - 1, Col: col}
}

// recover is the handler that turns panics into returns from the top level.
func (t *tree) recover(errp *error) {
	e := recover()
	if e == nil {
		return
	}
	if _, ok := e.(runtime.Error); ok {
		panic(e)
	}
	t.lex = nil
	if str, ok := e.(string); ok {
		*errp = errors.New(str)
	} else {
		*errp = e.(error)
	}
}

// expect consumes the next token and guarantees it has the required type.
func (t *tree) expect(expected itemType, context string) item {
	token := t.next()
	if token.typ != expected {
		t.unexpected(token, fmt.Sprintf("%v (expected %v)", context, expected.String()))
	}
	return token
}

// unexpected complains about the token and terminates processing.
func (t *tree) unexpected(token item, context string) {
	if token.typ == itemError {
		t.errorf("lexical error: %v", token)
	}
	t.errorf("unexpected %v in %s", token, context)
}

// errorf formats the error and terminates processing.
func (t *tree) errorf(format string, args ...interface{}) {
	// get current token (taking account of backups)
	var tok = t.token[0]
	if t.peekCount > 0 {
		tok = t.token[t.peekCount-1]
	}
	var p = t.pos(tok)
	panic(errortypes.NewErrFilePosf(
		errortypes.CodeBadExpression, t.filename, p.Line, p.Col,
		format, args...))
}

// error terminates processing.
func (t *tree) error(err error) {
	t.errorf("%s", err)
}
