// Package ast contains definitions for the in-memory representation of an
// Edge expression: the argument of a tag such as @if or @each, or the body of
// a mustache.
package ast

import (
	"fmt"
	"strconv"
)

// Node represents any singular piece of an expression.  For example, a string
// literal or a binary operation.
type Node interface {
	String() string // String returns the Edge source representation of this node.
	Position() Pos  // position of the start of the node in the template file
}

// ParentNode is any Node that has descendent nodes.  For example, the
// Children of an AddNode are the two nodes that should be added.
type ParentNode interface {
	Node
	Children() []Node
}

// Pos represents a position in the template file from which an expression was
// parsed.  Lines and columns are 1-based.  It is useful to construct helpful
// error messages.
type Pos struct {
	Line, Col int
}

// Position returns this position.  It is implemented as a method so that
// nodes may embed a Pos and fulfill this part of the Node interface for free.
func (p Pos) Position() Pos {
	return p
}

// Kind classifies nodes for expression policy checks.  Every node maps to
// exactly one Kind via KindOf.
type Kind int

const (
	KindLiteral Kind = iota
	KindIdentifier
	KindMember
	KindIndex
	KindCall
	KindUnary
	KindBinary
	KindTernary
	KindSequence
	KindAssignment
	KindObjectLiteral
	KindArrayLiteral
)

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindIdentifier:
		return "identifier"
	case KindMember:
		return "member expression"
	case KindIndex:
		return "index expression"
	case KindCall:
		return "call expression"
	case KindUnary:
		return "unary expression"
	case KindBinary:
		return "binary expression"
	case KindTernary:
		return "ternary expression"
	case KindSequence:
		return "sequence expression"
	case KindAssignment:
		return "assignment expression"
	case KindObjectLiteral:
		return "object literal"
	case KindArrayLiteral:
		return "array literal"
	}
	return "unknown expression"
}

// KindOf returns the Kind of the given node.
func KindOf(node Node) Kind {
	switch node.(type) {
	case *NullNode, *UndefinedNode, *BoolNode, *IntNode, *FloatNode, *StringNode:
		return KindLiteral
	case *IdentNode:
		return KindIdentifier
	case *MemberNode:
		return KindMember
	case *IndexNode:
		return KindIndex
	case *CallNode:
		return KindCall
	case *NotNode, *NegateNode:
		return KindUnary
	case *MulNode, *DivNode, *ModNode, *AddNode, *SubNode,
		*EqNode, *NotEqNode, *GtNode, *GteNode, *LtNode, *LteNode,
		*OrNode, *AndNode, *InNode:
		return KindBinary
	case *TernNode:
		return KindTernary
	case *SequenceNode:
		return KindSequence
	case *AssignNode:
		return KindAssignment
	case *ObjectLiteralNode:
		return KindObjectLiteral
	case *ArrayLiteralNode:
		return KindArrayLiteral
	}
	panic(fmt.Sprintf("ast: unrecognized node type %T", node))
}

// Values ----------

type NullNode struct {
	Pos
}

func (n *NullNode) String() string {
	return "null"
}

type UndefinedNode struct {
	Pos
}

func (n *UndefinedNode) String() string {
	return "undefined"
}

type BoolNode struct {
	Pos
	True bool
}

func (b *BoolNode) String() string {
	if b.True {
		return "true"
	}
	return "false"
}

type IntNode struct {
	Pos
	Value int64
}

func (n *IntNode) String() string {
	return strconv.FormatInt(n.Value, 10)
}

type FloatNode struct {
	Pos
	Value float64
}

func (n *FloatNode) String() string {
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

type StringNode struct {
	Pos
	Quoted string // e.g. 'hello\tworld'
	Value  string // e.g. hello	world
}

func (s *StringNode) String() string {
	return s.Quoted
}

type ArrayLiteralNode struct {
	Pos
	Items []Node
}

func (n *ArrayLiteralNode) String() string {
	var expr = "["
	for i, item := range n.Items {
		if i > 0 {
			expr += ", "
		}
		expr += item.String()
	}
	return expr + "]"
}

func (n *ArrayLiteralNode) Children() []Node {
	return n.Items
}

// ObjectLiteralNode is a JS style object literal.  Keys holds the property
// names in source order; Values[i] is the value bound to Keys[i].
type ObjectLiteralNode struct {
	Pos
	Keys   []string
	Values []Node
}

func (n *ObjectLiteralNode) String() string {
	if len(n.Keys) == 0 {
		return "{}"
	}
	var expr = "{ "
	for i, key := range n.Keys {
		if i > 0 {
			expr += ", "
		}
		expr += PropKey(key) + ": " + n.Values[i].String()
	}
	return expr + " }"
}

func (n *ObjectLiteralNode) Children() []Node {
	return n.Values
}

// PropKey returns the source form of an object literal key, quoting it when
// it is not a plain identifier.
func PropKey(key string) string {
	for i, r := range key {
		switch {
		case r == '_' || r == '$',
			'a' <= r && r <= 'z',
			'A' <= r && r <= 'Z',
			'0' <= r && r <= '9' && i > 0:
		default:
			return "'" + key + "'"
		}
	}
	if key == "" {
		return "''"
	}
	return key
}

// References ----------

// IdentNode is a bare name resolved against the runtime context at render
// time, e.g. "username".
type IdentNode struct {
	Pos
	Name string
}

func (n *IdentNode) String() string {
	return n.Name
}

// MemberNode is a dotted property access, e.g. "user.profile".
type MemberNode struct {
	Pos
	Object Node
	Key    string
}

func (n *MemberNode) String() string {
	return n.Object.String() + "." + n.Key
}

func (n *MemberNode) Children() []Node {
	return []Node{n.Object}
}

// IndexNode is a bracketed element access, e.g. "users[0]".
type IndexNode struct {
	Pos
	Object Node
	Index  Node
}

func (n *IndexNode) String() string {
	return n.Object.String() + "[" + n.Index.String() + "]"
}

func (n *IndexNode) Children() []Node {
	return []Node{n.Object, n.Index}
}

// CallNode is a function call, e.g. "size(users)".
type CallNode struct {
	Pos
	Callee Node
	Args   []Node
}

func (n *CallNode) String() string {
	var expr = n.Callee.String() + "("
	for i, arg := range n.Args {
		if i > 0 {
			expr += ", "
		}
		expr += arg.String()
	}
	return expr + ")"
}

func (n *CallNode) Children() []Node {
	var nodes = []Node{n.Callee}
	return append(nodes, n.Args...)
}

// Operators ----------

type NotNode struct {
	Pos
	Arg Node
}

func (n *NotNode) String() string {
	return "!" + n.Arg.String()
}

func (n *NotNode) Children() []Node {
	return []Node{n.Arg}
}

type NegateNode struct {
	Pos
	Arg Node
}

func (n *NegateNode) String() string {
	return "-" + n.Arg.String()
}

func (n *NegateNode) Children() []Node {
	return []Node{n.Arg}
}

// BinaryOpNode is embedded by every binary operator node.  Name is the
// operator's source spelling, e.g. "&&".
type BinaryOpNode struct {
	Name string
	Pos
	Arg1, Arg2 Node
}

func (n *BinaryOpNode) String() string {
	return n.Arg1.String() + " " + n.Name + " " + n.Arg2.String()
}

func (n *BinaryOpNode) Children() []Node {
	return []Node{n.Arg1, n.Arg2}
}

type (
	MulNode   struct{ BinaryOpNode }
	DivNode   struct{ BinaryOpNode }
	ModNode   struct{ BinaryOpNode }
	AddNode   struct{ BinaryOpNode }
	SubNode   struct{ BinaryOpNode }
	EqNode    struct{ BinaryOpNode }
	NotEqNode struct{ BinaryOpNode }
	GtNode    struct{ BinaryOpNode }
	GteNode   struct{ BinaryOpNode }
	LtNode    struct{ BinaryOpNode }
	LteNode   struct{ BinaryOpNode }
	OrNode    struct{ BinaryOpNode }
	AndNode   struct{ BinaryOpNode }
	InNode    struct{ BinaryOpNode }
)

type TernNode struct {
	Pos
	Arg1, Arg2, Arg3 Node
}

func (n *TernNode) String() string {
	return n.Arg1.String() + " ? " + n.Arg2.String() + " : " + n.Arg3.String()
}

func (n *TernNode) Children() []Node {
	return []Node{n.Arg1, n.Arg2, n.Arg3}
}

// Tag argument forms ----------

// SequenceNode is a comma separated list of expressions, the form taken by
// multi-argument tag calls such as @component('alert', title = 'Hi').
type SequenceNode struct {
	Pos
	Items []Node
}

func (n *SequenceNode) String() string {
	var expr string
	for i, item := range n.Items {
		if i > 0 {
			expr += ", "
		}
		expr += item.String()
	}
	return expr
}

func (n *SequenceNode) Children() []Node {
	return n.Items
}

// AssignNode is a name = value binding, e.g. the title = 'Hi' element of a
// component tag's argument.
type AssignNode struct {
	Pos
	Name string
	Expr Node
}

func (n *AssignNode) String() string {
	return n.Name + " = " + n.Expr.String()
}

func (n *AssignNode) Children() []Node {
	return []Node{n.Expr}
}
