package edgehtml

import (
	"bytes"
	"fmt"
	"io"
	"math"
	goruntime "runtime"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/mbarley/edge/ast"
	"github.com/mbarley/edge/data"
	"github.com/mbarley/edge/errortypes"
	"github.com/mbarley/edge/lexer"
	"github.com/mbarley/edge/runtime"
	"github.com/mbarley/edge/template"
)

// state represents the state of one template's execution.  Rendering a
// referenced template gets a fresh state sharing the same writer.
type state struct {
	wr   io.Writer
	prog *program
	ctx  *runtime.Context
	node *lexer.Token // current token, for error position
}

// at marks the state to be on token t, for error reporting.
func (s *state) at(t *lexer.Token) {
	s.node = t
}

func (s *state) loc() lexer.Location {
	if s.node != nil {
		return s.node.Loc
	}
	return lexer.Location{File: s.prog.filename}
}

// errorf formats the error and terminates processing.
func (s *state) errorf(format string, args ...interface{}) {
	panic(fmt.Errorf("%s: %s", s.loc(), fmt.Sprintf(format, args...)))
}

// errRecover is the handler that turns panics into returns from the top
// level of rendering.
func (s *state) errRecover(errp *error) {
	e := recover()
	if e != nil {
		switch e := e.(type) {
		case goruntime.Error:
			*errp = fmt.Errorf("%s: render error: %v\n%v", s.loc(), e, string(debug.Stack()))
		case error:
			*errp = e
		default:
			*errp = fmt.Errorf("%s: render error: %v", s.loc(), e)
		}
	}
}

func (s *state) walkAll(tokens []lexer.Token) {
	for i := range tokens {
		s.walk(&tokens[i])
	}
}

func (s *state) walk(t *lexer.Token) {
	s.at(t)
	switch t.Kind {
	case lexer.Text:
		s.write(t.Text)
	case lexer.Comment:
		// dropped from output
	case lexer.Mustache:
		var v = s.eval(s.expr(t))
		if t.Raw {
			s.write(s.ctx.Stringify(v))
		} else {
			s.write(s.ctx.Escape(v))
		}
	case lexer.Tag:
		s.execTag(t)
	default:
		s.errorf("unexpected %s token", t.Kind)
	}
}

func (s *state) execTag(t *lexer.Token) {
	switch t.Name {
	case "if":
		s.execIf(t)
	case "each":
		s.execEach(t)
	case "include":
		s.execInclude(t)
	case "component":
		s.execComponent(t)
	case "set":
		s.execSet(t)
	case "section":
		s.walkAll(t.Children)
	case "super", "debugger":
		// markers with no effect in this backend
	case "slot":
		s.errorf("@slot outside of a component body")
	default:
		s.errorf("unknown tag @%s", t.Name)
	}
}

// branch is one arm of an @if/@elseif/@else chain or the @each/@else
// pair: the tag guarding it and the tokens it renders.
type branch struct {
	cond *lexer.Token
	body []lexer.Token
}

// splitBranches splits a block tag's children at its marker tags.  The
// first branch is guarded by the block tag itself.
func splitBranches(t *lexer.Token, markers ...string) []branch {
	var bs = []branch{{cond: t}}
	var start = 0
	for i := range t.Children {
		var c = &t.Children[i]
		if c.Kind != lexer.Tag || !isMarker(c.Name, markers) {
			continue
		}
		bs[len(bs)-1].body = t.Children[start:i]
		bs = append(bs, branch{cond: c})
		start = i + 1
	}
	bs[len(bs)-1].body = t.Children[start:]
	return bs
}

func isMarker(name string, markers []string) bool {
	for _, m := range markers {
		if name == m {
			return true
		}
	}
	return false
}

func (s *state) execIf(t *lexer.Token) {
	for _, b := range splitBranches(t, "elseif", "else") {
		if b.cond.Name == "else" || s.eval(s.expr(b.cond)).Truthy() {
			s.walkAll(b.body)
			return
		}
	}
}

func (s *state) execEach(t *lexer.Token) {
	var bs = splitBranches(t, "else")
	in, ok := s.expr(t).(*ast.InNode)
	if !ok {
		s.errorf("@each requires a binding of the form 'item in items'")
	}
	var valueName, keyName = eachNames(in)
	if valueName == "" {
		s.errorf("@each binds an identifier or a (value, key) pair of identifiers")
	}
	var iterated = false
	s.ctx.Loop(s.eval(in.Arg2), func(item data.Value, meta runtime.LoopMeta) {
		iterated = true
		s.ctx.NewFrame()
		defer s.ctx.RemoveFrame()
		s.ctx.SetOnFrame(valueName, item)
		if keyName != "" {
			s.ctx.SetOnFrame(keyName, meta.Key)
		}
		s.ctx.SetOnFrame("$loop", meta.Map())
		s.walkAll(bs[0].body)
	})
	if !iterated && len(bs) > 1 {
		s.walkAll(bs[1].body)
	}
}

func eachNames(in *ast.InNode) (value, key string) {
	switch left := in.Arg1.(type) {
	case *ast.IdentNode:
		return left.Name, ""
	case *ast.SequenceNode:
		v, _ := left.Items[0].(*ast.IdentNode)
		k, _ := left.Items[1].(*ast.IdentNode)
		if v != nil && k != nil {
			return v.Name, k.Name
		}
	}
	return "", ""
}

func (s *state) execSet(t *lexer.Token) {
	var key ast.Node
	var value data.Value = data.Undefined{}
	switch expr := s.expr(t).(type) {
	case *ast.SequenceNode:
		key = expr.Items[0]
		value = s.eval(expr.Items[1])
	default:
		key = expr
	}
	s.ctx.SetOnFrame(literalText(key), value)
}

// literalText returns the binding name a literal denotes: a string's
// contents, any other literal's source form.
func literalText(node ast.Node) string {
	if str, ok := node.(*ast.StringNode); ok {
		return str.Value
	}
	return node.String()
}

func (s *state) execInclude(t *lexer.Token) {
	var ref = s.eval(s.expr(t)).String()
	var sub = s.subProgram(t, ref)
	var s2 = &state{wr: s.wr, prog: sub, ctx: s.ctx}
	s2.walkAll(sub.tree)
}

func (s *state) execComponent(t *lexer.Token) {
	var nameExpr = s.expr(t)
	var items []ast.Node
	if seq, ok := nameExpr.(*ast.SequenceNode); ok {
		nameExpr, items = seq.Items[0], seq.Items[1:]
	}
	var props = make(data.Map)
	for _, item := range items {
		switch item := item.(type) {
		case *ast.ObjectLiteralNode:
			for i, key := range item.Keys {
				props[key] = s.eval(item.Values[i])
			}
		case *ast.AssignNode:
			props[item.Name] = s.eval(item.Expr)
		}
	}
	var sub = s.subProgram(t, s.eval(nameExpr).String())

	// Slot bodies render now, against the caller's scope; the
	// component sees only their finished output.  Content outside any
	// @slot forms the main slot, unless @slot('main') names it
	// explicitly, in which case loose content is dropped.
	var slots = data.Map{}
	var main []*lexer.Token
	for i := range t.Children {
		var c = &t.Children[i]
		if c.Kind == lexer.Tag && c.Name == "slot" {
			var name, alias = s.slotHeader(c)
			slots[name] = data.SafeString(s.renderBlock(childPtrs(c), alias, props))
		} else {
			main = append(main, c)
		}
	}
	if _, ok := slots["main"]; !ok {
		slots["main"] = data.SafeString(s.renderBlock(main, "", nil))
	}

	props["$slots"] = slots
	var ctx = runtime.NewContext(props, s.ctx.Globals())
	var s2 = &state{wr: s.wr, prog: sub, ctx: ctx}
	s2.walkAll(sub.tree)
}

func (s *state) slotHeader(t *lexer.Token) (name, alias string) {
	s.at(t)
	switch expr := s.expr(t).(type) {
	case *ast.SequenceNode:
		if ident, ok := expr.Items[1].(*ast.IdentNode); ok {
			alias = ident.Name
		}
		return literalText(expr.Items[0]), alias
	default:
		return literalText(expr), ""
	}
}

// renderBlock renders the given tokens to a temporary buffer and
// returns the result.  The block gets its own frame, removed on every
// exit path, optionally carrying one binding.
func (s *state) renderBlock(tokens []*lexer.Token, bindName string, bindValue data.Value) string {
	var buf bytes.Buffer
	var origWriter = s.wr
	s.wr = &buf
	defer func() { s.wr = origWriter }()
	s.ctx.NewFrame()
	defer s.ctx.RemoveFrame()
	if bindName != "" {
		s.ctx.SetOnFrame(bindName, bindValue)
	}
	for _, t := range tokens {
		s.walk(t)
	}
	return buf.String()
}

func childPtrs(t *lexer.Token) []*lexer.Token {
	var out = make([]*lexer.Token, len(t.Children))
	for i := range t.Children {
		out[i] = &t.Children[i]
	}
	return out
}

// subProgram returns the compiled program for a referenced template.
// References computed at render time are compiled here on demand.
func (s *state) subProgram(t *lexer.Token, ref string) *program {
	var name = template.Normalize(ref)
	if sub, ok := s.prog.subs[name]; ok {
		return sub
	}
	if s.prog.reg.Template(name) == nil {
		panic(errortypes.NewErrFilePosf(errortypes.CodeMissingTemplate, s.prog.filename,
			t.Loc.Line, t.Loc.Col, "unknown template %q", ref))
	}
	sub, err := compile(s.prog.reg, name, map[string]*program{})
	if err != nil {
		panic(err)
	}
	return sub
}

func (s *state) expr(t *lexer.Token) ast.Node {
	var expr, ok = s.prog.exprs[t]
	if !ok {
		s.errorf("internal: no compiled expression for %s", t)
	}
	return expr
}

func (s *state) write(text string) {
	if _, err := io.WriteString(s.wr, text); err != nil {
		s.errorf("%s", err)
	}
}

// eval evaluates an expression to a value.  Its semantics track what
// the generated JS does with the same tree: arithmetic in float64,
// strict equality, value-returning and/or, silent Undefined for
// anything unresolvable.
func (s *state) eval(node ast.Node) data.Value {
	switch node := node.(type) {

	// Values ----------
	case *ast.NullNode:
		return data.Null{}
	case *ast.UndefinedNode:
		return data.Undefined{}
	case *ast.BoolNode:
		return data.Bool(node.True)
	case *ast.IntNode:
		return data.Int(node.Value)
	case *ast.FloatNode:
		return data.Float(node.Value)
	case *ast.StringNode:
		return data.String(node.Value)
	case *ast.ArrayLiteralNode:
		var list = make(data.List, len(node.Items))
		for i, item := range node.Items {
			list[i] = s.eval(item)
		}
		return list
	case *ast.ObjectLiteralNode:
		var m = make(data.Map, len(node.Keys))
		for i, key := range node.Keys {
			m[key] = s.eval(node.Values[i])
		}
		return m

	// References ----------
	case *ast.IdentNode:
		return s.ctx.Resolve(node.Name)
	case *ast.MemberNode:
		return access(s.eval(node.Object), data.String(node.Key))
	case *ast.IndexNode:
		return access(s.eval(node.Object), s.eval(node.Index))
	case *ast.CallNode:
		return s.call(node)

	// Operators ----------
	case *ast.NotNode:
		return data.Bool(!s.eval(node.Arg).Truthy())
	case *ast.NegateNode:
		return data.Float(-toFloat(s.eval(node.Arg)))
	case *ast.AddNode:
		return add(s.eval(node.Arg1), s.eval(node.Arg2))
	case *ast.SubNode:
		return data.Float(toFloat(s.eval(node.Arg1)) - toFloat(s.eval(node.Arg2)))
	case *ast.MulNode:
		return data.Float(toFloat(s.eval(node.Arg1)) * toFloat(s.eval(node.Arg2)))
	case *ast.DivNode:
		return data.Float(toFloat(s.eval(node.Arg1)) / toFloat(s.eval(node.Arg2)))
	case *ast.ModNode:
		return data.Float(math.Mod(toFloat(s.eval(node.Arg1)), toFloat(s.eval(node.Arg2))))
	case *ast.EqNode:
		return data.Bool(s.eval(node.Arg1).Equals(s.eval(node.Arg2)))
	case *ast.NotEqNode:
		return data.Bool(!s.eval(node.Arg1).Equals(s.eval(node.Arg2)))
	case *ast.LtNode:
		var cmp, ok = compareValues(s.eval(node.Arg1), s.eval(node.Arg2))
		return data.Bool(ok && cmp < 0)
	case *ast.LteNode:
		var cmp, ok = compareValues(s.eval(node.Arg1), s.eval(node.Arg2))
		return data.Bool(ok && cmp <= 0)
	case *ast.GtNode:
		var cmp, ok = compareValues(s.eval(node.Arg1), s.eval(node.Arg2))
		return data.Bool(ok && cmp > 0)
	case *ast.GteNode:
		var cmp, ok = compareValues(s.eval(node.Arg1), s.eval(node.Arg2))
		return data.Bool(ok && cmp >= 0)
	case *ast.AndNode:
		var arg1 = s.eval(node.Arg1)
		if !arg1.Truthy() {
			return arg1
		}
		return s.eval(node.Arg2)
	case *ast.OrNode:
		var arg1 = s.eval(node.Arg1)
		if arg1.Truthy() {
			return arg1
		}
		return s.eval(node.Arg2)
	case *ast.InNode:
		return data.Bool(contains(s.eval(node.Arg1), s.eval(node.Arg2)))
	case *ast.TernNode:
		if s.eval(node.Arg1).Truthy() {
			return s.eval(node.Arg2)
		}
		return s.eval(node.Arg3)
	}
	s.errorf("cannot evaluate a %s to a value", ast.KindOf(node))
	return data.Undefined{}
}

func (s *state) call(node *ast.CallNode) data.Value {
	ident, ok := node.Callee.(*ast.IdentNode)
	if !ok {
		// Member and computed callees are not callable; they quietly
		// produce no value, like an unbound name.
		return data.Undefined{}
	}
	if _, unbound := s.ctx.Resolve(ident.Name).(data.Undefined); !unbound {
		// A data binding shadows the builtin of the same name, and
		// bindings are not callable.
		return data.Undefined{}
	}
	fn, ok := Builtins[ident.Name]
	if !ok || !validArgLength(fn, len(node.Args)) {
		return data.Undefined{}
	}
	var args = make([]data.Value, len(node.Args))
	for i, arg := range node.Args {
		args[i] = s.eval(arg)
	}
	return fn.Apply(args)
}

func validArgLength(fn Builtin, n int) bool {
	for _, valid := range fn.ValidArgLengths {
		if n == valid {
			return true
		}
	}
	return false
}

// access resolves a property the way the generated JS does: arrays by
// integer index, objects by key, strings by character, with a length
// property on arrays and strings.  Anything unresolvable is Undefined.
func access(obj, key data.Value) data.Value {
	switch obj := obj.(type) {
	case data.List:
		if key.String() == "length" {
			return data.Int(len(obj))
		}
		if i, ok := toIndex(key); ok {
			return obj.Index(i)
		}
	case data.Map:
		return obj.Key(key.String())
	case data.String:
		return stringAccess(string(obj), key)
	case data.SafeString:
		return stringAccess(string(obj), key)
	}
	return data.Undefined{}
}

func stringAccess(str string, key data.Value) data.Value {
	if key.String() == "length" {
		return data.Int(len([]rune(str)))
	}
	if i, ok := toIndex(key); ok {
		var runes = []rune(str)
		if i >= 0 && i < len(runes) {
			return data.String(string(runes[i]))
		}
	}
	return data.Undefined{}
}

func toIndex(key data.Value) (int, bool) {
	switch key := key.(type) {
	case data.Int:
		return int(key), true
	case data.Float:
		if float64(key) == math.Trunc(float64(key)) {
			return int(key), true
		}
	case data.String, data.SafeString:
		if i, err := strconv.Atoi(key.String()); err == nil {
			return i, true
		}
	}
	return 0, false
}

// toFloat coerces a value to a number the way JS does for arithmetic.
func toFloat(v data.Value) float64 {
	switch v := v.(type) {
	case data.Bool:
		if v {
			return 1
		}
		return 0
	case data.Int:
		return float64(v)
	case data.Float:
		return float64(v)
	case data.Null:
		return 0
	case data.String, data.SafeString, data.List, data.Map:
		return stringToFloat(v.String())
	}
	return math.NaN() // Undefined
}

func stringToFloat(str string) float64 {
	str = strings.TrimSpace(str)
	if str == "" {
		return 0
	}
	if f, err := strconv.ParseFloat(str, 64); err == nil {
		return f
	}
	return math.NaN()
}

// add implements the + operator: string concatenation when either side
// is text after primitive coercion, numeric addition otherwise.  Lists
// and maps count as text because JS coerces objects to strings.
func add(a, b data.Value) data.Value {
	if isConcat(a) || isConcat(b) {
		return data.String(a.String() + b.String())
	}
	return data.Float(toFloat(a) + toFloat(b))
}

func isConcat(v data.Value) bool {
	switch v.(type) {
	case data.String, data.SafeString, data.List, data.Map:
		return true
	}
	return false
}

// compareValues orders two values for the relational operators: two
// strings compare lexically, anything else numerically.  ok is false
// when either side coerces to NaN, which makes every comparison false.
func compareValues(a, b data.Value) (cmp int, ok bool) {
	if isText(a) && isText(b) {
		return strings.Compare(a.String(), b.String()), true
	}
	var x, y = toFloat(a), toFloat(b)
	if math.IsNaN(x) || math.IsNaN(y) {
		return 0, false
	}
	switch {
	case x < y:
		return -1, true
	case x > y:
		return 1, true
	}
	return 0, true
}

func isText(v data.Value) bool {
	switch v.(type) {
	case data.String, data.SafeString:
		return true
	}
	return false
}

// contains implements the in operator: key presence for maps, a valid
// index for lists, false for everything else.
func contains(key, coll data.Value) bool {
	switch coll := coll.(type) {
	case data.Map:
		var _, ok = coll[key.String()]
		return ok
	case data.List:
		var n = toFloat(key)
		return n == math.Trunc(n) && n >= 0 && int(n) < len(coll)
	}
	return false
}
