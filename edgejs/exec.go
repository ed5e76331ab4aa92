package edgejs

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/mbarley/edge/ast"
	"github.com/mbarley/edge/compiler"
	"github.com/mbarley/edge/errortypes"
	"github.com/mbarley/edge/lexer"
	"github.com/mbarley/edge/parse"
	"github.com/mbarley/edge/template"
)

// Write compiles the named template to a javascript function registered
// as edge.templates[name], and writes it to out. The template's layout
// chain is resolved and the merged tree checked first, so Write fails
// with the same positioned errors the native backend reports. Templates
// referenced by string literal must be registered, but their functions
// are emitted separately (see WriteAll).
func Write(out io.Writer, reg *template.Registry, name string) (err error) {
	defer errRecover(&err)
	var canonical = template.Normalize(name)
	var t = reg.Template(canonical)
	if t == nil {
		return errortypes.NewErrFilePosf(errortypes.CodeMissingTemplate, "", 0, 0,
			"template not found: %s", name)
	}
	tree, err := compiler.Resolve(reg, t)
	if err != nil {
		return err
	}
	if err := compiler.Check(tree, t.Filename); err != nil {
		return err
	}
	var s = &state{
		wr:       out,
		reg:      reg,
		filename: t.Filename,
		c:        &compiler.ExprCompiler{Filename: t.Filename},
	}
	s.visitTemplate(canonical, tree)
	return nil
}

// WriteAll compiles every registered template to out, sorted by name.
func WriteAll(out io.Writer, reg *template.Registry) error {
	var header = "// This file was automatically generated from a template registry.\n" +
		"// Please don't edit this file by hand.\n"
	if _, err := io.WriteString(out, header); err != nil {
		return err
	}
	for _, name := range reg.Names() {
		if err := Write(out, reg, name); err != nil {
			return err
		}
	}
	return nil
}

// state holds the state of the code generator while it walks one
// template's token tree.
type state struct {
	wr           io.Writer
	reg          *template.Registry
	filename     string
	c            *compiler.ExprCompiler
	node         *lexer.Token // current token, for error position
	indentLevels int
	bufferName   string // javascript variable the current block appends to
	varnum       int
}

func (s *state) visitTemplate(name string, tree []lexer.Token) {
	s.jsln("")
	s.jsln("edge.templates[", quoteString(name), "] = function (ctx) {")
	s.indentLevels++
	s.jsln("var output = '';")
	s.bufferName = "output"
	s.walkAll(tree)
	s.jsln("return output;")
	s.indentLevels--
	s.jsln("};")
}

func (s *state) walkAll(tokens []lexer.Token) {
	for i := range tokens {
		s.walk(&tokens[i])
	}
}

func (s *state) walk(t *lexer.Token) {
	s.node = t
	switch t.Kind {
	case lexer.Text:
		s.jsln(s.bufferName, " += ", quoteString(t.Text), ";")
	case lexer.Comment:
		// dropped from output
	case lexer.Mustache:
		if t.Raw {
			s.jsln(s.bufferName, " += ctx.stringify(", s.expr(t.Text, t.ArgLoc), ");")
		} else {
			s.jsln(s.bufferName, " += ctx.escape(", s.expr(t.Text, t.ArgLoc), ");")
		}
	case lexer.Tag:
		s.visitTag(t)
	default:
		s.errorf("unexpected %s token", t.Kind)
	}
}

func (s *state) visitTag(t *lexer.Token) {
	switch t.Name {
	case "if":
		s.visitIf(t)
	case "each":
		s.visitEach(t)
	case "include":
		s.visitInclude(t)
	case "component":
		s.visitComponent(t)
	case "set":
		s.visitSet(t)
	case "section":
		s.walkAll(t.Children)
	case "super":
		// merged away during resolution; a leftover emits nothing
	case "debugger":
		s.jsln("debugger;")
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

func (s *state) visitIf(t *lexer.Token) {
	s.indent()
	for i, b := range splitBranches(t, "elseif", "else") {
		if i > 0 {
			s.js(" else ")
		}
		if b.cond.Name != "else" {
			s.js("if (edge.truthy(", s.expr(b.cond.RawArg, b.cond.ArgLoc), ")) ")
		}
		s.js("{\n")
		s.indentLevels++
		s.walkAll(b.body)
		s.indentLevels--
		s.indent()
		s.js("}")
	}
	s.js("\n")
}

func (s *state) visitEach(t *lexer.Token) {
	var bs = splitBranches(t, "else")
	in, ok := s.parseArg(t.RawArg, t.ArgLoc).(*ast.InNode)
	if !ok {
		s.errorf("@each requires a binding of the form 'item in items'")
	}
	var valueName, keyName = eachNames(in)
	if valueName == "" {
		s.errorf("@each binds an identifier or a (value, key) pair of identifiers")
	}
	var n string
	s.indent()
	if len(bs) > 1 {
		n = s.makevar("n")
		s.js("var ", n, " = ")
	}
	s.js("ctx.loop(", s.c.Compile(in.Arg2), ", function (item, meta) {\n")
	s.indentLevels++
	// The iteration frame comes off even when the body throws.
	s.jsln("ctx.newFrame();")
	s.jsln("try {")
	s.indentLevels++
	s.jsln("ctx.setOnFrame(", quoteString(valueName), ", item);")
	if keyName != "" {
		s.jsln("ctx.setOnFrame(", quoteString(keyName), ", meta.key);")
	}
	s.jsln("ctx.setOnFrame('$loop', meta);")
	s.walkAll(bs[0].body)
	s.indentLevels--
	s.jsln("} finally {")
	s.indentLevels++
	s.jsln("ctx.removeFrame();")
	s.indentLevels--
	s.jsln("}")
	s.indentLevels--
	s.jsln("});")
	if len(bs) > 1 {
		s.jsln("if (", n, " === 0) {")
		s.indentLevels++
		s.walkAll(bs[1].body)
		s.indentLevels--
		s.jsln("}")
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

// visitSet emits the literal in source form: evaluating it in
// javascript produces the same property key the native renderer binds.
func (s *state) visitSet(t *lexer.Token) {
	literal, value, hasValue, err := compiler.ParseAsKeyValuePair(
		"set", s.parseArg(t.RawArg, t.ArgLoc), nil, s.c)
	if err != nil {
		panic(err)
	}
	if !hasValue {
		value = "undefined"
	}
	s.jsln("ctx.setOnFrame(", literal, ", ", value, ");")
}

func (s *state) visitInclude(t *lexer.Token) {
	var expr = s.parseArg(t.RawArg, t.ArgLoc)
	if str, ok := expr.(*ast.StringNode); ok {
		s.jsln(s.bufferName, " += edge.render(", quoteString(s.checkRef(str.Value, t)), ", ctx);")
		return
	}
	s.jsln(s.bufferName, " += edge.render(edge.name(", s.c.Compile(expr), "), ctx);")
}

func (s *state) visitComponent(t *lexer.Token) {
	var expr = s.parseArg(t.RawArg, t.ArgLoc)
	nameJS, propsJS := compiler.ParseSequenceExpression(expr, s.c)
	var nameArg = expr
	if seq, ok := expr.(*ast.SequenceNode); ok {
		nameArg = seq.Items[0]
	}
	var propsVar = s.makevar("props")
	var slotsVar = s.makevar("slots")
	s.jsln("var ", propsVar, " = ", propsJS, ";")
	s.jsln("var ", slotsVar, " = {};")

	// Slot bodies run against the caller's context; the component sees
	// only their finished output.  Content outside any @slot forms the
	// main slot, unless @slot('main') names it explicitly, in which
	// case loose content is dropped.
	var explicitMain bool
	var main []*lexer.Token
	for i := range t.Children {
		var c = &t.Children[i]
		if c.Kind == lexer.Tag && c.Name == "slot" {
			if s.visitSlot(c, slotsVar, propsVar) == "main" {
				explicitMain = true
			}
		} else {
			main = append(main, c)
		}
	}
	if !explicitMain {
		s.visitSlotBody(slotsVar, "'main'", "", propsVar, main)
	}

	if str, ok := nameArg.(*ast.StringNode); ok {
		nameJS = quoteString(s.checkRef(str.Value, t))
	} else {
		nameJS = "edge.name(" + nameJS + ")"
	}
	s.jsln(s.bufferName, " += edge.component(ctx, ", nameJS, ", ", propsVar, ", ", slotsVar, ");")
}

// visitSlot emits one named slot body and returns the slot's name, so
// the caller can tell whether 'main' was named explicitly.
func (s *state) visitSlot(t *lexer.Token, slotsVar, propsVar string) string {
	s.node = t
	var expr = s.parseArg(t.RawArg, t.ArgLoc)
	literal, _, _, err := compiler.ParseAsKeyValuePair(
		"slot", expr, []ast.Kind{ast.KindIdentifier}, s.c)
	if err != nil {
		panic(err)
	}
	var alias string
	var nameNode = expr
	if seq, ok := expr.(*ast.SequenceNode); ok {
		nameNode = seq.Items[0]
		if ident, ok := seq.Items[1].(*ast.IdentNode); ok {
			alias = ident.Name
		}
	}
	s.visitSlotBody(slotsVar, literal, alias, propsVar, childPtrs(t))
	if str, ok := nameNode.(*ast.StringNode); ok {
		return str.Value
	}
	return nameNode.String()
}

// visitSlotBody renders a slot's tokens into a fresh buffer variable
// and stores the result under keyJS, marked safe so the component's
// interpolation does not escape it again.  The body's frame comes off
// on every exit path, throwing included.
func (s *state) visitSlotBody(slotsVar, keyJS, alias, propsVar string, tokens []*lexer.Token) {
	var oldBuffer = s.bufferName
	s.bufferName = s.makevar("output")
	s.jsln("ctx.newFrame();")
	s.jsln("var ", s.bufferName, " = '';")
	s.jsln("try {")
	s.indentLevels++
	if alias != "" {
		s.jsln("ctx.setOnFrame(", quoteString(alias), ", ", propsVar, ");")
	}
	for _, c := range tokens {
		s.walk(c)
	}
	s.indentLevels--
	s.jsln("} finally {")
	s.indentLevels++
	s.jsln("ctx.removeFrame();")
	s.indentLevels--
	s.jsln("}")
	s.jsln(slotsVar, "[", keyJS, "] = edge.safe(", s.bufferName, ");")
	s.bufferName = oldBuffer
}

func childPtrs(t *lexer.Token) []*lexer.Token {
	var out = make([]*lexer.Token, len(t.Children))
	for i := range t.Children {
		out[i] = &t.Children[i]
	}
	return out
}

// checkRef verifies a statically referenced template is registered and
// returns its canonical name.  A missing target fails the compile even
// if the reference sits behind a condition, matching the native
// backend.
func (s *state) checkRef(ref string, t *lexer.Token) string {
	var name = template.Normalize(ref)
	if s.reg.Template(name) == nil {
		panic(errortypes.NewErrFilePosf(errortypes.CodeMissingTemplate, s.filename,
			t.Loc.Line, t.Loc.Col, "unknown template %q", ref))
	}
	return name
}

// expr parses an expression source fragment and compiles it to a
// javascript fragment in one step.
func (s *state) expr(src string, loc lexer.Location) string {
	return s.c.Compile(s.parseArg(src, loc))
}

func (s *state) parseArg(src string, loc lexer.Location) ast.Node {
	node, err := parse.ExprAt(src, s.filename, loc.Line, loc.Col)
	if err != nil {
		panic(err)
	}
	return node
}

func (s *state) makevar(prefix string) string {
	s.varnum++
	return fmt.Sprintf("%s_%d", prefix, s.varnum)
}

// js writes the given strings to the writer.
func (s *state) js(args ...string) {
	for _, arg := range args {
		if _, err := io.WriteString(s.wr, arg); err != nil {
			s.errorf("%v", err)
		}
	}
}

// jsln writes the given strings on a new line at the current
// indentation.
func (s *state) jsln(args ...string) {
	s.indent()
	s.js(args...)
	s.js("\n")
}

func (s *state) indent() {
	s.js(strings.Repeat("  ", s.indentLevels))
}

func (s *state) loc() lexer.Location {
	if s.node != nil {
		return s.node.Loc
	}
	return lexer.Location{File: s.filename}
}

// errorf formats the error and terminates compilation.
func (s *state) errorf(format string, args ...interface{}) {
	panic(fmt.Errorf("%s: %s", s.loc(), fmt.Sprintf(format, args...)))
}

// errRecover is the handler that turns panics into returns from Write.
// Positioned errors pass through unchanged.
func errRecover(errp *error) {
	if e := recover(); e != nil {
		if err, ok := e.(error); ok {
			*errp = err
			return
		}
		*errp = fmt.Errorf("%v", e)
	}
}

// quoteString returns s as a single-quoted javascript string literal.
func quoteString(s string) string {
	var buf bytes.Buffer
	buf.WriteByte('\'')
	for _, ch := range s {
		switch ch {
		case '\\':
			buf.WriteString(`\\`)
		case '\'':
			buf.WriteString(`\'`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			buf.WriteRune(ch)
		}
	}
	buf.WriteByte('\'')
	return buf.String()
}
