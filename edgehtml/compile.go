// Package edgehtml renders templates to HTML natively, walking the
// merged token tree against a runtime.Context.  It is the reference
// backend: the JS backend in edgejs compiles the same trees to
// functions that must produce identical output.
package edgehtml

import (
	"bytes"
	"strings"

	"github.com/mbarley/edge/ast"
	"github.com/mbarley/edge/compiler"
	"github.com/mbarley/edge/errortypes"
	"github.com/mbarley/edge/lexer"
	"github.com/mbarley/edge/parse"
	"github.com/mbarley/edge/runtime"
	"github.com/mbarley/edge/template"
)

// RenderFn renders one compiled template against a Context.  A RenderFn
// may be called concurrently as long as each call gets its own Context.
type RenderFn func(ctx *runtime.Context) (string, error)

// Compile resolves the named template's layout chain, checks the merged
// tree, parses every expression in it, and returns a function that
// renders it.  Templates referenced by name from @include and
// @component are compiled along with it; references computed at render
// time are compiled on demand.
//
// All compilation errors carry an errortypes code.  Compile works from
// the Registry's current contents; recompile after replacing a
// template.
func Compile(reg *template.Registry, name string) (RenderFn, error) {
	prog, err := compile(reg, template.Normalize(name), map[string]*program{})
	if err != nil {
		return nil, err
	}
	return func(ctx *runtime.Context) (out string, err error) {
		var buf bytes.Buffer
		var s = &state{wr: &buf, prog: prog, ctx: ctx}
		defer s.errRecover(&err)
		s.walkAll(prog.tree)
		return buf.String(), nil
	}, nil
}

// program is one compiled template: its merged token tree, every
// expression in the tree pre-parsed, and the programs of the templates
// it references by name.  After compilation a program is read-only.
type program struct {
	name     string
	filename string
	reg      *template.Registry
	tree     []lexer.Token
	exprs    map[*lexer.Token]ast.Node
	subs     map[string]*program
}

func compile(reg *template.Registry, name string, seen map[string]*program) (*program, error) {
	if prog, ok := seen[name]; ok {
		return prog, nil
	}
	var t = reg.Template(name)
	if t == nil {
		return nil, errortypes.NewErrFilePosf(errortypes.CodeMissingTemplate, "", 0, 0,
			"template not found: %s", name)
	}
	tree, err := compiler.Resolve(reg, t)
	if err != nil {
		return nil, err
	}
	if err := compiler.Check(tree, t.Filename); err != nil {
		return nil, err
	}
	var prog = &program{
		name:     name,
		filename: t.Filename,
		reg:      reg,
		tree:     tree,
		exprs:    make(map[*lexer.Token]ast.Node),
		subs:     make(map[string]*program),
	}
	// Register before descending so that recursive references (a
	// partial including itself under an @if guard) close on this
	// program instead of recursing forever.
	seen[name] = prog
	if err := prog.parseAll(tree, seen); err != nil {
		return nil, err
	}
	return prog, nil
}

// parseAll walks the tree parsing each expression into p.exprs, keyed
// by token pointer.  The walker looks expressions up by the same
// pointers, so the tree must not be copied after this.
func (p *program) parseAll(tokens []lexer.Token, seen map[string]*program) error {
	for i := range tokens {
		var t = &tokens[i]
		switch t.Kind {
		case lexer.Mustache:
			expr, err := parse.ExprAt(t.Text, p.filename, t.ArgLoc.Line, t.ArgLoc.Col)
			if err != nil {
				return err
			}
			p.exprs[t] = expr
		case lexer.Tag:
			if err := p.parseTag(t, seen); err != nil {
				return err
			}
			if err := p.parseAll(t.Children, seen); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *program) parseTag(t *lexer.Token, seen map[string]*program) error {
	if strings.TrimSpace(t.RawArg) == "" {
		return nil
	}
	expr, err := parse.ExprAt(t.RawArg, p.filename, t.ArgLoc.Line, t.ArgLoc.Col)
	if err != nil {
		return err
	}
	p.exprs[t] = expr

	var c = &compiler.ExprCompiler{Filename: p.filename}
	switch t.Name {
	case "set":
		_, _, _, err := compiler.ParseAsKeyValuePair("set", expr, nil, c)
		return err
	case "slot":
		_, _, _, err := compiler.ParseAsKeyValuePair("slot", expr, []ast.Kind{ast.KindIdentifier}, c)
		return err
	case "include":
		if str, ok := expr.(*ast.StringNode); ok {
			return p.compileRef(str.Value, t, seen)
		}
	case "component":
		var nameExpr = expr
		if seq, ok := expr.(*ast.SequenceNode); ok {
			nameExpr = seq.Items[0]
		}
		if str, ok := nameExpr.(*ast.StringNode); ok {
			return p.compileRef(str.Value, t, seen)
		}
	}
	return nil
}

// compileRef compiles a template referenced by a string literal.  A
// missing target fails the whole compile, even if the reference sits
// behind a condition.
func (p *program) compileRef(ref string, t *lexer.Token, seen map[string]*program) error {
	var name = template.Normalize(ref)
	if p.reg.Template(name) == nil {
		return errortypes.NewErrFilePosf(errortypes.CodeMissingTemplate, p.filename,
			t.Loc.Line, t.Loc.Col, "unknown template %q", ref)
	}
	sub, err := compile(p.reg, name, seen)
	if err != nil {
		return err
	}
	p.subs[name] = sub
	return nil
}
