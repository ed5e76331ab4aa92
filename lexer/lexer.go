// Package lexer breaks template source text into a token tree.
//
// Tags (@if, @section, ...) claim the whole line they open; mustaches
// ({{ expr }}, raw {{{ expr }}}) and comments ({{-- ... --}}) sit inline
// within text.  The scanner produces a flat token stream via a state
// machine in the manner of text/template's lexer; Tokenize then folds
// each block tag's body into its Children.
package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/mbarley/edge/errortypes"
)

// Tokenize scans template source into its token tree.  Block-tag bodies
// hang off their tag's Children; an EndTag token never appears in the
// result.  filename is carried into every Location for diagnostics.
func Tokenize(source, filename string) ([]Token, error) {
	l := &lexer{name: filename, input: source}
	l.run()
	if l.err != nil {
		return nil, l.err
	}
	return fold(l.tokens)
}

// fold assembles the flat scan into a tree, attaching each block tag's
// body to its Children and checking that every block is closed.
func fold(flat []Token) ([]Token, error) {
	type openBlock struct {
		tag  Token
		body []Token
	}
	var (
		root  []Token
		stack []openBlock
	)
	add := func(t Token) {
		if len(stack) == 0 {
			root = append(root, t)
		} else {
			stack[len(stack)-1].body = append(stack[len(stack)-1].body, t)
		}
	}
	for _, t := range flat {
		switch {
		case t.Kind == Tag && tagDefs[t.Name].block:
			stack = append(stack, openBlock{tag: t})
		case t.Kind == EndTag:
			if len(stack) == 0 {
				return nil, errAt(errortypes.CodeUnmatchedEndTag, t.Loc, "unexpected @end%s", t.Name)
			}
			top := stack[len(stack)-1]
			if top.tag.Name != t.Name {
				return nil, errAt(errortypes.CodeUnmatchedEndTag, t.Loc, "unexpected @end%s: @%s is still open", t.Name, top.tag.Name)
			}
			stack = stack[:len(stack)-1]
			done := top.tag
			done.Children = top.body
			add(done)
		default:
			add(t)
		}
	}
	if len(stack) > 0 {
		top := stack[len(stack)-1].tag
		return nil, errAt(errortypes.CodeUnclosedTag, top.Loc, "unclosed @%s: missing @end%s", top.Name, top.Name)
	}
	return root, nil
}

func errAt(code string, loc Location, format string, args ...interface{}) error {
	return errortypes.NewErrFilePosf(code, loc.File, loc.Line, loc.Col, format, args...)
}

// Scanner -------------------------------------------------------------------

const eof = -1

// stateFn represents the state of the scanner as a function that returns
// the next state.
type stateFn func(*lexer) stateFn

// lexer holds the state of the template scanner.
type lexer struct {
	name   string // filename, used in Locations
	input  string
	state  stateFn
	pos    int // current position in the input
	start  int // start of the pending text token
	width  int // width of the last rune read
	tokens []Token
	err    error
}

func (l *lexer) run() {
	for l.state = lexText; l.state != nil; {
		l.state = l.state(l)
	}
}

// lineKind is what classifyLine decides about the line ahead.
type lineKind int

const (
	lineText lineKind = iota
	lineTag
	lineEndTag
	lineEscapedTag
)

// lexText scans literal template text, handing off to the tag and
// mustache states at their openers.
func lexText(l *lexer) stateFn {
	for {
		if l.atLineStart() {
			switch l.classifyLine() {
			case lineTag:
				l.emitText()
				return lexTagLine
			case lineEndTag:
				l.emitText()
				return lexEndTagLine
			case lineEscapedTag:
				l.emitText()
				return lexEscapedTagLine
			}
		}
		if strings.HasPrefix(l.input[l.pos:], "{{") {
			l.emitText()
			return lexMustache
		}
		switch r := l.next(); {
		case r == eof:
			l.emitText()
			return nil
		case r == '@' && strings.HasPrefix(l.input[l.pos:], "{{"):
			// @{{ emits a literal mustache: drop the @, keep the
			// braces as text, and skip mustache detection for them.
			l.backup()
			l.emitText()
			l.next()
			l.ignore()
			l.next()
			l.next()
		}
	}
}

// classifyLine looks ahead from the current position (a line start) and
// decides whether the line opens a tag.  Nothing is consumed.
func (l *lexer) classifyLine() lineKind {
	i := l.pos
	for i < len(l.input) && (l.input[i] == ' ' || l.input[i] == '\t') {
		i++
	}
	if i >= len(l.input) || l.input[i] != '@' {
		return lineText
	}
	i++
	escaped := i < len(l.input) && l.input[i] == '@'
	if escaped {
		i++
	}
	j := i
	for j < len(l.input) && isTagNameRune(rune(l.input[j])) {
		j++
	}
	name := l.input[i:j]
	if name == "" || !tagNameBoundary(l.input, j) {
		return lineText
	}
	if strings.HasPrefix(name, "end") {
		if def, ok := tagDefs[name[len("end"):]]; ok && def.block {
			if escaped {
				return lineEscapedTag
			}
			return lineEndTag
		}
	}
	if _, ok := tagDefs[name]; !ok {
		return lineText
	}
	if escaped {
		return lineEscapedTag
	}
	return lineTag
}

// lexTagLine scans one @tag line: optional indentation, the tag name, a
// parenthesized argument if the tag takes one.  Tags own their whole
// line; anything after the argument is discarded.
func lexTagLine(l *lexer) stateFn {
	l.acceptRun(" \t")
	l.ignore()
	tagPos := l.pos
	l.next() // the @
	name := l.scanTagName()
	tok := Token{Kind: Tag, Loc: l.locAt(tagPos), Name: name}
	if tagDefs[name].seekable && l.peek() == '(' {
		l.next()
		argPos := l.pos
		arg, ok := l.scanParens()
		if !ok {
			return l.errorf(tagPos, errortypes.CodeUnclosedTag, "unclosed argument list on @%s", name)
		}
		tok.RawArg = arg
		tok.ArgLoc = l.locAt(argPos)
	}
	l.discardLine()
	l.emit(tok)
	return lexText
}

func lexEndTagLine(l *lexer) stateFn {
	l.acceptRun(" \t")
	l.ignore()
	tagPos := l.pos
	l.next() // the @
	name := l.scanTagName()
	l.discardLine()
	l.emit(Token{Kind: EndTag, Loc: l.locAt(tagPos), Name: name[len("end"):]})
	return lexText
}

// lexEscapedTagLine handles @@tag lines, which render as literal text
// minus the escaping @.
func lexEscapedTagLine(l *lexer) stateFn {
	l.acceptRun(" \t")
	l.emitText() // indentation stays literal
	l.next()     // the escaping @
	l.ignore()
	return lexText
}

// lexMustache scans {{ expr }}, {{{ expr }}} and {{-- comment --}},
// all of which may span lines.
func lexMustache(l *lexer) stateFn {
	mPos := l.pos
	l.next()
	l.next() // the {{
	if strings.HasPrefix(l.input[l.pos:], "--") {
		l.next()
		l.next()
		end := strings.Index(l.input[l.pos:], "--}}")
		if end < 0 {
			return l.errorf(mPos, errortypes.CodeUnclosedMustache, "unclosed comment")
		}
		body := l.input[l.pos : l.pos+end]
		l.pos += end + len("--}}")
		l.emit(Token{Kind: Comment, Loc: l.locAt(mPos), Text: body})
		return lexText
	}
	var raw bool
	if l.peek() == '{' {
		l.next()
		raw = true
	}
	argPos := l.pos
	body, ok := l.scanMustacheBody(raw)
	if !ok {
		if raw {
			return l.errorf(mPos, errortypes.CodeUnclosedMustache, "unclosed {{{")
		}
		return l.errorf(mPos, errortypes.CodeUnclosedMustache, "unclosed {{")
	}
	l.emit(Token{Kind: Mustache, Loc: l.locAt(mPos), Text: body, Raw: raw, ArgLoc: l.locAt(argPos)})
	return lexText
}

// scanMustacheBody consumes up to and including the closing braces,
// tracking brace depth so object literals survive, and skipping quoted
// strings.  It returns the expression source between the delimiters.
func (l *lexer) scanMustacheBody(raw bool) (string, bool) {
	var (
		depth = 0
		start = l.pos
	)
	for {
		switch r := l.next(); {
		case r == eof:
			return "", false
		case r == '\'' || r == '"':
			if !l.scanString(r) {
				return "", false
			}
		case r == '{':
			depth++
		case r == '}':
			if depth > 0 {
				depth--
			} else if raw {
				if strings.HasPrefix(l.input[l.pos:], "}}") {
					body := l.input[start : l.pos-1]
					l.next()
					l.next()
					return body, true
				}
			} else if strings.HasPrefix(l.input[l.pos:], "}") {
				body := l.input[start : l.pos-1]
				l.next()
				return body, true
			}
			// A lone } at depth 0 is expression text.
		}
	}
}

// scanParens consumes up to and including the parenthesis matching the
// one just read, skipping quoted strings.  It returns the argument text
// between the parentheses.
func (l *lexer) scanParens() (string, bool) {
	var (
		depth = 0
		start = l.pos
	)
	for {
		switch r := l.next(); {
		case r == eof:
			return "", false
		case r == '\'' || r == '"':
			if !l.scanString(r) {
				return "", false
			}
		case r == '(':
			depth++
		case r == ')':
			if depth == 0 {
				return l.input[start : l.pos-1], true
			}
			depth--
		}
	}
}

// scanString consumes a quoted string up to its closing quote, honoring
// backslash escapes.  The opening quote has already been read.
func (l *lexer) scanString(quote rune) bool {
	for {
		switch l.next() {
		case eof:
			return false
		case '\\':
			l.next()
		case quote:
			return true
		}
	}
}

// scanTagName consumes the letters of a tag name.
func (l *lexer) scanTagName() string {
	start := l.pos
	for {
		if r := l.next(); r == eof || !isTagNameRune(r) {
			l.backup()
			return l.input[start:l.pos]
		}
	}
}

// discardLine drops the remainder of the current line, including its
// newline.
func (l *lexer) discardLine() {
	for {
		switch l.next() {
		case eof:
			return
		case '\n':
			return
		}
	}
}

// Scanner helpers -----------------------------------------------------------

// next returns the next rune in the input.
func (l *lexer) next() rune {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = w
	l.pos += w
	return r
}

// backup steps back one rune.  Can only be called once per call of next.
func (l *lexer) backup() {
	l.pos -= l.width
}

// peek returns but does not consume the next rune in the input.
func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

// acceptRun consumes a run of runes from the valid set.
func (l *lexer) acceptRun(valid string) {
	for strings.ContainsRune(valid, l.next()) {
	}
	l.backup()
}

// ignore skips over the pending input before this point.
func (l *lexer) ignore() {
	l.start = l.pos
}

// emit appends a completed token and restarts the text window after it.
func (l *lexer) emit(t Token) {
	l.tokens = append(l.tokens, t)
	l.start = l.pos
}

// emitText flushes pending literal text, if any, as a Text token.
func (l *lexer) emitText() {
	if l.pos > l.start {
		l.emit(Token{Kind: Text, Loc: l.locAt(l.start), Text: l.input[l.start:l.pos]})
	}
}

// atLineStart reports whether the current position begins a line.
func (l *lexer) atLineStart() bool {
	return l.pos == 0 || l.input[l.pos-1] == '\n'
}

// locAt computes the Location of a byte offset in the input.
func (l *lexer) locAt(pos int) Location {
	line := 1 + strings.Count(l.input[:pos], "\n")
	col := pos + 1
	if n := strings.LastIndex(l.input[:pos], "\n"); n >= 0 {
		col = pos - n
	}
	return Location{File: l.name, Line: line, Col: col}
}

// errorf records a positioned scan error and stops the state machine.
func (l *lexer) errorf(pos int, code, format string, args ...interface{}) stateFn {
	l.err = errAt(code, l.locAt(pos), format, args...)
	return nil
}

func isTagNameRune(r rune) bool {
	return 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z'
}

// tagNameBoundary reports whether a tag name ending at offset i is
// cleanly delimited, so that @ifx reads as text rather than a mangled
// @if.
func tagNameBoundary(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	switch s[i] {
	case '(', ' ', '\t', '\r', '\n':
		return true
	}
	return false
}
