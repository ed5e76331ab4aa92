package lexer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/mbarley/edge/errortypes"
)

type lexTest struct {
	name  string
	input string
	want  []Token
}

func text(s string) Token {
	return Token{Kind: Text, Text: s}
}

func tag(name, arg string, children ...Token) Token {
	return Token{Kind: Tag, Name: name, RawArg: arg, Children: children}
}

func mustache(expr string) Token {
	return Token{Kind: Mustache, Text: expr}
}

func rawMustache(expr string) Token {
	return Token{Kind: Mustache, Text: expr, Raw: true}
}

func comment(body string) Token {
	return Token{Kind: Comment, Text: body}
}

var tokenizeTests = []lexTest{
	{"empty", "", nil},
	{"plain text", "Hello, world!\n", []Token{
		text("Hello, world!\n")}},
	{"mustache", "Hello {{ name }}!", []Token{
		text("Hello "), mustache(" name "), text("!")}},
	{"raw mustache", "{{{ user.bio }}}", []Token{
		rawMustache(" user.bio ")}},
	{"mustache with object literal", "{{ { a: 1, b: 2 } }}", []Token{
		mustache(" { a: 1, b: 2 } ")}},
	{"mustache with braces in string", `{{ "}}" }}`, []Token{
		mustache(` "}}" `)}},
	{"multiline mustache", "{{\n  user.name\n}}", []Token{
		mustache("\n  user.name\n")}},
	{"comment", "a{{-- note --}}b", []Token{
		text("a"), comment(" note "), text("b")}},
	{"escaped mustache", "@{{ name }}", []Token{
		text("{{ name }}")}},
	{"escaped mustache mid-text", "a @{{ b }} c", []Token{
		text("a "), text("{{ b }} c")}},
	{"literal at sign", "user@example.com", []Token{
		text("user@example.com")}},
	{"unknown tag is text", "@media print {\n}\n", []Token{
		text("@media print {\n}\n")}},
	{"if block", "@if(user)\nHello\n@endif\n", []Token{
		tag("if", "user", text("Hello\n"))}},
	{"if else", "@if(ok)\nA\n@else\nB\n@endif\n", []Token{
		tag("if", "ok", text("A\n"), tag("else", ""), text("B\n"))}},
	{"elseif chain", "@if(a)\nA\n@elseif(b)\nB\n@endif\n", []Token{
		tag("if", "a", text("A\n"), tag("elseif", "b"), text("B\n"))}},
	{"nested blocks", "@if(a)\n@each(x in xs)\n{{ x }}\n@endeach\n@endif\n", []Token{
		tag("if", "a", tag("each", "x in xs", mustache(" x "), text("\n")))}},
	{"indented tags", "  @if(x)\n  A\n  @endif\n", []Token{
		tag("if", "x", text("  A\n"))}},
	{"no trailing newline", "@if(x)\nA\n@endif", []Token{
		tag("if", "x", text("A\n"))}},
	{"seekable tag without argument", "@include\n", []Token{
		tag("include", "")}},
	{"tag line discards the rest of its line", "@super extra words\n", []Token{
		tag("super", "")}},
	{"multiline argument", "@component(\n  'card',\n  title = 'Hi'\n)\nBody\n@endcomponent\n", []Token{
		tag("component", "\n  'card',\n  title = 'Hi'\n", text("Body\n"))}},
	{"argument with nested parens", "@if(size(items) > 0)\n@endif\n", []Token{
		tag("if", "size(items) > 0")}},
	{"argument with paren in string", "@if(name == ')')\n@endif\n", []Token{
		tag("if", "name == ')'")}},
	{"escaped tag", "@@if(x)\n", []Token{
		text("@if(x)\n")}},
	{"escaped end tag", "@@endif\n", []Token{
		text("@endif\n")}},
	{"indented escaped tag", "  @@super\n", []Token{
		text("  "), text("@super\n")}},
	{"endset is not an end tag", "@endset\n", []Token{
		text("@endset\n")}},
	{"debugger", "@debugger\n", []Token{
		tag("debugger", "")}},
	{"text around a block", "before\n@if(x)\nin\n@endif\nafter", []Token{
		text("before\n"), tag("if", "x", text("in\n")), text("after")}},
	{"layout page", "@layout('layouts.main')\n@set('title', 'Home')\n@section('body')\n@super\nMore\n@endsection\n", []Token{
		tag("layout", "'layouts.main'"),
		tag("set", "'title', 'Home'"),
		tag("section", "'body'", tag("super", ""), text("More\n"))}},
}

func TestTokenize(t *testing.T) {
	for _, test := range tokenizeTests {
		got, err := Tokenize(test.input, "home.edge")
		if err != nil {
			t.Errorf("%s: unexpected error: %v", test.name, err)
			continue
		}
		if !equalTokens(got, test.want, false) {
			t.Errorf("%s: expected\n%sgot\n%s", test.name, dump(test.want), dump(got))
		}
	}
}

func TestTokenizePositions(t *testing.T) {
	const src = "Hi\n  @if(ok)\n{{ n }}\n  @endif\n{{{ raw }}}"
	at := func(line, col int) Location {
		return Location{File: "home.edge", Line: line, Col: col}
	}
	want := []Token{
		{Kind: Text, Loc: at(1, 1), Text: "Hi\n"},
		{Kind: Tag, Loc: at(2, 3), Name: "if", RawArg: "ok", ArgLoc: at(2, 7), Children: []Token{
			{Kind: Mustache, Loc: at(3, 1), Text: " n ", ArgLoc: at(3, 3)},
			{Kind: Text, Loc: at(3, 8), Text: "\n"},
		}},
		{Kind: Mustache, Loc: at(5, 1), Text: " raw ", Raw: true, ArgLoc: at(5, 4)},
	}
	got, err := Tokenize(src, "home.edge")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalTokens(got, want, true) {
		t.Errorf("expected\n%sgot\n%s", dump(want), dump(got))
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  string
		line  int
		col   int
	}{
		{"unclosed mustache", "a {{ b", errortypes.CodeUnclosedMustache, 1, 3},
		{"unclosed raw mustache", "{{{ b", errortypes.CodeUnclosedMustache, 1, 1},
		{"unclosed comment", "x\n{{-- note", errortypes.CodeUnclosedMustache, 2, 1},
		{"unbalanced braces", "{{ a { b }}", errortypes.CodeUnclosedMustache, 1, 1},
		{"unclosed argument list", "@if(a\nb", errortypes.CodeUnclosedTag, 1, 1},
		{"unclosed block", "@if(a)\nbody\n", errortypes.CodeUnclosedTag, 1, 1},
		{"unclosed inner block", "@if(a)\n@each(x in xs)\n@endif", errortypes.CodeUnmatchedEndTag, 3, 1},
		{"stray end tag", "text\n@endeach\n", errortypes.CodeUnmatchedEndTag, 2, 1},
		{"indented stray end tag", "  @endif", errortypes.CodeUnmatchedEndTag, 1, 3},
		{"crossed end tags", "@if(a)\n@endeach", errortypes.CodeUnmatchedEndTag, 2, 1},
	}
	for _, test := range tests {
		_, err := Tokenize(test.input, "home.edge")
		if err == nil {
			t.Errorf("%s: expected an error, got none", test.name)
			continue
		}
		fp := errortypes.ToErrFilePos(err)
		if fp == nil {
			t.Errorf("%s: expected an ErrFilePos, got %v", test.name, err)
			continue
		}
		if fp.Code() != test.code {
			t.Errorf("%s: expected code %v, got %v (%v)", test.name, test.code, fp.Code(), err)
		}
		if fp.File() != "home.edge" {
			t.Errorf("%s: expected file home.edge, got %v", test.name, fp.File())
		}
		if fp.Line() != test.line || fp.Col() != test.col {
			t.Errorf("%s: expected position %d:%d, got %d:%d", test.name, test.line, test.col, fp.Line(), fp.Col())
		}
	}
}

func equalTokens(a, b []Token, checkPos bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Kind != b[i].Kind || a[i].Text != b[i].Text ||
			a[i].Name != b[i].Name || a[i].RawArg != b[i].RawArg ||
			a[i].Raw != b[i].Raw {
			return false
		}
		if checkPos && (a[i].Loc != b[i].Loc || a[i].ArgLoc != b[i].ArgLoc) {
			return false
		}
		if !equalTokens(a[i].Children, b[i].Children, checkPos) {
			return false
		}
	}
	return true
}

func dump(tokens []Token) string {
	var sb strings.Builder
	writeTokens(&sb, tokens, "  ")
	return sb.String()
}

func writeTokens(sb *strings.Builder, tokens []Token, indent string) {
	for _, tok := range tokens {
		fmt.Fprintf(sb, "%s%s %s %s\n", indent, tok.Loc, tok.Kind, tok)
		writeTokens(sb, tok.Children, indent+"  ")
	}
}
