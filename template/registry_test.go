package template

import (
	"reflect"
	"testing"

	"github.com/mbarley/edge/errortypes"
	"github.com/mbarley/edge/lexer"
)

func TestAddAndLookup(t *testing.T) {
	var r Registry
	if err := r.Add("default::home", "home.edge", "Hello {{ name }}"); err != nil {
		t.Fatal(err)
	}
	tmpl := r.Template("default::home")
	if tmpl == nil {
		t.Fatal("expected registered template, got nil")
	}
	if tmpl.Filename != "home.edge" {
		t.Errorf("expected filename home.edge, got %v", tmpl.Filename)
	}
	if len(tmpl.Tokens) != 2 {
		t.Errorf("expected 2 tokens, got %v", len(tmpl.Tokens))
	}
	if r.Template("default::missing") != nil {
		t.Error("expected nil for unregistered name")
	}
}

func TestAddReplaces(t *testing.T) {
	var r Registry
	if err := r.Add("default::home", "home.edge", "one"); err != nil {
		t.Fatal(err)
	}
	if err := r.Add("default::home", "home.edge", "two"); err != nil {
		t.Fatal(err)
	}
	if len(r.Templates) != 1 {
		t.Fatalf("expected 1 template after re-add, got %v", len(r.Templates))
	}
	if src := r.Template("default::home").Source; src != "two" {
		t.Errorf("expected replaced source %q, got %q", "two", src)
	}
}

func TestAddLexError(t *testing.T) {
	var r Registry
	err := r.Add("default::broken", "broken.edge", "a {{ b")
	if err == nil {
		t.Fatal("expected lex error")
	}
	if code := errortypes.Code(err); code != errortypes.CodeUnclosedMustache {
		t.Errorf("expected code %v, got %v", errortypes.CodeUnclosedMustache, code)
	}
	if r.Template("default::broken") != nil {
		t.Error("failed Add should not register the template")
	}
}

func TestNames(t *testing.T) {
	var r Registry
	for _, name := range []string{"default::b", "default::a", "emails::c"} {
		if err := r.Add(name, name+".edge", "x"); err != nil {
			t.Fatal(err)
		}
	}
	expected := []string{"default::a", "default::b", "emails::c"}
	if names := r.Names(); !reflect.DeepEqual(names, expected) {
		t.Errorf("expected %v, got %v", expected, names)
	}
}

func TestLayout(t *testing.T) {
	var r Registry
	if err := r.Add("default::page", "page.edge", "@layout('layouts.main')\n@section('body')\nhi\n@endsection\n"); err != nil {
		t.Fatal(err)
	}
	if err := r.Add("default::plain", "plain.edge", "hello\n@if(x)\n@endif\n"); err != nil {
		t.Fatal(err)
	}
	if err := r.Add("default::late", "late.edge", "text first\n@layout('layouts.main')\n"); err != nil {
		t.Fatal(err)
	}

	tok, ok := r.Template("default::page").Layout()
	if !ok {
		t.Fatal("expected layout on default::page")
	}
	if tok.RawArg != "'layouts.main'" {
		t.Errorf("expected raw arg %q, got %q", "'layouts.main'", tok.RawArg)
	}
	if tok.Kind != lexer.Tag || tok.Name != "layout" {
		t.Errorf("expected @layout tag, got %v", tok)
	}
	if _, ok := r.Template("default::plain").Layout(); ok {
		t.Error("expected no layout on default::plain")
	}
	if _, ok := r.Template("default::late").Layout(); ok {
		t.Error("a layout tag after other content is not an extension")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		ref      string
		expected string
	}{
		{"users.list", "default::users.list"},
		{"users.list.edge", "default::users.list"},
		{"default::users.list", "default::users.list"},
		{"emails::welcome", "emails::welcome"},
		{"emails::welcome.edge", "emails::welcome"},
		{"::welcome", "default::welcome"},
		{"list", "default::list"},
	}
	for _, test := range tests {
		if actual := Normalize(test.ref); actual != test.expected {
			t.Errorf("%s: expected %v, got %v", test.ref, test.expected, actual)
		}
	}
}
