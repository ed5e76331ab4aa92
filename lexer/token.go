package lexer

import "fmt"

// Kind identifies what a Token holds.
type Kind int

// All token kinds.
const (
	// Text is literal template output, copied through untouched.
	Text Kind = iota
	// Tag is an @-directive, e.g. @if(user) or @include('partials.nav').
	Tag
	// EndTag closes a block tag.  It only occurs in the scanner's flat
	// stream: Tokenize folds block bodies into Children and never returns
	// one.
	EndTag
	// Mustache is an interpolation, {{ expr }} or raw {{{ expr }}}.
	Mustache
	// Comment is a {{-- ... --}} span, dropped from rendered output.
	Comment
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Tag:
		return "tag"
	case EndTag:
		return "end tag"
	case Mustache:
		return "mustache"
	case Comment:
		return "comment"
	}
	return "unknown"
}

// Location is a position within a template file.  Line and Col are 1-based.
type Location struct {
	File string
	Line int
	Col  int
}

func (loc Location) String() string {
	if loc.File == "" {
		return fmt.Sprintf("%d:%d", loc.Line, loc.Col)
	}
	return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Col)
}

// Token is one node of a template's token tree.
type Token struct {
	Kind Kind
	Loc  Location

	// Text is the content of a Text or Comment token, or the raw
	// expression source of a Mustache.
	Text string

	// Name and RawArg are set on Tag and EndTag tokens: the tag's
	// identifier and its unparsed argument text.
	Name   string
	RawArg string

	// ArgLoc is where RawArg (or a Mustache's expression source) begins,
	// so expression errors point at their true position.
	ArgLoc Location

	// Raw marks a triple-brace mustache, which skips HTML escaping.
	Raw bool

	// Children is the body of a block tag.
	Children []Token
}

// String renders the token back to approximate source form, without
// descending into Children.
func (t Token) String() string {
	switch t.Kind {
	case Tag:
		if t.RawArg == "" {
			return "@" + t.Name
		}
		return "@" + t.Name + "(" + t.RawArg + ")"
	case EndTag:
		return "@end" + t.Name
	case Mustache:
		if t.Raw {
			return "{{{" + t.Text + "}}}"
		}
		return "{{" + t.Text + "}}"
	case Comment:
		return "{{--" + t.Text + "--}}"
	}
	return fmt.Sprintf("%q", t.Text)
}

// tagDef describes how the scanner treats one template tag.
type tagDef struct {
	block    bool // owns a body closed by @end<name>
	seekable bool // takes a parenthesized argument
}

// The template tags.  A line-opening @word not in this table is plain text.
var tagDefs = map[string]tagDef{
	"if":        {block: true, seekable: true},
	"each":      {block: true, seekable: true},
	"component": {block: true, seekable: true},
	"slot":      {block: true, seekable: true},
	"section":   {block: true, seekable: true},
	"layout":    {seekable: true},
	"include":   {seekable: true},
	"set":       {seekable: true},
	"elseif":    {seekable: true},
	"else":      {},
	"super":     {},
	"debugger":  {},
}
