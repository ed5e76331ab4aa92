// Package template stores lexed templates, keyed by their canonical
// reference, for the compiler and renderers to look up.
package template

import (
	"strings"

	"github.com/mbarley/edge/lexer"
)

// Template is one registered template: its source and the token tree
// lexed from it, before any layout or section processing.
type Template struct {
	Name     string        // canonical reference, e.g. "default::users.list"
	Filename string        // the file it was read from, for diagnostics
	Source   string
	Tokens   []lexer.Token
}

// Layout returns the @layout tag the template opens with, if any. Only
// a layout tag in the very first position counts; an @layout further
// down is a compile error, not an extension.
func (t *Template) Layout() (*lexer.Token, bool) {
	if len(t.Tokens) > 0 && t.Tokens[0].Kind == lexer.Tag && t.Tokens[0].Name == "layout" {
		return &t.Tokens[0], true
	}
	return nil, false
}

// Normalize canonicalizes a template reference. The disk prefix
// defaults to "default" and a trailing ".edge" extension is dropped, so
// "users.list", "users.list.edge" and "default::users.list" all land on
// the same registry key.
func Normalize(ref string) string {
	disk, rest := "default", ref
	if i := strings.Index(ref, "::"); i >= 0 {
		disk, rest = ref[:i], ref[i+2:]
		if disk == "" {
			disk = "default"
		}
	}
	return disk + "::" + strings.TrimSuffix(rest, ".edge")
}
