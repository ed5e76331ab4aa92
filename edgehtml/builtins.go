package edgehtml

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mbarley/edge/data"
)

// Builtin is a function that may be invoked within a template
// expression.
type Builtin struct {
	Apply           func([]data.Value) data.Value
	ValidArgLengths []int
}

// Builtins are the functions available to every template expression.
// Callers may add their own to this map; a data binding with the same
// name shadows the builtin.  A call that misses the map, or arrives
// with an unsupported argument count, evaluates to Undefined rather
// than failing the render.
var Builtins = map[string]Builtin{
	"size":       {builtinSize, []int{1}},
	"upper":      {builtinUpper, []int{1}},
	"lower":      {builtinLower, []int{1}},
	"capitalize": {builtinCapitalize, []int{1}},
	"join":       {builtinJoin, []int{1, 2}},
	"safe":       {builtinSafe, []int{1}},
}

// builtinSize counts elements: list length, map entries, string code
// points.  Anything else has size 0.
func builtinSize(args []data.Value) data.Value {
	switch v := args[0].(type) {
	case data.List:
		return data.Int(len(v))
	case data.Map:
		return data.Int(len(v))
	case data.String:
		return data.Int(len([]rune(string(v))))
	case data.SafeString:
		return data.Int(len([]rune(string(v))))
	}
	return data.Int(0)
}

func builtinUpper(args []data.Value) data.Value {
	return data.String(strings.ToUpper(args[0].String()))
}

func builtinLower(args []data.Value) data.Value {
	return data.String(strings.ToLower(args[0].String()))
}

// builtinCapitalize uppercases the first code point and leaves the rest
// alone, matching what charAt(0).toUpperCase() does in the JS backend.
func builtinCapitalize(args []data.Value) data.Value {
	var runes = []rune(args[0].String())
	if len(runes) == 0 {
		return data.String("")
	}
	var head = cases.Upper(language.Und).String(string(runes[0]))
	return data.String(head + string(runes[1:]))
}

func builtinJoin(args []data.Value) data.Value {
	list, ok := args[0].(data.List)
	if !ok {
		return data.Undefined{}
	}
	var sep = ","
	if len(args) == 2 {
		sep = args[1].String()
	}
	var parts = make([]string, len(list))
	for i, item := range list {
		parts[i] = item.String()
	}
	return data.String(strings.Join(parts, sep))
}

// builtinSafe marks a value as pre-escaped HTML, exempting it from
// output escaping.
func builtinSafe(args []data.Value) data.Value {
	return data.SafeString(args[0].String())
}
