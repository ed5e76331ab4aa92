package edge

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mbarley/edge/ast"
	"github.com/mbarley/edge/data"
	"github.com/mbarley/edge/parse"
)

// ParseGlobals parses the given input, expecting the form:
//
//	<global_name> = <literal>
//
// Furthermore:
//   - Empty lines and lines beginning with '//' are ignored.
//   - <literal> must be a literal template expression: null, boolean,
//     number, string, or an array or object built from those.
func ParseGlobals(input io.Reader) (data.Map, error) {
	var globals = make(data.Map)
	var scanner = bufio.NewScanner(input)
	for scanner.Scan() {
		var line = strings.TrimSpace(scanner.Text())
		if len(line) == 0 || strings.HasPrefix(line, "//") {
			continue
		}
		var eq = strings.Index(line, "=")
		if eq == -1 {
			return nil, fmt.Errorf("no equals on line: %q", line)
		}
		var (
			name = strings.TrimSpace(line[:eq])
			expr = strings.TrimSpace(line[eq+1:])
		)
		node, err := parse.Expr(expr)
		if err != nil {
			return nil, err
		}
		value, err := literalValue(node)
		if err != nil {
			return nil, fmt.Errorf("global %s: %s", name, err)
		}
		globals[name] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return globals, nil
}

func parseGlobalsYAML(content []byte) (data.Map, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, err
	}
	var globals = make(data.Map, len(raw))
	for name, value := range raw {
		globals[name] = data.New(value)
	}
	return globals, nil
}

// literalValue evaluates a literal expression node to a data value.
// Anything requiring a runtime context (names, calls, operators) is an
// error: globals must not depend on render data.
func literalValue(node ast.Node) (data.Value, error) {
	switch n := node.(type) {
	case *ast.NullNode:
		return data.Null{}, nil
	case *ast.UndefinedNode:
		return data.Undefined{}, nil
	case *ast.BoolNode:
		return data.Bool(n.True), nil
	case *ast.IntNode:
		return data.Int(n.Value), nil
	case *ast.FloatNode:
		return data.Float(n.Value), nil
	case *ast.StringNode:
		return data.String(n.Value), nil
	case *ast.ArrayLiteralNode:
		var list = make(data.List, len(n.Items))
		for i, item := range n.Items {
			var v, err = literalValue(item)
			if err != nil {
				return nil, err
			}
			list[i] = v
		}
		return list, nil
	case *ast.ObjectLiteralNode:
		var m = make(data.Map, len(n.Keys))
		for i, key := range n.Keys {
			var v, err = literalValue(n.Values[i])
			if err != nil {
				return nil, err
			}
			m[key] = v
		}
		return m, nil
	}
	return nil, fmt.Errorf("%s is not a literal", ast.KindOf(node))
}
