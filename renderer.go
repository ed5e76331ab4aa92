package edge

import (
	"fmt"
	"io"

	"github.com/mbarley/edge/data"
	"github.com/mbarley/edge/edgehtml"
	"github.com/mbarley/edge/runtime"
	"github.com/mbarley/edge/template"
)

// Renderer renders templates from a compiled registry to HTML.
type Renderer struct {
	registry *template.Registry
	globals  data.Map
}

// NewRenderer returns a Renderer serving the given registry, with no
// globals.  CompileToRenderer attaches the bundle's globals instead.
func NewRenderer(registry *template.Registry) *Renderer {
	return &Renderer{registry: registry}
}

// WithGlobals returns a copy of the renderer whose globals are visible
// to every template it renders.
func (r *Renderer) WithGlobals(globals data.Map) *Renderer {
	return &Renderer{registry: r.registry, globals: globals}
}

// Render is a convenience function that executes the template of the
// given name, using the given object (converted to data.Map) as its
// data, and writes the result to wr.
//
// When converting structs to template data, data.DefaultStructOptions
// are used.  In particular, note that struct fields are converted to
// lowerCamel by default.  Use data.NewWith to convert ahead of time for
// different behavior.
func (r *Renderer) Render(wr io.Writer, name string, obj interface{}) error {
	var out, err = r.RenderString(name, obj)
	if err != nil {
		return err
	}
	_, err = io.WriteString(wr, out)
	return err
}

// RenderString is Render, returning the output instead of writing it.
func (r *Renderer) RenderString(name string, obj interface{}) (string, error) {
	var m data.Map
	if obj != nil {
		var ok bool
		m, ok = data.New(obj).(data.Map)
		if !ok {
			return "", fmt.Errorf("invalid data type. expected map/struct, got %T", obj)
		}
	}
	var fn, err = edgehtml.Compile(r.registry, name)
	if err != nil {
		return "", err
	}
	return fn(runtime.NewContext(m, r.globals))
}
