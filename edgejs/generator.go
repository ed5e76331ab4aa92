package edgejs

import (
	"errors"
	"io"

	"github.com/mbarley/edge/template"
)

// ErrNotFound is returned when a template name is not in the registry.
var ErrNotFound = errors.New("template not found")

// Generator provides an interface to a template registry, for compiling
// templates to javascript.
type Generator struct {
	registry *template.Registry
}

func NewGenerator(registry *template.Registry) *Generator {
	return &Generator{registry}
}

// WriteTemplate compiles the named template and writes the resulting
// javascript function to out. Referenced templates are not written;
// they must be present in the bundle for rendering to succeed.
func (gen *Generator) WriteTemplate(out io.Writer, name string) error {
	canonical := template.Normalize(name)
	if gen.registry.Template(canonical) == nil {
		return ErrNotFound
	}
	return Write(out, gen.registry, canonical)
}

// WriteBundle writes the runtime followed by every registered template,
// producing a single self-contained script.
func (gen *Generator) WriteBundle(out io.Writer) error {
	if err := WriteRuntime(out); err != nil {
		return err
	}
	return WriteAll(out, gen.registry)
}
