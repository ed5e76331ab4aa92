package template

import (
	"sort"

	"github.com/mbarley/edge/lexer"
)

// Registry holds every lexed template, in the order they were added.
// It is not goroutine-safe; registration is expected to happen up front
// or from a single watcher goroutine.
type Registry struct {
	Templates []Template
	byName    map[string]int
}

// Add lexes source and registers it under name, replacing any template
// already registered there. Re-adding is how file watchers push
// reloaded sources.
func (r *Registry) Add(name, filename, source string) error {
	tokens, err := lexer.Tokenize(source, filename)
	if err != nil {
		return err
	}
	t := Template{Name: name, Filename: filename, Source: source, Tokens: tokens}
	if r.byName == nil {
		r.byName = make(map[string]int)
	}
	if i, ok := r.byName[name]; ok {
		r.Templates[i] = t
		return nil
	}
	r.byName[name] = len(r.Templates)
	r.Templates = append(r.Templates, t)
	return nil
}

// Template returns the named template, or nil if none is registered.
func (r *Registry) Template(name string) *Template {
	i, ok := r.byName[name]
	if !ok {
		return nil
	}
	return &r.Templates[i]
}

// Names returns the registered template names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Templates))
	for _, t := range r.Templates {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}
