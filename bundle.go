package edge

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mbarley/edge/data"
	"github.com/mbarley/edge/edgehtml"
	"github.com/mbarley/edge/loader"
	"github.com/mbarley/edge/template"
)

// Logger is used to print notifications and compile errors when using
// the "WatchFiles" feature.
var Logger = log.New(os.Stderr, "[edge] ", 0)

type mountPoint struct{ disk, dir string }

type templateFile struct {
	name, filename, source string
	fromDisk               bool
}

// Bundle is a collection of edge content (templates and globals).  It
// acts as input for the compiler.
type Bundle struct {
	mounts                []mountPoint
	files                 []templateFile
	globals               data.Map
	err                   error
	watcher               *fsnotify.Watcher
	recompilationCallback func(*template.Registry)
}

// NewBundle returns an empty bundle.
func NewBundle() *Bundle {
	return &Bundle{globals: make(data.Map)}
}

// WatchFiles tells the bundle to watch any template files added to it,
// re-compile as necessary, and swap the updates into the registry
// returned by Compile.  It should be called once, before adding any
// files.
func (b *Bundle) WatchFiles(watch bool) *Bundle {
	if watch && b.err == nil && b.watcher == nil {
		b.watcher, b.err = fsnotify.NewWatcher()
	}
	return b
}

// Mount makes every *.edge file under dir (including sub-directories)
// available as templates on the named disk.  Mounting a disk that
// already exists replaces it.
func (b *Bundle) Mount(disk, dir string) *Bundle {
	b.mounts = append(b.mounts, mountPoint{disk, dir})
	if b.err == nil && b.watcher != nil {
		b.watchDir(dir)
	}
	return b
}

// AddTemplateDir mounts dir as the default disk.
func (b *Bundle) AddTemplateDir(dir string) *Bundle {
	return b.Mount("default", dir)
}

// AddTemplateFile adds the given template file to this bundle under its
// base name, so "views/home.edge" registers as "default::home".  If
// WatchFiles is on, it will be subsequently watched for updates.
func (b *Bundle) AddTemplateFile(filename string) *Bundle {
	content, err := os.ReadFile(filename)
	if err != nil {
		b.err = err
		return b
	}
	if b.err == nil && b.watcher != nil {
		b.err = b.watcher.Add(filename)
	}
	var name = template.Normalize(strings.TrimSuffix(filepath.Base(filename), ".edge"))
	b.files = append(b.files, templateFile{name, filename, string(content), true})
	return b
}

// AddTemplateString adds the given template source to the bundle under
// the given reference.  The name is also used in error messages.
func (b *Bundle) AddTemplateString(name, source string) *Bundle {
	b.files = append(b.files, templateFile{template.Normalize(name), name, source, false})
	return b
}

// AddGlobalsFile opens and parses the given file of globals and adds
// the resulting data map to the bundle.  Files ending in .yaml or .yml
// parse as a YAML mapping; anything else parses as "name = literal"
// lines.
func (b *Bundle) AddGlobalsFile(filename string) *Bundle {
	content, err := os.ReadFile(filename)
	if err != nil {
		b.err = err
		return b
	}
	var globals data.Map
	switch filepath.Ext(filename) {
	case ".yaml", ".yml":
		globals, err = parseGlobalsYAML(content)
	default:
		globals, err = ParseGlobals(bytes.NewReader(content))
	}
	if err != nil {
		b.err = err
		return b
	}
	return b.AddGlobalsMap(globals)
}

// AddGlobalsMap adds globals to the bundle.  Re-defining a global that
// is already present is an error.
func (b *Bundle) AddGlobalsMap(globals data.Map) *Bundle {
	for k, v := range globals {
		if existing, ok := b.globals[k]; ok {
			b.err = fmt.Errorf("global %q already defined as %q", k, existing)
			return b
		}
		b.globals[k] = v
	}
	return b
}

// SetRecompilationCallback assigns the bundle a function to call after
// recompilation.  This is called before updating the in-use registry.
func (b *Bundle) SetRecompilationCallback(c func(*template.Registry)) *Bundle {
	b.recompilationCallback = c
	return b
}

// Compile loads and lexes all of the templates in this bundle, resolves
// every layout chain, checks tag arguments and placement, and returns
// the completed template registry.
func (b *Bundle) Compile() (*template.Registry, error) {
	if b.err != nil {
		return nil, b.err
	}

	var l = loader.New()
	for _, m := range b.mounts {
		if err := l.Mount(m.disk, m.dir); err != nil {
			return nil, err
		}
	}
	var registry template.Registry
	if err := l.LoadAll(&registry); err != nil {
		return nil, err
	}
	for _, f := range b.files {
		if err := registry.Add(f.name, f.filename, f.source); err != nil {
			return nil, err
		}
	}

	// Compile every template now so that layout, argument, and
	// expression errors surface here rather than at first render.
	for _, name := range registry.Names() {
		if _, err := edgehtml.Compile(&registry, name); err != nil {
			return nil, err
		}
	}

	if b.watcher != nil {
		go b.recompiler(&registry)
	}
	return &registry, nil
}

// CompileToRenderer returns a Renderer serving this bundle's templates,
// with the bundle's globals attached.
func (b *Bundle) CompileToRenderer() (*Renderer, error) {
	var registry, err = b.Compile()
	if err != nil {
		return nil, err
	}
	return &Renderer{registry: registry, globals: b.globals}, nil
}

func (b *Bundle) watchDir(dir string) {
	b.err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".edge") {
			return nil
		}
		return b.watcher.Add(path)
	})
}

func (b *Bundle) recompiler(reg *template.Registry) {
	for {
		select {
		case ev := <-b.watcher.Events:
			// A rename or remove drops the watch.  Add it back, after a
			// delay for the editor to finish replacing the file.
			if ev.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
				time.Sleep(10 * time.Millisecond)
				if err := b.watcher.Add(ev.Name); err != nil {
					Logger.Println(err)
				}
			}

			// Recompile everything.
			var bundle = NewBundle().AddGlobalsMap(b.globals)
			for _, m := range b.mounts {
				bundle.Mount(m.disk, m.dir)
			}
			for _, f := range b.files {
				if f.fromDisk {
					bundle.AddTemplateFile(f.filename)
				} else {
					bundle.AddTemplateString(f.name, f.source)
				}
			}
			var registry, err = bundle.Compile()
			if err != nil {
				Logger.Println(err)
				continue
			}

			if b.recompilationCallback != nil {
				b.recompilationCallback(registry)
			}

			// Update the existing template registry.
			// (this is not goroutine-safe, but that seems ok for a
			// development aid, as long as it works in practice)
			*reg = *registry
			Logger.Printf("update successful (%v)", ev)

		case err := <-b.watcher.Errors:
			// Nothing to do with errors
			Logger.Println(err)
		}
	}
}
