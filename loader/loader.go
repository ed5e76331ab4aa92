// Package loader resolves namespaced template references to files on
// named disks and reads them into a template registry.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mbarley/edge/errortypes"
	"github.com/mbarley/edge/template"
	"github.com/sahilm/fuzzy"
)

const (
	diskSeparator = "::"
	extMarker     = ".edge"
)

// ExtractDiskAndTemplateName maps a template reference to the disk it
// names and the path of the template file on that disk. The disk
// prefix defaults to "default" and the extension to "edge", and the
// first dot of the dotted template path becomes a path separator:
// "users::list" is ("users", "list.edge"), "pages.home" is
// ("default", "pages/home.edge"). Only the first dot maps to a
// separator; deeper nesting keeps its dots in the filename.
func ExtractDiskAndTemplateName(ref string) (disk, file string) {
	disk = "default"
	var rest = ref
	if i := strings.Index(ref, diskSeparator); i >= 0 {
		if ref[:i] != "" {
			disk = ref[:i]
		}
		rest = ref[i+len(diskSeparator):]
	}
	var ext = "edge"
	if i := strings.Index(rest, extMarker); i >= 0 {
		if after := rest[i+len(extMarker):]; after != "" {
			ext = after
		}
		rest = rest[:i]
	}
	return disk, filepath.FromSlash(strings.Replace(rest, ".", "/", 1) + "." + ext)
}

// Loader reads template sources from disks, each a directory mounted
// under a disk name. The zero value has no mounts. Mounting is not
// goroutine-safe; mount every disk before loading.
type Loader struct {
	mounts map[string]string
}

// New returns a Loader with no disks mounted.
func New() *Loader {
	return &Loader{mounts: make(map[string]string)}
}

// Mount makes dir available as the named disk, replacing any previous
// mount of that name.
func (l *Loader) Mount(disk, dir string) error {
	if disk == "" {
		return fmt.Errorf("empty disk name for directory %q", dir)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("mount %s: %s is not a directory", disk, dir)
	}
	if l.mounts == nil {
		l.mounts = make(map[string]string)
	}
	l.mounts[disk] = dir
	return nil
}

// Mounted returns the directory mounted as the named disk.
func (l *Loader) Mounted(disk string) (string, bool) {
	dir, ok := l.mounts[disk]
	return dir, ok
}

// Disks returns the mounted disk names, sorted.
func (l *Loader) Disks() []string {
	var disks = make([]string, 0, len(l.mounts))
	for disk := range l.mounts {
		disks = append(disks, disk)
	}
	sort.Strings(disks)
	return disks
}

// Resolve maps a reference to its canonical template name and the file
// expected to hold it. It does not check that the file exists.
func (l *Loader) Resolve(ref string) (name, filename string, err error) {
	disk, file := ExtractDiskAndTemplateName(ref)
	root, ok := l.mounts[disk]
	if !ok {
		return "", "", errortypes.NewErrFilePosf(errortypes.CodeMissingTemplate, "", 0, 0,
			"unknown disk %q in template reference %q (mounted: %s)",
			disk, ref, strings.Join(l.Disks(), ", "))
	}
	return canonicalName(disk, file), filepath.Join(root, file), nil
}

// Load resolves ref and reads the template source. A missing file is
// an E_MISSING_TEMPLATE error carrying near-miss suggestions from the
// disk's contents.
func (l *Loader) Load(ref string) (name, filename, source string, err error) {
	name, filename, err = l.Resolve(ref)
	if err != nil {
		return "", "", "", err
	}
	content, err := os.ReadFile(filename)
	if err != nil {
		disk, _ := ExtractDiskAndTemplateName(ref)
		return "", "", "", errortypes.NewErrFilePosf(errortypes.CodeMissingTemplate, "", 0, 0,
			"template not found: %s%s", ref, l.suggestions(disk, ref))
	}
	return name, filename, string(content), nil
}

// List returns the canonical name of every template on the disk, in
// sorted order.
func (l *Loader) List(disk string) ([]string, error) {
	entries, err := l.list(disk)
	if err != nil {
		return nil, err
	}
	var names = make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names, nil
}

// LoadDisk reads every template on one disk into reg.
func (l *Loader) LoadDisk(reg *template.Registry, disk string) error {
	entries, err := l.list(disk)
	if err != nil {
		return err
	}
	for _, e := range entries {
		content, err := os.ReadFile(e.filename)
		if err != nil {
			return err
		}
		if err := reg.Add(e.name, e.filename, string(content)); err != nil {
			return err
		}
	}
	return nil
}

// LoadAll reads every template on every mounted disk into reg.
func (l *Loader) LoadAll(reg *template.Registry) error {
	for _, disk := range l.Disks() {
		if err := l.LoadDisk(reg, disk); err != nil {
			return err
		}
	}
	return nil
}

type diskEntry struct{ name, filename string }

func (l *Loader) list(disk string) ([]diskEntry, error) {
	root, ok := l.mounts[disk]
	if !ok {
		return nil, fmt.Errorf("unknown disk %q", disk)
	}
	var entries []diskEntry
	var err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, extMarker) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		entries = append(entries, diskEntry{canonicalName(disk, rel), path})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	return entries, nil
}

// Name returns the canonical registry name for a template file at the
// given path relative to its disk root.
func Name(disk, rel string) string {
	return canonicalName(disk, rel)
}

// canonicalName is the registry name for a template file: the disk
// prefix plus the relative path with every separator as a dot and the
// extension dropped. Listing a directory therefore names nested
// templates with dots all the way down, while ExtractDiskAndTemplateName
// maps only the first dot back to a separator; references to templates
// nested more than one level deep resolve through the registry, not
// through single-file loading.
func canonicalName(disk, file string) string {
	var name = strings.TrimSuffix(filepath.ToSlash(file), extMarker)
	return disk + diskSeparator + strings.ReplaceAll(name, "/", ".")
}

func (l *Loader) suggestions(disk, ref string) string {
	names, err := l.List(disk)
	if err != nil || len(names) == 0 {
		return ""
	}
	for i, name := range names {
		names[i] = strings.TrimPrefix(name, disk+diskSeparator)
	}
	var want = ref
	if i := strings.Index(want, diskSeparator); i >= 0 {
		want = want[i+len(diskSeparator):]
	}
	matches := fuzzy.Find(strings.TrimSuffix(want, extMarker), names)
	if len(matches) == 0 {
		return ""
	}
	if len(matches) > 3 {
		matches = matches[:3]
	}
	var candidates = make([]string, len(matches))
	for i, m := range matches {
		candidates[i] = m.Str
	}
	return fmt.Sprintf(" (did you mean %s?)", strings.Join(candidates, " or "))
}
