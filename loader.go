package aisl

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// stdlibSubdirs are the category directories searched under every
// stdlib root, in order.
var stdlibSubdirs = []string{
	"stdlib/core",
	"stdlib/data",
	"stdlib/net",
	"stdlib/sys",
	"stdlib/crypto",
	"stdlib/pattern",
	"stdlib/db",
}

// Loader resolves `(import name)` declarations.  It walks upward from
// the source file, the interpreter binary and the working directory
// looking for an ancestor with a stdlib/ subdirectory, searches the
// category directories under every such root, and caches loaded
// modules by resolved path so diamond imports parse once.
type Loader struct {
	searchDirs []string
	loaded     map[string]*Module
	inFlight   map[string]bool
	warn       func(format string, args ...interface{})
}

func NewLoader(scriptPath string, warn func(format string, args ...interface{})) *Loader {
	if warn == nil {
		warn = func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}
	}
	return &Loader{
		searchDirs: importSearchDirs(scriptPath),
		loaded:     map[string]*Module{},
		inFlight:   map[string]bool{},
		warn:       warn,
	}
}

// importSearchDirs builds the candidate directory list: for each
// anchor, the nearest ancestor containing stdlib/ contributes the
// category subdirectories, deduplicated in first-seen order.
func importSearchDirs(scriptPath string) []string {
	var anchors []string
	if scriptPath != "" {
		if abs, err := filepath.Abs(filepath.Dir(scriptPath)); err == nil {
			anchors = append(anchors, abs)
		}
	}
	if exe, err := os.Executable(); err == nil {
		anchors = append(anchors, filepath.Dir(exe))
	}
	if cwd, err := os.Getwd(); err == nil {
		anchors = append(anchors, cwd)
	}

	var dirs []string
	seen := map[string]bool{}
	for _, anchor := range anchors {
		root := findStdlibRoot(anchor)
		if root == "" {
			continue
		}
		for _, sub := range stdlibSubdirs {
			dir := filepath.Join(root, sub)
			if !seen[dir] {
				seen[dir] = true
				dirs = append(dirs, dir)
			}
		}
	}
	return dirs
}

// findStdlibRoot walks up from dir to the filesystem root, returning
// the first ancestor that has a stdlib/ subdirectory.
func findStdlibRoot(dir string) string {
	for {
		info, err := os.Stat(filepath.Join(dir, "stdlib"))
		if err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Resolve finds the file behind an import name, or "" when no search
// directory has it.
func (l *Loader) Resolve(name string) string {
	for _, dir := range l.searchDirs {
		candidate := filepath.Join(dir, name+".aisl")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// Load resolves, parses and returns the module behind an import name
// along with everything it transitively imports.  A missing module is
// a warning, not an error: the run continues and any call into the
// absent module fails later as an unknown function.
func (l *Loader) Load(name string) ([]*Module, error) {
	path := l.Resolve(name)
	if path == "" {
		l.warn("warning: module `%s` not found in import path", name)
		return nil, nil
	}
	return l.loadPath(name, path)
}

func (l *Loader) loadPath(name, path string) ([]*Module, error) {
	if resolved, err := filepath.Abs(path); err == nil {
		path = resolved
	}
	if l.inFlight[path] {
		// Import cycle; the module is already being merged.
		return nil, nil
	}
	if mod, ok := l.loaded[path]; ok {
		return []*Module{mod}, nil
	}
	l.inFlight[path] = true
	defer delete(l.inFlight, path)

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read module `%s`", name)
	}
	mod, err := ParseModule(string(source))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot load module `%s`", name)
	}
	l.loaded[path] = mod

	mods := []*Module{mod}
	for _, imp := range mod.Imports {
		nested, err := l.Load(imp)
		if err != nil {
			return nil, err
		}
		mods = append(mods, nested...)
	}
	return mods, nil
}
