package config

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed demos/*.hcl
var demos embed.FS

// ErrUnknownDemo is returned by Demo for names without an embedded file.
var ErrUnknownDemo = errors.New("unknown demo")

// Demo parses the embedded run file called name ("linreg", "regress", "mnist").
func Demo(name string) (*File, error) {
	filename := path.Join("demos", name+".hcl")
	src, err := demos.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownDemo, name, strings.Join(Demos(), ", "))
		}
		return nil, err
	}
	return Parse(src, filename)
}

// Demos lists the embedded demo names.
func Demos() []string {
	entries, err := demos.ReadDir("demos")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".hcl"))
	}
	sort.Strings(names)
	return names
}
