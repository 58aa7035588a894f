package specs

import (
	"fmt"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v2"

	"github.com/intel/streambench/internal/util"
)

// Loader is the collaborator interface the driver depends on (§1 "out of
// scope: the declarative configuration loader with file-inclusion and
// deep-merge"). The core packages never import gopkg.in/yaml directly;
// they only ever see a *Spec.
type Loader interface {
	Load(path string) (*Spec, error)
}

// FileLoader is the reference implementation: reads a YAML document,
// recursively loads any top-level `load: [path, ...]` list of files
// relative to the including file's directory, and deep-merges each
// included document under the including one (scalars replaced,
// mappings merged recursively, lists concatenated, per §6).
type FileLoader struct{}

func NewFileLoader() *FileLoader { return &FileLoader{} }

// rawInclude is the shape of the `load:` directive; only its presence is
// inspected here, everything else decodes straight into Spec fields.
type rawInclude struct {
	Load []string `yaml:"load"`
}

func (l *FileLoader) Load(path string) (*Spec, error) {
	abs, err := util.AbsPath(path)
	if err != nil {
		return nil, err
	}
	return l.load(abs, map[string]bool{})
}

func (l *FileLoader) load(abs string, seen map[string]bool) (*Spec, error) {
	if seen[abs] {
		return nil, fmt.Errorf("circular include detected at %s", abs)
	}
	seen[abs] = true

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading spec %s: %w", abs, err)
	}
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing spec %s: %w", abs, err)
	}
	var inc rawInclude
	if err := yaml.Unmarshal(data, &inc); err != nil {
		return nil, fmt.Errorf("parsing includes in %s: %w", abs, err)
	}

	dir := filepath.Dir(abs)
	merged := &spec
	for _, rel := range inc.Load {
		childPath := rel
		if !filepath.IsAbs(childPath) {
			childPath = filepath.Join(dir, rel)
		}
		child, err := l.load(childPath, seen)
		if err != nil {
			return nil, err
		}
		// the including document wins over its includes: merge `merged`
		// (source) over a copy of `child` (destination), then adopt the
		// result, so later scalars replace earlier ones and lists
		// concatenate per §6's deep-merge rule.
		base := *child
		if err := mergo.Merge(&base, merged, mergo.WithAppendSlice, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merging %s into %s: %w", childPath, abs, err)
		}
		merged = &base
	}
	return merged, nil
}
