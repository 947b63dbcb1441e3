// Package manifest parses the per-package config.yaml that describes how a package is
// built, which outputs it installs, and which packages it depends on.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/yapm/pkg/errutils"
	"github.com/glorpus-work/yapm/pkg/fsutil"
)

// FileName is the manifest file expected at the root of every package.
const FileName = "config.yaml"

// Defaults for optional manifest fields.
const (
	DefaultBuildFolder = "build"
	DefaultBuildFile   = "build.sh"
)

// Hook names a point in the install pipeline where a script may run.
type Hook string

const (
	PreBuild    Hook = "pre_build"
	PostInstall Hook = "post_install"
)

// Manifest is the parsed form of a package's config.yaml.
type Manifest struct {
	IsOpenSource bool
	Depends      []string
	Files        []string
	BuildFolder  string
	BuildFile    string
	Hooks        map[Hook]string
	YapmVersion  string // version constraint on the installing yapm, e.g. ">= 0.2, < 1.0"
}

// document mirrors the YAML layout; every key is optional.
type document struct {
	IsOpenSource *openSourceFlag `yaml:"is_opensource"`
	Depends      []string        `yaml:"depends"`
	Files        []string        `yaml:"files"`
	BuildFolder  *string         `yaml:"build_folder"`
	BuildFile    *string         `yaml:"build_file"`
	Hooks        map[Hook]string `yaml:"hooks"`
	YapmVersion  string          `yaml:"yapm_version"`
}

// openSourceFlag accepts a YAML boolean or an integer, where any nonzero integer is true.
type openSourceFlag bool

func (f *openSourceFlag) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("is_opensource: expected a boolean or integer, got %s", kindName(value.Kind))
	}
	switch value.ShortTag() {
	case "!!bool":
		var b bool
		if err := value.Decode(&b); err != nil {
			return err
		}
		*f = openSourceFlag(b)
		return nil
	case "!!int":
		n, err := strconv.ParseInt(value.Value, 0, 64)
		if err != nil {
			return fmt.Errorf("is_opensource: %w", err)
		}
		*f = n != 0
		return nil
	default:
		return fmt.Errorf("is_opensource: expected a boolean or integer, got %q", value.Value)
	}
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.MappingNode:
		return "a mapping"
	default:
		return "a non-scalar node"
	}
}

// Parse reads and parses the manifest at path.
func Parse(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", errutils.ErrManifestMissing, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", errutils.ErrManifestInvalid, path, err)
	}

	m, err := ParseFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, errutils.Wrap(err, path)
	}
	return m, nil
}

// ParseFromReader parses a manifest from r and validates it.
func ParseFromReader(r io.Reader) (*Manifest, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", errutils.ErrManifestInvalid, err)
	}

	m := &Manifest{
		IsOpenSource: true,
		Depends:      doc.Depends,
		Files:        doc.Files,
		BuildFolder:  DefaultBuildFolder,
		BuildFile:    DefaultBuildFile,
		Hooks:        doc.Hooks,
		YapmVersion:  strings.TrimSpace(doc.YapmVersion),
	}
	if doc.IsOpenSource != nil {
		m.IsOpenSource = bool(*doc.IsOpenSource)
	}
	if doc.BuildFolder != nil {
		m.BuildFolder = *doc.BuildFolder
	}
	// A prebuilt package never runs a build script, so its build_file is ignored.
	if doc.BuildFile != nil && m.IsOpenSource {
		m.BuildFile = *doc.BuildFile
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate rejects paths that are absolute or climb out of the package tree.
func (m *Manifest) Validate() error {
	check := func(field, p string) error {
		if p == "" {
			return fmt.Errorf("%w: %s must not be empty", errutils.ErrManifestInvalid, field)
		}
		if filepath.IsAbs(p) || strings.HasPrefix(p, "/") {
			return fmt.Errorf("%w: %s %q must be relative", errutils.ErrManifestInvalid, field, p)
		}
		clean := filepath.Clean(p)
		if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			return fmt.Errorf("%w: %s %q escapes the package directory", errutils.ErrManifestInvalid, field, p)
		}
		return nil
	}

	if err := check("build_folder", m.BuildFolder); err != nil {
		return err
	}
	if err := check("build_file", m.BuildFile); err != nil {
		return err
	}
	for _, f := range m.Files {
		if err := check("files", f); err != nil {
			return err
		}
	}
	for _, d := range m.Depends {
		if !fsutil.IsPlainName(d) {
			return fmt.Errorf("%w: invalid dependency name %q", errutils.ErrManifestInvalid, d)
		}
	}
	for hook, script := range m.Hooks {
		if hook != PreBuild && hook != PostInstall {
			return fmt.Errorf("%w: unknown hook %q", errutils.ErrManifestInvalid, hook)
		}
		if err := check("hooks."+string(hook), script); err != nil {
			return err
		}
	}
	if m.YapmVersion != "" {
		if _, err := version.NewConstraint(m.YapmVersion); err != nil {
			return fmt.Errorf("%w: yapm_version %q: %v", errutils.ErrManifestInvalid, m.YapmVersion, err)
		}
	}
	return nil
}

// CheckCompatible fails with ErrIncompatibleVersion when running does not satisfy the
// yapm_version constraint. Manifests without a constraint accept every version.
func (m *Manifest) CheckCompatible(running string) error {
	if m.YapmVersion == "" {
		return nil
	}
	constraint, err := version.NewConstraint(m.YapmVersion)
	if err != nil {
		return fmt.Errorf("%w: yapm_version %q: %v", errutils.ErrManifestInvalid, m.YapmVersion, err)
	}
	v, err := version.NewVersion(running)
	if err != nil {
		return fmt.Errorf("%w: cannot compare %q against %s", errutils.ErrIncompatibleVersion, running, m.YapmVersion)
	}
	if !constraint.Check(v) {
		return fmt.Errorf("%w: requires yapm %s, this is %s", errutils.ErrIncompatibleVersion, m.YapmVersion, running)
	}
	return nil
}

// HookScript returns the script declared for hook, if any.
func (m *Manifest) HookScript(hook Hook) (string, bool) {
	script, ok := m.Hooks[hook]
	return script, ok
}
