package settings

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	screrrors "github.com/chilicat/scrbuild/internal/errors"
)

// ProjectFile is the default name of the project description
const ProjectFile = "scrbuild.yaml"

// Module describes one module to build
type Module struct {
	// Name becomes the bundle symbolic name
	Name string `yaml:"name"`
	// Output is the compiler output directory holding the .class files
	Output string `yaml:"output"`
	// SourceRoots may hold hand-written OSGI-INF descriptors and the .java sources
	SourceRoots []string `yaml:"sourceRoots,omitempty"`
	// Classpath lists extra archives and directories used to resolve types
	Classpath []string `yaml:"classpath,omitempty"`
	// Settings overrides the project settings for this module only
	Settings *Settings `yaml:"settings,omitempty"`
}

// Project is the content of a project file
type Project struct {
	Settings Settings `yaml:"settings"`
	Modules  []Module `yaml:"modules"`
}

// DefaultProject returns an empty project with default settings
func DefaultProject() *Project {
	return &Project{Settings: Default()}
}

// LoadProject reads a project file. Unset settings keep their defaults and
// relative paths are resolved against the directory of the file.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, screrrors.WrapConfigurationError(path, "read", err)
	}

	project, err := ParseProject(data)
	if err != nil {
		return nil, screrrors.WrapConfigurationError(path, "parse", err)
	}

	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, screrrors.WrapConfigurationError(path, "resolve", err)
	}
	project.resolvePaths(base)

	return project, nil
}

// ParseProject decodes project YAML and validates it
func ParseProject(data []byte) (*Project, error) {
	project := DefaultProject()
	if err := yaml.Unmarshal(data, project); err != nil {
		return nil, err
	}

	// Module overrides start from the project settings, not from zero values.
	var raw struct {
		Modules []struct {
			Settings yaml.Node `yaml:"settings"`
		} `yaml:"modules"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for i := range project.Modules {
		if i >= len(raw.Modules) || raw.Modules[i].Settings.Kind == 0 {
			project.Modules[i].Settings = nil
			continue
		}
		override := project.Settings
		if err := raw.Modules[i].Settings.Decode(&override); err != nil {
			return nil, fmt.Errorf("module %q settings: %w", project.Modules[i].Name, err)
		}
		project.Modules[i].Settings = &override
	}

	if err := project.Validate(); err != nil {
		return nil, err
	}
	return project, nil
}

// Validate checks the project settings and every module entry
func (p *Project) Validate() error {
	if err := p.Settings.Validate(); err != nil {
		return err
	}

	seen := make(map[string]bool)
	for i, m := range p.Modules {
		if m.Name == "" {
			return fmt.Errorf("module #%d: name is required", i+1)
		}
		if seen[m.Name] {
			return fmt.Errorf("module %q is declared twice", m.Name)
		}
		seen[m.Name] = true
		if m.Settings != nil {
			if err := m.Settings.Validate(); err != nil {
				return fmt.Errorf("module %q: %w", m.Name, err)
			}
		}
	}
	return nil
}

// SettingsFor returns the effective settings of a module
func (p *Project) SettingsFor(m Module) Settings {
	if m.Settings != nil {
		return *m.Settings
	}
	return p.Settings
}

// Module looks a module up by name
func (p *Project) Module(name string) (Module, bool) {
	for _, m := range p.Modules {
		if m.Name == name {
			return m, true
		}
	}
	return Module{}, false
}

// SaveToFile writes the project as YAML
func (p *Project) SaveToFile(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return screrrors.WrapConfigurationError(path, "encode", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return screrrors.WrapFileSystemError("write", path, err)
	}
	return nil
}

func (p *Project) resolvePaths(base string) {
	abs := func(path string) string {
		if path == "" || filepath.IsAbs(path) {
			return path
		}
		return filepath.Join(base, path)
	}

	for i := range p.Modules {
		m := &p.Modules[i]
		m.Output = abs(m.Output)
		for j := range m.SourceRoots {
			m.SourceRoots[j] = abs(m.SourceRoots[j])
		}
		for j := range m.Classpath {
			m.Classpath[j] = abs(m.Classpath[j])
		}
	}
}
