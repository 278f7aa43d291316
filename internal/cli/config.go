package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/chilicat/scrbuild/internal/settings"
)

// Flag names shared by several commands
const (
	FlagProject     = "project"
	FlagModule      = "module"
	FlagOutput      = "output"
	FlagSource      = "source"
	FlagClasspath   = "classpath"
	FlagEnabled     = "enabled"
	FlagStrict      = "strict"
	FlagAccessors   = "generate-accessors"
	FlagOptimized   = "optimized"
	FlagDebugLog    = "debug-logging"
	FlagSpec        = "spec"
	FlagManifest    = "manifest-policy"
	FlagAnnotations = "annotations"
)

// registerProjectFlags adds the flags selecting the modules to work on
func registerProjectFlags(flags *pflag.FlagSet) {
	flags.StringP(FlagProject, "p", settings.ProjectFile, "project file describing the modules")
	flags.String(FlagModule, "", "module name of an ad-hoc build (defaults to the output directory name)")
	flags.StringP(FlagOutput, "o", "", "compiler output directory; builds a single module without a project file")
	flags.StringSlice(FlagSource, nil, "source roots of the ad-hoc module")
	flags.StringSlice(FlagClasspath, nil, "extra classpath entries of the ad-hoc module")
}

// registerSettingsFlags adds one flag per setting. Only flags that are set
// on the command line override the project.
func registerSettingsFlags(flags *pflag.FlagSet) {
	flags.Bool(FlagEnabled, true, "run the descriptor build")
	flags.Bool(FlagStrict, true, "report annotation problems as errors")
	flags.Bool(FlagAccessors, true, "assume bind/unbind methods of field references are generated")
	flags.Bool(FlagOptimized, true, "skip classes that mention no component annotation")
	flags.Bool(FlagDebugLog, false, "log debug output of the analysis")
	flags.String(FlagSpec, settings.Spec11, fmt.Sprintf("descriptor spec version %v", settings.SpecVersions))
	flags.String(FlagManifest, settings.ManifestOverwrite.String(), "how Service-Component is written to the manifest")
	flags.String(FlagAnnotations, "*", "glob over class names inspected for annotations")
}

// settingsEdits collects the changed settings flags
func settingsEdits(flags *pflag.FlagSet) (settings.Edits, error) {
	var edits settings.Edits

	boolFlag := func(name string, target **bool) error {
		if !flags.Changed(name) {
			return nil
		}
		v, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		*target = &v
		return nil
	}
	stringFlag := func(name string, target **string) error {
		if !flags.Changed(name) {
			return nil
		}
		v, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*target = &v
		return nil
	}

	for name, target := range map[string]**bool{
		FlagEnabled:   &edits.Enabled,
		FlagStrict:    &edits.StrictMode,
		FlagAccessors: &edits.GenerateAccessors,
		FlagOptimized: &edits.OptimizedBuild,
		FlagDebugLog:  &edits.DebugLogging,
	} {
		if err := boolFlag(name, target); err != nil {
			return edits, err
		}
	}
	if err := stringFlag(FlagSpec, &edits.SpecVersion); err != nil {
		return edits, err
	}
	if err := stringFlag(FlagAnnotations, &edits.Annotations); err != nil {
		return edits, err
	}
	if flags.Changed(FlagManifest) {
		raw, _ := flags.GetString(FlagManifest)
		policy, err := settings.ParseManifestPolicy(raw)
		if err != nil {
			return edits, err
		}
		edits.ManifestPolicy = &policy
	}
	return edits, nil
}

// loadProject returns the project the command works on: an ad-hoc single
// module project when --output is set, the project file otherwise. Settings
// flags are applied to the project and to every module override.
func loadProject(cmd *cobra.Command) (*settings.Project, error) {
	flags := cmd.Flags()

	var project *settings.Project
	if output, _ := flags.GetString(FlagOutput); output != "" {
		abs, err := filepath.Abs(output)
		if err != nil {
			return nil, err
		}
		name, _ := flags.GetString(FlagModule)
		if name == "" {
			name = filepath.Base(abs)
		}
		sources, _ := flags.GetStringSlice(FlagSource)
		cp, _ := flags.GetStringSlice(FlagClasspath)

		project = settings.DefaultProject()
		project.Modules = []settings.Module{{Name: name, Output: abs, SourceRoots: sources, Classpath: cp}}
	} else {
		path, _ := flags.GetString(FlagProject)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("no project file %s; pass --%s to build a single output directory", path, FlagOutput)
		}
		loaded, err := settings.LoadProject(path)
		if err != nil {
			return nil, err
		}
		project = loaded
	}

	edits, err := settingsEdits(flags)
	if err != nil {
		return nil, err
	}
	if edits.IsEmpty() {
		return project, project.Validate()
	}

	if project.Settings, err = settings.Apply(project.Settings, edits); err != nil {
		return nil, err
	}
	for i := range project.Modules {
		m := &project.Modules[i]
		if m.Settings == nil {
			continue
		}
		applied, err := settings.Apply(*m.Settings, edits)
		if err != nil {
			return nil, fmt.Errorf("module %q: %w", m.Name, err)
		}
		m.Settings = &applied
	}
	return project, project.Validate()
}

// selectModules returns the named modules, or all of them
func selectModules(project *settings.Project, names []string) ([]settings.Module, error) {
	if len(names) == 0 {
		return project.Modules, nil
	}
	modules := make([]settings.Module, 0, len(names))
	for _, name := range names {
		m, ok := project.Module(name)
		if !ok {
			return nil, fmt.Errorf("unknown module %q", name)
		}
		modules = append(modules, m)
	}
	return modules, nil
}
