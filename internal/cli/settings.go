package cli

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// FlagSave names the settings flag writing the effective project to a file
const FlagSave = "save"

func newSettingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings [module...]",
		Short: "Print the effective project settings",
		Long: `Settings prints the project after the command line settings were applied.
Without module arguments the whole project is printed, otherwise the
effective settings of each named module. With --save the effective project
is written to a project file instead.`,
		Example: `  scrbuild settings
  scrbuild settings core --strict=false
  scrbuild settings -o target/classes --spec 1.2 --save scrbuild.yaml`,
		RunE: runSettings,
	}
	registerProjectFlags(cmd.Flags())
	registerSettingsFlags(cmd.Flags())
	cmd.Flags().String(FlagSave, "", "write the effective project to this file")
	return cmd
}

func runSettings(cmd *cobra.Command, args []string) error {
	project, err := loadProject(cmd)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString(FlagSave); path != "" {
		return project.SaveToFile(path)
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()

	if len(args) == 0 {
		return enc.Encode(project)
	}
	modules, err := selectModules(project, args)
	if err != nil {
		return err
	}
	effective := make(map[string]any, len(modules))
	for _, m := range modules {
		effective[m.Name] = project.SettingsFor(m)
	}
	return enc.Encode(effective)
}
