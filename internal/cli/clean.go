package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chilicat/scrbuild/internal/cleaner"
)

func newCleanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean [module...]",
		Short: "Delete generated component descriptors",
		Long: `Clean deletes OSGI-INF/*.xml from the output directory of each module.
Descriptors with the name of a file in OSGI-INF of a source root are kept,
because they were copied from hand-written sources.`,
		RunE: runClean,
	}
	registerProjectFlags(cmd.Flags())
	return cmd
}

func runClean(cmd *cobra.Command, args []string) error {
	project, err := loadProject(cmd)
	if err != nil {
		return err
	}
	modules, err := selectModules(project, args)
	if err != nil {
		return err
	}
	factory, err := newLoggerFactory(cmd, project.Settings.DebugLogging)
	if err != nil {
		return err
	}

	failed := false
	for _, m := range modules {
		logger := factory.Logger(m.Name)
		if m.Output == "" {
			logger.Error(fmt.Sprintf("Compiler Output path must be set for: %s", m.Name))
			failed = true
			continue
		}
		for _, removed := range cleaner.NewCleaner(logger).Clean(m.Output, m.SourceRoots) {
			fmt.Fprintln(cmd.OutOrStdout(), removed)
		}
		failed = failed || logger.ErrorPrinted()
	}
	if failed {
		return ErrBuildFailed
	}
	return nil
}
