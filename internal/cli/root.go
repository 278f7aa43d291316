package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	screrrors "github.com/chilicat/scrbuild/internal/errors"
)

// New returns the scrbuild root command
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrbuild",
		Short: "Generate OSGi component descriptors from compiled classes",
		Long: `scrbuild reads the compiled classes of Java modules, finds Felix SCR and
Declarative Services component annotations and writes the matching
OSGI-INF/*.xml descriptors next to the classes. The bundle manifest gets a
Service-Component header pointing at them.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	registerLoggingFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newBuildCommand(),
		newCleanCommand(),
		newSettingsCommand(),
		newVersionCommand(),
	)
	return cmd
}

// Execute runs the root command with os.Args and exits non-zero on failure
func Execute() {
	if err := ExecuteContext(context.Background(), os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

// ExecuteContext runs the root command with args. Errors other than a failed
// build are printed to stderr, since a failed build already logged its cause.
func ExecuteContext(ctx context.Context, args []string) error {
	cmd := New()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, ErrBuildFailed) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", errorMessage(err))
	}
	return err
}

// errorMessage renders err, with the context data of typed build errors
func errorMessage(err error) string {
	if be, ok := err.(*screrrors.BaseError); ok {
		return be.Describe()
	}
	return err.Error()
}
