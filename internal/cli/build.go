package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/chilicat/scrbuild/internal/metrics"
	"github.com/chilicat/scrbuild/internal/pipeline"
)

// Build flag names
const (
	FlagJobs            = "jobs"
	FlagWatch           = "watch"
	FlagDebounce        = "debounce"
	FlagMetricsTextfile = "metrics-textfile"
	FlagQuiet           = "quiet"
)

// ErrBuildFailed is returned when at least one module build logged an error
var ErrBuildFailed = errors.New("descriptor build failed")

func newBuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [module...]",
		Short: "Generate component descriptors and patch the manifests",
		Long: `Build cleans stale descriptors, analyzes the compiled classes of each module
for Felix SCR and Declarative Services annotations, writes OSGI-INF/*.xml and
sets Service-Component in META-INF/MANIFEST.MF.

Modules come from the project file, or from --output for a single directory.`,
		Example: `  scrbuild build
  scrbuild build core api --strict=false
  scrbuild build -o target/classes --module com.acme.core --source src/main/resources
  scrbuild build --watch`,
		RunE: runBuild,
	}

	flags := cmd.Flags()
	registerProjectFlags(flags)
	registerSettingsFlags(flags)
	flags.IntP(FlagJobs, "j", 0, "parallel module builds (0: number of CPUs)")
	flags.Bool(FlagWatch, false, "rebuild modules when their class files change")
	flags.Duration(FlagDebounce, 300*time.Millisecond, "wait this long for more changes before rebuilding")
	flags.String(FlagMetricsTextfile, "", "write build metrics in Prometheus textfile format to this path")
	flags.BoolP(FlagQuiet, "q", false, "do not print the summary table")
	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	project, err := loadProject(cmd)
	if err != nil {
		return err
	}
	modules, err := selectModules(project, args)
	if err != nil {
		return err
	}
	if len(modules) == 0 {
		return fmt.Errorf("no modules to build")
	}

	factory, err := newLoggerFactory(cmd, project.Settings.DebugLogging)
	if err != nil {
		return err
	}

	contexts := make([]pipeline.BuildContext, 0, len(modules))
	for _, m := range modules {
		contexts = append(contexts, pipeline.FromModule(project, m, nil))
	}

	jobs, _ := cmd.Flags().GetInt(FlagJobs)
	textfile, _ := cmd.Flags().GetString(FlagMetricsTextfile)
	quiet, _ := cmd.Flags().GetBool(FlagQuiet)
	opts := pipeline.RunOptions{
		Concurrency: jobs,
		NewLogger:   factory.Logger,
		Metrics:     textfile != "",
	}

	if watch, _ := cmd.Flags().GetBool(FlagWatch); watch {
		debounce, _ := cmd.Flags().GetDuration(FlagDebounce)
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		err := pipeline.Watch(ctx, contexts, pipeline.WatchOptions{
			RunOptions: opts,
			Debounce:   debounce,
			Logger:     factory.Logger(""),
			OnBuild: func(r pipeline.Result) {
				if !quiet {
					fmt.Fprintln(cmd.OutOrStdout(), resultLine(r))
				}
				if textfile != "" {
					writeMetrics(cmd, textfile)
				}
			},
		})
		if errors.Is(err, context.Canceled) && cmd.Context().Err() == nil {
			// interrupted before the initial build finished
			return nil
		}
		return err
	}

	results, err := pipeline.RunAll(cmd.Context(), contexts, opts)
	if err != nil {
		return err
	}
	if !quiet {
		if err := renderSummary(cmd.OutOrStdout(), results); err != nil {
			return err
		}
	}
	if textfile != "" {
		if err := metrics.WriteTextfile(textfile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	if !pipeline.Succeeded(results) {
		return ErrBuildFailed
	}
	return nil
}

func writeMetrics(cmd *cobra.Command, path string) {
	if err := metrics.WriteTextfile(path); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "write metrics: %v\n", err)
	}
}

// renderSummary prints one table row per module build
func renderSummary(w io.Writer, results []pipeline.Result) error {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Module,
			status(r),
			strconv.Itoa(r.Components),
			strconv.Itoa(len(r.Written)),
			strconv.Itoa(len(r.Removed)),
			strconv.Itoa(r.Warnings),
			strconv.Itoa(r.Errors),
			r.Duration.Round(time.Millisecond).String(),
		})
	}

	table := tablewriter.NewWriter(w)
	table.Header("Module", "Result", "Components", "Written", "Removed", "Warnings", "Errors", "Duration")
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func status(r pipeline.Result) string {
	if r.Success {
		return "ok"
	}
	return "failed"
}

// resultLine is the one-line summary printed in watch mode
func resultLine(r pipeline.Result) string {
	return fmt.Sprintf("%s %s: %d components, %d written, %d removed, %d warnings, %d errors (%s)",
		time.Now().Format("15:04:05"), r.Module, r.Components, len(r.Written), len(r.Removed),
		r.Warnings, r.Errors, r.Duration.Round(time.Millisecond))
}
