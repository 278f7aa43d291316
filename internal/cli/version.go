package cli

import (
	"encoding/json"
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version output formats
const (
	FlagFormat          = "format"
	FormatShort         = "short"
	FormatBuildInfo     = "gobuildinfo"
	FormatBuildInfoJSON = "gobuildinfojson"
)

// BuildVersion overrides the module version reported by the version command.
// Set it at build time with
//
//	-ldflags "-X github.com/chilicat/scrbuild/internal/cli.BuildVersion=1.2.3"
var BuildVersion = "n/a"

func newVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the scrbuild version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cmd.Flags().GetString(FlagFormat)
			if err != nil {
				return err
			}
			info, ok := debug.ReadBuildInfo()
			if !ok {
				info = &debug.BuildInfo{}
			}
			if BuildVersion != "n/a" {
				info.Main.Version = BuildVersion
			}

			switch format {
			case FormatShort:
				version := info.Main.Version
				if version == "" {
					version = "(devel)"
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), version)
				return err
			case FormatBuildInfo:
				_, err = fmt.Fprint(cmd.OutOrStdout(), info.String())
				return err
			case FormatBuildInfoJSON:
				return json.NewEncoder(cmd.OutOrStdout()).Encode(info)
			default:
				return fmt.Errorf("unknown version format %q", format)
			}
		},
	}
	cmd.Flags().StringP(FlagFormat, "f", FormatShort,
		fmt.Sprintf("output format: %s, %s or %s", FormatShort, FormatBuildInfo, FormatBuildInfoJSON))
	return cmd
}
