package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/bnema/persona-cast/internal/version"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if short {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Version)
				return err
			}

			line := fmt.Sprintf("pcast %s (%s/%s", version.Version, runtime.GOOS, runtime.GOARCH)
			if revision := vcsRevision(); revision != "" {
				line += ", " + revision
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), line+")")
			return err
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "print the version number only")
	return cmd
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && len(setting.Value) >= 7 {
			return setting.Value[:7]
		}
	}
	return ""
}
