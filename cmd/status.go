package cmd

import (
	"encoding/json"
	"fmt"

	statusadapter "github.com/bnema/persona-cast/internal/adapters/render/status"
	"github.com/bnema/persona-cast/internal/application"
	"github.com/spf13/cobra"
)

func newStatusCmd(h *appHolder) *cobra.Command {
	var (
		asJSON  bool
		compact bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show each agent's window, presence and role for today",
		Args:  cobra.NoArgs,
		RunE: withApp(h, func(cmd *cobra.Command, _ []string, a *app) error {
			orchestrator, err := a.orchestrator(cmd.Context(), cmd.OutOrStdout(), false)
			if err != nil {
				return err
			}

			return writeStatusOutput(cmd, a, orchestrator.Status(cmd.Context()), asJSON, compact)
		}),
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print status as JSON")
	cmd.Flags().BoolVar(&compact, "compact", false, "one line per agent")
	return cmd
}

func writeStatusOutput(cmd *cobra.Command, a *app, status application.CastStatus, asJSON, compact bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	rendered, err := a.statusRenderer(status, statusadapter.Options{Compact: compact})
	if err != nil {
		return fmt.Errorf("render status: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
