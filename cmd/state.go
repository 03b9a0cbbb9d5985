package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newStateCmd(h *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or reset the persisted process state",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the state file as JSON",
			Args:  cobra.NoArgs,
			RunE: withApp(h, func(cmd *cobra.Command, _ []string, a *app) error {
				document, err := a.stateRepo.Load(cmd.Context())
				if err != nil {
					return fmt.Errorf("load state: %w", err)
				}

				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(document)
			}),
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Restore the default state and write it",
			Args:  cobra.NoArgs,
			RunE: withApp(h, func(cmd *cobra.Command, _ []string, a *app) error {
				orchestrator, err := a.orchestrator(cmd.Context(), cmd.OutOrStdout(), false)
				if err != nil {
					return err
				}
				if err := orchestrator.State().Reset(cmd.Context()); err != nil {
					return fmt.Errorf("reset state: %w", err)
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "state reset: %s\n", a.stateRepo.Path())
				return err
			}),
		},
	)

	return cmd
}
