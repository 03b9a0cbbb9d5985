package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/bnema/persona-cast/internal/domain"
	"github.com/spf13/cobra"
)

func newRotationCmd(h *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rotation",
		Short: "Inspect or advance the daily lead/support/rest rotation",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print today's roles and theme",
			Args:  cobra.NoArgs,
			RunE: withApp(h, func(cmd *cobra.Command, _ []string, a *app) error {
				orchestrator, err := a.orchestrator(cmd.Context(), cmd.OutOrStdout(), false)
				if err != nil {
					return err
				}
				return writeRotation(cmd.OutOrStdout(), orchestrator.Rotation().Current(), orchestrator.Rotation().Theme())
			}),
		},
		&cobra.Command{
			Use:   "advance",
			Short: "Move the rotation and the theme one step",
			Args:  cobra.NoArgs,
			RunE: withApp(h, func(cmd *cobra.Command, _ []string, a *app) error {
				orchestrator, err := a.orchestrator(cmd.Context(), cmd.OutOrStdout(), false)
				if err != nil {
					return err
				}

				assignment, err := orchestrator.Rotation().Advance(cmd.Context())
				if err != nil {
					return fmt.Errorf("advance rotation: %w", err)
				}
				return writeRotation(cmd.OutOrStdout(), assignment, orchestrator.Rotation().Theme())
			}),
		},
	)

	return cmd
}

func writeRotation(w io.Writer, assignment domain.RotationAssignment, theme string) error {
	supports := make([]string, 0, len(assignment.Supports))
	for _, id := range assignment.Supports {
		supports = append(supports, string(id))
	}
	if len(supports) == 0 {
		supports = append(supports, "-")
	}
	if theme == "" {
		theme = "-"
	}

	_, err := fmt.Fprintf(w, "index: %d\nlead: %s\nsupport: %s\nrest: %s\ntheme: %s\n",
		assignment.Index, assignment.Lead, strings.Join(supports, ", "), assignment.Rest, theme)
	return err
}
