package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnema/persona-cast/internal/application"
	"github.com/spf13/cobra"
)

func newPaceCmd(h *appHolder) *cobra.Command {
	var (
		maxLen     int
		showDelays bool
	)

	cmd := &cobra.Command{
		Use:   "pace <text...>",
		Short: "Show how a message would be split into chunks",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(h, func(cmd *cobra.Command, args []string, a *app) error {
			cfg := a.pacing
			if cmd.Flags().Changed("max-len") {
				cfg.MaxChunkLen = maxLen
			}
			pacer := application.NewMessagePacer(cfg, nil, nil, a.logger)

			out := cmd.OutOrStdout()
			for i, chunk := range pacer.Split(strings.Join(args, " ")) {
				line := fmt.Sprintf("%d. %s", i+1, chunk)
				if showDelays {
					line += fmt.Sprintf("  (typing ~%s)", pacer.TypingDelay(chunk).Round(100*time.Millisecond))
				}
				if _, err := fmt.Fprintln(out, line); err != nil {
					return err
				}
			}
			return nil
		}),
	}

	cmd.Flags().IntVar(&maxLen, "max-len", application.DefaultMaxChunkLen, "maximum chunk length in characters")
	cmd.Flags().BoolVar(&showDelays, "delays", false, "show a sampled typing delay per chunk")
	return cmd
}
