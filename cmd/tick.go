package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/bnema/persona-cast/internal/application"
	"github.com/bnema/persona-cast/internal/domain"
	"github.com/spf13/cobra"
)

type tickResult struct {
	Agent   domain.AgentID
	Channel domain.ChannelID
	Acted   bool
	Skip    application.SkipReason `json:",omitempty"`
	Text    string                 `json:",omitempty"`
	Chunks  int
	Error   string `json:",omitempty"`
}

func newTickCmd(h *appHolder) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tick <agent>",
		Short: "Run one spontaneous chatter attempt for an agent",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(h, func(cmd *cobra.Command, args []string, a *app) error {
			orchestrator, err := a.orchestrator(cmd.Context(), cmd.OutOrStdout(), true)
			if err != nil {
				return err
			}
			agent, err := orchestrator.Agent(domain.AgentID(args[0]))
			if err != nil {
				return err
			}

			var outcome application.Outcome
			evaluate := func(ctx context.Context) error {
				outcome = agent.Evaluate(ctx)
				return nil
			}

			if asJSON {
				_ = evaluate(cmd.Context())
			} else {
				if err := whileThinking(cmd.Context(), cmd.ErrOrStderr(), agent.Profile().DisplayName(), evaluate); err != nil {
					return err
				}
			}
			orchestrator.State().Persist(cmd.Context())

			return writeTickResult(cmd.OutOrStdout(), outcome, asJSON)
		}),
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the outcome as JSON instead of the chat line")
	return cmd
}

func writeTickResult(w io.Writer, outcome application.Outcome, asJSON bool) error {
	if asJSON {
		result := tickResult{
			Agent:   outcome.Agent,
			Channel: outcome.Channel,
			Acted:   outcome.Acted,
			Skip:    outcome.Skip,
			Text:    outcome.Text,
			Chunks:  outcome.Chunks,
		}
		if outcome.Err != nil {
			result.Error = outcome.Err.Error()
		}

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if outcome.Acted {
		return nil
	}
	if outcome.Err != nil {
		_, err := fmt.Fprintf(w, "%s skipped: %s (%v)\n", outcome.Agent, outcome.Skip, outcome.Err)
		return err
	}
	_, err := fmt.Fprintf(w, "%s skipped: %s\n", outcome.Agent, outcome.Skip)
	return err
}
