package cmd

import (
	"fmt"
	"strings"

	"github.com/bnema/persona-cast/internal/application"
	"github.com/bnema/persona-cast/internal/domain"
	"github.com/spf13/cobra"
)

func newMemoryCmd(h *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect and edit the shared memory log",
	}

	cmd.AddCommand(
		newMemoryListCmd(h),
		newMemoryRecordCmd(h),
		newMemoryRecallCmd(h),
		newMemoryDecayCmd(h),
	)

	return cmd
}

func newMemoryListCmd(h *appHolder) *cobra.Command {
	var who string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List memories, oldest first",
		Args:  cobra.NoArgs,
		RunE: withApp(h, func(cmd *cobra.Command, _ []string, a *app) error {
			orchestrator, err := a.orchestrator(cmd.Context(), cmd.OutOrStdout(), false)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			listed := 0
			for _, event := range orchestrator.Memory().List() {
				if who != "" && string(event.Who) != who {
					continue
				}
				if _, err := fmt.Fprintf(out, "%s  %.2f  %s\n", event.ID, event.Weight, application.FormatMemory(event)); err != nil {
					return err
				}
				listed++
			}
			if listed == 0 {
				_, err = fmt.Fprintln(out, "no memories")
			}
			return err
		}),
	}

	cmd.Flags().StringVar(&who, "who", "", "only show memories recorded by this agent")
	return cmd
}

func newMemoryRecordCmd(h *appHolder) *cobra.Command {
	var (
		who    string
		tone   string
		tags   []string
		weight float64
	)

	cmd := &cobra.Command{
		Use:   "record <summary...>",
		Short: "Record a memory",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(h, func(cmd *cobra.Command, args []string, a *app) error {
			orchestrator, err := a.orchestrator(cmd.Context(), cmd.OutOrStdout(), false)
			if err != nil {
				return err
			}

			event, err := orchestrator.Memory().Record(cmd.Context(), application.MemoryInput{
				Who:     domain.AgentID(who),
				Summary: strings.Join(args, " "),
				Tone:    tone,
				Tags:    tags,
				Weight:  &weight,
			})
			if err != nil {
				return fmt.Errorf("record memory: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "recorded %s (weight %.2f)\n", event.ID, event.Weight)
			return err
		}),
	}

	cmd.Flags().StringVar(&who, "who", "narrator", "who the memory is about")
	cmd.Flags().StringVar(&tone, "tone", "", "emotional tone")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag (repeatable)")
	cmd.Flags().Float64Var(&weight, "weight", application.DefaultRecordWeight, "initial weight (>= 0), capped at 5")
	return cmd
}

func newMemoryRecallCmd(h *appHolder) *cobra.Command {
	var (
		tags       []string
		maxAgeDays float64
	)

	cmd := &cobra.Command{
		Use:   "recall",
		Short: "Pick a memory the way an agent would",
		Args:  cobra.NoArgs,
		RunE: withApp(h, func(cmd *cobra.Command, _ []string, a *app) error {
			orchestrator, err := a.orchestrator(cmd.Context(), cmd.OutOrStdout(), false)
			if err != nil {
				return err
			}

			event, ok := orchestrator.Memory().Recall(tags, nil, maxAgeDays)
			if !ok {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "nothing to recall")
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), application.FormatMemory(event))
			return err
		}),
	}

	cmd.Flags().StringSliceVar(&tags, "tag", nil, "preferred tag (repeatable)")
	cmd.Flags().Float64Var(&maxAgeDays, "max-age-days", application.DefaultRecallMaxAgeDays, "ignore memories older than this")
	return cmd
}

func newMemoryDecayCmd(h *appHolder) *cobra.Command {
	var factor, minKeep float64

	cmd := &cobra.Command{
		Use:   "decay",
		Short: "Scale every weight down and evict faded memories",
		Args:  cobra.NoArgs,
		RunE: withApp(h, func(cmd *cobra.Command, _ []string, a *app) error {
			orchestrator, err := a.orchestrator(cmd.Context(), cmd.OutOrStdout(), false)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("factor") {
				factor = a.maintenance.DecayFactor
			}
			if !cmd.Flags().Changed("min-keep") {
				minKeep = a.maintenance.DecayMinKeep
			}

			evicted, err := orchestrator.Memory().Decay(cmd.Context(), factor, minKeep)
			if err != nil {
				return fmt.Errorf("decay memory: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "evicted %d, kept %d\n", evicted, len(orchestrator.Memory().List()))
			return err
		}),
	}

	cmd.Flags().Float64Var(&factor, "factor", application.DefaultDecayFactor, "weight multiplier in (0, 1]")
	cmd.Flags().Float64Var(&minKeep, "min-keep", application.DefaultDecayMinKeep, "evict memories whose weight falls below this")
	return cmd
}
