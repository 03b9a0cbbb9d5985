package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	consolechannel "github.com/bnema/persona-cast/internal/adapters/channel/console"
	"github.com/bnema/persona-cast/internal/application"
	"github.com/bnema/persona-cast/internal/domain"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newRunCmd(h *appHolder) *cobra.Command {
	var (
		duration time.Duration
		noInput  bool
		channel  string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every agent's chatter loop until interrupted",
		Long: `Starts each agent's chatter loop and the maintenance loop. Lines typed on
stdin are offered to every agent as chat messages:

  sam: anyone up for a walk?
  #music sam: new record out today`,
		Args: cobra.NoArgs,
		RunE: withApp(h, func(cmd *cobra.Command, _ []string, a *app) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			orchestrator, err := a.orchestrator(ctx, cmd.OutOrStdout(), true)
			if err != nil {
				return err
			}

			defaultChannel := domain.ChannelID(channel)
			if defaultChannel == "" {
				defaultChannel = firstHomeChannel(a.cast)
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return orchestrator.Run(gctx)
			})
			if !noInput {
				lines := make(chan string)
				go scanLines(gctx, cmd, lines)
				g.Go(func() error {
					return dispatchLines(gctx, orchestrator, lines, defaultChannel, cmd)
				})
			}

			return g.Wait()
		}),
	}

	cmd.Flags().DurationVar(&duration, "duration", 0, "stop after this long (0 runs until interrupted)")
	cmd.Flags().BoolVar(&noInput, "no-input", false, "ignore stdin")
	cmd.Flags().StringVar(&channel, "channel", "", "channel for lines without a #channel prefix (default: first agent's home channel)")

	return cmd
}

// scanLines feeds stdin lines to out and closes it at EOF. It may outlive the
// command while blocked on a terminal read.
func scanLines(ctx context.Context, cmd *cobra.Command, out chan<- string) {
	defer close(out)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		select {
		case out <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
}

func dispatchLines(ctx context.Context, orchestrator *application.Orchestrator, lines <-chan string, defaultChannel domain.ChannelID, cmd *cobra.Command) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if line == "" {
				continue
			}

			msg, ok := consolechannel.ParseLine(line, defaultChannel)
			if !ok {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), `expected "author: text" or "#channel author: text"`)
				continue
			}
			orchestrator.Dispatch(ctx, msg)
		}
	}
}

func firstHomeChannel(cast domain.Cast) domain.ChannelID {
	for _, agent := range cast.Agents {
		if agent.HomeChannel != "" {
			return agent.HomeChannel
		}
	}
	for id := range cast.Channels {
		return id
	}
	return ""
}
