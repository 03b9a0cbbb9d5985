package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	holder := &appHolder{opts: opts}

	rootCmd := &cobra.Command{
		Use:           "pcast",
		Short:         "persona-cast (pcast): run a cast of chat personas",
		Long:          "pcast animates a small cast of chat personas: daily presence windows, rotating roles, shared memories and human-paced replies.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			holder.close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.pcast/config.toml, or $PCAST_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")

	rootCmd.AddCommand(
		newVersionCmd(),
		newConfigCmd(opts),
		newRunCmd(holder),
		newStatusCmd(holder),
		newRotationCmd(holder),
		newMemoryCmd(holder),
		newStateCmd(holder),
		newPaceCmd(holder),
		newTickCmd(holder),
		newSecretCmd(holder),
	)

	return rootCmd
}
