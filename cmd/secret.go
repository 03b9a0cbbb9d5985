package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSecretCmd(h *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Store API keys in pass, or under ~/.pcast/secrets",
	}

	var value string
	setCmd := &cobra.Command{
		Use:   "set [ref]",
		Short: "Store a secret (defaults to generation.api_key_ref); reads stdin when --value is empty",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(h, func(cmd *cobra.Command, args []string, a *app) error {
			ref, err := secretRef(args, a)
			if err != nil {
				return err
			}

			if value == "" {
				scanner := bufio.NewScanner(cmd.InOrStdin())
				if scanner.Scan() {
					value = scanner.Text()
				}
			}
			value = strings.TrimSpace(value)
			if value == "" {
				return errors.New("secret value is empty")
			}

			if err := a.secretStore.Put(cmd.Context(), ref, value); err != nil {
				return fmt.Errorf("store secret: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "stored %s\n", ref)
			return err
		}),
	}
	setCmd.Flags().StringVar(&value, "value", "", "secret value")

	rmCmd := &cobra.Command{
		Use:   "rm [ref]",
		Short: "Delete a stored secret",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(h, func(cmd *cobra.Command, args []string, a *app) error {
			ref, err := secretRef(args, a)
			if err != nil {
				return err
			}
			if err := a.secretStore.Delete(cmd.Context(), ref); err != nil {
				return fmt.Errorf("delete secret: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", ref)
			return err
		}),
	}

	cmd.AddCommand(setCmd, rmCmd)
	return cmd
}

func secretRef(args []string, a *app) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if ref := a.config.File.Generation.APIKeyRef; ref != "" {
		return ref, nil
	}
	return "", errors.New("no secret ref given and generation.api_key_ref is empty")
}
