package cmd

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"fitbridge/internal/session"
)

func newSecretCmd() *cobra.Command {
	secretCmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage the session secret",
	}

	secretCmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Print a new random SESSION_SECRET",
		Long: `Prints 32 random bytes as 64 hex characters, suitable for SESSION_SECRET.

Changing the secret invalidates every existing session; users will be asked
to log in to Fitbit again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := make([]byte, session.KeySize)
			if _, err := rand.Read(key); err != nil {
				return fmt.Errorf("failed to generate secret: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(key))
			return nil
		},
	})

	return secretCmd
}
