package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yukawa/avatarbridge/crypto"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new at-rest session secret",
	Long: `Generates a fresh 256-bit secret, hex encoded, for encrypting the
session file at rest. Set it as AVB_SECRET before starting the server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, err := crypto.NewSecretHex()
		if err != nil {
			return fmt.Errorf("failed to generate secret: %w", err)
		}
		fmt.Println(secret)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}
