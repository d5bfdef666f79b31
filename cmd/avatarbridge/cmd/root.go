package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "avatarbridge",
	Short: "Avatarbridge is a local session bridge to the avatar platform",
	Long: `A local HTTP bridge that logs in to the avatar platform on behalf of a UI,
keeps each browser session's platform cookies in an isolated, encrypted jar,
and proxies avatar listing, search and selection.`,
	Version: Version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
