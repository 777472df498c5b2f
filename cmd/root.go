package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "slots-service",
	Short: "Subscription slot marketplace service",
	Long:  "Backend service that assigns shared-subscription slots to users.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
