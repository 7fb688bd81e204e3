package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fileops/notifyd/internal/build"
)

// NewRootCmd returns the notifyd root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "notifyd",
		Short: "Notification delivery daemon",
		Long: `notifyd renders notification templates, delivers them to in-app and
email channels, and fans out signed webhooks to subscribers.`,
		Version:       build.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(NewServeCmd())
	root.AddCommand(NewSignCmd())
	root.AddCommand(NewVerifyCmd())
	root.AddCommand(NewTemplatesCmd())
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
