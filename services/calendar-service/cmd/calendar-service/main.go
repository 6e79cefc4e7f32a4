package main

import (
	"os"

	_ "time/tzdata"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	serve := newServeCommand()
	cmd := &cobra.Command{
		Use:          "calendar-service",
		Short:        "Appointment calendar backend",
		Long:         "Serves the appointment calendar API and the n8n and VAPI intake webhooks.",
		SilenceUsage: true,
		RunE:         serve.RunE,
		Args:         cobra.NoArgs,
	}
	cmd.AddCommand(serve)
	cmd.AddCommand(newMigrateCommand())
	return cmd
}
