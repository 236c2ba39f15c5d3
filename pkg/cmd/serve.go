package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/sharesmallbiz/pkg/app"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "start the http server and background jobs",
	Aliases: []string{"server", "run"},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.NewApp(cmd.Context(), configPath)
		if err != nil {
			return err
		}

		return a.Run(cmd.Context())
	},
}

func registerServeCommands() {
	rootCmd.AddCommand(serveCmd)
}
