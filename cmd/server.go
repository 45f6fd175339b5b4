package cmd

import (
	"soundwave/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the soundwave HTTP server",
	Long:  `Start the soundwave music streaming server, serving the REST API and audio streams.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
