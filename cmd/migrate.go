package cmd

import (
	"log"

	"soundwave/config"
	"soundwave/db"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Initialize the database schema",
	Long:  `Connect to the database and create the songs, playlists and users tables if they do not exist.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		if err := db.ConnectDB(cfg); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.CloseDB()

		if err := db.InitDB(); err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		log.Println("Schema initialization complete.")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
