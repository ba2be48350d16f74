/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/flockshop/wishlist-api/config"
	"github.com/flockshop/wishlist-api/internal/server"
	"github.com/spf13/cobra"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the wishlist backend server",
	Long: `Starts the wishlist backend server. Usage:

	wishlist-api server
`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := newLogger()
		cfg := config.LoadConfig()

		srv, err := server.New(cmd.Context(), cfg, logger)
		if err != nil {
			logger.Fatalf("Failed to start server: %v", err)
		}
		if err := srv.Start(); err != nil {
			logger.Fatalf("Server error: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
