package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "admin",
	Short: "Musicbox admin CLI",
	Long: `Maintenance commands for a musicbox deployment.

The CLI reads the same DATABASE_URL, STORAGE_URL and REDIS_URL variables as
the server. Configuration can be loaded from a .env file in the current
directory; environment variables override .env file values.

Examples:
  admin sweep
  admin users
  admin set-role 42 user
  admin remove-artist 7
  admin remove-user 42 --json`,
	SilenceUsage: true,
}

var jsonOutput bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(setRoleCmd)
	rootCmd.AddCommand(removeArtistCmd)
	rootCmd.AddCommand(removeUserCmd)
}
