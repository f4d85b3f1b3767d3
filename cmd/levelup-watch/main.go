// Command levelup-watch follows a learner's live progress from the terminal.
//
// It keeps one realtime session to the LevelUp server, prints the stats snapshot whenever it
// changes and shows toasts for level ups and notifications.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Build info (set via ldflags).
	Version = "dev"
)

var (
	// Global flags.
	flagServer  string
	flagToken   string
	flagConfig  string
	flagLogFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "levelup-watch",
		Short: "Watch LevelUp progress in real time",
		Long: `levelup-watch connects to the LevelUp realtime endpoint and shows your level,
points, streak and leaderboard as they change, together with achievement toasts.

The access token is read from --token, then LEVELUP_TOKEN, then the OS keyring
(see "levelup-watch login").`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "LevelUp server base URL (or LEVELUP_SERVER_URL)")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "Access token (or LEVELUP_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a config file replacing the built in defaults")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Rotating JSON log file")

	rootCmd.Version = Version

	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
