// testtrackctl is the command-line client of the testtrack server. It
// speaks the same HTTP API the web UI does; the server stays the single
// place where rules are enforced.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	outputFmt string
	userID    string
)

var rootCmd = &cobra.Command{
	Use:   "testtrackctl",
	Short: "CLI for the testtrack manual-test tracking server",
	Long: `testtrackctl manages the manual-test tracking server: the case catalog,
testing sessions, recorded runs and failure classifications.

Caller identity is advisory. Pass --user (or set TESTTRACK_USER) with your
directory id and the server records you as author, runner or reporter.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Testtrack server URL")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "Directory user id sent as X-User-ID (default: from TESTTRACK_USER env)")

	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(casesCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(failuresCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(whoamiCmd)
}

// resolvedUser returns the effective caller id.
// Priority: --user flag > TESTTRACK_USER env var > anonymous.
func resolvedUser() string {
	if userID != "" {
		return userID
	}
	return os.Getenv("TESTTRACK_USER")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
