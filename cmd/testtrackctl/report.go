package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report <session-id>",
	Short: "Show session progress: run counts, severities and cases still needing a pass",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var report sessionReport
		if err := newClient().getJSON("/api/v1/sessions/"+args[0]+"/report", &report); err != nil {
			return err
		}
		if outputFmt != "table" {
			return printOutput(report)
		}

		fmt.Printf("session %d\n", report.SessionID)
		fmt.Printf("  runs:        %d total, %d failed\n", report.TotalRuns, report.FailedRuns)
		fmt.Printf("  severities:  %s %d, %s %d, %s %d\n",
			colorSeverity("minor"), report.Minor,
			colorSeverity("major"), report.Major,
			colorSeverity("critical"), report.Critical)
		fmt.Printf("  to execute:  %d\n\n", report.ToExecute)

		if report.ToExecute == 0 {
			fmt.Println("every case has a passing run; the session can close")
			return nil
		}
		rows := make([][]string, 0, len(report.NeedingPass))
		for _, c := range report.NeedingPass {
			rows = append(rows, []string{
				strOrDash(c.ExternalID),
				truncate(c.Title, 50),
				c.Category,
				c.AuthorName,
			})
		}
		printTable([]string{"external id", "title", "category", "author"}, rows)
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the directory role behind the configured caller id",
	RunE: func(cmd *cobra.Command, args []string) error {
		var result whoamiResult
		if err := newClient().getJSON("/api/v1/whoami", &result); err != nil {
			return err
		}
		if outputFmt != "table" {
			return printOutput(result)
		}
		if result.UserID == nil || result.Role == nil {
			fmt.Println("anonymous (pass --user or set TESTTRACK_USER)")
			return nil
		}
		fmt.Printf("user %d, role %s\n", *result.UserID, *result.Role)
		return nil
	},
}
