package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Record and inspect test executions",
}

var (
	runCase    uint
	runSession uint
	runURL     string
	runPhase   string
	runStatus  string
	runComment string
)

var runsRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record one execution of a case inside a session",
	Example: `  testtrackctl runs record --case 3 --session 1 \
    --url https://staging.example.com --phase SIT --status failed \
    --comment "stuck on spinner"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]any{
			"testCaseId": runCase,
			"sessionId":  runSession,
			"url":        runURL,
			"phase":      runPhase,
			"status":     runStatus,
		}
		if runComment != "" {
			body["comment"] = runComment
		}
		var run runRow
		if err := newClient().postJSON("/api/v1/runs", body, &run); err != nil {
			return err
		}
		if outputFmt != "table" {
			return printOutput(run)
		}
		fmt.Printf("run %d recorded: case %d %s in session %d\n", run.ID, run.TestCaseID, colorStatus(run.Status), run.SessionID)
		return nil
	},
}

var (
	runsFilterSession uint
	runsFailedOnly    bool
)

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/api/v1/runs"
		sep := "?"
		if runsFilterSession != 0 {
			path += fmt.Sprintf("%ssession_id=%d", sep, runsFilterSession)
			sep = "&"
		}
		if runsFailedOnly {
			path += sep + "failed=true"
		}
		var runs []runRow
		if err := newClient().getJSON(path, &runs); err != nil {
			return err
		}
		if outputFmt != "table" {
			return printOutput(runs)
		}
		rows := make([][]string, 0, len(runs))
		for _, r := range runs {
			severity := "-"
			if r.Severity != nil {
				severity = colorSeverity(*r.Severity)
			}
			rows = append(rows, []string{
				fmt.Sprintf("%d", r.ID),
				strOrDash(r.ExternalID),
				truncate(r.Title, 40),
				r.Phase,
				colorStatus(r.Status),
				severity,
				r.RunnerName,
				r.CreatedAt.Format("2006-01-02 15:04"),
			})
		}
		printTable([]string{"id", "case", "title", "phase", "status", "severity", "runner", "recorded"}, rows)
		return nil
	},
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a run entry and its classification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().delete("/api/v1/runs/" + args[0]); err != nil {
			return err
		}
		fmt.Printf("run %s deleted\n", args[0])
		return nil
	},
}

func init() {
	runsRecordCmd.Flags().UintVar(&runCase, "case", 0, "Internal id of the test case")
	runsRecordCmd.Flags().UintVar(&runSession, "session", 0, "Id of the session the run belongs to")
	runsRecordCmd.Flags().StringVar(&runURL, "url", "", "Environment URL the case ran against")
	runsRecordCmd.Flags().StringVar(&runPhase, "phase", "", "Phase: FT, SIT or UAT")
	runsRecordCmd.Flags().StringVar(&runStatus, "status", "", "Outcome: passed or failed")
	runsRecordCmd.Flags().StringVar(&runComment, "comment", "", "Optional free-form note")
	_ = runsRecordCmd.MarkFlagRequired("case")
	_ = runsRecordCmd.MarkFlagRequired("session")
	_ = runsRecordCmd.MarkFlagRequired("url")
	_ = runsRecordCmd.MarkFlagRequired("phase")
	_ = runsRecordCmd.MarkFlagRequired("status")

	runsListCmd.Flags().UintVar(&runsFilterSession, "session", 0, "Only runs of this session")
	runsListCmd.Flags().BoolVar(&runsFailedOnly, "failed", false, "Only failed runs")

	runsCmd.AddCommand(runsRecordCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsDeleteCmd)
}
