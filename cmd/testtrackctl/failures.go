package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var failuresCmd = &cobra.Command{
	Use:   "failures",
	Short: "Classify failed runs by severity",
}

var classifySeverity string

var failuresClassifyCmd = &cobra.Command{
	Use:   "classify <run-id>",
	Short: "Attach a severity to a run, replacing any earlier classification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]string{"severity": classifySeverity}
		var failure failureRow
		if err := newClient().putJSON("/api/v1/runs/"+args[0]+"/failure", body, &failure); err != nil {
			return err
		}
		if outputFmt != "table" {
			return printOutput(failure)
		}
		fmt.Printf("run %d classified as %s\n", failure.RunID, colorSeverity(failure.Severity))
		return nil
	},
}

func init() {
	failuresClassifyCmd.Flags().StringVar(&classifySeverity, "severity", "", "Severity: minor, major or critical")
	_ = failuresClassifyCmd.MarkFlagRequired("severity")

	failuresCmd.AddCommand(failuresClassifyCmd)
}
