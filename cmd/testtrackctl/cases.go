package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "Manage the test-case catalog",
}

var casesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog cases, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		var cases []caseRow
		if err := newClient().getJSON("/api/v1/cases", &cases); err != nil {
			return err
		}
		if outputFmt != "table" {
			return printOutput(cases)
		}
		rows := make([][]string, 0, len(cases))
		for _, c := range cases {
			rows = append(rows, []string{
				strOrDash(c.ExternalID),
				truncate(c.Title, 50),
				c.Category,
				fmt.Sprintf("%d", len(c.Steps)),
				c.AuthorName,
			})
		}
		printTable([]string{"external id", "title", "category", "steps", "author"}, rows)
		return nil
	},
}

var (
	caseTitle    string
	caseSteps    []string
	caseExpected string
	caseCategory string
)

var casesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Add a case to the catalog; the server assigns its TC-n id",
	Example: `  testtrackctl cases create --title "Login works" \
    --step "open login page" --step "enter credentials" --step "submit" \
    --expected "user lands on the dashboard" --category integration`,
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]any{
			"title":          caseTitle,
			"steps":          caseSteps,
			"expectedResult": caseExpected,
			"category":       caseCategory,
		}
		var created caseRow
		if err := newClient().postJSON("/api/v1/cases", body, &created); err != nil {
			return err
		}
		if outputFmt != "table" {
			return printOutput(created)
		}
		fmt.Printf("case %s created: %s\n", strOrDash(created.ExternalID), created.Title)
		return nil
	},
}

var casesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a case together with its recorded runs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().delete("/api/v1/cases/" + args[0]); err != nil {
			return err
		}
		fmt.Printf("case %s deleted\n", args[0])
		return nil
	},
}

// caseImportFile is the YAML shape accepted by `cases import`.
type caseImportFile struct {
	Cases []struct {
		Title          string   `yaml:"title"`
		Steps          []string `yaml:"steps"`
		ExpectedResult string   `yaml:"expectedResult"`
		Category       string   `yaml:"category"`
	} `yaml:"cases"`
}

var casesImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Bulk-load catalog cases from a YAML file",
	Long: `Import reads a YAML file of the form

  cases:
    - title: Login works
      steps: [open login page, enter credentials, submit]
      expectedResult: user lands on the dashboard
      category: integration

and creates the cases in file order, so their TC-n ids follow the file.
Import stops at the first rejected case.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		var file caseImportFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("parsing %s: %w", args[0], err)
		}
		if len(file.Cases) == 0 {
			return fmt.Errorf("%s contains no cases", args[0])
		}

		client := newClient()
		assigned := make([]string, 0, len(file.Cases))
		for i, c := range file.Cases {
			body := map[string]any{
				"title":          c.Title,
				"steps":          c.Steps,
				"expectedResult": c.ExpectedResult,
				"category":       c.Category,
			}
			var created caseRow
			if err := client.postJSON("/api/v1/cases", body, &created); err != nil {
				return fmt.Errorf("case %d (%q): %w", i+1, c.Title, err)
			}
			assigned = append(assigned, strOrDash(created.ExternalID))
		}
		fmt.Printf("imported %d cases: %s\n", len(assigned), strings.Join(assigned, ", "))
		return nil
	},
}

func init() {
	casesCreateCmd.Flags().StringVar(&caseTitle, "title", "", "Case title")
	casesCreateCmd.Flags().StringArrayVar(&caseSteps, "step", nil, "Manual step, repeat for each step (1-5)")
	casesCreateCmd.Flags().StringVar(&caseExpected, "expected", "", "Expected result")
	casesCreateCmd.Flags().StringVar(&caseCategory, "category", "", "Category: integration or studio")
	_ = casesCreateCmd.MarkFlagRequired("title")
	_ = casesCreateCmd.MarkFlagRequired("step")
	_ = casesCreateCmd.MarkFlagRequired("expected")
	_ = casesCreateCmd.MarkFlagRequired("category")

	casesCmd.AddCommand(casesListCmd)
	casesCmd.AddCommand(casesCreateCmd)
	casesCmd.AddCommand(casesDeleteCmd)
	casesCmd.AddCommand(casesImportCmd)
}
