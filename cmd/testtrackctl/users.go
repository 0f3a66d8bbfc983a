package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage the user directory",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List directory users",
	RunE: func(cmd *cobra.Command, args []string) error {
		var users []userRow
		if err := newClient().getJSON("/api/v1/users", &users); err != nil {
			return err
		}
		if outputFmt != "table" {
			return printOutput(users)
		}
		rows := make([][]string, 0, len(users))
		for _, u := range users {
			rows = append(rows, []string{fmt.Sprintf("%d", u.ID), u.Name, u.Role})
		}
		printTable([]string{"id", "name", "role"}, rows)
		return nil
	},
}

var upsertRole string

var usersUpsertCmd = &cobra.Command{
	Use:   "upsert <name>",
	Short: "Register a user, or change the role of an existing one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var user userRow
		body := map[string]string{"name": args[0], "role": upsertRole}
		if err := newClient().postJSON("/api/v1/users", body, &user); err != nil {
			return err
		}
		if outputFmt != "table" {
			return printOutput(user)
		}
		fmt.Printf("user %q registered with id %d and role %s\n", user.Name, user.ID, user.Role)
		return nil
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a user; their cases, runs and notes stay behind unattributed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().delete("/api/v1/users/" + args[0]); err != nil {
			return err
		}
		fmt.Printf("user %s deleted\n", args[0])
		return nil
	},
}

func init() {
	usersUpsertCmd.Flags().StringVar(&upsertRole, "role", "tester", "Role: tester or testlead")

	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersUpsertCmd)
	usersCmd.AddCommand(usersDeleteCmd)
}
