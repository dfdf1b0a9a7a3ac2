package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the tables and seed default rota settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := openDB(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✅ Database ready")
		return nil
	},
}
