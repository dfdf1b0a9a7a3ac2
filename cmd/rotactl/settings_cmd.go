package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	database "github.com/greenbelt-recorded-talks/talks-processing/internal/db"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the rota tunables",
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every rota setting with its current value",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		settings, err := database.ListSettings(cmd.Context(), db.DB)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tVALUE\tUNIT\tDESCRIPTION")
		for _, s := range settings {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", s.Key, s.Value, s.Unit, s.Description)
		}
		return w.Flush()
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one rota setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("value must be a whole number: %w", err)
		}
		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		s, err := database.SetSetting(cmd.Context(), db.DB, args[0], value)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s = %d %s\n", s.Key, s.Value, s.Unit)
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsListCmd, settingsSetCmd)
}
