package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/greenbelt-recorded-talks/talks-processing/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load talks or recorders from CSV",
}

var importTalksCmd = &cobra.Command{
	Use:   "talks <file.csv>",
	Short: "Upsert the programme (id, -, -, -, venue, time, day, title, speaker, description[, priority])",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd, args[0], func(im *importer.Importer, f *os.File) (int, error) {
			return im.ImportTalks(cmd.Context(), f)
		}, "talks")
	},
}

var importRecordersCmd = &cobra.Command{
	Use:   "recorders <file.csv>",
	Short: "Upsert recorders (name, max_shifts_per_day[, earliest_start, latest_end])",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd, args[0], func(im *importer.Importer, f *os.File) (int, error) {
			return im.ImportRecorders(cmd.Context(), f)
		}, "recorders")
	},
}

func init() {
	importCmd.AddCommand(importTalksCmd, importRecordersCmd)
}

func runImport(cmd *cobra.Command, path string, load func(*importer.Importer, *os.File) (int, error), what string) error {
	friday, err := current.cfg.FestivalFriday()
	if err != nil {
		return err
	}
	db, err := openDB(cmd.Context())
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := load(importer.New(db.DB, friday), f)
	if err != nil {
		return fmt.Errorf("import %s from %s: %w", what, path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Imported %d %s\n", n, what)
	return nil
}
