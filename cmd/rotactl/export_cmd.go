package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/greenbelt-recorded-talks/talks-processing/internal/models"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/rotaview"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/storage"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Publish the rota as YAML and CSV to storage, or print one format with --format",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		loc, err := current.cfg.Location()
		if err != nil {
			return err
		}

		var talks []models.Talk
		if err := db.DB.WithContext(cmd.Context()).Order("start_time asc, id asc").Find(&talks).Error; err != nil {
			return err
		}
		var recorders []models.Recorder
		if err := db.DB.WithContext(cmd.Context()).Order("name asc").Find(&recorders).Error; err != nil {
			return err
		}

		switch exportFormat {
		case "yaml":
			return rotaview.RenderYAML(cmd.OutOrStdout(), rotaview.NewDocument(talks, recorders, time.Now()))
		case "csv":
			return rotaview.RenderCSV(cmd.OutOrStdout(), talks, loc)
		case "":
		default:
			return fmt.Errorf("unknown format %q (yaml or csv)", exportFormat)
		}

		st, err := storage.New(current.cfg)
		if err != nil {
			return err
		}
		keys, err := rotaview.Publish(cmd.Context(), st, talks, recorders, time.Now(), loc)
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Published %s\n", k)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "print yaml or csv to stdout instead of publishing")
}
