package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	database "github.com/greenbelt-recorded-talks/talks-processing/internal/db"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/log"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/rota"
)

var dryRun bool

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Clear every recorder binding and build the rota from scratch",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRota(cmd, rota.ModeGenerate)
	},
}

var continueCmd = &cobra.Command{
	Use:   "continue",
	Short: "Fill unassigned talks, keeping existing bindings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRota(cmd, rota.ModeContinue)
	},
}

func init() {
	for _, c := range []*cobra.Command{generateCmd, continueCmd} {
		c.Flags().BoolVar(&dryRun, "dry-run", false, "run every pass, then roll back")
	}
}

func newEngine(db *database.Client) (*rota.Engine, error) {
	loc, err := current.cfg.Location()
	if err != nil {
		return nil, err
	}
	clashMode, err := rota.ParseClashMode(current.cfg.Rota.ClashMode)
	if err != nil {
		return nil, err
	}
	return rota.NewEngine(database.NewRotaStore(db.DB),
		rota.WithClashMode(clashMode),
		rota.WithLocation(loc),
		rota.WithLogger(log.WithComponent("rota")),
	), nil
}

func runRota(cmd *cobra.Command, mode rota.Mode) error {
	db, err := openDB(cmd.Context())
	if err != nil {
		return err
	}
	engine, err := newEngine(db)
	if err != nil {
		return err
	}

	sum, err := engine.Run(cmd.Context(), rota.RunOptions{Mode: mode, DryRun: dryRun, Trigger: "cli"})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if sum.DryRun {
		fmt.Fprintln(out, "(dry run, nothing was saved)")
	}
	fmt.Fprintln(out, sum.Message())
	fmt.Fprintf(out, "run %s: cleared %d, committed %d in %s\n",
		sum.RunID, sum.Cleared, sum.Commits, sum.FinishedAt.Sub(sum.StartedAt).Round(time.Millisecond))
	return nil
}
