// Command rotactl drives the talks rota from a terminal: imports, runs,
// settings and exports.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/greenbelt-recorded-talks/talks-processing/internal/config"
	database "github.com/greenbelt-recorded-talks/talks-processing/internal/db"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/log"
)

// app holds what every subcommand needs once config has been read.
type app struct {
	cfg *config.Config
	db  *database.Client
}

var (
	current   app
	logPretty bool
)

var rootCmd = &cobra.Command{
	Use:           "rotactl",
	Short:         "Manage the recorded talks rota",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log.Configure(log.Config{
			Level:   cfg.Server.LogLevel,
			Pretty:  logPretty || cfg.Server.LogPretty,
			Output:  os.Stderr,
			Service: "rotactl",
		})
		current.cfg = cfg
		return nil
	},
}

// openDB connects and migrates on first use; "token" never touches the database.
func openDB(ctx context.Context) (*database.Client, error) {
	if current.db != nil {
		return current.db, nil
	}
	db, err := database.New(current.cfg)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(); err != nil {
		return nil, err
	}
	if err := database.SeedSettings(ctx, db.DB); err != nil {
		return nil, err
	}
	current.db = db
	return db, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&logPretty, "pretty", false, "human readable log output")
	rootCmd.AddCommand(migrateCmd, importCmd, generateCmd, continueCmd, exportCmd, settingsCmd, tokenCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
