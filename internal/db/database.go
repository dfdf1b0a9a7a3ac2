package database

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/greenbelt-recorded-talks/talks-processing/internal/config"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/log"
	"github.com/greenbelt-recorded-talks/talks-processing/internal/models"
)

type Client struct {
	DB  *gorm.DB
	log zerolog.Logger
}

// New opens the configured database. Postgres is used in production; sqlite
// backs local runs and tests.
func New(cfg *config.Config) (*Client, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			cfg.Database.Host,
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.Name,
			cfg.Database.Port,
		)
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(cfg.Database.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	c, err := Open(dialector)
	if err != nil {
		return nil, err
	}

	// Connection Pool Settings
	sqlDB, err := c.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	if cfg.Database.Driver == "sqlite" {
		// a single writer keeps sqlite transactions from tripping over each other
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	c.log.Info().Str("driver", cfg.Database.Driver).Msg("database connected")
	return c, nil
}

// Open wraps an already chosen dialector. Tests pass sqlite ":memory:".
func Open(dialector gorm.Dialector) (*Client, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return &Client{DB: db, log: log.WithComponent("database")}, nil
}

// AutoMigrate creates/updates tables based on struct definitions
func (c *Client) AutoMigrate() error {
	c.log.Info().Msg("running database migrations")
	err := c.DB.AutoMigrate(
		&models.Recorder{},
		&models.Editor{},
		&models.Talk{},
		&models.RotaSetting{},
		&models.RotaRun{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	c.log.Info().Msg("migrations complete")
	return nil
}
