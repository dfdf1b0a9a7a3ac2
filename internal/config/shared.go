package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port        string `mapstructure:"port"`
		MetricsPort string `mapstructure:"metrics_port"`
		LogLevel    string `mapstructure:"log_level"`
		LogPretty   bool   `mapstructure:"log_pretty"`
		JWTSecret   string `mapstructure:"jwt_secret"`
	} `mapstructure:"server"`
	Database struct {
		Driver   string `mapstructure:"driver"` // "postgres" | "sqlite"
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		Path     string `mapstructure:"path"` // sqlite file
	} `mapstructure:"database"`
	Storage struct {
		Provider  string `mapstructure:"provider"` // "local" | "s3"
		LocalPath string `mapstructure:"local_path"`
		KeyID     string `mapstructure:"key_id"`
		AppKey    string `mapstructure:"app_key"`
		Endpoint  string `mapstructure:"endpoint"`
		Region    string `mapstructure:"region"`
		Bucket    string `mapstructure:"bucket"`
	} `mapstructure:"storage"`
	Event struct {
		Friday   string `mapstructure:"friday"`   // YYYY-MM-DD, first day of the festival
		Timezone string `mapstructure:"timezone"` // IANA name, used for calendar days
	} `mapstructure:"event"`
	Rota struct {
		ClashMode string `mapstructure:"clash_mode"` // "boundary" | "overlap"
	} `mapstructure:"rota"`
}

var keys = []string{
	"server.port",
	"server.metrics_port",
	"server.log_level",
	"server.log_pretty",
	"server.jwt_secret",

	"database.driver",
	"database.host",
	"database.port",
	"database.user",
	"database.password",
	"database.name",
	"database.path",

	"storage.provider",
	"storage.local_path",
	"storage.key_id",
	"storage.app_key",
	"storage.endpoint",
	"storage.region",
	"storage.bucket",

	"event.friday",
	"event.timezone",

	"rota.clash_mode",
}

// Load reads config.yaml (if any) and ROTA_* environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ROTA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Defaults
	v.SetDefault("server.port", ":8081")
	v.SetDefault("server.metrics_port", ":9091")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "gbtalks.sqlite")
	v.SetDefault("database.port", "5432")
	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.local_path", "./data")
	v.SetDefault("storage.bucket", "rota")
	v.SetDefault("event.friday", "2023-08-25")
	v.SetDefault("event.timezone", "Europe/London")
	v.SetDefault("rota.clash_mode", "boundary")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("../")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the binaries cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Database.Host == "" || c.Database.Name == "" {
			return fmt.Errorf("database.host and database.name are required for postgres (ROTA_DATABASE_HOST, ROTA_DATABASE_NAME)")
		}
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}

	switch c.Storage.Provider {
	case "local", "s3":
	default:
		return fmt.Errorf("unknown storage.provider %q", c.Storage.Provider)
	}

	switch c.Rota.ClashMode {
	case "boundary", "overlap":
	default:
		return fmt.Errorf("unknown rota.clash_mode %q", c.Rota.ClashMode)
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.FestivalFriday(); err != nil {
		return err
	}
	return nil
}

// Location is the event time zone; calendar days are evaluated in it.
func (c *Config) Location() (*time.Location, error) {
	if c.Event.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Event.Timezone)
	if err != nil {
		return nil, fmt.Errorf("event.timezone: %w", err)
	}
	return loc, nil
}

// FestivalFriday returns midnight of the first festival day in the event zone.
func (c *Config) FestivalFriday() (time.Time, error) {
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, err
	}
	d, err := time.ParseInLocation("2006-01-02", c.Event.Friday, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("event.friday: %w", err)
	}
	return d, nil
}
