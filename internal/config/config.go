// Package config loads settings from the environment and an optional .env
// file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Port             string        `mapstructure:"PORT"`
	Env              string        `mapstructure:"ENV"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	DatabaseDriver   string        `mapstructure:"DATABASE_DRIVER"`
	DatabaseURL      string        `mapstructure:"DATABASE_URL"`
	SQLitePath       string        `mapstructure:"SQLITE_PATH"`
	DBMaxConns       int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns       int32         `mapstructure:"DB_MIN_CONNS"`
	DoctorPassword   string        `mapstructure:"DOCTOR_PASSWORD"`
	CORSOrigins      []string      `mapstructure:"CORS_ORIGINS"`
	BodyLimit        string        `mapstructure:"BODY_LIMIT"`
	APIURL           string        `mapstructure:"API_URL"`
	CameraCommand    string        `mapstructure:"CAMERA_COMMAND"`
	AutoAdvanceDelay time.Duration `mapstructure:"AUTO_ADVANCE_DELAY"`
	PracticeName     string        `mapstructure:"PRACTICE_NAME"`
	PracticeSubtitle string        `mapstructure:"PRACTICE_SUBTITLE"`
	PracticeContact  string        `mapstructure:"PRACTICE_CONTACT"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL",
	"DATABASE_DRIVER", "DATABASE_URL", "SQLITE_PATH", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"DOCTOR_PASSWORD", "CORS_ORIGINS", "BODY_LIMIT",
	"API_URL", "CAMERA_COMMAND", "AUTO_ADVANCE_DELAY",
	"PRACTICE_NAME", "PRACTICE_SUBTITLE", "PRACTICE_CONTACT",
}

// Load reads envFile when it exists, then the process environment, which
// wins. An empty envFile means ".env".
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_DRIVER", DriverSQLite)
	v.SetDefault("SQLITE_PATH", "oeuk.db")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("DOCTOR_PASSWORD", "oeuk2024")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("BODY_LIMIT", "20M")
	v.SetDefault("API_URL", "http://localhost:8080/api")
	v.SetDefault("AUTO_ADVANCE_DELAY", "300ms")
	v.SetDefault("PRACTICE_NAME", "Offshore Medical Examination")
	v.SetDefault("PRACTICE_SUBTITLE", "Pre-examination questionnaire")

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// A missing .env is normal.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	cfg.DatabaseDriver = strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver))
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Addr is the listen address for the API server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Validate checks the settings needed to open the store and serve.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when DATABASE_DRIVER is %q", DriverSQLite)
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATABASE_DRIVER is %q", DriverPostgres)
		}
	default:
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.DatabaseDriver)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.DoctorPassword == "" {
		return fmt.Errorf("DOCTOR_PASSWORD must not be empty")
	}
	if c.AutoAdvanceDelay < 0 {
		return fmt.Errorf("AUTO_ADVANCE_DELAY must not be negative, got %s", c.AutoAdvanceDelay)
	}
	return nil
}
