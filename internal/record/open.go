package record

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mrsinham/oeukintake/internal/config"
)

// Open returns the repository selected by cfg.DatabaseDriver.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (Repository, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		pool, err := NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		return NewPGRepository(pool, logger), nil
	case config.DriverSQLite:
		return OpenSQLite(cfg.SQLitePath, logger)
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
}
