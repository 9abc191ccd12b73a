package registry

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/city-brain/enterprise-cli/internal/config"
)

// Open constructs a SeedRegistry for the configured driver and runs the
// schema migration.
func Open(ctx context.Context, cfg config.RegistryConfig) (SeedRegistry, error) {
	var (
		reg SeedRegistry
		err error
	)
	switch cfg.Driver {
	case "sqlite", "":
		reg, err = NewSQLite(cfg.DatabaseURL)
	case "postgres":
		reg, err = NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("registry: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := reg.Migrate(ctx); err != nil {
		reg.Close()
		return nil, err
	}
	return reg, nil
}
