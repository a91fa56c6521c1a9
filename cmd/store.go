package main

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/wine-cli/internal/config"
	"github.com/sells-group/wine-cli/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "wine.db"
		}
		st, err := store.NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close() //nolint:errcheck
			return nil, err
		}
		return st, nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// resolveCountry looks up a country, falling back to the configured
// default when the name is unknown.
func resolveCountry(name string) (config.CountryConfig, error) {
	if strings.TrimSpace(name) == "" {
		name = cfg.Scrape.DefaultCountry
	}
	cc, err := cfg.Country(name)
	if err == nil {
		return cc, nil
	}
	if !errors.Is(err, config.ErrUnknownCountry) {
		return config.CountryConfig{}, err
	}

	zap.L().Warn("unknown country, using default",
		zap.String("country", name),
		zap.String("default", cfg.Scrape.DefaultCountry),
		zap.Strings("known", cfg.CountryNames()),
	)
	return cfg.Country(cfg.Scrape.DefaultCountry)
}
