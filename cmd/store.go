package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pricewatch/internal/store"
)

// initStore opens the configured store backend. An unreachable database here
// is an environment error, not a pipeline failure.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		st, err := store.NewSQLite(cfg.Store.DSN)
		if err != nil {
			return nil, eris.Wrap(err, "init sqlite store")
		}
		return st, nil
	case "postgres":
		st, err := store.NewPostgres(ctx, cfg.Store.DSN)
		if err != nil {
			return nil, eris.Wrap(err, "init postgres store")
		}
		return st, nil
	default:
		return nil, eris.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}
