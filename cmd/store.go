package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/citygml-stid/internal/config"
	"github.com/sells-group/citygml-stid/internal/ledger"
)

func initLedger(ctx context.Context, c *config.Config) (ledger.Store, error) {
	switch c.Ledger.Driver {
	case "sqlite":
		st, err := ledger.NewSQLite(c.Ledger.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, err
		}
		return st, nil
	case "json":
		return ledger.NewJSON(c.Ledger.Path), nil
	default:
		return nil, eris.Errorf("unsupported ledger driver: %s", c.Ledger.Driver)
	}
}

// loadEntries reads every ledger entry for the configured driver.
func loadEntries(ctx context.Context, c *config.Config) (map[string]ledger.Entry, error) {
	if c.Ledger.Driver != "sqlite" {
		return ledger.Load(c.Ledger.Path)
	}

	st, err := ledger.NewSQLite(c.Ledger.SQLitePath)
	if err != nil {
		return nil, err
	}
	defer st.Close() //nolint:errcheck
	if err := st.Migrate(ctx); err != nil {
		return nil, err
	}
	return st.Entries(ctx)
}
