package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/departures-cli/internal/store"
)

// initStore opens the capture history. It returns nil when store.path is
// unset.
func initStore(ctx context.Context) (store.Store, error) {
	if cfg.Store.Path == "" {
		return nil, nil
	}
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}
