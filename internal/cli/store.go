package cli

import (
	"context"

	"github.com/me/goqe/internal/store"
)

// openStore opens the submission-history database when one is configured.
// History is best-effort: open failures are logged and commands proceed
// without recording.
func openStore() store.Store {
	if cfg.DBPath == "" {
		return nil
	}
	st, err := store.NewSQLiteStore(cfg.DBPath, logger)
	if err != nil {
		logger.Warn("opening history store failed", "path", cfg.DBPath, "error", err)
		return nil
	}
	if err := st.Migrate(context.Background()); err != nil {
		logger.Warn("migrating history store failed", "path", cfg.DBPath, "error", err)
		st.Close()
		return nil
	}
	return st
}
