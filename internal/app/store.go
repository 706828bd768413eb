package app

import (
	"context"

	"github.com/odyssey-erp/roster/internal/platform/db"
	"github.com/odyssey-erp/roster/internal/users"
)

// OpenStore connects the storage backend selected by DB_DRIVER.
// The returned func releases the underlying connections.
func OpenStore(ctx context.Context, cfg *Config) (users.Store, func(), error) {
	switch cfg.DBDriver {
	case DriverSQLite:
		conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return users.NewSQLiteRepository(conn), func() { _ = conn.Close() }, nil
	default:
		pool, err := db.New(ctx, cfg.PostgresDSN(), cfg.DBMaxConns)
		if err != nil {
			return nil, nil, err
		}
		return users.NewRepository(pool), pool.Close, nil
	}
}
