package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/josephcopenhaver/cadence-bot/internal/service/config"
)

// Open picks the backend named by driver
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case config.StoreDriverSqlite:
		return OpenSQLite(ctx, dsn)
	case config.StoreDriverMysql:
		return OpenMySQL(ctx, dsn)
	default:
		return nil, errors.Errorf("unknown store driver %q", driver)
	}
}
