package tokenstore

import (
	"context"

	"github.com/pkg/errors"

	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core"
	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core/session"
)

// Supported drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Store is a durable home for the session token.
type Store interface {
	session.TokenStore
	Close() error
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*SQLStore)(nil)
	_ Store = (*RedisStore)(nil)
)

// Open returns the store selected by conf.Driver.
func Open(ctx context.Context, conf core.TokenStoreConfig) (Store, error) {
	key := core.FirstNonEmpty(conf.Key, "token")
	switch conf.Driver {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverSQLite, DriverPostgres:
		return OpenSQL(ctx, conf.Driver, conf.DSN, key)
	case DriverRedis:
		return OpenRedis(ctx, conf.RedisAddr, conf.RedisPassword, key)
	default:
		return nil, errors.Errorf("unknown token store driver %q", conf.Driver)
	}
}
