package store

import (
	"fmt"

	"github.com/jackc/pgx/v5"
)

// mustParseConfig builds the pgx.ConnConfig used by the stdlib driver during
// migrations. Panics only on a malformed DSN, which indicates a programming
// error in Config.DSN(), not a runtime condition.
func mustParseConfig(cfg Config) *pgx.ConnConfig {
	connCfg, err := pgx.ParseConfig(cfg.DSN())
	if err != nil {
		panic(fmt.Sprintf("store: invalid DSN: %v", err))
	}
	return connCfg
}
