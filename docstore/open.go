// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package docstore

import (
	"fmt"
	"log/slog"

	"github.com/danielhkuo/verivote/cliparse"
	"github.com/danielhkuo/verivote/db"
)

// Open builds the backend named by cfg.StoreType.
func Open(cfg cliparse.Config, logger *slog.Logger) (Store, error) {
	logger = resolveLogger(logger)

	switch cfg.StoreType {
	case cliparse.StoreMemory:
		return NewMemory(), nil

	case cliparse.StoreSQLite, cliparse.StorePostgres:
		dialect := db.DialectSQLite
		if cfg.StoreType == cliparse.StorePostgres {
			dialect = db.DialectPostgres
		}
		conn, err := db.Open(dialect, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.CreateSchema(conn); err != nil {
			conn.Close()
			return nil, err
		}
		return NewSQL(conn, dialect), nil

	case cliparse.StoreBolt:
		return OpenBolt(cfg.DatabaseURL)

	case cliparse.StoreBadger:
		return OpenBadger(cfg.BadgerDir, logger)

	case cliparse.StoreJSONBin:
		return NewJSONBin(cfg.JSONBinURL, cfg.JSONBinKey, cfg.BinIDs, nil), nil
	}

	return nil, fmt.Errorf("unknown store type %q", cfg.StoreType)
}
