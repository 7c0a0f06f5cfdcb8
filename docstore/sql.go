// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package docstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/verivote/db"
)

// SQL stores each collection as one row of the document table.
type SQL struct {
	db      *sql.DB
	dialect string
}

func NewSQL(conn *sql.DB, dialect string) *SQL {
	return &SQL{db: conn, dialect: dialect}
}

func (s *SQL) Read(ctx context.Context, collection string) ([]byte, error) {
	var body string
	err := s.db.QueryRowContext(ctx, s.bind(`
		SELECT body FROM document WHERE collection = ?
	`), collection).Scan(&body)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", collection, err)
	}
	return []byte(body), nil
}

func (s *SQL) Write(ctx context.Context, collection string, doc []byte) error {
	_, err := s.db.ExecContext(ctx, s.bind(`
		INSERT INTO document (collection, body, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (collection) DO UPDATE
		SET body = excluded.body, updated_at = excluded.updated_at
	`), collection, string(doc), time.Now().UTC())

	if err != nil {
		return fmt.Errorf("write %s: %w", collection, err)
	}

	slog.Debug("document written", "collection", collection, "size", humanize.Bytes(uint64(len(doc))))
	return nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}

// bind rewrites ? placeholders to $n for postgres.
func (s *SQL) bind(query string) string {
	if s.dialect != db.DialectPostgres {
		return query
	}
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, '$')
			out = append(out, fmt.Sprint(n)...)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}
