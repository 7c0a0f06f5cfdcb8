// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles SQL connections and schema creation for the SQL document
backend.

# Connecting

Open accepts "postgres" (lib/pq) or "sqlite" (modernc.org/sqlite, pure Go):

	conn, err := db.Open(db.DialectSQLite, "file:verivote.db")

SQLite connections are limited to one open connection.

# Schema Creation

CreateSchema initializes the single document table:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS.

# Tables

  - document: one row per collection (voters, votes, elections, candidates,
    activities) holding the whole collection as a JSON array

The table deliberately offers nothing more than whole-document replace; the
ballot commit protocol does not rely on SQL transactions.
*/
package db
