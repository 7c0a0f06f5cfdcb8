// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Sources

Values are resolved in order:

 1. CLI flags
 2. Process environment
 3. The dotenv file named by -env-file (default .env; loaded with godotenv,
    never overriding variables already set)
 4. Built-in defaults

# Settings

	-p                  PORT                     Server port (default 3318)
	-t                  STORE_TYPE               memory, sqlite, postgres, bbolt, badger, jsonbin (default sqlite)
	-d                  DATABASE_URL             DSN or file path (sqlite, postgres, bbolt)
	--badger-dir        BADGER_DIR               Badger directory (empty = in-memory)
	--jsonbin-url       JSONBIN_URL              JSONBin API base URL
	                    JSONBIN_API_KEY          JSONBin master key
	                    BIN_ID_VOTERS ...        One bin per collection
	--admin-salt        ADMIN_KEY_SALT           Admin key HMAC secret (required)
	--voter-salt        VOTER_TOKEN_SALT         Voter token HMAC secret (required)
	--positions         POSITIONS                Contested positions (default president,senators,mayor)
	--audit-capacity    AUDIT_CAPACITY           Activity log size (default 100)
	--retry-attempts    RETRY_MAX_ATTEMPTS       Store attempts per operation (default 5)
	--retry-interval    RETRY_INITIAL_INTERVAL   Initial backoff (default 100ms)
	--store-timeout     STORE_TIMEOUT            Per-attempt timeout (default 5s)
	--reconcile-interval RECONCILE_INTERVAL      Full reconciliation period (default 1m, 0 disables)
	--replace-active    REPLACE_ACTIVE_ELECTION  Starting an election ends the active one

CLI flags take precedence over environment variables.
*/
package cliparse
