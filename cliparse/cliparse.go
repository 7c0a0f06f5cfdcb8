package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/danielhkuo/verivote/models"
)

// Store backend names
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreBolt     = "bbolt"
	StoreBadger   = "badger"
	StoreJSONBin  = "jsonbin"
)

type Config struct {
	Port         int
	StoreType    string
	DatabaseURL  string
	BadgerDir    string
	JSONBinURL   string
	JSONBinKey   string
	BinIDs       map[string]string
	AdminKeySalt string
	VoterSalt    string
	Positions    []string

	AuditCapacity         int
	RetryMaxAttempts      int
	RetryInitialInterval  time.Duration
	StoreTimeout          time.Duration
	ReconcileInterval     time.Duration
	ReplaceActiveElection bool
}

// ParseFlags validates flags and fills the rest from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var envFile, positions string
	var retryInterval, storeTimeout, reconcileInterval string

	fs := flag.NewFlagSet("verivote", flag.ContinueOnError)

	fs.StringVar(&envFile, "env-file", ".env", "dotenv file to load (missing file is ignored)")

	// Network and storage
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.StoreType, "t", "", "Store type (memory, sqlite, postgres, bbolt, badger, jsonbin)")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL or file path")
	fs.StringVar(&cfg.BadgerDir, "badger-dir", "", "Badger data directory (empty = in-memory)")
	fs.StringVar(&cfg.JSONBinURL, "jsonbin-url", "", "JSONBin API base URL")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminKeySalt, "admin-salt", "", "Admin key salt (prefer env)")
	fs.StringVar(&cfg.VoterSalt, "voter-salt", "", "Voter token salt (prefer env)")

	// Election engine
	fs.StringVar(&positions, "positions", "", "Comma-separated contested positions")
	fs.IntVar(&cfg.AuditCapacity, "audit-capacity", 0, "Activity log capacity")
	fs.IntVar(&cfg.RetryMaxAttempts, "retry-attempts", 0, "Store attempts per operation")
	fs.StringVar(&retryInterval, "retry-interval", "", "Initial retry backoff")
	fs.StringVar(&storeTimeout, "store-timeout", "", "Per-attempt store timeout")
	fs.StringVar(&reconcileInterval, "reconcile-interval", "", "Full reconciliation interval (0 disables)")
	fs.BoolVar(&cfg.ReplaceActiveElection, "replace-active", false, "Starting an election ends the active one instead of failing")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}

	if cfg.StoreType == "" {
		cfg.StoreType = os.Getenv("STORE_TYPE")
		if cfg.StoreType == "" {
			cfg.StoreType = StoreSQLite
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.BadgerDir == "" {
		cfg.BadgerDir = os.Getenv("BADGER_DIR")
	}
	if cfg.JSONBinURL == "" {
		cfg.JSONBinURL = os.Getenv("JSONBIN_URL")
		if cfg.JSONBinURL == "" {
			cfg.JSONBinURL = "https://api.jsonbin.io/v3"
		}
	}
	cfg.JSONBinKey = os.Getenv("JSONBIN_API_KEY")
	cfg.BinIDs = map[string]string{
		"voters":     os.Getenv("BIN_ID_VOTERS"),
		"votes":      os.Getenv("BIN_ID_VOTES"),
		"elections":  os.Getenv("BIN_ID_ELECTIONS"),
		"candidates": os.Getenv("BIN_ID_CANDIDATES"),
		"activities": os.Getenv("BIN_ID_ACTIVITIES"),
	}

	switch cfg.StoreType {
	case StoreSQLite, StorePostgres, StoreBolt:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
		}
	case StoreJSONBin:
		if cfg.JSONBinKey == "" {
			return Config{}, errors.New("JSONBIN_API_KEY required for jsonbin store")
		}
		for name, id := range cfg.BinIDs {
			if id == "" {
				return Config{}, fmt.Errorf("bin id for %q required for jsonbin store", name)
			}
		}
	case StoreMemory, StoreBadger:
	default:
		return Config{}, fmt.Errorf("unknown store type %q", cfg.StoreType)
	}

	// Secrets - MUST be provided
	if cfg.AdminKeySalt == "" {
		cfg.AdminKeySalt = os.Getenv("ADMIN_KEY_SALT")
	}
	if cfg.AdminKeySalt == "" {
		return Config{}, errors.New("ADMIN_KEY_SALT required")
	}

	if cfg.VoterSalt == "" {
		cfg.VoterSalt = os.Getenv("VOTER_TOKEN_SALT")
	}
	if cfg.VoterSalt == "" {
		return Config{}, errors.New("VOTER_TOKEN_SALT required")
	}

	if positions == "" {
		positions = os.Getenv("POSITIONS")
	}
	cfg.Positions = splitList(positions)
	if len(cfg.Positions) == 0 {
		cfg.Positions = append([]string(nil), models.DefaultPositions...)
	}

	var err error
	if cfg.AuditCapacity, err = intSetting(cfg.AuditCapacity, "AUDIT_CAPACITY", 100); err != nil {
		return Config{}, err
	}
	if cfg.RetryMaxAttempts, err = intSetting(cfg.RetryMaxAttempts, "RETRY_MAX_ATTEMPTS", 5); err != nil {
		return Config{}, err
	}
	if cfg.RetryInitialInterval, err = durationSetting(retryInterval, "RETRY_INITIAL_INTERVAL", 100*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.StoreTimeout, err = durationSetting(storeTimeout, "STORE_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ReconcileInterval, err = durationSetting(reconcileInterval, "RECONCILE_INTERVAL", time.Minute); err != nil {
		return Config{}, err
	}

	if !cfg.ReplaceActiveElection {
		cfg.ReplaceActiveElection = envBool("REPLACE_ACTIVE_ELECTION")
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func intSetting(flagValue int, env string, fallback int) (int, error) {
	if flagValue != 0 {
		return flagValue, nil
	}
	raw := os.Getenv(env)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s env variable", env)
	}
	return v, nil
}

func durationSetting(flagValue, env string, fallback time.Duration) (time.Duration, error) {
	raw := flagValue
	if raw == "" {
		raw = os.Getenv(env)
	}
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid duration for %s: %q", env, raw)
	}
	return d, nil
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	}
	return false
}
