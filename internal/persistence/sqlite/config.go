package sqlite

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds SQLite connection settings.
type Config struct {
	// DSN is a file path or file: URI. In-memory databases are not supported
	// because every pooled connection would see its own copy.
	DSN string

	// BusyTimeout sets how long a connection waits for the write lock.
	BusyTimeout time.Duration

	// JournalMode sets the SQLite journal mode (WAL, DELETE, TRUNCATE, etc.)
	JournalMode string

	// Synchronous sets the synchronous mode (FULL, NORMAL, OFF)
	Synchronous string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns settings suitable for a single-node deployment.
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:             dsn,
		BusyTimeout:     5 * time.Second,
		JournalMode:     "WAL",
		Synchronous:     "NORMAL",
		MaxOpenConns:    8,
		MaxIdleConns:    4,
		ConnMaxLifetime: 0,
	}
}

// Validate reports configuration mistakes before a connection is attempted.
func (c Config) Validate() error {
	dsn := strings.TrimSpace(c.DSN)
	if dsn == "" {
		return errors.New("sqlite: DSN is required")
	}
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		return errors.New("sqlite: in-memory databases are not supported")
	}
	if c.BusyTimeout < 0 {
		return errors.New("sqlite: busy timeout must not be negative")
	}
	return nil
}

// path returns the filesystem path portion of the DSN.
func (c Config) path() string {
	dsn := strings.TrimPrefix(c.DSN, "file:")
	if i := strings.IndexByte(dsn, '?'); i >= 0 {
		dsn = dsn[:i]
	}
	return dsn
}

// ensureDir creates the database directory when it does not exist.
func (c Config) ensureDir() error {
	dir := filepath.Dir(c.path())
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("sqlite: create database directory %s: %w", dir, err)
	}
	return nil
}

// connString appends driver options to the DSN. Every transaction begins
// IMMEDIATE so that writers serialise on the database lock instead of
// failing at commit time.
func (c Config) connString() string {
	params := url.Values{}
	params.Add("_txlock", "immediate")
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout.Milliseconds()))
	if c.JournalMode != "" {
		params.Add("_pragma", fmt.Sprintf("journal_mode(%s)", c.JournalMode))
	}
	if c.Synchronous != "" {
		params.Add("_pragma", fmt.Sprintf("synchronous(%s)", c.Synchronous))
	}

	sep := "?"
	if strings.Contains(c.DSN, "?") {
		sep = "&"
	}
	return c.DSN + sep + params.Encode()
}
