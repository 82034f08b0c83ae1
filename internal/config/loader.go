package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const prefix = "ROOMBOOK_"

// Config captures environment driven configuration values for the roombook service.
type Config struct {
	HTTPPort  int
	SQLiteDSN string

	IdentitySecret   string
	IdentityIssuer   string
	IdentityAudience string

	// Location defines "today" and "now" for booking admission.
	Location *time.Location

	LogLevel      slog.Level
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int

	ShutdownTimeout time.Duration
	TxRetryAttempts uint
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to defaults. Every missing or malformed variable
// is reported in a single localized error.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:        8080,
		SQLiteDSN:       "file:roombook.db",
		IdentityIssuer:  "roombook",
		Location:        time.Local,
		LogLevel:        slog.LevelInfo,
		LogMaxSizeMB:    100,
		LogMaxBackups:   5,
		ShutdownTimeout: 10 * time.Second,
		TxRetryAttempts: 5,
	}

	var l loader

	l.positiveInt("HTTP_PORT", &cfg.HTTPPort)
	l.str("SQLITE_DSN", &cfg.SQLiteDSN)

	if secret := l.get("IDENTITY_SECRET"); secret == "" {
		l.missing = append(l.missing, prefix+"IDENTITY_SECRET")
	} else {
		cfg.IdentitySecret = secret
	}
	l.str("IDENTITY_ISSUER", &cfg.IdentityIssuer)
	l.str("IDENTITY_AUDIENCE", &cfg.IdentityAudience)

	if tz := l.get("TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			l.invalid = append(l.invalid, prefix+"TIMEZONE")
		} else {
			cfg.Location = loc
		}
	}

	if level := l.get("LOG_LEVEL"); level != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
			l.invalid = append(l.invalid, prefix+"LOG_LEVEL")
		}
	}
	l.str("LOG_FILE", &cfg.LogFile)
	l.positiveInt("LOG_MAX_SIZE_MB", &cfg.LogMaxSizeMB)
	l.nonNegativeInt("LOG_MAX_BACKUPS", &cfg.LogMaxBackups)

	if value := l.get("SHUTDOWN_TIMEOUT"); value != "" {
		timeout, err := time.ParseDuration(value)
		if err != nil || timeout <= 0 {
			l.invalid = append(l.invalid, prefix+"SHUTDOWN_TIMEOUT")
		} else {
			cfg.ShutdownTimeout = timeout
		}
	}

	attempts := int(cfg.TxRetryAttempts)
	l.positiveInt("TX_RETRY_ATTEMPTS", &attempts)
	cfg.TxRetryAttempts = uint(attempts)

	if err := l.err(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type loader struct {
	missing []string
	invalid []string
}

func (l *loader) get(name string) string {
	return strings.TrimSpace(os.Getenv(prefix + name))
}

func (l *loader) str(name string, dst *string) {
	if value := l.get(name); value != "" {
		*dst = value
	}
}

func (l *loader) positiveInt(name string, dst *int) {
	l.intValue(name, dst, 1)
}

func (l *loader) nonNegativeInt(name string, dst *int) {
	l.intValue(name, dst, 0)
}

func (l *loader) intValue(name string, dst *int, min int) {
	value := l.get(name)
	if value == "" {
		return
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < min {
		l.invalid = append(l.invalid, prefix+name)
		return
	}
	*dst = n
}

func (l *loader) err() error {
	var errs []error
	if len(l.missing) > 0 {
		errs = append(errs, fmt.Errorf("必須の環境変数が設定されていません: %s", strings.Join(l.missing, ", ")))
	}
	if len(l.invalid) > 0 {
		errs = append(errs, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(l.invalid, ", ")))
	}
	return errors.Join(errs...)
}
