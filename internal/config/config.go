// Package config provides runtime configuration values for the service.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds configuration knobs for the HTTP server and backing stores.
type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration

	MySQLDSN string

	// RedisAddr enables the optimistic stock gate when non-empty.
	RedisAddr string

	// SMTPAddr enables real email delivery when non-empty; otherwise
	// confirmations are only logged.
	SMTPAddr string
	SMTPFrom string

	// SeedDemoData inserts a demo catalog and users into empty tables.
	SeedDemoData bool
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func boolenv(key string, def bool) bool {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func durenvs(key string, defSec int) time.Duration {
	v := getenv(key, "")
	if v == "" {
		return time.Duration(defSec) * time.Second
	}
	sec, err := strconv.Atoi(v)
	if err != nil {
		return time.Duration(defSec) * time.Second
	}
	return time.Duration(sec) * time.Second
}

// Load collects configuration from environment with defaults.
func Load() Config {
	return Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		ShutdownTimeout: durenvs("SHUTDOWN_TIMEOUT", 5),
		MySQLDSN:        getenv("MYSQL_DSN", "root:root@tcp(localhost:3306)/storefront?parseTime=true"),
		RedisAddr:       getenv("REDIS_ADDR", ""),
		SMTPAddr:        getenv("SMTP_ADDR", ""),
		SMTPFrom:        getenv("SMTP_FROM", "orders@storefront.local"),
		SeedDemoData:    boolenv("SEED_DEMO_DATA", true),
	}
}
