// Package config loads runtime configuration from the environment. A .env
// file is honored when present.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/sabaispa/backoffice/roster"
	"github.com/sabaispa/backoffice/sales"
)

// DefaultDatabase is used when a mongodb:// URI carries no database name.
const DefaultDatabase = "backoffice"

// Config is everything the process needs to start.
type Config struct {
	Port     string
	StoreURI string // mongodb:// URI, or a SQLite path
	Database string // Mongo database name, derived from the URI path

	RosterPolicy roster.Policy
	SalesDateRep sales.Representation
}

// Load reads configuration from the environment. STORE_URI is required:
// without it the process must not begin serving.
func Load() (Config, error) {
	godotenv.Load()

	uri := os.Getenv("STORE_URI")
	if uri == "" {
		return Config{}, fmt.Errorf("STORE_URI is required (mongodb:// URI or SQLite path)")
	}

	cfg := Config{
		Port:     getEnv("PORT", "8080"),
		StoreURI: uri,
		Database: DefaultDatabase,
	}

	if cfg.IsMongo() {
		if u, err := url.Parse(uri); err == nil {
			if db := strings.Trim(u.Path, "/"); db != "" {
				cfg.Database = db
			}
		}
	}

	policy, err := roster.ParsePolicy(os.Getenv("ROSTER_POLICY"))
	if err != nil {
		return Config{}, err
	}
	cfg.RosterPolicy = policy

	rep, err := sales.ParseRepresentation(os.Getenv("SALES_DATE_REP"))
	if err != nil {
		return Config{}, err
	}
	cfg.SalesDateRep = rep

	return cfg, nil
}

// IsMongo reports whether the connection string selects the Mongo backend.
func (c Config) IsMongo() bool {
	return strings.HasPrefix(c.StoreURI, "mongodb://") || strings.HasPrefix(c.StoreURI, "mongodb+srv://")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
