// Package config loads the server runtime configuration. Precedence from
// lowest to highest: built-in defaults, an optional YAML config file,
// TESTTRACK_* environment variables, command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/qaops/testtrack/internal/datastore"
)

// Config is the resolved server configuration.
type Config struct {
	// ListenAddr is the HTTP listen address, e.g. ":8080".
	ListenAddr string
	// Database selects the storage backend, resolved once at startup.
	Database datastore.Config
	// CORSOrigins lists the origins the API accepts browser calls from.
	CORSOrigins []string
}

const defaultListenAddr = ":8080"

// RegisterFlags declares the server flags on the given flag set. Call Load
// with the same set after parsing.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("listen", defaultListenAddr, "HTTP listen address")
	fs.String("db-type", "", "database engine: sqlite, postgres or mysql (default: inferred from DSN)")
	fs.String("db-dsn", "", "database connection string (default: local SQLite file "+datastore.DefaultDSN+")")
	fs.StringSlice("cors-origins", []string{"*"}, "allowed CORS origins")
	fs.String("config", "", "path to an optional YAML config file")
}

// Load resolves the configuration from defaults, the optional config file,
// the environment and the parsed flags.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("listen", defaultListenAddr)
	v.SetDefault("db-type", "")
	v.SetDefault("db-dsn", "")
	v.SetDefault("cors-origins", []string{"*"})

	v.SetEnvPrefix("TESTTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", file, err)
		}
	}

	return &Config{
		ListenAddr: v.GetString("listen"),
		Database: datastore.Config{
			Type: v.GetString("db-type"),
			DSN:  v.GetString("db-dsn"),
		},
		CORSOrigins: v.GetStringSlice("cors-origins"),
	}, nil
}
