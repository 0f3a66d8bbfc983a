package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newFlagSet(t))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Empty(t, cfg.Database.Type)
	assert.Empty(t, cfg.Database.DSN)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("TESTTRACK_LISTEN", ":9090")
	t.Setenv("TESTTRACK_DB_DSN", "postgres://user:pw@localhost/testtrack")

	cfg, err := Load(newFlagSet(t))
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "postgres://user:pw@localhost/testtrack", cfg.Database.DSN)
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("TESTTRACK_LISTEN", ":9090")

	cfg, err := Load(newFlagSet(t, "--listen", ":7070", "--db-type", "mysql"))
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.ListenAddr)
	assert.Equal(t, "mysql", cfg.Database.Type)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "testtrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: \":6060\"\ndb-type: sqlite\ndb-dsn: /var/lib/testtrack.db\n"), 0o600))

	cfg, err := Load(newFlagSet(t, "--config", path))
	require.NoError(t, err)
	assert.Equal(t, ":6060", cfg.ListenAddr)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "/var/lib/testtrack.db", cfg.Database.DSN)
}

func TestLoadMissingConfigFileFails(t *testing.T) {
	_, err := Load(newFlagSet(t, "--config", "/does/not/exist.yaml"))
	require.Error(t, err)
}
