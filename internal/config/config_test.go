package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears keys for the duration of the test. cleanenv treats a
// variable set to "" as present, so they must be removed outright.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func cleanEnv(t *testing.T) {
	unsetEnv(t, "ENV", "STORAGE_DRIVER", "STORAGE_PATH", "CONFIG_PATH")
}

func TestLoad_Defaults(t *testing.T) {
	cleanEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, &Config{
		Env:     "dev",
		Storage: Storage{Driver: DriverJSON, Path: "school_data.json"},
	}, cfg)
}

func TestLoad_EnvOverrides(t *testing.T) {
	cleanEnv(t)
	t.Setenv("ENV", "prod")
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("STORAGE_PATH", "/tmp/school.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/school.db", cfg.Storage.Path)
}

func TestLoad_File(t *testing.T) {
	cleanEnv(t)
	path := filepath.Join(t.TempDir(), "local.yaml")
	yaml := "env: staging\nstorage:\n  driver: sqlite\n  path: data/school.db\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Env)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "data/school.db", cfg.Storage.Path)

	t.Run("environment beats file", func(t *testing.T) {
		t.Setenv("STORAGE_PATH", "elsewhere.db")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "elsewhere.db", cfg.Storage.Path)
	})
}

func TestLoad_PartialFileUsesDefaults(t *testing.T) {
	cleanEnv(t)
	path := filepath.Join(t.TempDir(), "local.yaml")
	require.NoError(t, os.WriteFile(path, []byte("env: prod\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverJSON, cfg.Storage.Driver)
	assert.Equal(t, "school_data.json", cfg.Storage.Path)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		cleanEnv(t)
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "config file does not exist")
	})

	t.Run("unknown driver", func(t *testing.T) {
		cleanEnv(t)
		t.Setenv("STORAGE_DRIVER", "mongo")
		_, err := Load("")
		assert.ErrorContains(t, err, "invalid config")
	})

	t.Run("unknown env", func(t *testing.T) {
		cleanEnv(t)
		t.Setenv("ENV", "qa")
		_, err := Load("")
		assert.ErrorContains(t, err, "invalid config")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		cleanEnv(t)
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("storage: [unclosed\n"), 0o644))
		_, err := Load(path)
		assert.ErrorContains(t, err, "cannot read config")
	})
}

func TestPath(t *testing.T) {
	cleanEnv(t)
	assert.Equal(t, "", Path(""))
	assert.Equal(t, "flag.yaml", Path("flag.yaml"))

	t.Setenv("CONFIG_PATH", "env.yaml")
	assert.Equal(t, "env.yaml", Path("flag.yaml"))
	assert.Equal(t, "env.yaml", Path(""))
}
