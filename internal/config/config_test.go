package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkarhu/ferry/internal/config"
)

// writeConfig puts content into a fresh config.toml and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFileFull(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFile(writeConfig(t, `
[defaults]
jobs = 16
verify = true
preserve = false
fsync = true
progress = false
bwlimit = "100M"
`))
	require.NoError(t, err)

	require.NotNil(t, cfg.Defaults.Jobs)
	assert.Equal(t, 16, *cfg.Defaults.Jobs)
	require.NotNil(t, cfg.Defaults.Verify)
	assert.True(t, *cfg.Defaults.Verify)
	require.NotNil(t, cfg.Defaults.Preserve)
	assert.False(t, *cfg.Defaults.Preserve)
	require.NotNil(t, cfg.Defaults.Fsync)
	assert.True(t, *cfg.Defaults.Fsync)
	require.NotNil(t, cfg.Defaults.Progress)
	assert.False(t, *cfg.Defaults.Progress)
	require.NotNil(t, cfg.Defaults.BWLimit)
	assert.Equal(t, "100M", *cfg.Defaults.BWLimit)
}

func TestLoadFilePartial(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFile(writeConfig(t, "[defaults]\nverify = true\n"))
	require.NoError(t, err)

	require.NotNil(t, cfg.Defaults.Verify)
	assert.True(t, *cfg.Defaults.Verify)

	// Everything the file does not mention stays nil.
	assert.Nil(t, cfg.Defaults.Jobs)
	assert.Nil(t, cfg.Defaults.Preserve)
	assert.Nil(t, cfg.Defaults.Fsync)
	assert.Nil(t, cfg.Defaults.Progress)
	assert.Nil(t, cfg.Defaults.BWLimit)
}

func TestLoadFileMissing(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Defaults.Jobs)
	assert.Nil(t, cfg.Defaults.BWLimit)
}

func TestLoadFileBadTOML(t *testing.T) {
	t.Parallel()

	_, err := config.LoadFile(writeConfig(t, "defaults = [[["))
	assert.Error(t, err)
}

func TestLoadUsesXDGPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "ferry"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "ferry", "config.toml"),
		[]byte("[defaults]\njobs = 3\n"), 0o644))

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg.Defaults.Jobs)
	assert.Equal(t, 3, *cfg.Defaults.Jobs)
}

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/ferry/config.toml", config.Path())
}
