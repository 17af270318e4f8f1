package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.WriteEnabled)
	assert.False(t, cfg.SymlinksAllowed)
	assert.Equal(t, 10, cfg.MaxFileSizeMB)
	assert.Equal(t, 10*time.Second, cfg.ScriptTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FSGATE_ALLOWED_DIRS", "/srv/data,/srv/shared")
	t.Setenv("FSGATE_WRITE_ENABLED", "true")
	t.Setenv("FSGATE_MAX_FILE_SIZE_MB", "25")
	t.Setenv("FSGATE_SCRIPT_TIMEOUT", "3s")
	t.Setenv("FSGATE_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"/srv/data", "/srv/shared"}, cfg.AllowedDirs)
	assert.True(t, cfg.WriteEnabled)
	assert.Equal(t, 25, cfg.MaxFileSizeMB)
	assert.Equal(t, 3*time.Second, cfg.ScriptTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestApplyFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fsgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
allowed_dirs:
  - /srv/data
write_enabled: true
max_file_size_mb: 5
logging:
  level: warn
`), 0o644))

	cfg := Default()
	require.NoError(t, cfg.ApplyFile(path))

	assert.Equal(t, []string{"/srv/data"}, cfg.AllowedDirs)
	assert.True(t, cfg.WriteEnabled)
	assert.Equal(t, 5, cfg.MaxFileSizeMB)
	assert.Equal(t, "warn", cfg.Logging.Level)
	// Fields absent from the file keep their defaults.
	assert.Equal(t, 10*time.Second, cfg.ScriptTimeout)
	assert.False(t, cfg.SymlinksAllowed)
}

func TestApplyFileErrors(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.ApplyFile(filepath.Join(t.TempDir(), "missing.yaml")))

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("allowed_dirs: [unclosed"), 0o644))
	assert.Error(t, cfg.ApplyFile(path))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.Validate(), "no allowed directories")

	cfg.AllowedDirs = []string{"/srv/data"}
	assert.NoError(t, cfg.Validate())

	cfg.MaxFileSizeMB = 0
	assert.Error(t, cfg.Validate())
	cfg.MaxFileSizeMB = 10

	cfg.ScriptTimeout = 0
	assert.Error(t, cfg.Validate())
}

func TestMaxFileBytes(t *testing.T) {
	cfg := Default()
	cfg.MaxFileSizeMB = 2
	assert.Equal(t, int64(2*1024*1024), cfg.MaxFileBytes())
}
