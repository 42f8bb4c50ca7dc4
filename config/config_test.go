package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("MEETSCRIBE_VAULT_DIR", "")
	t.Setenv("MEETSCRIBE_INBOX_DIR", "")
	t.Setenv("MEETSCRIBE_MODELS_DIR", "")
	t.Setenv("MEETSCRIBE_LOG_LEVEL", "")
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "vault"), cfg.VaultDir)
	assert.Equal(t, DefaultNotesRoot, cfg.NotesRoot)
	assert.Equal(t, DefaultAudioRoot, cfg.AudioRoot)
	assert.Equal(t, DefaultTranscriptRoot, cfg.TranscriptRoot)
	assert.True(t, cfg.KeepAudio)
	assert.True(t, cfg.KeepTranscript)
	assert.Empty(t, cfg.DiarizeBin)

	info, err := os.Stat(cfg.ModelsDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir(), "models dir created on load")
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := isolate(t)

	confDir := filepath.Join(dir, "config", "meetscribe")
	require.NoError(t, os.MkdirAll(confDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(confDir, "config.toml"), []byte(`
vault_dir = "/data/vault"
notes_root = "Notes"
keep_audio = false
diarize_bin = "diarize"
diarize_args = ["--format", "json"]
log_level = "debug"
`), 0o644))

	t.Setenv("MEETSCRIBE_VAULT_DIR", "/env/vault")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/env/vault", cfg.VaultDir, "env wins over file")
	assert.Equal(t, "Notes", cfg.NotesRoot)
	assert.False(t, cfg.KeepAudio)
	assert.True(t, cfg.KeepTranscript, "unset keeps default")
	assert.Equal(t, "diarize", cfg.DiarizeBin)
	assert.Equal(t, []string{"--format", "json"}, cfg.DiarizeArgs)
	assert.Equal(t, "debug", cfg.LogLevel)
}
