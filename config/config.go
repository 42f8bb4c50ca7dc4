package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Defaults for the vault-relative folder layout. Paths are templates the
// naming layer fills in per meeting.
const (
	DefaultNotesRoot      = "Meetings"
	DefaultAudioRoot      = "Meetings/Audio"
	DefaultTranscriptRoot = "Meetings/Transcripts"
)

// Config is the explicit configuration handed into the application. It is
// constructed once at startup; nothing in the core reads ambient state.
type Config struct {
	VaultDir string

	NotesRoot      string
	AudioRoot      string
	TranscriptRoot string

	KeepAudio      bool
	KeepTranscript bool

	InboxDir  string
	ModelsDir string
	StateDir  string

	WhisperBin   string
	WhisperModel string
	LlamaBin     string
	LlamaModel   string
	DiarizeBin   string // empty disables diarization
	DiarizeArgs  []string

	LogLevel string
}

type fileConfig struct {
	VaultDir       string   `toml:"vault_dir"`
	NotesRoot      string   `toml:"notes_root"`
	AudioRoot      string   `toml:"audio_root"`
	TranscriptRoot string   `toml:"transcript_root"`
	KeepAudio      *bool    `toml:"keep_audio"`
	KeepTranscript *bool    `toml:"keep_transcript"`
	InboxDir       string   `toml:"inbox_dir"`
	ModelsDir      string   `toml:"models_dir"`
	WhisperBin     string   `toml:"whisper_bin"`
	WhisperModel   string   `toml:"whisper_model"`
	LlamaBin       string   `toml:"llama_bin"`
	LlamaModel     string   `toml:"llama_model"`
	DiarizeBin     string   `toml:"diarize_bin"`
	DiarizeArgs    []string `toml:"diarize_args"`
	LogLevel       string   `toml:"log_level"`
}

func Load() (*Config, error) {
	cfg := defaults()

	if configPath := configFilePath(); configPath != "" {
		var fc fileConfig
		if _, err := toml.DecodeFile(configPath, &fc); err != nil {
			return nil, fmt.Errorf("reading %s: %w", configPath, err)
		}
		applyFile(cfg, &fc)
	}

	applyEnvOverrides(cfg)

	for _, dir := range []string{cfg.ModelsDir, cfg.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func defaults() *Config {
	dataDir := defaultDataDir()
	return &Config{
		VaultDir:       filepath.Join(homeOr("."), "vault"),
		NotesRoot:      DefaultNotesRoot,
		AudioRoot:      DefaultAudioRoot,
		TranscriptRoot: DefaultTranscriptRoot,
		KeepAudio:      true,
		KeepTranscript: true,
		InboxDir:       filepath.Join(homeOr("."), "recordings"),
		ModelsDir:      filepath.Join(dataDir, "models"),
		StateDir:       dataDir,
		WhisperBin:     "whisper-cli",
		WhisperModel:   "ggml-base.en.bin",
		LlamaBin:       "llama-cli",
		LlamaModel:     "qwen2.5-3b-instruct-q4.gguf",
		LogLevel:       "info",
	}
}

func applyFile(cfg *Config, fc *fileConfig) {
	if fc.VaultDir != "" {
		cfg.VaultDir = expandTilde(fc.VaultDir)
	}
	if fc.NotesRoot != "" {
		cfg.NotesRoot = fc.NotesRoot
	}
	if fc.AudioRoot != "" {
		cfg.AudioRoot = fc.AudioRoot
	}
	if fc.TranscriptRoot != "" {
		cfg.TranscriptRoot = fc.TranscriptRoot
	}
	if fc.KeepAudio != nil {
		cfg.KeepAudio = *fc.KeepAudio
	}
	if fc.KeepTranscript != nil {
		cfg.KeepTranscript = *fc.KeepTranscript
	}
	if fc.InboxDir != "" {
		cfg.InboxDir = expandTilde(fc.InboxDir)
	}
	if fc.ModelsDir != "" {
		cfg.ModelsDir = expandTilde(fc.ModelsDir)
	}
	if fc.WhisperBin != "" {
		cfg.WhisperBin = fc.WhisperBin
	}
	if fc.WhisperModel != "" {
		cfg.WhisperModel = fc.WhisperModel
	}
	if fc.LlamaBin != "" {
		cfg.LlamaBin = fc.LlamaBin
	}
	if fc.LlamaModel != "" {
		cfg.LlamaModel = fc.LlamaModel
	}
	if fc.DiarizeBin != "" {
		cfg.DiarizeBin = fc.DiarizeBin
		cfg.DiarizeArgs = fc.DiarizeArgs
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MEETSCRIBE_VAULT_DIR"); v != "" {
		cfg.VaultDir = expandTilde(v)
	}
	if v := os.Getenv("MEETSCRIBE_INBOX_DIR"); v != "" {
		cfg.InboxDir = expandTilde(v)
	}
	if v := os.Getenv("MEETSCRIBE_MODELS_DIR"); v != "" {
		cfg.ModelsDir = expandTilde(v)
	}
	if v := os.Getenv("MEETSCRIBE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func configFilePath() string {
	var configDir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		configDir = filepath.Join(xdg, "meetscribe")
	} else if home, err := os.UserHomeDir(); err == nil {
		configDir = filepath.Join(home, ".config", "meetscribe")
	} else {
		return ""
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "meetscribe")
	}
	return filepath.Join(homeOr("."), ".local", "share", "meetscribe")
}

func homeOr(fallback string) string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return fallback
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
