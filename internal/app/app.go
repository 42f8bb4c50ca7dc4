package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/meetscribe/meetscribe/config"
	"github.com/meetscribe/meetscribe/internal/catalog"
	"github.com/meetscribe/meetscribe/internal/diarize"
	"github.com/meetscribe/meetscribe/internal/domain/meeting"
	"github.com/meetscribe/meetscribe/internal/domain/meeting/usecases"
	"github.com/meetscribe/meetscribe/internal/extract"
	"github.com/meetscribe/meetscribe/internal/media"
	"github.com/meetscribe/meetscribe/internal/models"
	"github.com/meetscribe/meetscribe/internal/summarize"
	"github.com/meetscribe/meetscribe/internal/transcribe"
	"github.com/meetscribe/meetscribe/internal/vault"
)

// App wires the pipeline and its collaborators from configuration.
type App struct {
	Config   *config.Config
	Log      hclog.Logger
	Pipeline *usecases.ProcessMeeting
	Runner   *usecases.Runner
	Models   *models.Manager
	Vault    *vault.Vault
	Catalog  *catalog.Catalog
}

func New(cfg *config.Config, log hclog.Logger) (*App, error) {
	whisperModel := resolveModel(cfg.ModelsDir, cfg.WhisperModel)
	llamaModel := resolveModel(cfg.ModelsDir, cfg.LlamaModel)

	manager := models.NewManager(cfg.ModelsDir, defaultModelSpecs(cfg), log)

	var diarizer usecases.Diarizer = diarize.Disabled{}
	if cfg.DiarizeBin != "" {
		diarizer = diarize.NewCommand(cfg.DiarizeBin, cfg.DiarizeArgs, log)
	}

	v := vault.New(cfg.VaultDir, log)

	cat, err := catalog.Open(filepath.Join(cfg.StateDir, "catalog.db"))
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	return &App{
		Config: cfg,
		Log:    log,
		Pipeline: &usecases.ProcessMeeting{
			Models:      manager,
			Transcriber: transcribe.NewWhisper(cfg.WhisperBin, whisperModel, log),
			Diarizer:    diarizer,
			Summarizer:  summarize.NewLlama(cfg.LlamaBin, llamaModel, log),
			Vault:       v,
			Log:         log.Named("pipeline"),
		},
		Runner:  &usecases.Runner{},
		Models:  manager,
		Vault:   v,
		Catalog: cat,
	}, nil
}

// ProcessOptions are the per-run overrides a command may set.
type ProcessOptions struct {
	Name           string // meeting name, overrides the extracted title
	KeepAudio      *bool
	KeepTranscript *bool
}

// ProcessFile runs the full pipeline for one audio file. Runs are serialized
// through the app's Runner: starting one cancels and waits out any prior run.
func (a *App) ProcessFile(ctx context.Context, sourcePath string, opts ProcessOptions, onProgress func(meeting.Progress)) (*meeting.Result, error) {
	ctx, finish := a.Runner.Begin(ctx)
	defer finish()

	run, cleanup, err := a.buildRun(ctx, sourcePath, opts)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	// Capture the extraction as it enters the writing stage so the catalog
	// can index the run by its title and date.
	var captured *meeting.Extraction
	progress := func(p meeting.Progress) {
		if p.Extraction != nil {
			captured = p.Extraction
		}
		if onProgress != nil {
			onProgress(p)
		}
	}

	result, err := a.Pipeline.Execute(ctx, run, progress)
	if err != nil {
		return nil, err
	}

	a.record(run, captured, result)
	return result, nil
}

// buildRun constructs the immutable context one run owns: a scratch dir, the
// engine-ready audio conversion, and the meeting timestamps. The returned
// cleanup removes the scratch dir.
func (a *App) buildRun(ctx context.Context, sourcePath string, opts ProcessOptions) (*meeting.RunContext, func(), error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return nil, nil, fmt.Errorf("source audio: %w", err)
	}

	scratch, err := os.MkdirTemp("", "meetscribe-*")
	if err != nil {
		return nil, nil, fmt.Errorf("creating scratch dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(scratch) }

	converted, err := media.PrepareAudio(ctx, sourcePath, scratch)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("preparing audio: %w", err)
	}

	duration, err := media.Duration(converted)
	if err != nil {
		a.Log.Warn("could not probe audio duration", "error", err)
		duration = 0
	}

	// The file's modification time approximates when the meeting ended; the
	// recording started one duration earlier.
	endedAt := info.ModTime()
	startedAt := endedAt.Add(-duration)

	run := &meeting.RunContext{
		ID:             uuid.New(),
		Name:           opts.Name,
		NotesRoot:      a.Config.NotesRoot,
		AudioRoot:      a.Config.AudioRoot,
		TranscriptRoot: a.Config.TranscriptRoot,
		SourcePath:     sourcePath,
		AudioPath:      converted,
		Duration:       duration,
		StartedAt:      startedAt,
		EndedAt:        endedAt,
		ScratchDir:     scratch,
		KeepAudio:      a.Config.KeepAudio,
		KeepTranscript: a.Config.KeepTranscript,
		Events:         loadSidecarEvents(sourcePath, a.Log),
	}
	if opts.KeepAudio != nil {
		run.KeepAudio = *opts.KeepAudio
	}
	if opts.KeepTranscript != nil {
		run.KeepTranscript = *opts.KeepTranscript
	}
	return run, cleanup, nil
}

func (a *App) record(run *meeting.RunContext, e *meeting.Extraction, result *meeting.Result) {
	entry := catalog.Entry{
		ID:          run.ID.String(),
		NotePath:    result.NotePath,
		AudioPath:   result.AudioPath,
		DurationSec: run.Duration.Seconds(),
	}
	if e != nil {
		entry.Title = e.Title
		entry.Date = e.Date
		entry.Fallback = e.Summary == extract.FallbackSummary
	}
	if err := a.Catalog.Record(entry); err != nil {
		a.Log.Warn("could not record run in catalog", "error", err)
	}
}

// loadSidecarEvents reads ancillary timeline events from an optional
// "<source>.events.json" file: a JSON array of {"at": RFC3339, "text": ...}.
func loadSidecarEvents(sourcePath string, log hclog.Logger) []meeting.TimelineEvent {
	data, err := os.ReadFile(sourcePath + ".events.json")
	if err != nil {
		return nil
	}

	var raw []struct {
		At   time.Time `json:"at"`
		Text string    `json:"text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Warn("ignoring malformed events sidecar", "file", sourcePath+".events.json", "error", err)
		return nil
	}

	events := make([]meeting.TimelineEvent, 0, len(raw))
	for _, r := range raw {
		events = append(events, meeting.TimelineEvent{At: r.At, Text: r.Text})
	}
	return events
}

func resolveModel(modelsDir, model string) string {
	if model == "" || filepath.IsAbs(model) {
		return model
	}
	return filepath.Join(modelsDir, model)
}

func defaultModelSpecs(cfg *config.Config) []models.Spec {
	var specs []models.Spec
	if !filepath.IsAbs(cfg.WhisperModel) && cfg.WhisperModel != "" {
		specs = append(specs, models.Spec{
			Name: cfg.WhisperModel,
			URL:  "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/" + cfg.WhisperModel,
		})
	}
	if !filepath.IsAbs(cfg.LlamaModel) && cfg.LlamaModel != "" {
		specs = append(specs, models.Spec{
			Name: cfg.LlamaModel,
			URL:  "https://huggingface.co/Qwen/Qwen2.5-3B-Instruct-GGUF/resolve/main/" + cfg.LlamaModel,
		})
	}
	return specs
}
