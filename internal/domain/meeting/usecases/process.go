package usecases

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/meetscribe/meetscribe/internal/attribute"
	"github.com/meetscribe/meetscribe/internal/domain/meeting"
	"github.com/meetscribe/meetscribe/internal/extract"
	"github.com/meetscribe/meetscribe/internal/render"
	"github.com/meetscribe/meetscribe/internal/vault"
)

// Transcriber converts audio into a time-stamped transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, scratchDir string) (*meeting.Transcript, error)
}

// Diarizer reports who spoke when. It is best-effort; the pipeline never
// aborts on its errors.
type Diarizer interface {
	Diarize(ctx context.Context, audioPath string) ([]meeting.SpeakerSegment, error)
}

// Summarizer generates raw text that should contain one JSON object, and can
// attempt to repair malformed output once.
type Summarizer interface {
	Summarize(ctx context.Context, timeline string, date time.Time) (string, error)
	RepairJSON(ctx context.Context, raw string) (string, error)
}

// ModelManager establishes model readiness before the engines run.
type ModelManager interface {
	EnsureReady(ctx context.Context, onProgress func(float64)) error
}

// Committer persists one batch of artifacts atomically per file.
type Committer interface {
	Commit(artifacts vault.Artifacts, paths vault.ArtifactPaths) (*meeting.Result, error)
}

// ProcessMeeting is the pipeline coordinator: it sequences model readiness,
// transcription, diarization, attribution, summarization, extraction and the
// vault commit into one cancellable run.
//
// Cancellation is cooperative: the context is checked before every stage and
// after every external call, so an in-flight engine invocation finishes (or
// is killed by its own context) before cancellation is observed. A cancelled
// run returns the context's error, never a classified failure.
type ProcessMeeting struct {
	Models      ModelManager
	Transcriber Transcriber
	Diarizer    Diarizer
	Summarizer  Summarizer
	Vault       Committer
	Log         hclog.Logger
}

// Execute runs the pipeline once. onProgress may be nil; when set it is
// invoked from the calling goroutine with monotonically non-decreasing
// fractions, and its Extraction is populated exactly once, on entering the
// writing stage.
func (p *ProcessMeeting) Execute(ctx context.Context, run *meeting.RunContext, onProgress func(meeting.Progress)) (*meeting.Result, error) {
	report := func(stage meeting.Stage, fraction float64, ext *meeting.Extraction) {
		if onProgress != nil {
			onProgress(meeting.Progress{Stage: stage, Fraction: fraction, Extraction: ext})
		}
	}
	log := p.Log.With("run", run.ID.String())

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage: model readiness. External progress is rescaled into [0, 0.1).
	log.Info("pipeline starting", "source", run.SourcePath)
	if err := p.Models.EnsureReady(ctx, func(frac float64) {
		report(meeting.StageDownloadingModels, modelBand(frac), nil)
	}); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	// Stage: transcription.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report(meeting.StageTranscribing, meeting.FractionTranscribing, nil)
	transcript, err := p.Transcriber.Transcribe(ctx, run.AudioPath, run.ScratchDir)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	// Diarization is advisory: a failure means no speaker data, not a dead run.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	speakers, err := p.Diarizer.Diarize(ctx, run.AudioPath)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn("diarization unavailable, continuing without speaker data", "error", err)
		speakers = nil
	}
	attributed := attribute.Assign(transcript.Segments, speakers)

	// Stage: summarization.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report(meeting.StageSummarizing, meeting.FractionSummarizing, nil)
	timeline := render.Timeline(attributed, run.Events, run.StartedAt)
	if timeline == "" {
		// No segments and no events: fall back to the engine's flat text so
		// the summarizer still has something to work with.
		timeline = transcript.Text
	}
	raw, err := p.Summarizer.Summarize(ctx, timeline, run.StartedAt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	extraction, err := p.structuredExtraction(ctx, raw, run.StartedAt)
	if err != nil {
		return nil, err
	}
	if run.Name != "" {
		extraction.Title = run.Name
	}

	// Stage: writing.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report(meeting.StageWriting, meeting.FractionWriting, extraction)
	result, err := p.commit(run, extraction, attributed)
	if err != nil {
		return nil, err
	}

	log.Info("pipeline complete", "note", result.NotePath)
	return result, nil
}

// modelBand rescales model-download progress into [0, 0.1). The band is
// half-open: even a completed download reports just under the transcription
// floor, which begins only when that stage is actually entered.
func modelBand(frac float64) float64 {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	v := frac * meeting.FractionTranscribing
	if v >= meeting.FractionTranscribing {
		v = meeting.FractionTranscribing * 0.99
	}
	return v
}

// structuredExtraction coerces raw summarizer output into a valid extraction.
// Decode is attempted once, then RepairJSON is called at most once and decode
// retried; if both fail the deterministic fallback is used. Only cancellation
// can make this path fail.
func (p *ProcessMeeting) structuredExtraction(ctx context.Context, raw string, recordedAt time.Time) (*meeting.Extraction, error) {
	if ext, ok := p.decode(raw, recordedAt); ok {
		return ext, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.Log.Warn("summarizer output is not valid JSON, requesting repair")
	repaired, err := p.Summarizer.RepairJSON(ctx, raw)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.Log.Warn("json repair failed, using fallback extraction", "kind", meeting.JSONInvalid, "error", err)
		return extract.Fallback(recordedAt), nil
	}

	if ext, ok := p.decode(repaired, recordedAt); ok {
		return ext, nil
	}
	p.Log.Warn("repaired output still undecodable, using fallback extraction", "kind", meeting.JSONInvalid)
	return extract.Fallback(recordedAt), nil
}

func (p *ProcessMeeting) decode(raw string, recordedAt time.Time) (*meeting.Extraction, bool) {
	obj, extraneous, ok := extract.FirstObject(raw)
	if !ok {
		return nil, false
	}
	if extraneous {
		p.Log.Debug("summarizer output carried text outside the JSON object")
	}

	var e meeting.Extraction
	if err := json.Unmarshal([]byte(obj), &e); err != nil {
		return nil, false
	}
	extract.Validate(&e, recordedAt)
	return &e, true
}

func (p *ProcessMeeting) commit(run *meeting.RunContext, e *meeting.Extraction, attributed []meeting.AttributedSegment) (*meeting.Result, error) {
	paths := vault.Names(
		run.NotesRoot, run.AudioRoot, run.TranscriptRoot,
		e.Date, e.Title, filepath.Ext(run.SourcePath),
		run.KeepAudio, run.KeepTranscript,
	)

	artifacts := vault.Artifacts{}
	if run.KeepTranscript {
		artifacts.Transcript = []byte(render.TranscriptText(attributed))
	}
	if run.KeepAudio {
		audio, err := os.ReadFile(run.SourcePath)
		if err != nil {
			return nil, &meeting.Error{Kind: meeting.WriteFailed, Msg: "reading source audio", Err: err}
		}
		artifacts.Audio = audio
	}

	// The note references only artifacts this commit will actually write,
	// and it is written last so those references can never dangle.
	artifacts.Note = []byte(render.Note(e, render.NoteOptions{
		AudioPath:      paths.Audio,
		TranscriptPath: paths.Transcript,
		Duration:       run.Duration,
	}))

	return p.Vault.Commit(artifacts, paths)
}
