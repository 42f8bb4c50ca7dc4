package usecases

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetscribe/meetscribe/internal/domain/meeting"
	"github.com/meetscribe/meetscribe/internal/extract"
	"github.com/meetscribe/meetscribe/internal/vault"
)

type fakeModels struct {
	fracs []float64
	err   error
	calls int
}

func (f *fakeModels) EnsureReady(ctx context.Context, onProgress func(float64)) error {
	f.calls++
	for _, fr := range f.fracs {
		onProgress(fr)
	}
	return f.err
}

type fakeTranscriber struct {
	transcript *meeting.Transcript
	err        error
	calls      int
	after      func() // runs after a successful call, before returning
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath, scratchDir string) (*meeting.Transcript, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.after != nil {
		f.after()
	}
	return f.transcript, nil
}

type fakeDiarizer struct {
	segments []meeting.SpeakerSegment
	err      error
}

func (f *fakeDiarizer) Diarize(ctx context.Context, audioPath string) ([]meeting.SpeakerSegment, error) {
	return f.segments, f.err
}

type fakeSummarizer struct {
	out            string
	outErr         error
	repaired       string
	repairErr      error
	summarizeCalls int
	repairCalls    int
	lastTimeline   string
	after          func() // runs after a successful Summarize, before returning
}

func (f *fakeSummarizer) Summarize(ctx context.Context, timeline string, date time.Time) (string, error) {
	f.summarizeCalls++
	f.lastTimeline = timeline
	if f.outErr != nil {
		return "", f.outErr
	}
	if f.after != nil {
		f.after()
	}
	return f.out, nil
}

func (f *fakeSummarizer) RepairJSON(ctx context.Context, raw string) (string, error) {
	f.repairCalls++
	return f.repaired, f.repairErr
}

func defaultTranscript() *meeting.Transcript {
	return &meeting.Transcript{
		Text: "good morning everyone let's get started",
		Segments: []meeting.TranscriptSegment{
			{Start: 0, End: 4, Text: "good morning everyone"},
			{Start: 4, End: 9, Text: "let's get started"},
		},
	}
}

const validSummary = `{"title":"Weekly Sync","date":"2026-08-26","summary":"Planned the release.","decisions":["ship Friday"],"openQuestions":[],"keyPoints":["on track"],"actionItems":[{"owner":"sam","task":"tag the build","due":""}]}`

type fixture struct {
	pipeline    *ProcessMeeting
	models      *fakeModels
	transcriber *fakeTranscriber
	diarizer    *fakeDiarizer
	summarizer  *fakeSummarizer
	vaultDir    string
	run         *meeting.RunContext
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	vaultDir := t.TempDir()
	f := &fixture{
		models:      &fakeModels{fracs: []float64{0.5, 1}},
		transcriber: &fakeTranscriber{transcript: defaultTranscript()},
		diarizer:    &fakeDiarizer{},
		summarizer:  &fakeSummarizer{out: validSummary},
		vaultDir:    vaultDir,
	}
	f.pipeline = &ProcessMeeting{
		Models:      f.models,
		Transcriber: f.transcriber,
		Diarizer:    f.diarizer,
		Summarizer:  f.summarizer,
		Vault:       vault.New(vaultDir, hclog.NewNullLogger()),
		Log:         hclog.NewNullLogger(),
	}
	f.run = &meeting.RunContext{
		ID:             uuid.New(),
		NotesRoot:      "Notes",
		AudioRoot:      "Audio",
		TranscriptRoot: "Transcripts",
		SourcePath:     filepath.Join(t.TempDir(), "missing.wav"),
		AudioPath:      "unused.wav",
		Duration:       9 * time.Second,
		StartedAt:      time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC),
		ScratchDir:     t.TempDir(),
	}
	return f
}

func (f *fixture) readVault(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.vaultDir, rel))
	require.NoError(t, err)
	return string(data)
}

func TestExecute_ValidSummaryFirstTry(t *testing.T) {
	f := newFixture(t)

	result, err := f.pipeline.Execute(context.Background(), f.run, nil)

	require.NoError(t, err)
	assert.Equal(t, 0, f.summarizer.repairCalls, "repair must not run when decode succeeds")
	assert.Equal(t, 1, f.summarizer.summarizeCalls)

	wantNote := filepath.Join("Notes", "2026", "08", "2026-08-26 - Weekly Sync.md")
	assert.Equal(t, wantNote, result.NotePath)
	assert.Empty(t, result.AudioPath)

	note := f.readVault(t, wantNote)
	assert.Contains(t, note, "# Weekly Sync")
	assert.Contains(t, note, "Planned the release.")
	assert.Contains(t, note, "- ship Friday")
}

func TestExecute_UndecodableEvenAfterRepair(t *testing.T) {
	f := newFixture(t)
	f.summarizer.out = "not json"
	f.summarizer.repaired = "still not json"

	result, err := f.pipeline.Execute(context.Background(), f.run, nil)

	require.NoError(t, err, "undecodable JSON self-heals via fallback")
	assert.Equal(t, 1, f.summarizer.repairCalls, "repair runs exactly once")

	note := f.readVault(t, result.NotePath)
	assert.Contains(t, note, "Untitled Meeting 2026-08-26")
	assert.Contains(t, note, extract.FallbackSummary)
}

func TestExecute_RepairSucceeds(t *testing.T) {
	f := newFixture(t)
	f.summarizer.out = "sure! here is the summary:"
	f.summarizer.repaired = validSummary

	result, err := f.pipeline.Execute(context.Background(), f.run, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, f.summarizer.repairCalls)
	assert.Contains(t, f.readVault(t, result.NotePath), "# Weekly Sync")
}

func TestExecute_RepairErrorFallsBack(t *testing.T) {
	f := newFixture(t)
	f.summarizer.out = "not json"
	f.summarizer.repairErr = meeting.Errf(meeting.EngineFailed, "boom")

	result, err := f.pipeline.Execute(context.Background(), f.run, nil)

	require.NoError(t, err, "repair failure is absorbed, never surfaced")
	assert.Contains(t, f.readVault(t, result.NotePath), extract.FallbackSummary)
}

func TestExecute_KeepNothing(t *testing.T) {
	f := newFixture(t)
	f.run.KeepAudio = false
	f.run.KeepTranscript = false

	result, err := f.pipeline.Execute(context.Background(), f.run, nil)

	require.NoError(t, err)
	assert.Empty(t, result.AudioPath)

	note := f.readVault(t, result.NotePath)
	assert.NotContains(t, note, "Audio:")
	assert.NotContains(t, note, "Transcript:")

	_, err = os.Stat(filepath.Join(f.vaultDir, "Audio"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(f.vaultDir, "Transcripts"))
	assert.True(t, os.IsNotExist(err))
}

func TestExecute_KeepEverything(t *testing.T) {
	f := newFixture(t)
	source := filepath.Join(t.TempDir(), "meeting.wav")
	require.NoError(t, os.WriteFile(source, []byte("RIFFfake"), 0o644))
	f.run.SourcePath = source
	f.run.KeepAudio = true
	f.run.KeepTranscript = true
	f.diarizer.segments = []meeting.SpeakerSegment{
		{Start: 0, End: 4, Speaker: 1},
		{Start: 4, End: 9, Speaker: 2},
	}

	result, err := f.pipeline.Execute(context.Background(), f.run, nil)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join("Audio", "2026-08-26 - Weekly Sync.wav"), result.AudioPath)
	assert.Equal(t, "RIFFfake", f.readVault(t, result.AudioPath))

	note := f.readVault(t, result.NotePath)
	assert.Contains(t, note, "[[Audio/2026-08-26 - Weekly Sync.wav]]")
	assert.Contains(t, note, "[[Transcripts/2026-08-26 - Weekly Sync.txt]]")

	transcript := f.readVault(t, filepath.Join("Transcripts", "2026-08-26 - Weekly Sync.txt"))
	assert.Contains(t, transcript, "Speaker 1: good morning everyone")
	assert.Contains(t, transcript, "Speaker 2: let's get started")
}

func TestExecute_DiarizationFailureIsAdvisory(t *testing.T) {
	f := newFixture(t)
	f.run.KeepTranscript = true
	f.diarizer.err = meeting.Errf(meeting.EngineFailed, "diarizer crashed")

	_, err := f.pipeline.Execute(context.Background(), f.run, nil)

	require.NoError(t, err)
	transcript := f.readVault(t, filepath.Join("Transcripts", "2026-08-26 - Weekly Sync.txt"))
	assert.Contains(t, transcript, "Speaker 0:", "default speaker without diarization")
}

func TestExecute_TranscriptionFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.transcriber.err = meeting.Errf(meeting.EngineMissing, "whisper not found")

	_, err := f.pipeline.Execute(context.Background(), f.run, nil)

	require.Error(t, err)
	var merr *meeting.Error
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, meeting.EngineMissing, merr.Kind)
	assert.Equal(t, 0, f.summarizer.summarizeCalls)
}

func TestExecute_SummarizationFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.summarizer.outErr = meeting.Errf(meeting.EngineFailed, "llama exited with code 1")

	_, err := f.pipeline.Execute(context.Background(), f.run, nil)

	require.Error(t, err)
	var merr *meeting.Error
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, meeting.EngineFailed, merr.Kind)
	assert.Equal(t, 0, f.summarizer.repairCalls)
}

func TestExecute_ModelFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.models.err = meeting.Errf(meeting.ModelUnavailable, "download failed")

	_, err := f.pipeline.Execute(context.Background(), f.run, nil)

	require.Error(t, err)
	assert.Equal(t, 0, f.transcriber.calls)
}

func TestExecute_CancelledBeforeStart(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.pipeline.Execute(ctx, f.run, nil)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, f.models.calls)
	assert.Equal(t, 0, f.transcriber.calls)
}

func TestExecute_CancelObservedBetweenStages(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.transcriber.after = cancel // cancellation arrives while transcription finishes

	_, err := f.pipeline.Execute(ctx, f.run, nil)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, f.transcriber.calls, "in-flight call allowed to finish")
	assert.Equal(t, 0, f.summarizer.summarizeCalls, "no further external calls after cancellation")
}

func TestExecute_ProgressBandsAndMonotonicity(t *testing.T) {
	f := newFixture(t)

	var updates []meeting.Progress
	_, err := f.pipeline.Execute(context.Background(), f.run, func(p meeting.Progress) {
		updates = append(updates, p)
	})
	require.NoError(t, err)
	require.NotEmpty(t, updates)

	prev := 0.0
	var extractionSeen int
	for _, u := range updates {
		assert.GreaterOrEqual(t, u.Fraction, prev, "fractions never decrease")
		assert.GreaterOrEqual(t, u.Fraction, 0.0)
		assert.LessOrEqual(t, u.Fraction, 1.0)
		prev = u.Fraction

		switch u.Stage {
		case meeting.StageDownloadingModels:
			assert.Less(t, u.Fraction, meeting.FractionTranscribing)
		case meeting.StageTranscribing:
			assert.GreaterOrEqual(t, u.Fraction, meeting.FractionTranscribing)
			assert.Less(t, u.Fraction, meeting.FractionSummarizing)
		case meeting.StageSummarizing:
			assert.GreaterOrEqual(t, u.Fraction, meeting.FractionSummarizing)
			assert.Less(t, u.Fraction, meeting.FractionWriting)
		case meeting.StageWriting:
			assert.GreaterOrEqual(t, u.Fraction, meeting.FractionWriting)
		}

		if u.Extraction != nil {
			extractionSeen++
			assert.Equal(t, meeting.StageWriting, u.Stage)
		}
	}
	assert.Equal(t, 1, extractionSeen, "extraction reported exactly once, entering writing")

	stages := make([]meeting.Stage, 0, len(updates))
	for _, u := range updates {
		if len(stages) == 0 || stages[len(stages)-1] != u.Stage {
			stages = append(stages, u.Stage)
		}
	}
	assert.Equal(t, []meeting.Stage{
		meeting.StageDownloadingModels,
		meeting.StageTranscribing,
		meeting.StageSummarizing,
		meeting.StageWriting,
	}, stages, "stages strictly ordered, none skipped or revisited")
}

func TestExecute_NameOverridesExtractedTitle(t *testing.T) {
	f := newFixture(t)
	f.run.Name = "Board Review"

	result, err := f.pipeline.Execute(context.Background(), f.run, nil)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join("Notes", "2026", "08", "2026-08-26 - Board Review.md"), result.NotePath)
	assert.Contains(t, f.readVault(t, result.NotePath), "# Board Review")
}

func TestExecute_NameOverridesFallbackTitle(t *testing.T) {
	f := newFixture(t)
	f.run.Name = "Board Review"
	f.summarizer.out = "not json"
	f.summarizer.repaired = "still not json"

	result, err := f.pipeline.Execute(context.Background(), f.run, nil)

	require.NoError(t, err)
	assert.Contains(t, result.NotePath, "2026-08-26 - Board Review.md")

	note := f.readVault(t, result.NotePath)
	assert.Contains(t, note, "# Board Review")
	assert.Contains(t, note, extract.FallbackSummary)
}

func TestExecute_CancelObservedBeforeRepair(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.summarizer.out = "not json"
	f.summarizer.after = cancel // cancellation arrives while summarization finishes

	_, err := f.pipeline.Execute(ctx, f.run, nil)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, f.summarizer.repairCalls, "no repair call after cancellation")
}

func TestExecute_FlatTranscriptTextWhenNoSegments(t *testing.T) {
	f := newFixture(t)
	f.transcriber.transcript = &meeting.Transcript{Text: "raw engine text without offsets"}

	_, err := f.pipeline.Execute(context.Background(), f.run, nil)

	require.NoError(t, err)
	assert.Equal(t, "raw engine text without offsets", f.summarizer.lastTimeline)
}

func TestExecute_InvalidDateInSummaryUsesRecordingDate(t *testing.T) {
	f := newFixture(t)
	f.summarizer.out = `{"title":"Sync","date":"sometime last week","summary":"s"}`

	result, err := f.pipeline.Execute(context.Background(), f.run, nil)

	require.NoError(t, err)
	assert.Contains(t, result.NotePath, "2026-08-26 - Sync.md")
}
