package meeting

import (
	"time"

	"github.com/google/uuid"
)

// RunContext carries everything one pipeline run needs. It is built once by
// the caller and never mutated afterwards; each run owns its own instance.
type RunContext struct {
	ID uuid.UUID

	// Name is the user-supplied meeting name. When set it replaces the
	// extracted (or fallback) title.
	Name string

	// Folder layout relative to the vault root.
	NotesRoot      string
	AudioRoot      string
	TranscriptRoot string

	SourcePath string        // original audio artifact, persisted when KeepAudio
	AudioPath  string        // engine-ready conversion of the source
	Duration   time.Duration // probed length of the source audio

	StartedAt time.Time
	EndedAt   time.Time

	ScratchDir string // working directory for engine intermediates

	KeepAudio      bool
	KeepTranscript bool

	// Ancillary timeline events captured alongside the recording
	// (screen context, chat markers). Folded into the summarizer input.
	Events []TimelineEvent
}

// TimelineEvent is a time-stamped note from outside the audio itself.
type TimelineEvent struct {
	At   time.Time
	Text string
}

// TranscriptSegment is one time-stamped span of transcribed speech.
// Offsets are seconds from the start of the recording.
type TranscriptSegment struct {
	Start float64
	End   float64
	Text  string
}

// SpeakerSegment is one time-stamped span attributed to a speaker by the
// diarization engine.
type SpeakerSegment struct {
	Start   float64
	End     float64
	Speaker int
}

// AttributedSegment is a transcript segment with its assigned speaker.
type AttributedSegment struct {
	TranscriptSegment
	Speaker int
}

// Transcript bundles the full text with its segments.
type Transcript struct {
	Text     string
	Segments []TranscriptSegment
}

// ActionItem is one task extracted from the meeting.
type ActionItem struct {
	Owner string `json:"owner"`
	Task  string `json:"task"`
	Due   string `json:"due"` // ISO date or empty
}

// Extraction is the structured summary produced by the summarizer (or the
// fallback constructor). Every list field is always non-nil, even when empty.
type Extraction struct {
	Title         string       `json:"title"`
	Date          string       `json:"date"` // YYYY-MM-DD
	Summary       string       `json:"summary"`
	Decisions     []string     `json:"decisions"`
	OpenQuestions []string     `json:"openQuestions"`
	KeyPoints     []string     `json:"keyPoints"`
	ActionItems   []ActionItem `json:"actionItems"`
}

// Stage identifies where a run currently is. Stages are strictly ordered and
// never skipped or revisited within one run.
type Stage int

const (
	StageDownloadingModels Stage = iota
	StageTranscribing
	StageSummarizing
	StageWriting
)

func (s Stage) String() string {
	switch s {
	case StageDownloadingModels:
		return "downloading models"
	case StageTranscribing:
		return "transcribing"
	case StageSummarizing:
		return "summarizing"
	case StageWriting:
		return "writing"
	default:
		return "unknown"
	}
}

// Progress band floors per stage. Model downloads occupy [0, 0.1); each later
// stage begins at its floor. Fractions reported to callers are monotonically
// non-decreasing within a run.
const (
	FractionTranscribing = 0.1
	FractionSummarizing  = 0.5
	FractionWriting      = 0.85
)

// Progress is one observation of a running pipeline. Extraction is populated
// only once, when the run enters the writing stage.
type Progress struct {
	Stage      Stage
	Fraction   float64
	Extraction *Extraction
}

// Result is the success outcome of a run. AudioPath is empty when the run's
// KeepAudio flag was false.
type Result struct {
	NotePath  string
	AudioPath string
}
